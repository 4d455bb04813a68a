package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatINR formats a float64 amount into Indian Rupee notation.
// It uses the Indian numbering system where, after the rightmost 3 digits,
// digits are grouped in pairs (e.g., ₹1,23,45,678.90).
// The result always includes exactly 2 decimal places.
func FormatINR(amount float64) string {
	if amount < 0 {
		return "-₹" + FormatGrouped(-amount)
	}
	return "₹" + FormatGrouped(amount)
}

// FormatGrouped formats a non-negative amount with 2 decimal places and
// Indian digit grouping, without a currency symbol (e.g., 10,00,000.00).
// This is the form used in document tables and the cost summary.
func FormatGrouped(amount float64) string {
	negative := false
	if amount < 0 {
		negative = true
		amount = -amount
	}

	// Format with 2 decimal places.
	raw := fmt.Sprintf("%.2f", RoundCurrency(amount))

	// Split into integer and decimal parts.
	parts := strings.SplitN(raw, ".", 2)
	intPart := parts[0]
	decPart := parts[1]

	result := applyIndianGrouping(intPart) + "." + decPart
	if negative {
		result = "-" + result
	}
	return result
}

// FormatQuantity returns a string representation of the quantity value.
// Whole numbers are formatted without decimals; fractional values get 2 decimal places.
func FormatQuantity(qty float64) string {
	if qty == math.Trunc(qty) {
		return fmt.Sprintf("%.0f", qty)
	}
	return fmt.Sprintf("%.2f", qty)
}

// formatScratchNumber seeds an edit field with the shortest exact form.
func formatScratchNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// applyIndianGrouping inserts commas into an integer string using the
// Indian numbering system: the rightmost 3 digits form the first group,
// then every 2 digits form subsequent groups.
func applyIndianGrouping(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	// The last 3 digits stay together.
	result := s[n-3:]
	remaining := s[:n-3]

	// Group remaining digits in pairs from the right.
	for len(remaining) > 2 {
		result = remaining[len(remaining)-2:] + "," + result
		remaining = remaining[:len(remaining)-2]
	}
	if len(remaining) > 0 {
		result = remaining + "," + result
	}

	return result
}
