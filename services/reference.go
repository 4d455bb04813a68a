package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
)

// GetFiscalYear returns the Indian fiscal year string for a given date.
// Indian fiscal year runs April to March.
// Jan 2026 → "25-26", May 2026 → "26-27"
func GetFiscalYear(t time.Time) string {
	year := t.Year()
	month := t.Month()

	var startYear int
	if month >= time.April {
		startYear = year
	} else {
		startYear = year - 1
	}
	endYear := startYear + 1

	return fmt.Sprintf("%02d-%02d", startYear%100, endYear%100)
}

// formatReferenceNumber constructs the BOQ reference from its components.
func formatReferenceNumber(fiscalYear string, sequence int) string {
	return fmt.Sprintf("BOQ-%s-%03d", fiscalYear, sequence)
}

// NextReferenceNumber returns the next BOQ reference for the fiscal year of now.
// Format: BOQ-{fiscal_year}-{sequence}
//   - fiscal_year: Indian fiscal year (Apr-Mar), e.g., "25-26"
//   - sequence: 3-digit zero-padded, one past the highest sequence still
//     stored this year; gaps left by deleted sessions are not refilled
func NextReferenceNumber(app *pocketbase.PocketBase, now time.Time) (string, error) {
	fiscalYear := GetFiscalYear(now)
	prefix := fmt.Sprintf("BOQ-%s-", fiscalYear)

	existing, err := app.FindRecordsByFilter(
		SessionsCollection,
		"reference_number ~ {:prefix}",
		"",
		0,
		0,
		map[string]any{"prefix": prefix + "%"},
	)
	if err != nil {
		// A missing collection or no matches starts the sequence at 1.
		existing = nil
	}

	highest := 0
	for _, r := range existing {
		if seq := referenceSequence(r.GetString("reference_number"), prefix); seq > highest {
			highest = seq
		}
	}
	return formatReferenceNumber(fiscalYear, highest+1), nil
}

// referenceSequence returns the numeric suffix of ref, or 0 when ref does not
// start with prefix or has no numeric suffix.
func referenceSequence(ref, prefix string) int {
	if !strings.HasPrefix(ref, prefix) {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(ref, prefix))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
