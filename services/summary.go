package services

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// GSTRate is the flat goods and services tax applied to the BOQ subtotal.
const GSTRate = 0.18

// CostSummary is the derived roll-up shown under the line-item table and in
// the exported document.
//
// The contingency line is part of the ledger, so Subtotal already contains
// it exactly once: Subtotal = ItemsSubtotal + Contingency. GST is charged on
// Subtotal and nothing else is layered on top.
type CostSummary struct {
	ItemsSubtotal   float64 `json:"itemsSubtotal"`
	Contingency     float64 `json:"contingency"`
	Subtotal        float64 `json:"subtotal"`
	Tax             float64 `json:"tax"`
	GrandTotal      float64 `json:"grandTotal"`
	ContingencyNote string  `json:"contingencyNote,omitempty"`
}

// Summarize computes the cost summary of a ledger's items. All figures are
// rounded to 2 decimal places.
func Summarize(items []LineItem) CostSummary {
	others, ci := splitContingency(items)

	itemsSubtotal := toDecimal(SumAmounts(others))
	contingency := decimal.Zero
	if ci >= 0 {
		contingency = toDecimal(items[ci].Amount)
	}
	subtotal := itemsSubtotal.Add(contingency).Round(2)
	tax := subtotal.Mul(decimal.NewFromFloat(GSTRate)).Round(2)

	s := CostSummary{
		ItemsSubtotal: itemsSubtotal.Round(2).InexactFloat64(),
		Contingency:   contingency.Round(2).InexactFloat64(),
		Subtotal:      subtotal.InexactFloat64(),
		Tax:           tax.InexactFloat64(),
		GrandTotal:    subtotal.Add(tax).InexactFloat64(),
	}
	if ci >= 0 {
		s.ContingencyNote = fmt.Sprintf("Includes contingency of %s (%.0f%% of %s)",
			FormatGrouped(s.Contingency), ContingencyRate*100, FormatGrouped(s.ItemsSubtotal))
	}
	return s
}

// splitContingency returns every item except the contingency line, and the
// index of the contingency line in items (-1 when absent). Only the first
// item carrying the marker counts as the contingency line. Any later marked
// item, such as a second contingency row in an imported or extracted sheet,
// is an ordinary line: it is part of the subtotal and of the 5% base.
func splitContingency(items []LineItem) ([]LineItem, int) {
	ci := -1
	others := make([]LineItem, 0, len(items))
	for i, it := range items {
		if ci < 0 && it.IsContingency() {
			ci = i
			continue
		}
		others = append(others, it)
	}
	return others, ci
}
