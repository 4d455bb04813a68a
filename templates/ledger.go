// Package templates renders the HTMX partials of the BOQ wizard.
package templates

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// DraftView holds the scratch values of the row being edited.
type DraftView struct {
	Description    string
	Specifications string
	Materials      string
	Unit           string
	Quantity       string
	Rate           string
}

// LedgerRowView is one display row of the BOQ table.
type LedgerRowView struct {
	ID             int
	Description    string
	Specifications string
	Materials      string
	Unit           string
	Quantity       string
	Rate           string
	Amount         string
	Editing        bool
	// ReadOnly rows (the contingency line) offer no edit action.
	ReadOnly bool
	Draft    DraftView
}

// LedgerView is the data for the BOQ table partial.
type LedgerView struct {
	ReferenceNumber string
	Rows            []LedgerRowView
	Subtotal        string
	Tax             string
	TaxLabel        string
	GrandTotal      string
	ContingencyNote string
	Units           []string
}

var ledgerHeaders = []string{"S.No", "Description", "Specifications", "Materials", "Unit", "Qty", "Rate", "Amount", ""}

func rowID(id int) string { return fmt.Sprintf("boq-item-%d", id) }

func itemURL(id int, action string) string {
	return fmt.Sprintf("/wizard/boq/items/%d/%s", id, action)
}

// fieldVals is the hx-vals payload naming the draft field a control edits.
func fieldVals(field string) string {
	b, _ := json.Marshal(map[string]string{"field": field})
	return string(b)
}

func rowCells(r LedgerRowView) []string {
	return []string{
		fmt.Sprint(r.ID), r.Description, r.Specifications, r.Materials,
		r.Unit, r.Quantity, r.Rate, r.Amount,
	}
}

func unitListed(units []string, unit string) bool { return slices.Contains(units, unit) }

func uploadStatusClass(isError bool) string {
	if isError {
		return "upload-status error"
	}
	return "upload-status"
}

func resetTrigger(d time.Duration) string {
	return fmt.Sprintf("load delay:%dms", d.Milliseconds())
}
