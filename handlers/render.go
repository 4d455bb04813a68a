package handlers

import (
	"fmt"
	"net/http"

	"github.com/a-h/templ"
	"github.com/pocketbase/pocketbase/core"

	"boqwizard/services"
	"boqwizard/templates"
)

func isHTMX(e *core.RequestEvent) bool {
	return e.Request.Header.Get("HX-Request") == "true"
}

// respond renders the templ partial for HTMX requests and the JSON payload
// for everything else.
func respond(e *core.RequestEvent, status int, partial templ.Component, payload any) error {
	if isHTMX(e) && partial != nil {
		e.Response.Header().Set("Content-Type", "text/html; charset=utf-8")
		e.Response.WriteHeader(status)
		return partial.Render(e.Request.Context(), e.Response)
	}
	return e.JSON(status, payload)
}

// validationFailed reports field errors: a toast for HTMX, a 422 JSON body
// otherwise.
func validationFailed(e *core.RequestEvent, errs map[string]string) error {
	if isHTMX(e) {
		msg := "Please correct the highlighted fields"
		for field, m := range errs {
			msg = fmt.Sprintf("%s %s", field, m)
			break
		}
		return ErrorToast(e, http.StatusUnprocessableEntity, msg)
	}
	return e.JSON(http.StatusUnprocessableEntity, map[string]any{"errors": errs})
}

// ledgerPayload is the JSON form of the ledger view.
type ledgerPayload struct {
	ReferenceNumber string              `json:"referenceNumber"`
	Items           []services.LineItem `json:"items"`
	EditingID       int                 `json:"editingId,omitempty"`
	Draft           *services.Draft     `json:"draft,omitempty"`
	TotalAmount     float64             `json:"totalAmount"`
	Summary         summaryPayload      `json:"summary"`
}

type summaryPayload struct {
	services.CostSummary
	Formatted map[string]string `json:"formatted"`
}

func newLedgerPayload(sess *services.Session, l *services.Ledger) ledgerPayload {
	sum := l.Summary()
	p := ledgerPayload{
		ReferenceNumber: sess.ReferenceNumber,
		Items:           l.Items(),
		EditingID:       l.EditingID(),
		TotalAmount:     l.TotalAmount(),
		Summary: summaryPayload{
			CostSummary: sum,
			Formatted: map[string]string{
				"subtotal":   services.FormatINR(sum.Subtotal),
				"tax":        services.FormatINR(sum.Tax),
				"grandTotal": services.FormatINR(sum.GrandTotal),
			},
		},
	}
	if d, ok := l.Draft(); ok {
		p.Draft = &d
	}
	return p
}

func newLedgerView(sess *services.Session, l *services.Ledger) templates.LedgerView {
	sum := l.Summary()
	v := templates.LedgerView{
		ReferenceNumber: sess.ReferenceNumber,
		Subtotal:        services.FormatINR(sum.Subtotal),
		Tax:             services.FormatINR(sum.Tax),
		TaxLabel:        fmt.Sprintf("GST (%.0f%%)", services.GSTRate*100),
		GrandTotal:      services.FormatINR(sum.GrandTotal),
		ContingencyNote: sum.ContingencyNote,
		Units:           services.UnitOptions,
	}
	for _, r := range l.Rows() {
		it := r.Item
		v.Rows = append(v.Rows, templates.LedgerRowView{
			ID:             it.ID,
			Description:    it.Description,
			Specifications: it.Specifications,
			Materials:      it.Materials,
			Unit:           it.Unit,
			Quantity:       services.FormatQuantity(it.Quantity),
			Rate:           services.FormatGrouped(it.Rate),
			Amount:         services.FormatGrouped(it.Amount),
			Editing:        r.Editing,
			ReadOnly:       it.IsContingency(),
			Draft: templates.DraftView{
				Description:    r.Draft.Description,
				Specifications: r.Draft.Specifications,
				Materials:      r.Draft.Materials,
				Unit:           r.Draft.Unit,
				Quantity:       r.Draft.Quantity,
				Rate:           r.Draft.Rate,
			},
		})
	}
	return v
}

// respondLedger writes the ledger table partial or its JSON payload.
func respondLedger(e *core.RequestEvent, sess *services.Session, l *services.Ledger) error {
	return respond(e, http.StatusOK, templates.LedgerTable(newLedgerView(sess, l)), newLedgerPayload(sess, l))
}
