package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/pocketbase/pocketbase/core"

	"boqwizard/services"
)

// HandleGenerateBOQ prices the session's project and replaces its ledger.
// Route: POST /wizard/boq/generate
func HandleGenerateBOQ(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		sess, err := requireSession(e)
		if sess == nil {
			return err
		}
		if !sess.ProjectType.Known() {
			return ErrorToast(e, http.StatusConflict, "Select a project type first.")
		}

		l := sess.GenerateLedger(d.Rules, d.now())
		if err := d.Sessions.Save(sess); err != nil {
			log.Printf("generate_boq: could not save session: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		return respondLedger(e, sess, l)
	}
}

// HandleViewBOQ shows the session's ledger, creating it on first view from
// extracted items or the pricing rules.
// Route: GET /wizard/boq
func HandleViewBOQ(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		sess, err := requireSession(e)
		if sess == nil {
			return err
		}

		created := sess.Ledger == nil || len(sess.ExtractedItems) > 0
		l := sess.EnsureLedger(d.Rules, d.now())
		if created {
			if err := d.Sessions.Save(sess); err != nil {
				log.Printf("view_boq: could not save session: %v", err)
				return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
			}
		}
		return respondLedger(e, sess, l)
	}
}

// ledgerAction is one edit operation applied to the open ledger.
type ledgerAction func(e *core.RequestEvent, l *services.Ledger, id int) error

// handleLedgerAction loads the ledger, applies action to the item named by
// the {id} path value, persists the result and re-renders the table.
func handleLedgerAction(d *Deps, name string, action ledgerAction) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		sess, err := requireSession(e)
		if sess == nil {
			return err
		}
		id, err := strconv.Atoi(e.Request.PathValue("id"))
		if err != nil || id <= 0 {
			return ErrorToast(e, http.StatusBadRequest, "Invalid item ID")
		}

		l := sess.OpenLedger()
		if l == nil {
			return ErrorToast(e, http.StatusConflict, "Generate the BOQ first.")
		}

		if err := action(e, l, id); err != nil {
			log.Printf("%s: item %d: %v", name, id, err)
			return ledgerError(e, err)
		}

		sess.SetLedger(l)
		if err := d.Sessions.Save(sess); err != nil {
			log.Printf("%s: could not save session: %v", name, err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		return respondLedger(e, sess, l)
	}
}

func ledgerError(e *core.RequestEvent, err error) error {
	switch {
	case errors.Is(err, services.ErrItemNotFound):
		return ErrorToast(e, http.StatusNotFound, "Item not found")
	case errors.Is(err, services.ErrContingencyReadOnly):
		return ErrorToast(e, http.StatusConflict, "The contingency line is calculated automatically.")
	case errors.Is(err, services.ErrNotEditing):
		return ErrorToast(e, http.StatusConflict, "This item is not being edited.")
	case errors.Is(err, services.ErrUnknownField):
		return ErrorToast(e, http.StatusBadRequest, "Unknown field")
	default:
		return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
}

// HandleBeginEdit puts an item into edit mode.
// Route: POST /wizard/boq/items/{id}/edit
func HandleBeginEdit(d *Deps) func(*core.RequestEvent) error {
	return handleLedgerAction(d, "begin_edit", func(_ *core.RequestEvent, l *services.Ledger, id int) error {
		return l.BeginEdit(id)
	})
}

// HandleUpdateField changes one draft field of the item being edited. The
// form carries "field" and "value".
// Route: POST /wizard/boq/items/{id}/field
func HandleUpdateField(d *Deps) func(*core.RequestEvent) error {
	return handleLedgerAction(d, "update_field", func(e *core.RequestEvent, l *services.Ledger, id int) error {
		field, err := services.ParseEditableField(e.Request.FormValue("field"))
		if err != nil {
			return err
		}
		return l.UpdateField(id, field, e.Request.FormValue("value"))
	})
}

// HandleCommitEdit saves the draft and recomputes the totals.
// Route: POST /wizard/boq/items/{id}/commit
func HandleCommitEdit(d *Deps) func(*core.RequestEvent) error {
	return handleLedgerAction(d, "commit_edit", func(e *core.RequestEvent, l *services.Ledger, id int) error {
		if err := l.Commit(id); err != nil {
			return err
		}
		SetToast(e, "success", "Item updated")
		return nil
	})
}

// HandleCancelEdit discards the draft.
// Route: POST /wizard/boq/items/{id}/cancel
func HandleCancelEdit(d *Deps) func(*core.RequestEvent) error {
	return handleLedgerAction(d, "cancel_edit", func(_ *core.RequestEvent, l *services.Ledger, id int) error {
		return l.CancelEdit(id)
	})
}
