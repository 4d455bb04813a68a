package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"boqwizard/services"
)

// HandleImportBOQ replaces the session's ledger with the line items of an
// uploaded CSV or XLSX sheet. Rows with errors are skipped and reported.
// Route: POST /wizard/import
func HandleImportBOQ(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		sess, err := requireSession(e)
		if sess == nil {
			return err
		}

		if err := e.Request.ParseMultipartForm(maxUploadMemory); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid upload")
		}
		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Please select a file to upload")
		}
		defer file.Close()

		result, err := services.ImportLedgerFile(file, header.Filename)
		if err != nil {
			log.Printf("import_boq: %s: %v", header.Filename, err)
			switch {
			case errors.Is(err, services.ErrUnsupportedFormat):
				return ErrorToast(e, http.StatusBadRequest, "Unsupported file format. Please upload a .csv or .xlsx file.")
			case errors.Is(err, services.ErrNoHeaderRow):
				return ErrorToast(e, http.StatusBadRequest, "No BOQ header row found. Expected columns such as Description, Qty and Rate.")
			case errors.Is(err, services.ErrNoItems) && result != nil:
				if isHTMX(e) {
					return ErrorToast(e, http.StatusUnprocessableEntity, "The file contains no valid line items.")
				}
				return e.JSON(http.StatusUnprocessableEntity, result)
			default:
				return ErrorToast(e, http.StatusBadRequest, "Could not read the file.")
			}
		}

		l := services.NewLedger(result.Items)
		sess.ExtractedItems = nil
		sess.SetLedger(l)
		sess.GeneratedDate = d.now()
		if err := d.Sessions.Save(sess); err != nil {
			log.Printf("import_boq: could not save session: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		if result.ErrorRows > 0 {
			SetToast(e, "warning", "Imported with skipped rows")
		} else {
			SetToast(e, "success", "BOQ imported")
		}
		if isHTMX(e) {
			return respondLedger(e, sess, l)
		}
		return e.JSON(http.StatusOK, map[string]any{
			"import": result,
			"ledger": newLedgerPayload(sess, l),
		})
	}
}
