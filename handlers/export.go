package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"boqwizard/services"
)

// exportData builds the export view of the session's ledger, writing a
// response itself when there is nothing to export.
func exportData(e *core.RequestEvent) (services.ExportData, bool, error) {
	sess, err := requireSession(e)
	if sess == nil {
		return services.ExportData{}, false, err
	}
	data, ok := sess.ExportData()
	if !ok {
		return services.ExportData{}, false, ErrorToast(e, http.StatusConflict, "Generate the BOQ first.")
	}
	return data, true, nil
}

// HandleExportExcel returns a handler that generates and downloads the BOQ
// as an Excel file.
// Route: GET /wizard/boq/export/excel
func HandleExportExcel() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		data, ok, err := exportData(e)
		if !ok {
			return err
		}

		xlsxBytes, err := services.GenerateExcel(data)
		if err != nil {
			log.Printf("export_excel: failed to generate: %v", err)
			return e.String(http.StatusInternalServerError, "Failed to generate Excel file")
		}

		e.Response.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, data.Filename(".xlsx")))
		_, err = e.Response.Write(xlsxBytes)
		return err
	}
}

// HandleExportPDF returns a handler that generates and downloads the BOQ as
// a watermarked PDF.
// Route: GET /wizard/boq/export/pdf
func HandleExportPDF() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		data, ok, err := exportData(e)
		if !ok {
			return err
		}

		pdfBytes, err := services.GeneratePDF(data)
		if err != nil {
			log.Printf("export_pdf: failed to generate: %v", err)
			return e.String(http.StatusInternalServerError, "Failed to generate PDF file")
		}

		e.Response.Header().Set("Content-Type", "application/pdf")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, data.Filename(".pdf")))
		_, err = e.Response.Write(pdfBytes)
		return err
	}
}
