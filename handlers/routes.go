package handlers

import (
	"github.com/pocketbase/pocketbase/core"
)

// RegisterRoutes binds the session middleware and every wizard route.
func RegisterRoutes(se *core.ServeEvent, d *Deps) {
	se.Router.BindFunc(SessionMiddleware(d))

	// ── Wizard steps ─────────────────────────────────────────
	se.Router.POST("/wizard", HandleWizardStart(d))
	se.Router.GET("/wizard", HandleWizardState(d))
	se.Router.POST("/wizard/project-type", HandleProjectType(d))
	se.Router.POST("/wizard/details", HandleProjectDetails(d))
	se.Router.POST("/wizard/category", HandleCategory(d))

	// ── Ledger ───────────────────────────────────────────────
	se.Router.POST("/wizard/boq/generate", HandleGenerateBOQ(d))
	se.Router.GET("/wizard/boq", HandleViewBOQ(d))
	se.Router.POST("/wizard/boq/items/{id}/edit", HandleBeginEdit(d))
	se.Router.POST("/wizard/boq/items/{id}/field", HandleUpdateField(d))
	se.Router.POST("/wizard/boq/items/{id}/commit", HandleCommitEdit(d))
	se.Router.POST("/wizard/boq/items/{id}/cancel", HandleCancelEdit(d))

	// ── Image extraction and spreadsheet import ──────────────
	se.Router.POST("/wizard/upload", HandleUpload(d))
	se.Router.GET("/wizard/upload/reset", HandleUploadReset())
	se.Router.POST("/wizard/import", HandleImportBOQ(d))

	// ── Export ───────────────────────────────────────────────
	se.Router.GET("/wizard/boq/export/excel", HandleExportExcel())
	se.Router.GET("/wizard/boq/export/pdf", HandleExportPDF())

	se.Router.GET("/meta/options", HandleOptions())
}
