package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"

	"boqwizard/services"
)

// sessionPayload is the JSON view of the wizard state.
type sessionPayload struct {
	ReferenceNumber string                      `json:"referenceNumber"`
	ProjectType     services.ProjectType        `json:"projectType,omitempty"`
	Details         services.ProjectDetails     `json:"projectDetails"`
	Category        *services.CategorySelection `json:"category,omitempty"`
	PendingItems    int                         `json:"pendingItems"`
	HasLedger       bool                        `json:"hasLedger"`
}

func newSessionPayload(sess *services.Session) sessionPayload {
	return sessionPayload{
		ReferenceNumber: sess.ReferenceNumber,
		ProjectType:     sess.ProjectType,
		Details:         sess.Details,
		Category:        sess.Category,
		PendingItems:    len(sess.ExtractedItems),
		HasLedger:       sess.Ledger != nil,
	}
}

// HandleWizardStart creates a new wizard session and sets its cookie.
// Route: POST /wizard
func HandleWizardStart(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		sess, err := d.Sessions.Create(d.now())
		if err != nil {
			log.Printf("wizard_start: could not create session: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		setSessionCookie(e, sess.Token)

		if isHTMX(e) {
			e.Response.Header().Set("HX-Redirect", "/wizard")
			return e.NoContent(http.StatusOK)
		}
		return e.JSON(http.StatusCreated, newSessionPayload(sess))
	}
}

// HandleWizardState returns the current wizard state.
// Route: GET /wizard
func HandleWizardState(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		sess, err := requireSession(e)
		if sess == nil {
			return err
		}
		return e.JSON(http.StatusOK, newSessionPayload(sess))
	}
}

// HandleProjectType records the chosen project type. Changing the type
// clears details that only the previous form collected.
// Route: POST /wizard/project-type
func HandleProjectType(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		sess, err := requireSession(e)
		if sess == nil {
			return err
		}

		raw := strings.TrimSpace(e.Request.FormValue("projectType"))
		pt := services.ParseProjectType(raw)
		if !pt.Known() {
			return validationFailed(e, map[string]string{"projectType": "must be one of residential, commercial, industrial, hospitality"})
		}

		if sess.ProjectType != pt {
			sess.Details = services.ProjectDetails{}
		}
		sess.ProjectType = pt
		sess.Details["projectType"] = string(pt)

		if err := d.Sessions.Save(sess); err != nil {
			log.Printf("project_type: could not save session: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		return e.JSON(http.StatusOK, newSessionPayload(sess))
	}
}

// HandleProjectDetails validates and stores the details form of the chosen
// project type. Every submitted form field is kept in the details bag.
// Route: POST /wizard/details
func HandleProjectDetails(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		sess, err := requireSession(e)
		if sess == nil {
			return err
		}
		if !sess.ProjectType.Known() {
			return ErrorToast(e, http.StatusConflict, "Select a project type first.")
		}
		if err := e.Request.ParseForm(); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid form data")
		}

		details := services.ProjectDetails{"projectType": string(sess.ProjectType)}
		for key, values := range e.Request.PostForm {
			if key == "projectType" || len(values) == 0 {
				continue
			}
			details[key] = strings.TrimSpace(values[0])
		}

		if errs := services.ValidateDetails(sess.ProjectType, details); len(errs) > 0 {
			return validationFailed(e, errs)
		}

		sess.Details = details
		if err := d.Sessions.Save(sess); err != nil {
			log.Printf("project_details: could not save session: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		return e.JSON(http.StatusOK, newSessionPayload(sess))
	}
}

// HandleCategory records the pricing category.
// Route: POST /wizard/category
func HandleCategory(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		sess, err := requireSession(e)
		if sess == nil {
			return err
		}

		sel := services.CategorySelection{
			Category: services.ParseCategory(e.Request.FormValue("category")),
		}
		if raw := strings.TrimSpace(e.Request.FormValue("customRate")); raw != "" {
			rate, err := cast.ToFloat64E(raw)
			if err != nil {
				return validationFailed(e, map[string]string{"customRate": "must be a number"})
			}
			sel.CustomRate = rate
		}
		if errs := services.ValidateCategory(sel); len(errs) > 0 {
			return validationFailed(e, errs)
		}

		sess.Category = &sel
		if err := d.Sessions.Save(sess); err != nil {
			log.Printf("category: could not save session: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		return e.JSON(http.StatusOK, newSessionPayload(sess))
	}
}

// HandleOptions lists the choices of the wizard's select inputs.
// Route: GET /meta/options
func HandleOptions() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		return e.JSON(http.StatusOK, map[string]any{
			"projectTypes": services.ProjectTypeOptions(),
			"categories":   services.CategoryOptions(),
			"units":        services.UnitOptions,
		})
	}
}
