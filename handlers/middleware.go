package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"boqwizard/services"
)

type contextKey string

const SessionKey contextKey = "wizardSession"

// SessionCookie carries the wizard session token.
const SessionCookie = "boq_session"

// GetSession extracts the wizard session from the request context.
func GetSession(r *http.Request) *services.Session {
	if val, ok := r.Context().Value(SessionKey).(*services.Session); ok {
		return val
	}
	return nil
}

// SessionMiddleware reads the "boq_session" cookie, loads the session and
// stores it in the request context. Unknown tokens clear the cookie.
func SessionMiddleware(d *Deps) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		cookie, err := e.Request.Cookie(SessionCookie)
		if err == nil && cookie.Value != "" {
			sess, err := d.Sessions.Get(cookie.Value)
			if err == nil {
				ctx := context.WithValue(e.Request.Context(), SessionKey, sess)
				e.Request = e.Request.WithContext(ctx)
			} else {
				if !errors.Is(err, services.ErrSessionNotFound) {
					log.Printf("middleware: could not load session: %v", err)
				}
				clearSessionCookie(e)
			}
		}
		return e.Next()
	}
}

func setSessionCookie(e *core.RequestEvent, token string) {
	http.SetCookie(e.Response, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(e *core.RequestEvent) {
	http.SetCookie(e.Response, &http.Cookie{
		Name:   SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

// requireSession returns the request's session or writes a 404 response.
func requireSession(e *core.RequestEvent) (*services.Session, error) {
	sess := GetSession(e.Request)
	if sess == nil {
		return nil, ErrorToast(e, http.StatusNotFound, "No wizard session. Start a new BOQ first.")
	}
	return sess, nil
}
