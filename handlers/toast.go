package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"

	"github.com/pocketbase/pocketbase/core"
)

// SetToast adds a "showToast" event to the HX-Trigger response header so
// HTMX shows a notification. Events already in the header are kept; a header
// that is not a JSON object is replaced. A short-lived flash cookie carries
// the same toast for clients that follow a plain redirect.
func SetToast(e *core.RequestEvent, toastType string, message string) {
	toast := map[string]string{"message": message, "type": toastType}

	events := map[string]any{}
	if existing := e.Response.Header().Get("HX-Trigger"); existing != "" {
		if err := json.Unmarshal([]byte(existing), &events); err != nil || events == nil {
			log.Printf("toast: replacing non-JSON HX-Trigger %q", existing)
			events = map[string]any{}
		}
	}
	events["showToast"] = toast

	data, err := json.Marshal(events)
	if err != nil {
		log.Printf("toast: failed to marshal HX-Trigger JSON: %v", err)
		return
	}
	e.Response.Header().Set("HX-Trigger", string(data))

	if cookieVal, err := json.Marshal(toast); err == nil {
		http.SetCookie(e.Response, &http.Cookie{
			Name:     "flash_toast",
			Value:    url.QueryEscape(string(cookieVal)),
			Path:     "/",
			MaxAge:   10,
			HttpOnly: false, // read by the page script
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// ErrorToast shows an error toast and tells HTMX not to swap the response
// body into the page.
func ErrorToast(e *core.RequestEvent, statusCode int, message string) error {
	SetToast(e, "error", message)
	e.Response.Header().Set("HX-Reswap", "none")
	return e.String(statusCode, message)
}
