package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"boqwizard/services"
	"boqwizard/testhelpers"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

func multipartRequest(t *testing.T, target, field string, files map[string][]byte, sess *services.Session) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, data := range files {
		fw, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return withSession(req, sess)
}

func TestHandleUpload_StoresExtraction(t *testing.T) {
	ex := &fakeExtractor{result: &services.Extraction{
		ProjectDetails: services.ProjectDetails{
			"clientName":  "Ravi Kumar",
			"projectType": "commercial",
			"carpetArea":  "2,400",
		},
		Items: []services.LineItem{
			{ID: 1, Description: "Gypsum partition", Unit: "sq.ft", Quantity: 200, Rate: 110, Amount: 22000},
			{ID: 2, Description: "Vinyl flooring", Unit: "sq.ft", Quantity: 1000, Rate: 85, Amount: 85000},
		},
	}}
	d := newTestDeps(t, ex)
	sess := newWizardSession(t, d)

	req := multipartRequest(t, "/wizard/upload", "images", map[string][]byte{"page1.png": pngBytes}, sess)
	rec := serve(t, d, HandleUpload(d), req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload uploadPayload
	decodeJSON(t, rec.Body, &payload)
	if payload.Items != 2 {
		t.Errorf("expected 2 extracted items, got %d", payload.Items)
	}

	got := reload(t, d, sess)
	if got.ProjectType != services.ProjectCommercial {
		t.Errorf("expected project type commercial, got %q", got.ProjectType)
	}
	if got.Category == nil || got.Category.Category != services.CategoryStandard {
		t.Errorf("expected standard category, got %+v", got.Category)
	}
	if len(got.ExtractedItems) != 2 {
		t.Errorf("expected 2 pending items, got %d", len(got.ExtractedItems))
	}
	if ex.calls != 1 {
		t.Errorf("expected exactly one extraction call, got %d", ex.calls)
	}
}

func TestHandleUpload_RejectsBeforeExtraction(t *testing.T) {
	tests := []struct {
		name  string
		files map[string][]byte
		want  string
	}{
		{"no files", nil, "Error: no images provided for processing"},
		{"text file", map[string][]byte{"notes.txt": []byte("plain text, not an image")}, "Unsupported image format. Please use JPEG or PNG files."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := &fakeExtractor{}
			d := newTestDeps(t, ex)
			sess := newWizardSession(t, d)

			rec := serve(t, d, HandleUpload(d), multipartRequest(t, "/wizard/upload", "images", tt.files, sess))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}
			var payload uploadPayload
			decodeJSON(t, rec.Body, &payload)
			if payload.Message != tt.want {
				t.Errorf("expected message %q, got %q", tt.want, payload.Message)
			}
			if payload.RetryAfter != 5 {
				t.Errorf("expected retry_after 5, got %d", payload.RetryAfter)
			}
			if ex.calls != 0 {
				t.Errorf("expected no extraction call, got %d", ex.calls)
			}
		})
	}
}

func TestHandleUpload_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		want       string
	}{
		{"auth", services.ErrAuth, http.StatusBadGateway, "Authentication error. Please contact support."},
		{"quota", services.ErrQuota, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again later."},
		{"network", services.ErrNetwork, http.StatusBadGateway, "Network error. Please check your internet connection."},
		{"unparseable", services.ErrUnparseable, http.StatusUnprocessableEntity, "Error: could not extract JSON from response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDeps(t, &fakeExtractor{err: tt.err})
			sess := newWizardSession(t, d)

			req := multipartRequest(t, "/wizard/upload", "images", map[string][]byte{"page1.png": pngBytes}, sess)
			rec := serve(t, d, HandleUpload(d), req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			var payload uploadPayload
			decodeJSON(t, rec.Body, &payload)
			if payload.Message != tt.want {
				t.Errorf("expected message %q, got %q", tt.want, payload.Message)
			}

			if got := reload(t, d, sess); len(got.ExtractedItems) != 0 || got.ProjectType != "" {
				t.Error("expected session unchanged after failed extraction")
			}
		})
	}
}

func TestHandleUpload_HTMXErrorResets(t *testing.T) {
	d := newTestDeps(t, &fakeExtractor{err: services.ErrQuota})
	sess := newWizardSession(t, d)

	req := multipartRequest(t, "/wizard/upload", "images", map[string][]byte{"page1.png": pngBytes}, sess)
	req.Header.Set("HX-Request", "true")
	rec := serve(t, d, HandleUpload(d), req)

	body := rec.Body.String()
	testhelpers.AssertHTMLContains(t, body,
		`id="upload-status"`,
		"Service temporarily unavailable",
		`hx-get="/wizard/upload/reset"`,
		"delay:5000ms",
	)
	if !strings.Contains(rec.Header().Get("HX-Trigger"), "error") {
		t.Error("expected error toast")
	}
}

func TestHandleUploadReset(t *testing.T) {
	d := newTestDeps(t, nil)

	rec := serve(t, d, HandleUploadReset(), httptest.NewRequest(http.MethodGet, "/wizard/upload/reset", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `id="upload-status"`) || strings.Contains(body, "hx-get") {
		t.Errorf("expected an empty status element, got %q", body)
	}
}
