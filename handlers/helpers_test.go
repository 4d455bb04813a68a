package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"boqwizard/config"
	"boqwizard/services"
	"boqwizard/testhelpers"
)

var testNow = time.Date(2025, time.June, 14, 10, 0, 0, 0, time.UTC)

type fakeExtractor struct {
	result *services.Extraction
	err    error
	calls  int
}

func (f *fakeExtractor) Extract(ctx context.Context, images []services.Image) (*services.Extraction, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestDeps(t *testing.T, ex services.Extractor) *Deps {
	t.Helper()
	app := testhelpers.NewTestApp(t)
	if ex == nil {
		ex = &fakeExtractor{err: services.ErrAuth}
	}
	return &Deps{
		App:       app,
		Sessions:  services.NewSessionStore(app),
		Rules:     services.DefaultRules,
		Extractor: ex,
		Config:    config.Default(),
		Now:       func() time.Time { return testNow },
	}
}

func newWizardSession(t *testing.T, d *Deps) *services.Session {
	t.Helper()
	sess, err := d.Sessions.Create(testNow)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return sess
}

// reload reads the session back from the store.
func reload(t *testing.T, d *Deps, sess *services.Session) *services.Session {
	t.Helper()
	got, err := d.Sessions.Get(sess.Token)
	if err != nil {
		t.Fatalf("failed to reload session: %v", err)
	}
	return got
}

func withSession(req *http.Request, sess *services.Session) *http.Request {
	if sess == nil {
		return req
	}
	return req.WithContext(context.WithValue(req.Context(), SessionKey, sess))
}

func formRequest(method, target string, form url.Values, sess *services.Session) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return withSession(req, sess)
}

func serve(t *testing.T, d *Deps, handler func(*core.RequestEvent) error, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(d.App, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func decodeJSON(t *testing.T, body io.Reader, dst any) {
	t.Helper()
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}
}

// preparedSession is a residential premium 1000 sq.ft project with its
// ledger generated.
func preparedSession(t *testing.T, d *Deps) *services.Session {
	t.Helper()
	sess := newWizardSession(t, d)
	sess.ProjectType = services.ProjectResidential
	sess.Details = services.ProjectDetails{
		"projectType": "residential",
		"clientName":  "Asha Mehta",
		"projectName": "Sea View Flat",
		"location":    "Mumbai",
		"carpetArea":  "1000",
	}
	sess.Category = &services.CategorySelection{Category: services.CategoryPremium}
	sess.GenerateLedger(d.Rules, testNow)
	if err := d.Sessions.Save(sess); err != nil {
		t.Fatalf("failed to save session: %v", err)
	}
	return sess
}
