package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// SessionsCollection stores one record per wizard session.
const SessionsCollection = "wizard_sessions"

// ErrSessionNotFound is returned for unknown or malformed session tokens.
var ErrSessionNotFound = errors.New("wizard session not found")

// Session is the typed wizard state carried between steps.
type Session struct {
	RecordID        string
	Token           string
	ReferenceNumber string
	ProjectType     ProjectType
	Details         ProjectDetails
	Category        *CategorySelection
	// ExtractedItems holds items returned by image extraction until the
	// ledger takes them.
	ExtractedItems []LineItem
	Ledger         *LedgerState
	GeneratedDate  time.Time
}

// TakeExtractedItems returns the pending extracted items and clears them,
// so they seed at most one ledger.
func (s *Session) TakeExtractedItems() []LineItem {
	items := s.ExtractedItems
	s.ExtractedItems = nil
	return items
}

// OpenLedger restores the session's ledger, or returns nil if no BOQ has
// been generated yet.
func (s *Session) OpenLedger() *Ledger {
	if s.Ledger == nil {
		return nil
	}
	return RestoreLedger(*s.Ledger)
}

// SetLedger stores the ledger's current state in the session.
func (s *Session) SetLedger(l *Ledger) {
	st := l.State()
	s.Ledger = &st
}

// CategoryOrDefault returns the chosen category, or luxury when the
// category step was skipped.
func (s *Session) CategoryOrDefault() CategorySelection {
	if s.Category == nil {
		return CategorySelection{Category: CategoryLuxury}
	}
	return *s.Category
}

// ExportData assembles the export view of the session's ledger.
func (s *Session) ExportData() (ExportData, bool) {
	l := s.OpenLedger()
	if l == nil {
		return ExportData{}, false
	}
	details := s.Details.Clone()
	return NewExportData(s.ReferenceNumber, s.ProjectType, s.CategoryOrDefault(), details, l.Items(), s.GeneratedDate), true
}

// SessionStore persists sessions in the wizard_sessions collection.
type SessionStore struct {
	app *pocketbase.PocketBase
	// mu serializes reference number allocation within this process.
	mu sync.Mutex
}

// NewSessionStore returns a store backed by app.
func NewSessionStore(app *pocketbase.PocketBase) *SessionStore {
	return &SessionStore{app: app}
}

// maxReferenceAttempts bounds retries when another writer takes the
// reference number first.
const maxReferenceAttempts = 5

// Create starts a new session with a fresh token and reference number.
func (s *SessionStore) Create(now time.Time) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		ref, err := NextReferenceNumber(s.app, now)
		if err != nil {
			return nil, fmt.Errorf("reference number: %w", err)
		}
		sess := &Session{
			Token:           uuid.NewString(),
			ReferenceNumber: ref,
			Details:         ProjectDetails{},
		}
		err = s.Save(sess)
		if err == nil {
			return sess, nil
		}
		if !isDuplicateReference(err) {
			return nil, err
		}
		log.Printf("session: reference %s already taken, retrying", ref)
		lastErr = err
	}
	return nil, fmt.Errorf("allocate reference number: %w", lastErr)
}

// isDuplicateReference reports whether err is the unique index on
// reference_number rejecting a save.
func isDuplicateReference(err error) bool {
	var verrs validation.Errors
	if errors.As(err, &verrs) && verrs["reference_number"] != nil {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") && strings.Contains(msg, "reference_number")
}

// Get loads the session for token.
func (s *SessionStore) Get(token string) (*Session, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, ErrSessionNotFound
	}
	record, err := s.app.FindFirstRecordByFilter(SessionsCollection, "token = {:token}", map[string]any{"token": token})
	if err != nil {
		return nil, ErrSessionNotFound
	}
	return sessionFromRecord(record)
}

// Save writes the session, creating its record on first save.
func (s *SessionStore) Save(sess *Session) error {
	var record *core.Record
	if sess.RecordID != "" {
		r, err := s.app.FindRecordById(SessionsCollection, sess.RecordID)
		if err != nil {
			return fmt.Errorf("find session %s: %w", sess.RecordID, err)
		}
		record = r
	} else {
		col, err := s.app.FindCollectionByNameOrId(SessionsCollection)
		if err != nil {
			return fmt.Errorf("find %s collection: %w", SessionsCollection, err)
		}
		record = core.NewRecord(col)
	}

	record.Set("token", sess.Token)
	record.Set("reference_number", sess.ReferenceNumber)
	record.Set("project_type", string(sess.ProjectType))
	record.Set("details", sess.Details)
	record.Set("category", sess.Category)
	record.Set("extracted_items", sess.ExtractedItems)
	record.Set("ledger", sess.Ledger)
	if sess.GeneratedDate.IsZero() {
		record.Set("generated_at", "")
	} else {
		record.Set("generated_at", sess.GeneratedDate)
	}

	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	sess.RecordID = record.Id
	return nil
}

func sessionFromRecord(record *core.Record) (*Session, error) {
	sess := &Session{
		RecordID:        record.Id,
		Token:           record.GetString("token"),
		ReferenceNumber: record.GetString("reference_number"),
		ProjectType:     ProjectType(record.GetString("project_type")),
		Details:         ProjectDetails{},
	}
	if dt := record.GetDateTime("generated_at"); !dt.IsZero() {
		sess.GeneratedDate = dt.Time()
	}

	fields := []struct {
		name string
		dst  any
	}{
		{"details", &sess.Details},
		{"category", &sess.Category},
		{"extracted_items", &sess.ExtractedItems},
		{"ledger", &sess.Ledger},
	}
	for _, f := range fields {
		if raw := record.GetString(f.name); raw == "" || raw == "null" {
			continue
		}
		if err := record.UnmarshalJSONField(f.name, f.dst); err != nil {
			return nil, fmt.Errorf("decode session %s: %w", f.name, err)
		}
	}
	if sess.Details == nil {
		sess.Details = ProjectDetails{}
	}
	return sess, nil
}

// EnsureLedger returns the session's ledger, creating it on first use.
// Items pending from an extraction take precedence and are consumed;
// otherwise an existing ledger is restored; otherwise the project is priced
// with rules.
func (s *Session) EnsureLedger(rules RuleTable, now time.Time) *Ledger {
	if pending := s.TakeExtractedItems(); len(pending) > 0 {
		l := NewLedger(pending)
		s.SetLedger(l)
		s.GeneratedDate = now
		return l
	}
	if l := s.OpenLedger(); l != nil {
		return l
	}
	return s.GenerateLedger(rules, now)
}

// GenerateLedger prices the project with rules and replaces any existing
// ledger, discarding its edits.
func (s *Session) GenerateLedger(rules RuleTable, now time.Time) *Ledger {
	items, _ := rules.Generate(s.ProjectType, s.CategoryOrDefault().Category, s.Details)
	l := NewLedger(items)
	s.SetLedger(l)
	s.GeneratedDate = now
	return l
}

// ApplyExtraction stores an extraction result as the session's project and
// queues its items for the ledger.
func (s *Session) ApplyExtraction(ex *Extraction) {
	s.Details = ex.ProjectDetails.Clone()
	s.ProjectType = ParseProjectType(s.Details.Text("projectType"))
	sel := CategorySelection{Category: CategoryStandard}
	if c := s.Details.Text("category"); c != "" {
		sel.Category = ParseCategory(c)
	}
	s.Category = &sel
	s.ExtractedItems = append([]LineItem(nil), ex.Items...)
	s.Ledger = nil
}
