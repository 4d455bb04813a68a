package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrItemNotFound is returned when an operation names an unknown item id.
	ErrItemNotFound = errors.New("line item not found")

	// ErrNotEditing is returned when updating, committing or cancelling an
	// item that is not the one currently being edited.
	ErrNotEditing = errors.New("line item is not being edited")

	// ErrContingencyReadOnly is returned when trying to edit the contingency
	// line. Its amount is always derived from the other items.
	ErrContingencyReadOnly = errors.New("contingency line is computed and cannot be edited")

	// ErrUnknownField is returned by UpdateField for a field outside the editable set.
	ErrUnknownField = errors.New("unknown editable field")
)

// EditableField names a scratch field of the item being edited.
type EditableField string

const (
	FieldDescription    EditableField = "description"
	FieldSpecifications EditableField = "specifications"
	FieldMaterials      EditableField = "materials"
	FieldUnit           EditableField = "unit"
	FieldQuantity       EditableField = "quantity"
	FieldRate           EditableField = "rate"
)

// EditableFields lists the fields accepted by UpdateField.
var EditableFields = []EditableField{
	FieldDescription, FieldSpecifications, FieldMaterials, FieldUnit, FieldQuantity, FieldRate,
}

// ParseEditableField validates a field name.
func ParseEditableField(s string) (EditableField, error) {
	f := EditableField(strings.ToLower(strings.TrimSpace(s)))
	for _, ef := range EditableFields {
		if ef == f {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// Draft holds the uncommitted text of the item being edited.
type Draft struct {
	Description    string `json:"description"`
	Specifications string `json:"specifications"`
	Materials      string `json:"materials"`
	Unit           string `json:"unit"`
	Quantity       string `json:"quantity"`
	Rate           string `json:"rate"`
}

func draftFrom(it LineItem) Draft {
	return Draft{
		Description:    it.Description,
		Specifications: it.Specifications,
		Materials:      it.Materials,
		Unit:           it.Unit,
		Quantity:       formatScratchNumber(it.Quantity),
		Rate:           formatScratchNumber(it.Rate),
	}
}

// LedgerState is the serializable form of a ledger, including an in-progress
// edit, so the ledger can be carried between requests.
type LedgerState struct {
	Items       []LineItem `json:"items"`
	EditingID   int        `json:"editingId,omitempty"`
	Draft       *Draft     `json:"draft,omitempty"`
	Original    *LineItem  `json:"original,omitempty"`
	TotalAmount float64    `json:"totalAmount"`
}

// LedgerRow is a display row: the committed item plus its draft when editing.
type LedgerRow struct {
	Item    LineItem
	Editing bool
	Draft   Draft
}

// Ledger owns an ordered list of line items and keeps the contingency line
// and the grand total consistent with every committed edit. At most one
// item is in edit mode at a time. A Ledger is not safe for concurrent use.
type Ledger struct {
	items     []LineItem
	editingID int
	draft     Draft
	original  *LineItem
	total     float64
}

// NewLedger takes ownership of a copy of items (from the pricing engine, an
// extraction or an import) and reconciles the contingency line once.
func NewLedger(items []LineItem) *Ledger {
	l := &Ledger{items: append([]LineItem(nil), items...)}
	l.reconcile()
	return l
}

// RestoreLedger rebuilds a ledger from its serialized state without
// recomputing anything.
func RestoreLedger(st LedgerState) *Ledger {
	l := &Ledger{
		items: append([]LineItem(nil), st.Items...),
		total: st.TotalAmount,
	}
	if st.EditingID != 0 && l.index(st.EditingID) >= 0 {
		l.editingID = st.EditingID
		if st.Draft != nil {
			l.draft = *st.Draft
		} else {
			l.draft = draftFrom(l.items[l.index(st.EditingID)])
		}
		if st.Original != nil {
			orig := *st.Original
			l.original = &orig
		}
	}
	return l
}

// State returns the serializable form of the ledger.
func (l *Ledger) State() LedgerState {
	st := LedgerState{
		Items:       l.Items(),
		EditingID:   l.editingID,
		TotalAmount: l.total,
	}
	if l.editingID != 0 {
		d := l.draft
		st.Draft = &d
	}
	if l.original != nil {
		orig := *l.original
		st.Original = &orig
	}
	return st
}

// Items returns a copy of the committed items in display order.
func (l *Ledger) Items() []LineItem {
	return append([]LineItem(nil), l.items...)
}

// Rows returns display rows, marking the item in edit mode.
func (l *Ledger) Rows() []LedgerRow {
	rows := make([]LedgerRow, len(l.items))
	for i, it := range l.items {
		rows[i] = LedgerRow{Item: it}
		if it.ID == l.editingID {
			rows[i].Editing = true
			rows[i].Draft = l.draft
		}
	}
	return rows
}

// TotalAmount is the sum of all item amounts, contingency included, rounded
// to 2 decimal places.
func (l *Ledger) TotalAmount() float64 {
	return l.total
}

// EditingID returns the id of the item in edit mode, or 0.
func (l *Ledger) EditingID() int {
	return l.editingID
}

// Draft returns the scratch values of the item in edit mode.
func (l *Ledger) Draft() (Draft, bool) {
	if l.editingID == 0 {
		return Draft{}, false
	}
	return l.draft, true
}

// Summary returns the cost roll-up of the current committed items.
func (l *Ledger) Summary() CostSummary {
	return Summarize(l.items)
}

// BeginEdit puts an item into edit mode. Any other item in edit mode is
// returned to its committed values; its draft is discarded, not saved.
func (l *Ledger) BeginEdit(id int) error {
	i := l.index(id)
	if i < 0 {
		return fmt.Errorf("begin edit %d: %w", id, ErrItemNotFound)
	}
	if l.items[i].IsContingency() {
		return fmt.Errorf("begin edit %d: %w", id, ErrContingencyReadOnly)
	}

	if l.editingID != 0 && l.editingID != id {
		l.discardEdit()
	}

	snapshot := l.items[i]
	l.original = &snapshot
	l.editingID = id
	l.draft = draftFrom(snapshot)
	return nil
}

// UpdateField changes one scratch field of the item in edit mode. Nothing is
// recomputed until Commit.
func (l *Ledger) UpdateField(id int, field EditableField, value string) error {
	if err := l.requireEditing(id); err != nil {
		return fmt.Errorf("update %s on %d: %w", field, id, err)
	}
	switch field {
	case FieldDescription:
		l.draft.Description = value
	case FieldSpecifications:
		l.draft.Specifications = value
	case FieldMaterials:
		l.draft.Materials = value
	case FieldUnit:
		l.draft.Unit = value
	case FieldQuantity:
		l.draft.Quantity = value
	case FieldRate:
		l.draft.Rate = value
	default:
		return fmt.Errorf("update on %d: %w: %q", id, ErrUnknownField, field)
	}
	return nil
}

// Commit applies the draft to the item, recomputes its amount, then
// recomputes the contingency line and the grand total.
//
// Quantity and rate that do not parse as non-negative numbers keep the
// committed value. Empty text fields keep the committed text.
func (l *Ledger) Commit(id int) error {
	if err := l.requireEditing(id); err != nil {
		return fmt.Errorf("commit %d: %w", id, err)
	}
	i := l.index(id)
	it := l.items[i]
	d := l.draft

	// The contingency marker is reserved; a rename that introduces it is dropped.
	if desc := keepIfEmpty(d.Description, it.Description); !strings.Contains(desc, ContingencyMarker) {
		it.Description = desc
	}
	it.Specifications = keepIfEmpty(d.Specifications, it.Specifications)
	it.Materials = keepIfEmpty(d.Materials, it.Materials)
	it.Unit = keepIfEmpty(d.Unit, it.Unit)
	it.Quantity = parseScratchNumber(d.Quantity, it.Quantity)
	it.Rate = parseScratchNumber(d.Rate, it.Rate)
	it.Amount = CalcAmount(it.Quantity, it.Rate)
	l.items[i] = it

	l.editingID = 0
	l.draft = Draft{}
	l.original = nil
	l.reconcile()
	return nil
}

// CancelEdit restores the item to exactly the values it had before BeginEdit.
func (l *Ledger) CancelEdit(id int) error {
	if err := l.requireEditing(id); err != nil {
		return fmt.Errorf("cancel %d: %w", id, err)
	}
	l.discardEdit()
	return nil
}

func (l *Ledger) discardEdit() {
	if l.original != nil {
		if i := l.index(l.original.ID); i >= 0 {
			l.items[i] = *l.original
		}
	}
	l.editingID = 0
	l.draft = Draft{}
	l.original = nil
}

func (l *Ledger) requireEditing(id int) error {
	if l.index(id) < 0 {
		return ErrItemNotFound
	}
	if l.editingID != id {
		return ErrNotEditing
	}
	return nil
}

// reconcile finds or appends the contingency line, sets it to 5% of every
// other item, and refreshes the total.
func (l *Ledger) reconcile() {
	others, ci := splitContingency(l.items)
	contingency := contingencyAmount(others)
	if ci >= 0 {
		l.items[ci].Quantity = 1
		l.items[ci].Rate = contingency
		l.items[ci].Amount = contingency
	} else {
		l.items = append(l.items, newContingencyItem(l.maxID()+1, contingency))
	}

	l.total = RoundCurrency(SumAmounts(l.items))
}

func (l *Ledger) index(id int) int {
	for i, it := range l.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) maxID() int {
	max := 0
	for _, it := range l.items {
		if it.ID > max {
			max = it.ID
		}
	}
	return max
}

func keepIfEmpty(edited, committed string) string {
	if edited == "" {
		return committed
	}
	return edited
}

func parseScratchNumber(s string, committed float64) float64 {
	v, ok := parseLeadingFloat(s)
	if !ok || v < 0 {
		return committed
	}
	return v
}
