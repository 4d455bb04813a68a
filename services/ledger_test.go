package services

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func premiumResidentialLedger(t *testing.T) *Ledger {
	t.Helper()
	items, _ := Generate(ProjectResidential, CategoryPremium, ProjectDetails{"carpetArea": "1000"})
	return NewLedger(items)
}

func contingencyOf(t *testing.T, l *Ledger) LineItem {
	t.Helper()
	for _, it := range l.Items() {
		if it.IsContingency() {
			return it
		}
	}
	t.Fatal("ledger has no contingency line")
	return LineItem{}
}

func TestNewLedger_AppendsContingency(t *testing.T) {
	l := NewLedger([]LineItem{
		{ID: 3, Description: "Tiling", Quantity: 100, Rate: 120, Amount: 12000},
		{ID: 7, Description: "Painting", Quantity: 1, Rate: 8000, Amount: 8000},
	})

	items := l.Items()
	require.Len(t, items, 3)
	c := items[2]
	assert.Equal(t, 8, c.ID, "contingency takes max id + 1")
	assert.Equal(t, ContingencyDescription, c.Description)
	assert.Equal(t, 1000.0, c.Amount)
	assert.Equal(t, 1000.0, c.Rate)
	assert.Equal(t, 21000.0, l.TotalAmount())
}

func TestNewLedger_ReusesContingencyInPlace(t *testing.T) {
	l := NewLedger([]LineItem{
		{ID: 1, Description: "Tiling", Quantity: 100, Rate: 120, Amount: 12000},
		{ID: 2, Description: "Contingency (site)", Quantity: 1, Rate: 99, Amount: 99},
		{ID: 3, Description: "Painting", Quantity: 1, Rate: 8000, Amount: 8000},
	})

	items := l.Items()
	require.Len(t, items, 3)
	assert.Equal(t, 2, items[1].ID)
	assert.Equal(t, "Contingency (site)", items[1].Description)
	assert.Equal(t, 1000.0, items[1].Amount)
	assert.Equal(t, 21000.0, l.TotalAmount())
}

func TestNewLedger_Empty(t *testing.T) {
	l := NewLedger(nil)
	items := l.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].ID)
	assert.Equal(t, 0.0, items[0].Amount)
	assert.Equal(t, 0.0, l.TotalAmount())
}

func TestLedger_EditCommitRecomputes(t *testing.T) {
	l := premiumResidentialLedger(t)
	require.Equal(t, 995822.1, l.TotalAmount())

	require.NoError(t, l.BeginEdit(2))
	require.NoError(t, l.UpdateField(2, FieldQuantity, "50"))
	require.NoError(t, l.UpdateField(2, FieldRate, "3000"))
	assert.Equal(t, 995822.1, l.TotalAmount(), "drafts do not change totals")

	require.NoError(t, l.Commit(2))
	assert.Equal(t, 0, l.EditingID())

	items := l.Items()
	assert.Equal(t, 50.0, items[1].Quantity)
	assert.Equal(t, 3000.0, items[1].Rate)
	assert.Equal(t, 150000.0, items[1].Amount)
	assert.Equal(t, 50755.1, contingencyOf(t, l).Amount)
	assert.Equal(t, 1065857.1, l.TotalAmount())
}

func TestLedger_BeginEditSeedsDraft(t *testing.T) {
	l := premiumResidentialLedger(t)
	require.NoError(t, l.BeginEdit(3))

	d, ok := l.Draft()
	require.True(t, ok)
	assert.Equal(t, "150", d.Quantity)
	assert.Equal(t, "3125", d.Rate)
	assert.Equal(t, l.Items()[2].Description, d.Description)

	rows := l.Rows()
	for _, r := range rows {
		assert.Equal(t, r.Item.ID == 3, r.Editing, "row %d", r.Item.ID)
	}
}

func TestLedger_SingleEditor(t *testing.T) {
	l := premiumResidentialLedger(t)
	before := l.Items()

	require.NoError(t, l.BeginEdit(1))
	require.NoError(t, l.UpdateField(1, FieldQuantity, "999"))
	require.NoError(t, l.UpdateField(1, FieldDescription, "Renamed"))

	require.NoError(t, l.BeginEdit(4))
	assert.Equal(t, 4, l.EditingID())
	assert.Equal(t, before, l.Items(), "switching items discards the first draft")

	err := l.Commit(1)
	assert.ErrorIs(t, err, ErrNotEditing)
}

func TestLedger_CommitKeepsCommittedValues(t *testing.T) {
	tests := []struct {
		name     string
		field    EditableField
		value    string
		wantQty  float64
		wantRate float64
		wantDesc string
	}{
		{"empty description", FieldDescription, "", 12, 2821, ""},
		{"unparseable quantity", FieldQuantity, "lots", 12, 2821, ""},
		{"negative quantity", FieldQuantity, "-4", 12, 2821, ""},
		{"empty rate", FieldRate, "", 12, 2821, ""},
		{"quantity with unit", FieldQuantity, "20 sq.ft", 20, 2821, ""},
		{"grouped rate", FieldRate, "3,000", 12, 3000, ""},
		{"renamed", FieldDescription, "Foyer bench", 12, 2821, "Foyer bench"},
		{"rename to contingency dropped", FieldDescription, "Contingency extra", 12, 2821, ""},
		{"quantity beyond numeric range", FieldQuantity, "1e200", 12, 2821, ""},
		{"rate beyond numeric range", FieldRate, "1e13", 12, 2821, ""},
		{"largest accepted rate", FieldRate, "1e12", 12, 1e12, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := premiumResidentialLedger(t)
			orig := l.Items()[0]

			require.NoError(t, l.BeginEdit(1))
			require.NoError(t, l.UpdateField(1, tt.field, tt.value))
			require.NoError(t, l.Commit(1))

			got := l.Items()[0]
			assert.Equal(t, tt.wantQty, got.Quantity)
			assert.Equal(t, tt.wantRate, got.Rate)
			assert.Equal(t, got.Quantity*got.Rate, got.Amount)
			wantDesc := tt.wantDesc
			if wantDesc == "" {
				wantDesc = orig.Description
			}
			assert.Equal(t, wantDesc, got.Description)

			others := SumAmounts(l.Items()[:5])
			assert.InDelta(t, others*ContingencyRate, contingencyOf(t, l).Amount, 0.005)
			assert.InDelta(t, RoundCurrency(SumAmounts(l.Items())), l.TotalAmount(), 1e-9)
		})
	}
}

func TestLedger_CommitDraftTextFields(t *testing.T) {
	l := premiumResidentialLedger(t)
	require.NoError(t, l.BeginEdit(5))
	require.NoError(t, l.UpdateField(5, FieldSpecifications, "Concealed copper wiring"))
	require.NoError(t, l.UpdateField(5, FieldMaterials, "Polycab FR wires"))
	require.NoError(t, l.UpdateField(5, FieldUnit, "Lot"))
	require.NoError(t, l.Commit(5))

	it := l.Items()[4]
	assert.Equal(t, "Concealed copper wiring", it.Specifications)
	assert.Equal(t, "Polycab FR wires", it.Materials)
	assert.Equal(t, "Lot", it.Unit)
	assert.Equal(t, 995822.1, l.TotalAmount())
}

func TestLedger_CancelRestoresSnapshot(t *testing.T) {
	l := premiumResidentialLedger(t)
	before := l.Items()

	require.NoError(t, l.BeginEdit(2))
	for _, f := range EditableFields {
		require.NoError(t, l.UpdateField(2, f, "7"))
	}
	require.NoError(t, l.CancelEdit(2))

	assert.Equal(t, before, l.Items())
	assert.Equal(t, 0, l.EditingID())
	assert.Equal(t, 995822.1, l.TotalAmount())
	_, editing := l.Draft()
	assert.False(t, editing)
}

func TestLedger_Errors(t *testing.T) {
	l := premiumResidentialLedger(t)

	assert.ErrorIs(t, l.BeginEdit(6), ErrContingencyReadOnly)
	assert.ErrorIs(t, l.BeginEdit(99), ErrItemNotFound)
	assert.ErrorIs(t, l.Commit(99), ErrItemNotFound)
	assert.ErrorIs(t, l.Commit(1), ErrNotEditing)
	assert.ErrorIs(t, l.CancelEdit(1), ErrNotEditing)
	assert.ErrorIs(t, l.UpdateField(1, FieldRate, "5"), ErrNotEditing)

	require.NoError(t, l.BeginEdit(1))
	assert.ErrorIs(t, l.UpdateField(1, EditableField("amount"), "5"), ErrUnknownField)
	assert.Equal(t, 995822.1, l.TotalAmount())
}

func TestParseEditableField(t *testing.T) {
	f, err := ParseEditableField(" Quantity ")
	require.NoError(t, err)
	assert.Equal(t, FieldQuantity, f)

	_, err = ParseEditableField("amount")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestLedger_StateRoundTripKeepsEdit(t *testing.T) {
	l := premiumResidentialLedger(t)
	require.NoError(t, l.BeginEdit(2))
	require.NoError(t, l.UpdateField(2, FieldRate, "3000"))

	raw, err := json.Marshal(l.State())
	require.NoError(t, err)
	var st LedgerState
	require.NoError(t, json.Unmarshal(raw, &st))

	restored := RestoreLedger(st)
	assert.Equal(t, 2, restored.EditingID())
	d, ok := restored.Draft()
	require.True(t, ok)
	assert.Equal(t, "3000", d.Rate)
	assert.Equal(t, l.TotalAmount(), restored.TotalAmount())

	require.NoError(t, restored.CancelEdit(2))
	assert.Equal(t, 83300.0, restored.Items()[1].Amount)
}

func TestLedger_OnlyFirstContingencyCounts(t *testing.T) {
	l := NewLedger([]LineItem{
		{ID: 1, Description: "Contingency", Quantity: 1, Rate: 0, Amount: 0},
		{ID: 2, Description: "Works", Quantity: 1, Rate: 1000, Amount: 1000},
		{ID: 3, Description: "Contingency reserve", Quantity: 1, Rate: 200, Amount: 200},
	})

	items := l.Items()
	assert.Equal(t, 60.0, items[0].Amount, "5% of every other line, including the second marker row")
	assert.Equal(t, 200.0, items[2].Amount)
	assert.Equal(t, 1260.0, l.TotalAmount())
}

func TestLedger_CommitOversizedDraftKeepsLedgerConsistent(t *testing.T) {
	l := premiumResidentialLedger(t)
	before := l.Items()

	require.NoError(t, l.BeginEdit(1))
	require.NoError(t, l.UpdateField(1, FieldQuantity, "1e200"))
	require.NoError(t, l.UpdateField(1, FieldRate, "1e200"))
	require.NotPanics(t, func() { require.NoError(t, l.Commit(1)) })

	assert.Equal(t, before, l.Items())
	assert.Equal(t, 995822.1, l.TotalAmount())
	assert.Zero(t, l.EditingID())
}

func TestLedger_LargestValuesStayFinite(t *testing.T) {
	l := premiumResidentialLedger(t)

	require.NoError(t, l.BeginEdit(1))
	require.NoError(t, l.UpdateField(1, FieldQuantity, "1e12"))
	require.NoError(t, l.UpdateField(1, FieldRate, "1e12"))
	require.NoError(t, l.Commit(1))

	assert.Equal(t, 1e24, l.Items()[0].Amount)
	assert.False(t, math.IsInf(l.TotalAmount(), 0))
	s := l.Summary()
	assert.False(t, math.IsInf(s.GrandTotal, 0))
	assert.Greater(t, s.GrandTotal, 1e24)
}
