package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	items, _ := Generate(ProjectResidential, CategoryPremium, ProjectDetails{"carpetArea": "1000"})
	s := Summarize(items)

	assert.Equal(t, 948402.0, s.ItemsSubtotal)
	assert.Equal(t, 47420.1, s.Contingency)
	assert.Equal(t, 995822.1, s.Subtotal)
	assert.Equal(t, 179247.98, s.Tax)
	assert.Equal(t, 1175070.08, s.GrandTotal)
	assert.Equal(t, "Includes contingency of 47,420.10 (5% of 9,48,402.00)", s.ContingencyNote)
}

func TestSummarize_NoContingency(t *testing.T) {
	s := Summarize([]LineItem{{ID: 1, Description: "Works", Quantity: 2, Rate: 50, Amount: 100}})

	assert.Equal(t, 100.0, s.ItemsSubtotal)
	assert.Equal(t, 0.0, s.Contingency)
	assert.Equal(t, 100.0, s.Subtotal)
	assert.Equal(t, 18.0, s.Tax)
	assert.Equal(t, 118.0, s.GrandTotal)
	assert.Empty(t, s.ContingencyNote)
}

func TestSummarize_MatchesLedgerTotal(t *testing.T) {
	for _, pt := range ProjectTypes {
		for _, c := range Categories {
			items, total := Generate(pt, c, ProjectDetails{"carpetArea": "1234.5", "area": "1234.5"})
			s := NewLedger(items).Summary()
			assert.InDelta(t, total, s.Subtotal, 0.01, "%s/%s", pt, c)
			assert.InDelta(t, s.Subtotal+s.Tax, s.GrandTotal, 0.001)
		}
	}
}

func TestSummarize_LaterContingencyRowIsOrdinary(t *testing.T) {
	s := Summarize([]LineItem{
		{ID: 1, Description: "Works", Amount: 1000},
		{ID: 2, Description: "Contingency (5%)", Amount: 60},
		{ID: 3, Description: "Contingency reserve", Amount: 200},
	})

	assert.Equal(t, 1200.0, s.ItemsSubtotal)
	assert.Equal(t, 60.0, s.Contingency)
	assert.Equal(t, 1260.0, s.Subtotal)
}
