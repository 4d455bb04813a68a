package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtraction_Recovery(t *testing.T) {
	const body = `{"projectDetails": {"clientName": "Asha"}, "items": [{"description": "Tiles", "quantity": 10, "rate": 5}]}`

	tests := []struct {
		name string
		text string
	}{
		{"whole text", body},
		{"surrounding prose", "Here is the BOQ you asked for:\n" + body + "\nLet me know if anything is missing."},
		{"fenced block", "```json\n" + body + "\n```"},
		{"fenced block with stray brace", "Note: {see below}\n```\n" + body + "\n```\n"},
		{"comments and trailing commas", `{
			// extracted
			"projectDetails": {"clientName": "Asha",},
			"items": [{"description": "Tiles", "quantity": 10, "rate": 5,},],
		}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex, err := ParseExtraction(tt.text)
			require.NoError(t, err)
			assert.Equal(t, "Asha", ex.ProjectDetails.Text("clientName"))
			require.Len(t, ex.Items, 1)
			assert.Equal(t, LineItem{ID: 1, Description: "Tiles", Quantity: 10, Rate: 5, Amount: 50}, ex.Items[0])
		})
	}
}

func TestParseExtraction_Errors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{"empty", "  ", ErrUnparseable},
		{"prose", "The image is too blurry to read.", ErrUnparseable},
		{"array", `[1, 2, 3]`, ErrUnparseable},
		{"missing details", `{"items": []}`, ErrInvalidShape},
		{"null details", `{"projectDetails": null, "items": []}`, ErrInvalidShape},
		{"missing items", `{"projectDetails": {}}`, ErrInvalidShape},
		{"items not an array", `{"projectDetails": {}, "items": {"a": 1}}`, ErrInvalidShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExtraction(tt.text)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseExtraction_Normalization(t *testing.T) {
	ex, err := ParseExtraction(`{
		"projectDetails": {"clientName": "Asha", "carpetArea": "1,200 sq.ft"},
		"items": [
			{"description": " Wall paint ", "quantity": "1,000", "rate": "25.5", "unit": "sq.ft"},
			{"description": "Demolition", "quantity": -4, "rate": 300, "amount": 0},
			{"description": "Electrical", "amount": 42500, "specifications": null},
			{"quantity": "n/a", "rate": "tbd"},
			{"description": "Overflow", "quantity": 1e200, "rate": "1e200", "amount": 1e300}
		]
	}`)
	require.NoError(t, err)

	assert.Equal(t, 1200.0, ex.ProjectDetails.CarpetArea())
	assert.Equal(t, []LineItem{
		{ID: 1, Description: "Wall paint", Unit: "sq.ft", Quantity: 1000, Rate: 25.5, Amount: 25500},
		{ID: 2, Description: "Demolition", Quantity: 0, Rate: 300, Amount: 0},
		{ID: 3, Description: "Electrical", Amount: 42500},
		{ID: 4},
		{ID: 5, Description: "Overflow"},
	}, ex.Items)
}

func TestParseExtraction_EmptyItems(t *testing.T) {
	ex, err := ParseExtraction(`{"projectDetails": {}, "items": []}`)
	require.NoError(t, err)
	assert.Empty(t, ex.Items)
	assert.NotNil(t, ex.ProjectDetails)
}
