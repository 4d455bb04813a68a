package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cast"
	"github.com/tidwall/jsonc"
)

var (
	// ErrUnparseable is returned when no JSON object can be recovered from
	// the model's reply.
	ErrUnparseable = errors.New("could not extract JSON from response")

	// ErrInvalidShape is returned when the JSON lacks projectDetails or an
	// items array.
	ErrInvalidShape = errors.New("invalid response format")
)

var fencedBlock = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// ParseExtraction recovers the structured BOQ from the model's text reply.
// It tries the whole text, then the span from the first '{' to the last
// '}', then the first fenced code block. Comments and trailing commas are
// tolerated in every attempt.
func ParseExtraction(text string) (*Extraction, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty response", ErrUnparseable)
	}

	top, ok := decodeObject(text)
	if !ok {
		if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
			top, ok = decodeObject(text[start : end+1])
		}
	}
	if !ok {
		if m := fencedBlock.FindStringSubmatch(text); m != nil {
			top, ok = decodeObject(strings.TrimSpace(m[1]))
		}
	}
	if !ok {
		return nil, ErrUnparseable
	}

	var details map[string]any
	if raw, found := top["projectDetails"]; !found || json.Unmarshal(raw, &details) != nil || details == nil {
		return nil, fmt.Errorf("%w: missing projectDetails", ErrInvalidShape)
	}

	var rawItems []map[string]any
	if raw, found := top["items"]; !found || json.Unmarshal(raw, &rawItems) != nil || rawItems == nil {
		return nil, fmt.Errorf("%w: missing or invalid items array", ErrInvalidShape)
	}

	items := make([]LineItem, len(rawItems))
	for i, raw := range rawItems {
		items[i] = normalizeExtractedItem(i+1, raw)
	}
	return &Extraction{ProjectDetails: ProjectDetails(details), Items: items}, nil
}

func decodeObject(s string) (map[string]json.RawMessage, bool) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON([]byte(s)), &top); err != nil || top == nil {
		return nil, false
	}
	return top, true
}

// normalizeExtractedItem assigns the id and coerces every field. Missing
// text becomes "", missing or non-numeric numbers become 0, and an absent
// or zero amount is derived from quantity and rate.
func normalizeExtractedItem(id int, raw map[string]any) LineItem {
	text := func(key string) string {
		if raw[key] == nil {
			return ""
		}
		return strings.TrimSpace(cast.ToString(raw[key]))
	}
	number := func(key string) float64 {
		v, ok := coerceFloat(raw[key])
		if !ok || v < 0 {
			return 0
		}
		return v
	}

	it := LineItem{
		ID:             id,
		Description:    text("description"),
		Specifications: text("specifications"),
		Materials:      text("materials"),
		Unit:           text("unit"),
		Quantity:       number("quantity"),
		Rate:           number("rate"),
		Amount:         number("amount"),
	}
	if it.Amount == 0 {
		it.Amount = CalcAmount(it.Quantity, it.Rate)
	}
	return it
}
