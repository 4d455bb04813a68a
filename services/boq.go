package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// ProjectType selects the ordered set of rule slots used to price a project.
type ProjectType string

const (
	ProjectResidential ProjectType = "residential"
	ProjectCommercial  ProjectType = "commercial"
	ProjectIndustrial  ProjectType = "industrial"
	ProjectHospitality ProjectType = "hospitality"
)

// ProjectTypes lists the supported project types in wizard order.
var ProjectTypes = []ProjectType{
	ProjectResidential,
	ProjectCommercial,
	ProjectIndustrial,
	ProjectHospitality,
}

// ParseProjectType normalizes user input. Unknown values are kept as-is;
// the pricing engine produces no rule items for them.
func ParseProjectType(s string) ProjectType {
	return ProjectType(strings.ToLower(strings.TrimSpace(s)))
}

// Known reports whether the project type has pricing rules.
func (p ProjectType) Known() bool {
	for _, pt := range ProjectTypes {
		if pt == p {
			return true
		}
	}
	return false
}

// Label returns the display form, e.g. "Residential".
func (p ProjectType) Label() string {
	if p == "" {
		return ""
	}
	return strings.ToUpper(string(p[:1])) + string(p[1:])
}

// Category is the pricing tier applied uniformly across all line items.
type Category int

const (
	CategoryStandard Category = iota
	CategoryPremium
	CategoryLuxury
	CategoryCustom
)

// Categories lists the selectable categories in wizard order.
var Categories = []Category{CategoryStandard, CategoryPremium, CategoryLuxury, CategoryCustom}

// ParseCategory maps a category key to its enumerated value. "deluxe" is an
// alias for luxury. Any unrecognized key resolves to luxury, the highest tier.
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standard":
		return CategoryStandard
	case "premium":
		return CategoryPremium
	case "luxury", "deluxe":
		return CategoryLuxury
	case "custom":
		return CategoryCustom
	default:
		return CategoryLuxury
	}
}

func (c Category) String() string {
	switch c {
	case CategoryStandard:
		return "standard"
	case CategoryPremium:
		return "premium"
	case CategoryCustom:
		return "custom"
	default:
		return "luxury"
	}
}

// Label returns the display form of the category.
func (c Category) Label() string {
	switch c {
	case CategoryStandard:
		return "Standard"
	case CategoryPremium:
		return "Premium"
	case CategoryCustom:
		return "Custom Costing"
	default:
		return "Luxury"
	}
}

// Tier returns the pricing tier whose rates apply to this category.
// Custom costing has no rate table of its own and prices at the luxury tier.
func (c Category) Tier() Category {
	switch c {
	case CategoryStandard, CategoryPremium:
		return c
	default:
		return CategoryLuxury
	}
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	*c = ParseCategory(string(b))
	return nil
}

// CategorySelection is the category step's output. CustomRate is the per
// sq.ft rate entered for custom costing; it is recorded and shown on the
// document but does not change rule pricing.
type CategorySelection struct {
	Category   Category `json:"type"`
	CustomRate float64  `json:"customRate,omitempty"`
}

const (
	// ContingencyMarker identifies the contingency line within a ledger.
	ContingencyMarker      = "Contingency"
	ContingencyDescription = "Contingency (5%)"
	ContingencyRate        = 0.05
)

// LineItem is one priced unit of work.
type LineItem struct {
	ID             int     `json:"id"`
	Description    string  `json:"description"`
	Specifications string  `json:"specifications"`
	Materials      string  `json:"materials"`
	Unit           string  `json:"unit"`
	Quantity       float64 `json:"quantity"`
	Rate           float64 `json:"rate"`
	Amount         float64 `json:"amount"`
}

// IsContingency reports whether the item carries the contingency marker.
func (it LineItem) IsContingency() bool {
	return strings.Contains(it.Description, ContingencyMarker)
}

func newContingencyItem(id int, amount float64) LineItem {
	return LineItem{
		ID:             id,
		Description:    ContingencyDescription,
		Specifications: "Allowance for unforeseen items or changes",
		Materials:      "-",
		Unit:           "LUMP SUM",
		Quantity:       1,
		Rate:           amount,
		Amount:         amount,
	}
}

// ProjectDetails is the free-form attribute bag collected by the details
// step (or returned by extraction). Accessors never fail: missing or
// non-numeric values degrade to zero or the supplied default.
type ProjectDetails map[string]any

// Text returns the attribute as a trimmed string.
func (d ProjectDetails) Text(key string) string {
	if d == nil {
		return ""
	}
	return strings.TrimSpace(cast.ToString(d[key]))
}

// Float returns the attribute as a non-negative number. Strings are read up
// to the first non-numeric character, so "1000 sq.ft" yields 1000.
func (d ProjectDetails) Float(key string) float64 {
	if d == nil {
		return 0
	}
	v, ok := coerceFloat(d[key])
	if !ok || v < 0 {
		return 0
	}
	return v
}

// Int returns the attribute as an integer, or def when the attribute is
// absent, empty or has no leading integer.
func (d ProjectDetails) Int(key string, def int) int {
	if d == nil {
		return def
	}
	raw, ok := d[key]
	if !ok || raw == nil {
		return def
	}
	switch v := raw.(type) {
	case string:
		m := leadingInt.FindString(strings.TrimSpace(v))
		if m == "" {
			return def
		}
		n, err := strconv.Atoi(m)
		if err != nil || !inNumericRange(float64(n)) {
			return def
		}
		return n
	default:
		n, err := cast.ToIntE(v)
		if err != nil || !inNumericRange(float64(n)) {
			return def
		}
		return n
	}
}

// CarpetArea returns the usable floor area. The industrial and hospitality
// forms collect it under "area".
func (d ProjectDetails) CarpetArea() float64 {
	if v := d.Float("carpetArea"); v > 0 {
		return v
	}
	return d.Float("area")
}

// Clone returns a shallow copy safe to modify.
func (d ProjectDetails) Clone() ProjectDetails {
	out := make(ProjectDetails, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// MaxNumericValue bounds every coerced quantity, rate, area and amount.
// Larger values are treated as not numeric, so products and sums of them
// stay finite.
const MaxNumericValue = 1e12

var (
	leadingFloat = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`)
	leadingInt   = regexp.MustCompile(`^[-+]?\d+`)
)

// coerceFloat converts JSON numbers, numeric strings and strings with a
// numeric prefix. The second result is false when nothing numeric was found.
func coerceFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case string:
		return parseLeadingFloat(v)
	default:
		f, err := cast.ToFloat64E(v)
		if err != nil || !inNumericRange(f) {
			return 0, false
		}
		return f, true
	}
}

func parseLeadingFloat(s string) (float64, bool) {
	m := leadingFloat.FindString(strings.TrimSpace(strings.ReplaceAll(s, ",", "")))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || !inNumericRange(f) {
		return 0, false
	}
	return f, true
}

func inNumericRange(f float64) bool {
	return !math.IsNaN(f) && math.Abs(f) <= MaxNumericValue
}
