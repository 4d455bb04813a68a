// Package services provides the BOQ pricing engine, ledger reconciliation,
// formatting and document export used by the wizard handlers.
package services

import (
	_ "embed"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed pricing_rules.yaml
var defaultRulesYAML []byte

// DefaultRules is the built-in rate card.
var DefaultRules = mustLoadRules(defaultRulesYAML)

// QuantityKind selects how a rule slot derives its quantity.
type QuantityKind string

const (
	QtyFixed            QuantityKind = "fixed"
	QtyArea             QuantityKind = "area"
	QtyAreaRatio        QuantityKind = "area_ratio"
	QtyMaxAreaRatio     QuantityKind = "max_area_ratio"
	QtyAreaDivisorFloor QuantityKind = "area_divisor_floor"
	QtyAttributeInt     QuantityKind = "attribute_int"
)

// QuantityRule is a quantity formula over project attributes.
type QuantityRule struct {
	Kind      QuantityKind `yaml:"kind"`
	Value     float64      `yaml:"value"`
	Floor     float64      `yaml:"floor"`
	Ratio     float64      `yaml:"ratio"`
	Divisor   float64      `yaml:"divisor"`
	Attribute string       `yaml:"attribute"`
	Default   int          `yaml:"default"`
}

// Resolve evaluates the formula. The result is never negative.
func (q QuantityRule) Resolve(d ProjectDetails) float64 {
	area := d.CarpetArea()
	var v float64
	switch q.Kind {
	case QtyFixed:
		v = q.Value
	case QtyArea:
		v = area
	case QtyAreaRatio:
		v = area * q.Ratio
	case QtyMaxAreaRatio:
		v = math.Max(q.Floor, area*q.Ratio)
	case QtyAreaDivisorFloor:
		if q.Divisor > 0 {
			v = math.Floor(area / q.Divisor)
		}
	case QtyAttributeInt:
		v = float64(d.Int(q.Attribute, q.Default))
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func (q QuantityRule) validate() error {
	switch q.Kind {
	case QtyFixed, QtyArea, QtyAreaRatio, QtyMaxAreaRatio:
		return nil
	case QtyAreaDivisorFloor:
		if q.Divisor <= 0 {
			return fmt.Errorf("divisor must be positive")
		}
		return nil
	case QtyAttributeInt:
		if q.Attribute == "" {
			return fmt.Errorf("attribute is required")
		}
		return nil
	default:
		return fmt.Errorf("unknown quantity kind %q", q.Kind)
	}
}

// TierValues are the category-specific parts of a rule slot.
type TierValues struct {
	Specifications string  `yaml:"specifications"`
	Materials      string  `yaml:"materials"`
	Rate           float64 `yaml:"rate"`
}

// RuleSlot is one line of a project type's template.
type RuleSlot struct {
	Description string                `yaml:"description"`
	Unit        string                `yaml:"unit"`
	Materials   string                `yaml:"materials"`
	Quantity    QuantityRule          `yaml:"quantity"`
	Tiers       map[string]TierValues `yaml:"tiers"`
}

// Resolve returns the slot's values for the category's pricing tier.
func (s RuleSlot) Resolve(c Category) TierValues {
	v := s.Tiers[c.Tier().String()]
	if v.Materials == "" {
		v.Materials = s.Materials
	}
	return v
}

// RuleTable maps each project type to its ordered rule slots.
type RuleTable map[ProjectType][]RuleSlot

// LoadRuleTable parses and validates a YAML rate card.
func LoadRuleTable(data []byte) (RuleTable, error) {
	var table RuleTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse rate card: %w", err)
	}
	for pt, slots := range table {
		for i, slot := range slots {
			if slot.Description == "" {
				return nil, fmt.Errorf("%s slot %d: description is required", pt, i+1)
			}
			if err := slot.Quantity.validate(); err != nil {
				return nil, fmt.Errorf("%s slot %d: %w", pt, i+1, err)
			}
			for _, tier := range []Category{CategoryStandard, CategoryPremium, CategoryLuxury} {
				v, ok := slot.Tiers[tier.String()]
				if !ok {
					return nil, fmt.Errorf("%s slot %d: missing %s tier", pt, i+1, tier)
				}
				if v.Rate < 0 {
					return nil, fmt.Errorf("%s slot %d: negative %s rate", pt, i+1, tier)
				}
			}
		}
	}
	return table, nil
}

func mustLoadRules(data []byte) RuleTable {
	table, err := LoadRuleTable(data)
	if err != nil {
		panic(err)
	}
	return table
}

// Generate prices a project with the built-in rate card.
func Generate(pt ProjectType, c Category, d ProjectDetails) ([]LineItem, float64) {
	return DefaultRules.Generate(pt, c, d)
}

// Generate prices every slot of the project type and appends the contingency
// item. The returned total includes contingency and is rounded to paise.
// Unknown project types yield only a zero contingency line.
func (t RuleTable) Generate(pt ProjectType, c Category, d ProjectDetails) ([]LineItem, float64) {
	slots := t[pt]
	items := make([]LineItem, 0, len(slots)+1)
	id := 1

	for _, slot := range slots {
		v := slot.Resolve(c)
		qty := slot.Quantity.Resolve(d)
		items = append(items, LineItem{
			ID:             id,
			Description:    slot.Description,
			Specifications: v.Specifications,
			Materials:      v.Materials,
			Unit:           slot.Unit,
			Quantity:       qty,
			Rate:           v.Rate,
			Amount:         CalcAmount(qty, v.Rate),
		})
		id++
	}

	items = append(items, newContingencyItem(id, contingencyAmount(items)))

	return items, RoundCurrency(SumAmounts(items))
}

// CalcAmount returns the extended amount of a line.
func CalcAmount(qty, rate float64) float64 {
	amount := qty * rate
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	return amount
}

// SumAmounts adds item amounts without accumulating float drift.
func SumAmounts(items []LineItem) float64 {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(toDecimal(it.Amount))
	}
	return sum.InexactFloat64()
}

// toDecimal converts v, mapping NaN and ±Inf to zero.
func toDecimal(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

// contingencyAmount is ContingencyRate of the summed amounts, in paise.
func contingencyAmount(others []LineItem) float64 {
	sum := toDecimal(SumAmounts(others))
	return sum.Mul(decimal.NewFromFloat(ContingencyRate)).Round(2).InexactFloat64()
}

// RoundCurrency rounds to 2 decimal places, halves away from zero.
func RoundCurrency(v float64) float64 {
	return toDecimal(v).Round(2).InexactFloat64()
}
