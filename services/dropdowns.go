package services

// UnitOptions is the list of Unit of Measurement options offered when
// editing a line item.
var UnitOptions = []string{
	"sq.ft",
	"Sqm",
	"Rmt",
	"Nos",
	"Set",
	"Lot",
	"LUMP SUM",
	"Cum",
	"Kg",
	"Ltr",
	"Day",
	"Month",
}

// Option is a value/label pair for a select input.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ProjectTypeOptions lists the project types in wizard order.
func ProjectTypeOptions() []Option {
	opts := make([]Option, len(ProjectTypes))
	for i, pt := range ProjectTypes {
		opts[i] = Option{Value: string(pt), Label: pt.Label()}
	}
	return opts
}

// CategoryOptions lists the pricing categories in wizard order.
func CategoryOptions() []Option {
	opts := make([]Option, len(Categories))
	for i, c := range Categories {
		opts[i] = Option{Value: c.String(), Label: c.Label()}
	}
	return opts
}
