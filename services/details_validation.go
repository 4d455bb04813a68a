package services

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// detailRules lists the required attributes of each project type's form.
// Area-like and count attributes must also be positive numbers.
var detailRules = map[ProjectType][]string{
	ProjectResidential: {"clientName", "carpetArea", "location"},
	ProjectCommercial:  {"clientName", "numberOfFloors", "carpetArea", "location"},
	ProjectIndustrial:  {"clientName", "area", "location"},
	ProjectHospitality: {"clientName", "numberOfRooms", "area", "location"},
}

var numericDetails = map[string]bool{
	"carpetArea":     true,
	"area":           true,
	"numberOfFloors": true,
	"numberOfRooms":  true,
}

// ValidateDetails checks the details form of a project type. It returns a
// map of attribute name to message, empty when the form is valid. Unknown
// project types only require a client name.
func ValidateDetails(pt ProjectType, d ProjectDetails) map[string]string {
	required, ok := detailRules[pt]
	if !ok {
		required = []string{"clientName"}
	}

	errs := validation.Errors{}
	for _, key := range required {
		value := d.Text(key)
		rules := []validation.Rule{validation.Required.Error("is required")}
		if numericDetails[key] {
			rules = append(rules, validation.By(positiveNumber))
		}
		errs[key] = validation.Validate(value, rules...)
	}
	return errorMap(errs.Filter())
}

// ValidateCategory checks the category step. Custom costing needs a
// positive per sq.ft rate.
func ValidateCategory(sel CategorySelection) map[string]string {
	return errorMap(validation.ValidateStruct(&sel,
		validation.Field(&sel.CustomRate,
			validation.When(sel.Category == CategoryCustom, validation.Required.Error("is required for custom costing")),
			validation.Min(0.0).Error("must not be negative"),
		),
	))
}

func positiveNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	v, ok := parseLeadingFloat(s)
	if !ok || v <= 0 {
		return errors.New("must be a positive number")
	}
	return nil
}

// errorMap flattens ozzo validation errors to field → message.
func errorMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		out["_"] = err.Error()
		return out
	}
	for field, e := range verrs {
		if e != nil {
			out[field] = e.Error()
		}
	}
	return out
}
