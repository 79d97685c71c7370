package quote

import (
	"fmt"
	"strconv"
)

// AgeBounds is the inclusive range of ages a quote can be issued for.
type AgeBounds struct {
	Min int
	Max int
}

var (
	CurrentAgeBounds = AgeBounds{Min: 1, Max: 120}
	LegacyAgeBounds  = AgeBounds{Min: 18, Max: 100}
)

func (b AgeBounds) Contains(age int) bool {
	return age >= b.Min && age <= b.Max
}

// Validate checks the raw form and returns the request it describes. The
// returned error is always a *FieldValidationError naming the first bad field.
func Validate(form Form, bounds AgeBounds) (Request, error) {
	form = form.trimmed()

	for _, field := range Fields {
		if form.Get(field) == "" {
			return Request{}, &FieldValidationError{
				Field:   field,
				Message: field.Label() + " is required",
			}
		}
	}

	age, err := strconv.Atoi(form.Age)
	if err != nil {
		return Request{}, &FieldValidationError{
			Field:   FieldAge,
			Message: "Age must be a whole number",
		}
	}
	if !bounds.Contains(age) {
		return Request{}, &FieldValidationError{
			Field:   FieldAge,
			Message: fmt.Sprintf("Age must be between %d and %d", bounds.Min, bounds.Max),
		}
	}

	insuranceType, err := ParseInsuranceType(form.InsuranceType)
	if err != nil {
		return Request{}, &FieldValidationError{
			Field:   FieldInsuranceType,
			Message: "Please choose auto or health insurance",
		}
	}

	coverageLevel, err := ParseCoverageLevel(form.CoverageLevel)
	if err != nil {
		return Request{}, &FieldValidationError{
			Field:   FieldCoverageLevel,
			Message: "Please choose basic or premium coverage",
		}
	}

	return Request{
		FirstName:     form.FirstName,
		LastName:      form.LastName,
		Age:           age,
		InsuranceType: insuranceType,
		CoverageLevel: coverageLevel,
	}, nil
}
