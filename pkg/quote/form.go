package quote

import (
	"strconv"
	"strings"
)

// Field names one input of the quote form.
type Field int

const (
	FieldFirstName Field = iota
	FieldLastName
	FieldAge
	FieldInsuranceType
	FieldCoverageLevel
)

var Fields = []Field{
	FieldFirstName,
	FieldLastName,
	FieldAge,
	FieldInsuranceType,
	FieldCoverageLevel,
}

var fieldNames = map[Field]string{
	FieldFirstName:     "firstName",
	FieldLastName:      "lastName",
	FieldAge:           "age",
	FieldInsuranceType: "insuranceType",
	FieldCoverageLevel: "coverageLevel",
}

var fieldLabels = map[Field]string{
	FieldFirstName:     "First name",
	FieldLastName:      "Last name",
	FieldAge:           "Age",
	FieldInsuranceType: "Type of insurance",
	FieldCoverageLevel: "Coverage level",
}

// String is the form input name.
func (f Field) String() string {
	return fieldNames[f]
}

func (f Field) Label() string {
	return fieldLabels[f]
}

func ParseField(name string) (Field, bool) {
	for f, n := range fieldNames {
		if n == name {
			return f, true
		}
	}
	return 0, false
}

// Form holds the raw, unvalidated values typed into the quote form.
type Form struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Age           string `json:"age"`
	InsuranceType string `json:"insuranceType"`
	CoverageLevel string `json:"coverageLevel"`
}

// NewForm returns an empty form with the selects on their first option.
func NewForm() Form {
	return Form{
		InsuranceType: string(Auto),
		CoverageLevel: string(Basic),
	}
}

func (f *Form) Set(field Field, value string) {
	switch field {
	case FieldFirstName:
		f.FirstName = value
	case FieldLastName:
		f.LastName = value
	case FieldAge:
		f.Age = value
	case FieldInsuranceType:
		f.InsuranceType = value
	case FieldCoverageLevel:
		f.CoverageLevel = value
	}
}

func (f Form) Get(field Field) string {
	switch field {
	case FieldFirstName:
		return f.FirstName
	case FieldLastName:
		return f.LastName
	case FieldAge:
		return f.Age
	case FieldInsuranceType:
		return f.InsuranceType
	case FieldCoverageLevel:
		return f.CoverageLevel
	}
	return ""
}

// FormFromRequest rebuilds the form that produces r, used to prefill the
// screen when a visitor comes back to change a quote.
func FormFromRequest(r Request) Form {
	form := NewForm()
	form.Set(FieldFirstName, r.FirstName)
	form.Set(FieldLastName, r.LastName)
	form.Set(FieldAge, strconv.Itoa(r.Age))
	form.Set(FieldInsuranceType, string(r.InsuranceType))
	form.Set(FieldCoverageLevel, string(r.CoverageLevel))
	return form
}

func (f Form) trimmed() Form {
	return Form{
		FirstName:     strings.TrimSpace(f.FirstName),
		LastName:      strings.TrimSpace(f.LastName),
		Age:           strings.TrimSpace(f.Age),
		InsuranceType: strings.TrimSpace(f.InsuranceType),
		CoverageLevel: strings.TrimSpace(f.CoverageLevel),
	}
}
