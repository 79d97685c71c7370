package quote

import (
	"fmt"
	"strings"
	"time"
)

type InsuranceType string

const (
	Auto   InsuranceType = "auto"
	Health InsuranceType = "health"
)

var InsuranceTypes = []InsuranceType{Auto, Health}

func ParseInsuranceType(s string) (InsuranceType, error) {
	switch t := InsuranceType(strings.ToLower(strings.TrimSpace(s))); t {
	case Auto, Health:
		return t, nil
	default:
		return "", fmt.Errorf("unknown insurance type %q", s)
	}
}

// Label is the display form used on the screens.
func (t InsuranceType) Label() string {
	switch t {
	case Auto:
		return "Auto"
	case Health:
		return "Health"
	default:
		return string(t)
	}
}

type CoverageLevel string

const (
	Basic   CoverageLevel = "basic"
	Premium CoverageLevel = "premium"
)

var CoverageLevels = []CoverageLevel{Basic, Premium}

func ParseCoverageLevel(s string) (CoverageLevel, error) {
	switch l := CoverageLevel(strings.ToLower(strings.TrimSpace(s))); l {
	case Basic, Premium:
		return l, nil
	default:
		return "", fmt.Errorf("unknown coverage level %q", s)
	}
}

func (l CoverageLevel) Label() string {
	switch l {
	case Basic:
		return "Basic"
	case Premium:
		return "Premium"
	default:
		return string(l)
	}
}

// Request is a validated quote request. Only Validate produces one.
type Request struct {
	FirstName     string        `json:"firstName"`
	LastName      string        `json:"lastName"`
	Age           int           `json:"age"`
	InsuranceType InsuranceType `json:"insuranceType"`
	CoverageLevel CoverageLevel `json:"coverageLevel"`
}

func (r Request) FullName() string {
	return r.FirstName + " " + r.LastName
}

type Quote struct {
	// Reference identifies this calculation when it is paid for.
	Reference    string    `json:"reference"`
	Request      Request   `json:"request"`
	Amount       Amount    `json:"amount"`
	Table        string    `json:"table"`
	CalculatedAt time.Time `json:"calculatedAt"`
}
