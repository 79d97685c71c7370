package quote

import (
	"errors"
	"fmt"
)

var ErrInvalidInsuranceType = errors.New("invalid insurance type")

// FieldValidationError rejects a form submission. Message is shown to the
// visitor as is.
type FieldValidationError struct {
	Field   Field
	Message string
}

func (e *FieldValidationError) Error() string {
	return e.Message
}

// PricingError is returned by a rate table for input it cannot price.
type PricingError struct {
	InsuranceType InsuranceType
	Err           error
}

func (e *PricingError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, string(e.InsuranceType))
}

func (e *PricingError) Unwrap() error {
	return e.Err
}
