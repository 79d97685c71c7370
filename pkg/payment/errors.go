package payment

import "errors"

var ErrInProgress = errors.New("payment already in progress")

// DeclinedError is returned when the gateway answered but refused the charge.
type DeclinedError struct {
	Reference string
	Reason    string
}

func (e *DeclinedError) Error() string {
	if e.Reason == "" {
		return "payment declined"
	}
	return "payment declined: " + e.Reason
}
