// Package phone validates the numbers accepted for mobile-money payments.
package phone

import (
	"regexp"
	"strings"
)

const (
	CountryCode = "254"
	// NationalLength is the number of digits after the country code.
	NationalLength = 9
)

// Safaricom (M-PESA) national number space.
var carrierPattern = regexp.MustCompile(`^(?:7(?:[0-2]\d|4[0-8]|5[7-9]|6[89]|9\d)|11[0-5])\d{6}$`)

var punctuation = strings.NewReplacer(
	" ", "",
	"\t", "",
	"-", "",
	".", "",
	"(", "",
	")", "",
	"/", "",
)

type Reason string

const (
	ReasonEmpty      Reason = "empty"
	ReasonCharacters Reason = "characters"
	ReasonPrefix     Reason = "prefix"
	ReasonLength     Reason = "length"
	ReasonCarrier    Reason = "carrier"
)

var reasonMessages = map[Reason]string{
	ReasonEmpty:      "Enter the M-PESA phone number to pay with",
	ReasonCharacters: "Phone number may only contain digits and a leading +",
	ReasonPrefix:     "Phone number must start with +254, 254 or 0",
	ReasonLength:     "Phone number must have 9 digits after the country code",
	ReasonCarrier:    "Phone number is not a Safaricom M-PESA number",
}

type ValidationError struct {
	Input  string
	Reason Reason
}

func (e *ValidationError) Error() string {
	return reasonMessages[e.Reason]
}

// Normalize validates raw and returns it in international form, e.g.
// "0712 345-678" -> "+254712345678".
func Normalize(raw string) (string, error) {
	s := punctuation.Replace(strings.TrimSpace(raw))
	if s == "" {
		return "", &ValidationError{Input: raw, Reason: ReasonEmpty}
	}

	digits, hasPlus := strings.CutPrefix(s, "+")
	if !isDigits(digits) {
		return "", &ValidationError{Input: raw, Reason: ReasonCharacters}
	}

	var national string
	switch {
	case strings.HasPrefix(digits, CountryCode):
		national = strings.TrimPrefix(digits, CountryCode)
	case !hasPlus && strings.HasPrefix(digits, "0"):
		national = strings.TrimPrefix(digits, "0")
	default:
		return "", &ValidationError{Input: raw, Reason: ReasonPrefix}
	}

	if len(national) != NationalLength {
		return "", &ValidationError{Input: raw, Reason: ReasonLength}
	}
	if !carrierPattern.MatchString(national) {
		return "", &ValidationError{Input: raw, Reason: ReasonCarrier}
	}

	return "+" + CountryCode + national, nil
}

func Valid(raw string) bool {
	_, err := Normalize(raw)
	return err == nil
}

// Mask hides all but the last three digits of a normalized number for logs
// and receipts: "+254712345678" -> "+254******678".
func Mask(normalized string) string {
	if len(normalized) <= 7 {
		return normalized
	}
	head := normalized[:4]
	tail := normalized[len(normalized)-3:]
	return head + strings.Repeat("*", len(normalized)-7) + tail
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
