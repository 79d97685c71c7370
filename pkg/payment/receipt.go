package payment

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/cicgroup/policy-quote-service/pkg/phone"
	"github.com/cicgroup/policy-quote-service/pkg/quote"
	"github.com/skip2/go-qrcode"
)

const MethodMobileMoney = "mobile-money"

const qrSize = 192

type Details struct {
	Phone  string `json:"phone"`
	Method string `json:"method"`
}

// MaskedPhone is the phone number as shown on the receipt.
func (d Details) MaskedPhone() string {
	return phone.Mask(d.Phone)
}

type Receipt struct {
	Number  string      `json:"number"`
	Quote   quote.Quote `json:"quote"`
	Details Details     `json:"details"`
	Result  Result      `json:"result"`
	PaidAt  time.Time   `json:"paidAt"`
}

// QRCode renders the receipt number as a PNG data URI for the receipt screen.
func (r Receipt) QRCode() (string, error) {
	png, err := qrcode.Encode(r.Number, qrcode.Medium, qrSize)
	if err != nil {
		return "", fmt.Errorf("encode receipt qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
