package handlers

import (
	"errors"
	"html/template"
	"log/slog"

	"github.com/cicgroup/policy-quote-service/api/middleware"
	"github.com/cicgroup/policy-quote-service/pkg/payment"
	"github.com/cicgroup/policy-quote-service/pkg/phone"
	"github.com/cicgroup/policy-quote-service/pkg/quote"
	"github.com/cicgroup/policy-quote-service/pkg/session"
	"github.com/gofiber/fiber/v2"
)

const (
	msgGatewayUnavailable = "Mobile money payments are temporarily unavailable. Please try again in a few minutes."
	msgInProgress         = "Your payment is already being processed."
	msgPaymentError       = "Payment could not be completed. Please try again."
)

func paymentData(q quote.Quote, phoneInput, message string) fiber.Map {
	return fiber.Map{
		"Title": "Payment",
		"Quote": q,
		"Phone": phoneInput,
		"Error": message,
	}
}

func ShowPayment(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := loadQuote(c, store, "payment")
		if err != nil {
			return err
		}
		return render(c, fiber.StatusOK, "payment", paymentData(q, "", ""))
	}
}

// SubmitPayment charges the session's quote. Submitting again for the same
// quote lands on the same receipt without a second charge.
func SubmitPayment(store *session.Store, svc *payment.Service, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		q, err := loadQuote(c, store, "payment")
		if err != nil {
			return err
		}

		rawPhone := c.FormValue("phone")
		sess := middleware.SessionFrom(c)

		_, err = svc.Pay(ctx, sess.ID, q, rawPhone)
		if err == nil {
			return c.Redirect("/receipt", fiber.StatusSeeOther)
		}

		var (
			phoneErr *phone.ValidationError
			declined *payment.DeclinedError
		)
		switch {
		case errors.As(err, &phoneErr):
			return render(c, fiber.StatusUnprocessableEntity, "payment", paymentData(q, rawPhone, phoneErr.Error()))
		case errors.As(err, &declined):
			return render(c, fiber.StatusBadGateway, "payment", paymentData(q, rawPhone, "Payment failed: "+declined.Reason))
		case errors.Is(err, payment.ErrGatewayUnavailable):
			return render(c, fiber.StatusServiceUnavailable, "payment", paymentData(q, rawPhone, msgGatewayUnavailable))
		case errors.Is(err, payment.ErrInProgress):
			return render(c, fiber.StatusConflict, "payment", paymentData(q, rawPhone, msgInProgress))
		}

		logger.ErrorContext(ctx, "payment failed", slog.Any("err", err))
		return render(c, fiber.StatusBadGateway, "payment", paymentData(q, rawPhone, msgPaymentError))
	}
}

func ShowReceipt(svc *payment.Service, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		sess := middleware.SessionFrom(c)

		receipt, ok, err := svc.Receipt(ctx, sess.ID)
		if err != nil {
			return err
		}
		if !ok {
			return &session.MissingStateError{Screen: "receipt", Missing: "a completed payment"}
		}

		var qr template.URL
		uri, err := receipt.QRCode()
		if err != nil {
			logger.WarnContext(ctx, "receipt qr code unavailable", slog.Any("err", err))
		} else {
			qr = template.URL(uri)
		}

		return render(c, fiber.StatusOK, "receipt", fiber.Map{
			"Title":   "Receipt",
			"Receipt": receipt,
			"QRCode":  qr,
		})
	}
}
