package handlers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/cicgroup/policy-quote-service/pkg/quote"
	"github.com/gofiber/fiber/v2"
)

type quoteRequestBody struct {
	FirstName     string      `json:"firstName"`
	LastName      string      `json:"lastName"`
	Age           json.Number `json:"age"`
	InsuranceType string      `json:"insuranceType"`
	CoverageLevel string      `json:"coverageLevel"`
}

type quoteResponse struct {
	Reference    string        `json:"reference"`
	Request      quote.Request `json:"request"`
	Amount       quote.Amount  `json:"amount"`
	Display      string        `json:"display"`
	Table        string        `json:"table"`
	CalculatedAt time.Time     `json:"calculatedAt"`
}

// CreateQuote prices a quote request sent as JSON. It applies the same
// validation as the form.
func CreateQuote(calc *quote.Calculator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body quoteRequestBody
		err := c.BodyParser(&body)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "request body must be a JSON quote request")
		}

		form := quote.NewForm()
		form.Set(quote.FieldFirstName, body.FirstName)
		form.Set(quote.FieldLastName, body.LastName)
		form.Set(quote.FieldAge, body.Age.String())
		form.Set(quote.FieldInsuranceType, body.InsuranceType)
		form.Set(quote.FieldCoverageLevel, body.CoverageLevel)

		q, err := calc.Calculate(c.UserContext(), form)
		if err != nil {
			var fieldErr *quote.FieldValidationError
			if errors.As(err, &fieldErr) {
				return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
					"field": fieldErr.Field.String(),
					"error": fieldErr.Message,
				})
			}
			return err
		}

		return c.Status(fiber.StatusOK).JSON(quoteResponse{
			Reference:    q.Reference,
			Request:      q.Request,
			Amount:       q.Amount,
			Display:      q.Amount.String(),
			Table:        q.Table,
			CalculatedAt: q.CalculatedAt,
		})
	}
}
