package handlers

import (
	"errors"
	"log/slog"

	"github.com/cicgroup/policy-quote-service/api/middleware"
	"github.com/cicgroup/policy-quote-service/pkg/quote"
	"github.com/cicgroup/policy-quote-service/pkg/session"
	"github.com/gofiber/fiber/v2"
)

func formData(calc *quote.Calculator, form quote.Form) fiber.Map {
	bounds := calc.Bounds()
	return fiber.Map{
		"Title":          "Get a quote",
		"Form":           form,
		"AgeMin":         bounds.Min,
		"AgeMax":         bounds.Max,
		"InsuranceTypes": quote.InsuranceTypes,
		"CoverageLevels": quote.CoverageLevels,
	}
}

// ShowForm renders the quote form. With ?edit=1 it is prefilled from the
// session's last quote.
func ShowForm(calc *quote.Calculator, store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form := quote.NewForm()

		if c.Query("edit") != "" {
			sess := middleware.SessionFrom(c)
			q, err := store.LoadQuote(c.UserContext(), sess.ID)
			switch {
			case err == nil:
				form = quote.FormFromRequest(q.Request)
			case !errors.Is(err, session.ErrNotFound):
				return err
			}
		}

		data := formData(calc, form)
		data["Expired"] = c.Query("expired") != ""
		return render(c, fiber.StatusOK, viewForm, data)
	}
}

// SubmitQuote prices the submitted form and hands the quote to the results
// screen through the session.
func SubmitQuote(calc *quote.Calculator, store *session.Store, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		sess := middleware.SessionFrom(c)

		form := quote.NewForm()
		for _, field := range quote.Fields {
			form.Set(field, c.FormValue(field.String()))
		}

		q, err := calc.Calculate(ctx, form)
		if err != nil {
			var fieldErr *quote.FieldValidationError
			if errors.As(err, &fieldErr) {
				data := formData(calc, form)
				data["Error"] = fieldErr.Message
				return render(c, fiber.StatusUnprocessableEntity, viewForm, data)
			}
			return err
		}

		err = store.SaveQuote(ctx, sess.ID, q)
		if err != nil {
			return err
		}

		logger.DebugContext(ctx, "quote handed to results", slog.String("reference", q.Reference))
		return c.Redirect("/results", fiber.StatusSeeOther)
	}
}

// loadQuote returns the session's quote or a MissingStateError for screen.
func loadQuote(c *fiber.Ctx, store *session.Store, screen string) (quote.Quote, error) {
	sess := middleware.SessionFrom(c)

	q, err := store.LoadQuote(c.UserContext(), sess.ID)
	if errors.Is(err, session.ErrNotFound) {
		return quote.Quote{}, &session.MissingStateError{Screen: screen, Missing: "a quote"}
	}
	return q, err
}

func ShowResults(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := loadQuote(c, store, "results")
		if err != nil {
			return err
		}

		return render(c, fiber.StatusOK, "results", fiber.Map{
			"Title": "Your quote",
			"Quote": q,
		})
	}
}
