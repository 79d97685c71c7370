package handlers

import (
	"github.com/cicgroup/policy-quote-service/api/middleware"
	"github.com/cicgroup/policy-quote-service/pkg/core"
	"github.com/cicgroup/policy-quote-service/pkg/session"
	"github.com/gofiber/fiber/v2"
)

// Reset discards everything the visitor entered and returns to the form.
func Reset(store *session.Store, cfg core.SessionConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := middleware.SessionFrom(c)

		err := store.End(c.UserContext(), sess.ID)
		if err != nil {
			return err
		}

		middleware.ClearSession(c, cfg)
		return c.Redirect("/", fiber.StatusSeeOther)
	}
}
