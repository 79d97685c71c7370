package handlers

import (
	"github.com/cicgroup/policy-quote-service/api/middleware"
	"github.com/gofiber/fiber/v2"
)

// viewForm is the start screen. It never auto-navigates: idling there has
// nowhere to go back to.
const viewForm = "form"

func render(c *fiber.Ctx, status int, name string, data fiber.Map) error {
	if sess := middleware.SessionFrom(c); sess != nil && name != viewForm {
		data["IdleSeconds"] = int(sess.IdleTimeout.Seconds())
	}
	return c.Status(status).Render(name, data)
}

// RenderError renders the terminal error screen. It only offers a way back
// to the start.
func RenderError(c *fiber.Ctx, status int, title, message string) error {
	return c.Status(status).Render("error", fiber.Map{
		"Title":   title,
		"Message": message,
	})
}
