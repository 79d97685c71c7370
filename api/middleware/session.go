package middleware

import (
	"errors"
	"log/slog"
	"time"

	"github.com/cicgroup/policy-quote-service/pkg/core"
	"github.com/cicgroup/policy-quote-service/pkg/session"
	"github.com/gofiber/fiber/v2"
)

const localsSession = "session"

// ExpiredPath is where a visitor lands once their session has idled out.
const ExpiredPath = "/?expired=1"

// Session resolves the visitor's session from its cookie, starting a new one
// when there is none, and refreshes its idle timeout. A visitor whose
// session expired is sent back to the start screen.
func Session(store *session.Store, cfg core.SessionConfig, logger *slog.Logger) fiber.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		id := c.Cookies(cfg.CookieName)
		expired := false

		if id != "" {
			sess, err := store.Touch(ctx, id)
			if err == nil {
				c.Locals(localsSession, sess)
				return c.Next()
			}
			if !errors.Is(err, session.ErrNotFound) {
				return err
			}
			expired = true
		}

		sess, err := store.Start(ctx)
		if err != nil {
			return err
		}

		c.Cookie(&fiber.Cookie{
			Name:     cfg.CookieName,
			Value:    sess.ID,
			Path:     "/",
			HTTPOnly: true,
			Secure:   cfg.CookieSecure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})

		if expired && !isStart(c) {
			logger.InfoContext(ctx, "session expired", slog.String("path", c.Path()))
			return c.Redirect(ExpiredPath, fiber.StatusSeeOther)
		}

		c.Locals(localsSession, sess)
		return c.Next()
	}
}

func isStart(c *fiber.Ctx) bool {
	return c.Method() == fiber.MethodGet && c.Path() == "/"
}

// SessionFrom returns the session set by Session, or nil outside of it.
func SessionFrom(c *fiber.Ctx) *session.Session {
	sess, _ := c.Locals(localsSession).(*session.Session)
	return sess
}

// ClearSession expires the session cookie in the browser.
func ClearSession(c *fiber.Ctx, cfg core.SessionConfig) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
