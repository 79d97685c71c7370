package handlers

import (
	"context"
	"time"

	redisLocal "github.com/cicgroup/policy-quote-service/pkg/redis"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Build a handler that returns a 2** status when the service and its
// session store are reachable
func GetRDBStatus(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		err := redisLocal.Ping(ctx, rdb)
		if err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "session store unreachable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	}
}
