package routes

import (
	"github.com/cicgroup/policy-quote-service/api/handlers"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func StatusRouter(app fiber.Router, rdb *redis.Client) {
	app.Get("/status", handlers.GetRDBStatus(rdb))
}
