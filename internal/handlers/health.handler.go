package handlers

import (
	"replay/config"
	"replay/internal/websockets"

	"github.com/gofiber/fiber/v2"
)

func HealthHandler(router fiber.Router, config config.Config, websocket *websockets.Manager) {
	router.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"version":   config.GeneralVersion,
			"service":   "replay_api",
			"wsClients": websocket.ClientCount(),
		})
	})
}
