package engine

import "github.com/gofiber/fiber/v2"

func RegisterEntryRoutes(app *fiber.App, h *Handler, middleware ...fiber.Handler) {
	api := app.Group("/api/entries", middleware...)

	api.Get("/", h.List)
	api.Get("/picker", h.Picker)
	api.Post("/", h.Create)
}
