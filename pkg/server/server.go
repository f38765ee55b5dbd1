// Package server exposes the pipeline over HTTP with fiber.
//
//	POST /meshes       IFC file as multipart "file" or as the raw body
//	GET  /health/live
//	GET  /health/ready
package server

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/chazu/lintel/pkg/app"
)

// New returns a fiber app serving a.
func New(a *app.App) *fiber.App {
	sc := a.Config().Server
	f := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(sc.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(sc.WriteTimeout) * time.Second,
		BodyLimit:    sc.BodyLimit,
		AppName:      "lintel",
	})

	f.Use(recover.New())
	f.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	f.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})
	f.Get("/health/ready", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
			"engine": a.Kernel().Name(),
		})
	})

	h := &handler{app: a, timeout: time.Duration(sc.WriteTimeout) * time.Second}
	f.Post("/meshes", h.meshes)
	return f
}
