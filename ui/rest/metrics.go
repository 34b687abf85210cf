package rest

import (
	"path/filepath"

	"github.com/AzielCF/az-wap/domains/metrics"
	"github.com/gofiber/fiber/v2"
)

type Metrics struct {
	Service metrics.IRegistry
}

func InitRestMetrics(app fiber.Router, service metrics.IRegistry) Metrics {
	rest := Metrics{Service: service}
	app.Get("/metrics", rest.Render)
	return rest
}

func (h *Metrics) Render(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/plain; version=0.0.4")
	return c.SendString(h.Service.Render())
}

// Storage serves TTS artifacts written to local disk by the DiskStorage
// adapter (used when demo mode is off) at /storage/{key} (spec §6).
type Storage struct {
	Dir string
}

func InitRestStorage(app fiber.Router, dir string) Storage {
	rest := Storage{Dir: dir}
	app.Get("/storage/:key", rest.Get)
	return rest
}

func (h *Storage) Get(c *fiber.Ctx) error {
	key := filepath.Base(c.Params("key"))
	return c.SendFile(filepath.Join(h.Dir, key))
}
