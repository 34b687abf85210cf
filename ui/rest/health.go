package rest

import (
	"github.com/AzielCF/az-wap/domains/health"
	"github.com/AzielCF/az-wap/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Health struct {
	Service health.IUsecase
}

func InitRestHealth(app fiber.Router, service health.IUsecase) Health {
	handler := Health{Service: service}

	app.Get("/health", handler.Liveness)
	app.Get("/health/ready", handler.Readiness)

	return handler
}

func (h *Health) Liveness(c *fiber.Ctx) error {
	report := h.Service.Liveness(c.UserContext())
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "alive", Results: report})
}

func (h *Health) Readiness(c *fiber.Ctx) error {
	report := h.Service.Readiness(c.UserContext())
	if !report.Ready {
		return c.Status(503).JSON(utils.ResponseData{Status: 503, Code: "NOT_READY", Message: "one or more dependencies unreachable", Results: report})
	}
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "ready", Results: report})
}
