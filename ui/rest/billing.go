package rest

import (
	"time"

	"github.com/AzielCF/az-wap/pkg/utils"
	"github.com/AzielCF/az-wap/ui/rest/middleware"
	"github.com/AzielCF/az-wap/usecase"
	"github.com/gofiber/fiber/v2"
)

type Billing struct {
	Service *usecase.BillingUsecase
}

func InitRestBilling(app fiber.Router, service *usecase.BillingUsecase) Billing {
	rest := Billing{Service: service}
	app.Get("/api/v1/usage", rest.Usage)
	app.Get("/api/v1/billing", rest.Billing)
	return rest
}

func (h *Billing) Usage(c *fiber.Ctx) error {
	p := middleware.PrincipalFromCtx(c)
	agentID := c.Query("agentId", p.AgentID)

	var since time.Time
	if raw := c.Query("since"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			since = t
		}
	}

	entries, err := h.Service.Usage(c.UserContext(), p.OrgID, agentID, since)
	utils.PanicIfNeeded(err)
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "usage fetched", Results: entries})
}

func (h *Billing) Billing(c *fiber.Ctx) error {
	p := middleware.PrincipalFromCtx(c)
	agentID := c.Query("agentId", p.AgentID)

	summary, err := h.Service.Billing(c.UserContext(), p.OrgID, agentID)
	utils.PanicIfNeeded(err)
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "billing summary fetched", Results: summary})
}
