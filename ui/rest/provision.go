package rest

import (
	"github.com/AzielCF/az-wap/domains/provision"
	"github.com/AzielCF/az-wap/pkg/utils"
	"github.com/AzielCF/az-wap/ui/rest/middleware"
	"github.com/AzielCF/az-wap/usecase"
	"github.com/gofiber/fiber/v2"
)

type Provision struct {
	Service provision.IUsecase
}

func InitRestProvision(app fiber.Router, service provision.IUsecase) Provision {
	rest := Provision{Service: service}
	app.Post("/api/v1/provision", rest.Provision)
	app.Post("/api/v1/deprovision", rest.Deprovision)
	return rest
}

func (h *Provision) Provision(c *fiber.Ctx) error {
	p := middleware.PrincipalFromCtx(c)
	utils.PanicIfNeeded(usecase.RequireAdmin(p))

	var req provision.Request
	utils.PanicIfNeeded(c.BodyParser(&req))
	req.OrgID = p.OrgID

	result, err := h.Service.Provision(c.UserContext(), req)
	utils.PanicIfNeeded(err)
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "agent provisioned", Results: result})
}

func (h *Provision) Deprovision(c *fiber.Ctx) error {
	p := middleware.PrincipalFromCtx(c)
	utils.PanicIfNeeded(usecase.RequireAdmin(p))

	var body struct {
		AgentID string `json:"agent_id"`
	}
	utils.PanicIfNeeded(c.BodyParser(&body))

	err := h.Service.Deprovision(c.UserContext(), p.OrgID, body.AgentID)
	utils.PanicIfNeeded(err)
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "agent deprovisioned"})
}
