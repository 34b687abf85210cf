package rest

import (
	"github.com/AzielCF/az-wap/domains/agent"
	"github.com/AzielCF/az-wap/pkg/utils"
	"github.com/AzielCF/az-wap/ui/rest/middleware"
	"github.com/gofiber/fiber/v2"
)

type Agent struct {
	Service agent.IUsecase
}

func InitRestAgent(app fiber.Router, service agent.IUsecase) Agent {
	rest := Agent{Service: service}
	app.Get("/api/v1/agents", rest.List)
	app.Get("/api/v1/agents/:id", rest.Get)
	app.Put("/api/v1/agents/:id/callback", rest.UpdateCallback)
	return rest
}

func (h *Agent) List(c *fiber.Ctx) error {
	p := middleware.PrincipalFromCtx(c)
	agents, err := h.Service.List(c.UserContext(), p.OrgID)
	utils.PanicIfNeeded(err)
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "agents fetched", Results: agents})
}

func (h *Agent) Get(c *fiber.Ctx) error {
	p := middleware.PrincipalFromCtx(c)
	found, err := h.Service.Get(c.UserContext(), p.OrgID, c.Params("id"))
	utils.PanicIfNeeded(err)
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "agent fetched", Results: found})
}

func (h *Agent) UpdateCallback(c *fiber.Ctx) error {
	p := middleware.PrincipalFromCtx(c)
	var body struct {
		CallbackURL string `json:"callback_url"`
	}
	utils.PanicIfNeeded(c.BodyParser(&body))

	err := h.Service.UpdateCallback(c.UserContext(), p.OrgID, c.Params("id"), body.CallbackURL)
	utils.PanicIfNeeded(err)
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "callback updated"})
}
