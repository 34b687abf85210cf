package rest

import (
	"github.com/AzielCF/az-wap/domains/org"
	"github.com/AzielCF/az-wap/pkg/utils"
	"github.com/AzielCF/az-wap/ui/rest/middleware"
	"github.com/AzielCF/az-wap/usecase"
	"github.com/gofiber/fiber/v2"
)

type Org struct {
	Service org.IUsecase
}

func InitRestOrg(app fiber.Router, service org.IUsecase) Org {
	rest := Org{Service: service}
	app.Post("/api/v1/organizations", rest.Create)
	app.Get("/api/v1/organizations", rest.List)
	app.Get("/api/v1/organizations/:id", rest.Get)
	return rest
}

func (h *Org) Create(c *fiber.Ctx) error {
	utils.PanicIfNeeded(usecase.RequireSuperAdmin(middleware.PrincipalFromCtx(c)))

	var req org.CreateRequest
	utils.PanicIfNeeded(c.BodyParser(&req))

	created, err := h.Service.Create(c.UserContext(), req)
	utils.PanicIfNeeded(err)
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "organization created", Results: created})
}

func (h *Org) List(c *fiber.Ctx) error {
	utils.PanicIfNeeded(usecase.RequireSuperAdmin(middleware.PrincipalFromCtx(c)))

	orgs, err := h.Service.List(c.UserContext())
	utils.PanicIfNeeded(err)
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "organizations fetched", Results: orgs})
}

func (h *Org) Get(c *fiber.Ctx) error {
	p := middleware.PrincipalFromCtx(c)
	id := c.Params("id")
	if !p.IsAdmin() && p.OrgID != id {
		utils.PanicIfNeeded(usecase.RequireSuperAdmin(p))
	}

	found, err := h.Service.Get(c.UserContext(), id)
	utils.PanicIfNeeded(err)
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "organization fetched", Results: found})
}
