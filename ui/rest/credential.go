package rest

import (
	domainCredential "github.com/AzielCF/az-wap/domains/credential"
	"github.com/AzielCF/az-wap/pkg/utils"
	"github.com/AzielCF/az-wap/ui/rest/middleware"
	"github.com/gofiber/fiber/v2"
)

type Credential struct {
	Service domainCredential.IUsecase
}

func InitRestCredential(app fiber.Router, service domainCredential.IUsecase) Credential {
	rest := Credential{Service: service}
	app.Get("/api/v1/credentials", rest.List)
	app.Post("/api/v1/credentials", rest.Create)
	app.Get("/api/v1/credentials/:id", rest.Get)
	app.Delete("/api/v1/credentials/:id", rest.Delete)
	return rest
}

func (h *Credential) List(c *fiber.Ctx) error {
	p := middleware.PrincipalFromCtx(c)
	creds, err := h.Service.List(c.UserContext(), p.OrgID)
	utils.PanicIfNeeded(err)
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "credentials fetched", Results: creds})
}

func (h *Credential) Create(c *fiber.Ctx) error {
	p := middleware.PrincipalFromCtx(c)
	var body struct {
		Kind domainCredential.Kind `json:"kind"`
		Name string                `json:"name"`
		Data map[string]string    `json:"data"`
	}
	utils.PanicIfNeeded(c.BodyParser(&body))

	cred, err := h.Service.Create(c.UserContext(), domainCredential.CreateRequest{
		OrgID: p.OrgID, Kind: body.Kind, Name: body.Name, Data: body.Data,
	})
	utils.PanicIfNeeded(err)
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "credential created", Results: cred})
}

func (h *Credential) Get(c *fiber.Ctx) error {
	p := middleware.PrincipalFromCtx(c)
	cred, err := h.Service.Get(c.UserContext(), p.OrgID, c.Params("id"))
	utils.PanicIfNeeded(err)
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "credential fetched", Results: cred})
}

func (h *Credential) Delete(c *fiber.Ctx) error {
	p := middleware.PrincipalFromCtx(c)
	err := h.Service.Delete(c.UserContext(), p.OrgID, c.Params("id"))
	utils.PanicIfNeeded(err)
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "credential deleted"})
}
