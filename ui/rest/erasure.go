package rest

import (
	"github.com/AzielCF/az-wap/domains/erasure"
	"github.com/AzielCF/az-wap/pkg/utils"
	"github.com/AzielCF/az-wap/ui/rest/middleware"
	"github.com/AzielCF/az-wap/usecase"
	"github.com/gofiber/fiber/v2"
)

type Erasure struct {
	Service erasure.IUsecase
}

func InitRestErasure(app fiber.Router, service erasure.IUsecase) Erasure {
	rest := Erasure{Service: service}
	app.Post("/api/v1/erasure-requests", rest.Create)
	return rest
}

// Create is super-admin-only: erasure cascades across every tenant's rows
// matching the identifier, not just the caller's own organization.
func (h *Erasure) Create(c *fiber.Ctx) error {
	utils.PanicIfNeeded(usecase.RequireSuperAdmin(middleware.PrincipalFromCtx(c)))

	var body struct {
		SubjectIdentifier string               `json:"subject_identifier"`
		IdentifierType    erasure.IdentifierType `json:"identifier_type"`
	}
	utils.PanicIfNeeded(c.BodyParser(&body))

	result, err := h.Service.Execute(c.UserContext(), body.SubjectIdentifier, body.IdentifierType)
	utils.PanicIfNeeded(err)
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "erasure completed", Results: result})
}
