package rest

import (
	"github.com/AzielCF/az-wap/pkg/utils"
	"github.com/AzielCF/az-wap/usecase"
	"github.com/gofiber/fiber/v2"
)

type Portal struct {
	Service *usecase.PortalUsecase
}

func InitRestPortal(app fiber.Router, service *usecase.PortalUsecase) Portal {
	rest := Portal{Service: service}
	app.Post("/api/v1/portal/login", rest.Login)
	return rest
}

func (h *Portal) Login(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	utils.PanicIfNeeded(c.BodyParser(&body))

	token, err := h.Service.Login(c.UserContext(), body.Email, body.Password)
	utils.PanicIfNeeded(err)
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "login successful", Results: fiber.Map{"token": token}})
}
