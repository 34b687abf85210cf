package rest

import (
	"strconv"

	"github.com/AzielCF/az-wap/domains/dispatch"
	"github.com/AzielCF/az-wap/pkg/utils"
	"github.com/AzielCF/az-wap/ui/rest/middleware"
	"github.com/AzielCF/az-wap/usecase"
	"github.com/gofiber/fiber/v2"
)

type Dispatch struct {
	Service     dispatch.IDispatcher
	DeadLetters *usecase.DeadLetterUsecase
}

func InitRestDispatch(app fiber.Router, service dispatch.IDispatcher, deadLetters *usecase.DeadLetterUsecase) Dispatch {
	rest := Dispatch{Service: service, DeadLetters: deadLetters}

	app.Post("/api/v1/send-message", rest.SendMessage)
	app.Post("/api/v1/make-call", rest.MakeCall)
	app.Post("/api/v1/transfer-call", rest.TransferCall)
	app.Get("/api/v1/messages", rest.WaitingMessages)
	app.Get("/api/v1/voice-sessions/:sessionID", rest.VoiceSession)

	return rest
}

func (h *Dispatch) SendMessage(c *fiber.Ctx) error {
	p := middleware.PrincipalFromCtx(c)
	var req dispatch.SendRequest
	utils.PanicIfNeeded(c.BodyParser(&req))

	resp, err := h.Service.SendMessage(c.UserContext(), p.OrgID, p.AgentID, p.IsAdmin(), req)
	utils.PanicIfNeeded(err)
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "message dispatched", Results: resp})
}

func (h *Dispatch) MakeCall(c *fiber.Ctx) error {
	p := middleware.PrincipalFromCtx(c)
	var req dispatch.CallRequest
	utils.PanicIfNeeded(c.BodyParser(&req))

	resp, err := h.Service.MakeCall(c.UserContext(), p.OrgID, p.AgentID, p.IsAdmin(), req)
	utils.PanicIfNeeded(err)
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "call initiated", Results: resp})
}

func (h *Dispatch) TransferCall(c *fiber.Ctx) error {
	p := middleware.PrincipalFromCtx(c)
	var req dispatch.TransferRequest
	utils.PanicIfNeeded(c.BodyParser(&req))

	err := h.Service.TransferCall(c.UserContext(), p.OrgID, p.AgentID, p.IsAdmin(), req)
	utils.PanicIfNeeded(err)
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "call transferred"})
}

// VoiceSession implements GET /api/v1/voice-sessions/:sessionID, the lookup
// an AI voice bridge makes to fetch greeting/prompt context for a call set
// up by make-call (spec §4.11).
func (h *Dispatch) VoiceSession(c *fiber.Ctx) error {
	info, err := h.Service.GetVoiceSession(c.UserContext(), c.Params("sessionID"))
	utils.PanicIfNeeded(err)
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "voice session fetched", Results: info})
}

// WaitingMessages implements GET /api/v1/messages, the REST face of the
// fetch-acknowledge dead-letter buffer (spec §4.9): a message returned here
// is marked acknowledged and will not be returned again.
func (h *Dispatch) WaitingMessages(c *fiber.Ctx) error {
	p := middleware.PrincipalFromCtx(c)
	agentID := c.Query("agentId", p.AgentID)
	utils.PanicIfNeeded(usecase.RequireAgent(agentID, p))

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := h.DeadLetters.GetWaiting(c.UserContext(), agentID, c.Query("channel"), limit)
	utils.PanicIfNeeded(err)
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "waiting messages fetched", Results: entries})
}
