package rest

import (
	"encoding/json"

	"github.com/AzielCF/az-wap/domains/dispatch"
	"github.com/AzielCF/az-wap/domains/webhook"
	"github.com/AzielCF/az-wap/pkg/replay"
	"github.com/AzielCF/az-wap/providers"
	"github.com/gofiber/fiber/v2"
)

// Webhook implements POST /webhooks/{agentId}/{channel}, spec §4.6's raw-body
// signature verify -> replay guard -> agent lookup -> fire-and-log pipeline.
// The handler must finish within Twilio/LINE's 5s tolerance, so nothing here
// blocks on the agent's own callback — HandleInbound forwards in a goroutine.
type Webhook struct {
	Dispatcher      dispatch.IDispatcher
	Providers       providers.Set
	Replay          *replay.Guard
	BaseURL         string
	LineChannelSecret string
	DemoMode        bool
}

func InitRestWebhook(app fiber.Router, dispatcher dispatch.IDispatcher, provs providers.Set, guard *replay.Guard, baseURL, lineSecret string, demoMode bool) Webhook {
	rest := Webhook{Dispatcher: dispatcher, Providers: provs, Replay: guard, BaseURL: baseURL, LineChannelSecret: lineSecret, DemoMode: demoMode}
	app.Post("/webhooks/:agentId/:channel", rest.Handle)
	return rest
}

func (h *Webhook) Handle(c *fiber.Ctx) error {
	agentID := c.Params("agentId")
	channel := dispatch.Channel(c.Params("channel"))
	rawBody := c.Body()

	in := dispatch.InboundWebhook{AgentID: agentID, Channel: channel, RawBody: rawBody}

	switch channel {
	case dispatch.ChannelSMS, dispatch.ChannelVoice:
		in.Signature = c.Get("X-Twilio-Signature")
		form := formValues(c)
		fullURL := webhook.CanonicalURL(h.BaseURL, c.Path(), nil)
		if !h.demoOrVerified(h.Providers.Telephony != nil && h.Providers.Telephony.VerifyWebhookSignature(c.UserContext(), fullURL, form, in.Signature)) {
			return c.Status(401).SendString("")
		}
		in.Form = form
		in.FromAddress = form["From"]
		in.ToAddress = form["To"]
		in.ExternalID = form["MessageSid"]
		in.Body = form["Body"]
		if h.Replay.Seen(in.ExternalID) {
			return c.Status(200).XML(twilioEmptyResponse{})
		}
		if err := h.Dispatcher.HandleInbound(c.UserContext(), in); err != nil {
			return c.Status(404).XML(twilioEmptyResponse{})
		}
		return c.Status(200).XML(twilioEmptyResponse{})

	case dispatch.ChannelWhatsApp:
		in.Signature = c.Get("X-Twilio-Signature")
		form := formValues(c)
		if !h.demoOrVerified(h.Providers.WhatsApp != nil && h.Providers.WhatsApp.VerifyWebhookSignature(c.UserContext(), rawBody, in.Signature)) {
			return c.Status(401).SendString("")
		}
		in.Form = form
		in.FromAddress = stripWhatsappPrefix(form["From"])
		in.ToAddress = stripWhatsappPrefix(form["To"])
		in.ExternalID = form["MessageSid"]
		in.Body = form["Body"]
		if h.Replay.Seen(in.ExternalID) {
			return c.Status(200).XML(twilioEmptyResponse{})
		}
		if err := h.Dispatcher.HandleInbound(c.UserContext(), in); err != nil {
			return c.Status(404).XML(twilioEmptyResponse{})
		}
		return c.Status(200).XML(twilioEmptyResponse{})

	case dispatch.ChannelLine:
		in.Signature = c.Get("X-Line-Signature")
		if !h.demoOrVerified(webhook.VerifyLine(h.LineChannelSecret, rawBody, in.Signature)) {
			return c.Status(401).SendString("")
		}
		var payload struct {
			Events []struct {
				ReplyToken string `json:"replyToken"`
				Source     struct {
					UserID string `json:"userId"`
				} `json:"source"`
				Message struct {
					ID   string `json:"id"`
					Text string `json:"text"`
				} `json:"message"`
			} `json:"events"`
			Destination string `json:"destination"`
		}
		_ = json.Unmarshal(rawBody, &payload)
		if len(payload.Events) > 0 {
			e := payload.Events[0]
			in.FromAddress = e.Source.UserID
			in.ToAddress = payload.Destination
			in.ExternalID = e.Message.ID
			in.Body = e.Message.Text
		}
		if h.Replay.Seen(in.ExternalID) {
			return c.SendString("")
		}
		if err := h.Dispatcher.HandleInbound(c.UserContext(), in); err != nil {
			return c.Status(404).SendString("")
		}
		return c.SendString("")

	case dispatch.ChannelEmail:
		in.Signature = c.Get("X-Resend-Signature")
		if !h.demoOrVerified(h.Providers.Email != nil && h.Providers.Email.VerifySignature(c.UserContext(), rawBody, in.Signature)) {
			return c.Status(401).JSON(fiber.Map{"ok": false})
		}
		var payload struct {
			From    string `json:"from"`
			To      string `json:"to"`
			Subject string `json:"subject"`
			Text    string `json:"text"`
			ID      string `json:"id"`
		}
		_ = json.Unmarshal(rawBody, &payload)
		in.FromAddress = payload.From
		in.ToAddress = payload.To
		in.ExternalID = payload.ID
		in.Body = payload.Text
		if h.Replay.Seen(in.ExternalID) {
			return c.JSON(fiber.Map{"ok": true})
		}
		if err := h.Dispatcher.HandleInbound(c.UserContext(), in); err != nil {
			return c.Status(404).JSON(fiber.Map{"ok": false})
		}
		return c.JSON(fiber.Map{"ok": true})

	default:
		return c.Status(404).SendString("")
	}
}

// demoOrVerified lets demo mode skip signature verification explicitly,
// per spec §4.6 step 2 ("skip verification in demo mode only if explicit").
func (h *Webhook) demoOrVerified(verified bool) bool {
	return verified || h.DemoMode
}

func formValues(c *fiber.Ctx) map[string]string {
	out := map[string]string{}
	c.Request().PostArgs().VisitAll(func(k, v []byte) {
		out[string(k)] = string(v)
	})
	return out
}

func stripWhatsappPrefix(addr string) string {
	const prefix = "whatsapp:"
	if len(addr) > len(prefix) && addr[:len(prefix)] == prefix {
		return addr[len(prefix):]
	}
	return addr
}

// twilioEmptyResponse marshals to an empty TwiML <Response/> envelope.
type twilioEmptyResponse struct {
	XMLName struct{} `xml:"Response"`
}
