// Package agent models the Agent channel entity of spec §3: a logical
// sender within an organization, owning provisioned identities across
// transports.
package agent

import "context"

type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelEmail    Channel = "email"
	ChannelVoice    Channel = "voice"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelLine     Channel = "line"
	ChannelWildcard Channel = "*"
)

type Status string

const (
	StatusActive        Status = "active"
	StatusDeprovisioned Status = "deprovisioned"
)

type Agent struct {
	AgentID           string   `json:"agent_id"`
	OrgID             string   `json:"org_id"`
	DisplayName       string   `json:"display_name"`
	PhoneNumber       string   `json:"phone_number,omitempty"`
	WhatsappSenderSID string   `json:"whatsapp_sender_sid,omitempty"`
	EmailAddress      string   `json:"email_address,omitempty"`
	VoiceID           string   `json:"voice_id,omitempty"`
	SystemPrompt      string   `json:"system_prompt,omitempty"`
	Greeting          string   `json:"greeting,omitempty"`
	BlockedChannels   []Channel `json:"blocked_channels,omitempty"`
	Status            Status   `json:"status"`
	WhatsappStatus    string   `json:"whatsapp_status,omitempty"`
	CallbackURL       string   `json:"callback_url,omitempty"`
}

// IsChannelBlocked reports whether ch is explicitly blocked, or a wildcard
// block is present.
func (a Agent) IsChannelBlocked(ch Channel) bool {
	for _, blocked := range a.BlockedChannels {
		if blocked == ch || blocked == ChannelWildcard {
			return true
		}
	}
	return false
}

// IUsecase is the org-scoped read surface over agent_channels; mutation
// (provisioning/deprovisioning) lives in the provision package's saga
// instead, since it spans multiple tables and external providers.
type IUsecase interface {
	Get(ctx context.Context, orgID, agentID string) (Agent, error)
	List(ctx context.Context, orgID string) ([]Agent, error)
	UpdateCallback(ctx context.Context, orgID, agentID, callbackURL string) error
}
