package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/AzielCF/az-wap/core/database"
	"github.com/AzielCF/az-wap/domains/agent"
	"github.com/AzielCF/az-wap/domains/audit"
	"github.com/AzielCF/az-wap/domains/compliance"
	"github.com/AzielCF/az-wap/domains/deadletter"
	"github.com/AzielCF/az-wap/domains/dispatch"
	"github.com/AzielCF/az-wap/domains/ratelimit"
	"github.com/AzielCF/az-wap/domains/voice"
	"github.com/AzielCF/az-wap/pkg/apierr"
	"github.com/AzielCF/az-wap/pkg/sanitize"
	"github.com/AzielCF/az-wap/providers"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// VoiceDefaults carries the fallback greeting/voice/language an agent can
// leave unset at provisioning time (config.DefaultsConfig).
type VoiceDefaults struct {
	Greeting string
	Voice    string
	Language string
}

type DispatchUsecase struct {
	db            *gorm.DB
	agents        *AgentUsecase
	routing       *RoutingUsecase
	compliance    compliance.IGate
	ratelimiter   *RateLimitUsecase
	deadletters   *DeadLetterUsecase
	audit         audit.IAppender
	providers     providers.Set
	log           *logrus.Logger
	httpClient    *http.Client
	voiceSessions voice.IRegistry
	voiceDefaults VoiceDefaults
}

func NewDispatchUsecase(db *gorm.DB, agents *AgentUsecase, routing *RoutingUsecase, gate compliance.IGate, rl *RateLimitUsecase, dl *DeadLetterUsecase, appender audit.IAppender, provs providers.Set, log *logrus.Logger, voiceSessions voice.IRegistry, voiceDefaults VoiceDefaults) *DispatchUsecase {
	return &DispatchUsecase{
		db: db, agents: agents, routing: routing, compliance: gate,
		ratelimiter: rl, deadletters: dl, audit: appender, providers: provs, log: log,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		voiceSessions: voiceSessions,
		voiceDefaults: voiceDefaults,
	}
}

func (u *DispatchUsecase) loadAgent(ctx context.Context, orgID, agentID string) (agent.Agent, error) {
	a, err := u.agents.Get(ctx, orgID, agentID)
	if err != nil {
		return agent.Agent{}, err
	}
	if a.Status != agent.StatusActive {
		return agent.Agent{}, apierr.Conflict("agent is deprovisioned")
	}
	return a, nil
}

// SendMessage implements the outbound pipeline of spec §4.5.
func (u *DispatchUsecase) SendMessage(ctx context.Context, principalOrgID, principalAgentID string, isAdmin bool, req dispatch.SendRequest) (dispatch.SendResponse, error) {
	orgID, a, err := u.authorizeAgent(ctx, principalOrgID, principalAgentID, isAdmin, req.AgentID)
	if err != nil {
		return dispatch.SendResponse{}, err
	}
	ch := string(req.Channel)
	if a.IsChannelBlocked(agent.Channel(ch)) {
		return dispatch.SendResponse{}, apierr.Conflict("channel is blocked for this agent")
	}

	if err := sanitize.Sanitize(req.Body, "body"); err != nil {
		return dispatch.SendResponse{}, err
	}
	if err := validateAddress(req.To, req.Channel); err != nil {
		return dispatch.SendResponse{}, err
	}
	if req.Channel == dispatch.ChannelEmail {
		if req.Subject == "" {
			return dispatch.SendResponse{}, apierr.BadInput("subject", "subject is required for email")
		}
		if err := sanitize.Sanitize(req.Subject, "subject"); err != nil {
			return dispatch.SendResponse{}, err
		}
	}

	if err := u.compliance.Evaluate(ctx, compliance.Request{
		OrgID: orgID, Channel: ch, ToAddress: req.To, Body: req.Body, Timezone: req.Timezone,
	}); err != nil {
		return dispatch.SendResponse{}, err
	}

	if err := u.ratelimiter.Allow(ctx, ratelimit.Check{AgentID: a.AgentID, OrgID: orgID, Cost: estimatedCost(req.Channel)}); err != nil {
		return dispatch.SendResponse{}, err
	}

	from, err := u.resolveSender(ctx, orgID, a, req.To, ch)
	if err != nil {
		return dispatch.SendResponse{}, err
	}

	result, providerErr := u.dispatchToProvider(ctx, a, from, req)
	if providerErr != nil {
		u.deadLetterSend(ctx, a, ch, from, req, providerErr)
		return dispatch.SendResponse{}, apierr.ProviderError(string(req.Channel), providerErr)
	}

	if err := u.ratelimiter.RecordUsage(ctx, a.AgentID, orgID, "send_message", ch, req.To, result.Cost, result.ExternalID); err != nil {
		u.log.WithError(err).Warn("usage log insert failed")
	}

	return dispatch.SendResponse{Success: true, ExternalID: result.ExternalID, From: from, To: req.To, Status: result.ProviderStatus}, nil
}

func (u *DispatchUsecase) dispatchToProvider(ctx context.Context, a agent.Agent, from string, req dispatch.SendRequest) (providers.SendResult, error) {
	switch req.Channel {
	case dispatch.ChannelSMS:
		dctx, cancel := context.WithTimeout(ctx, providers.DeadlineSmsEmail)
		defer cancel()
		return u.providers.Telephony.SendSms(dctx, providers.SmsRequest{
			From: from, To: req.To, Body: req.Body, MediaURL: req.MediaURL,
			TemplateID: req.TemplateID, TemplateVars: req.TemplateVars,
		})
	case dispatch.ChannelWhatsApp:
		dctx, cancel := context.WithTimeout(ctx, providers.DeadlineSmsEmail)
		defer cancel()
		sreq := providers.SmsRequest{From: from, To: req.To, Body: req.Body, MediaURL: req.MediaURL, TemplateID: req.TemplateID, TemplateVars: req.TemplateVars}
		if req.TemplateID != "" {
			return u.providers.WhatsApp.SendTemplated(dctx, sreq)
		}
		return u.providers.WhatsApp.SendFreeform(dctx, sreq)
	case dispatch.ChannelEmail:
		dctx, cancel := context.WithTimeout(ctx, providers.DeadlineSmsEmail)
		defer cancel()
		return u.providers.Email.Send(dctx, providers.EmailRequest{From: a.EmailAddress, To: req.To, Subject: req.Subject, Body: req.Body})
	case dispatch.ChannelVoice:
		dctx, cancel := context.WithTimeout(ctx, providers.DeadlineVoiceInit)
		defer cancel()
		audioBytes, err := u.providers.TTS.Synthesize(dctx, req.Body, a.VoiceID, "en-US")
		if err != nil {
			return providers.SendResult{}, err
		}
		url, err := u.providers.Storage.Put(dctx, "voice-"+newID()+".wav", audioBytes, "audio/wav")
		if err != nil {
			return providers.SendResult{}, err
		}
		twiml := fmt.Sprintf("<Response><Play>%s</Play></Response>", url)
		callRes, err := u.providers.Telephony.MakeCall(dctx, providers.CallRequest{From: from, To: req.To, Twiml: twiml})
		if err != nil {
			return providers.SendResult{}, err
		}
		return providers.SendResult{ExternalID: callRes.CallSID, ProviderStatus: callRes.ProviderStatus}, nil
	default:
		return providers.SendResult{}, fmt.Errorf("unsupported channel %q", req.Channel)
	}
}

// MakeCall implements the voice-call branch of spec §4.5 step 7.
func (u *DispatchUsecase) MakeCall(ctx context.Context, principalOrgID, principalAgentID string, isAdmin bool, req dispatch.CallRequest) (dispatch.CallResponse, error) {
	orgID, a, err := u.authorizeAgent(ctx, principalOrgID, principalAgentID, isAdmin, req.AgentID)
	if err != nil {
		return dispatch.CallResponse{}, err
	}
	if a.IsChannelBlocked(agent.ChannelVoice) {
		return dispatch.CallResponse{}, apierr.Conflict("voice channel is blocked for this agent")
	}
	if err := validateAddress(req.To, dispatch.ChannelVoice); err != nil {
		return dispatch.CallResponse{}, err
	}
	if err := u.compliance.Evaluate(ctx, compliance.Request{OrgID: orgID, Channel: "voice", ToAddress: req.To, Timezone: req.Timezone}); err != nil {
		return dispatch.CallResponse{}, err
	}
	if err := u.ratelimiter.Allow(ctx, ratelimit.Check{AgentID: a.AgentID, OrgID: orgID, Cost: 0.02}); err != nil {
		return dispatch.CallResponse{}, err
	}
	from, err := u.resolveSender(ctx, orgID, a, req.To, "voice")
	if err != nil {
		return dispatch.CallResponse{}, err
	}

	dctx, cancel := context.WithTimeout(ctx, providers.DeadlineVoiceInit)
	defer cancel()
	callRes, err := u.providers.Telephony.MakeCall(dctx, providers.CallRequest{From: from, To: req.To})
	if err != nil {
		u.deadLetterGeneric(ctx, a, "voice", "outbound", "send_failed", from, req.To, "", err)
		return dispatch.CallResponse{}, apierr.ProviderError("telephony", err)
	}

	_ = u.db.WithContext(ctx).Create(&database.CallLogModel{
		ID: newID(), AgentID: a.AgentID, OrgID: orgID, CallSID: callRes.CallSID,
		Direction: "outbound", FromAddress: from, ToAddress: req.To, Status: "pending", CreatedAt: time.Now().UTC(),
	}).Error

	if err := u.ratelimiter.RecordUsage(ctx, a.AgentID, orgID, "make_call", "voice", req.To, 0.02, callRes.CallSID); err != nil {
		u.log.WithError(err).Warn("usage log insert failed")
	}

	sessionID := ""
	if u.voiceSessions != nil {
		greeting := a.Greeting
		if greeting == "" {
			greeting = u.voiceDefaults.Greeting
		}
		voiceID := a.VoiceID
		if voiceID == "" {
			voiceID = u.voiceDefaults.Voice
		}
		sessionID = u.voiceSessions.Create(voice.Session{
			AgentID:      a.AgentID,
			SystemPrompt: a.SystemPrompt,
			Greeting:     greeting,
			Voice:        voiceID,
			Language:     u.voiceDefaults.Language,
		})
	}

	return dispatch.CallResponse{Success: true, From: from, CallSID: callRes.CallSID, SessionID: sessionID}, nil
}

// GetVoiceSession implements the voice bridge's lookup of spec §4.11: a
// miss (expired or never created) surfaces as "session expired" so the
// caller can fall back to a fresh call setup.
func (u *DispatchUsecase) GetVoiceSession(ctx context.Context, sessionID string) (dispatch.VoiceSessionInfo, error) {
	if u.voiceSessions == nil {
		return dispatch.VoiceSessionInfo{}, apierr.NotFound("voice session expired")
	}
	s, ok := u.voiceSessions.Get(sessionID)
	if !ok {
		return dispatch.VoiceSessionInfo{}, apierr.NotFound("voice session expired")
	}
	return dispatch.VoiceSessionInfo{
		SessionID: s.SessionID, AgentID: s.AgentID, SystemPrompt: s.SystemPrompt,
		Greeting: s.Greeting, Voice: s.Voice, Language: s.Language,
	}, nil
}

// TransferCall implements spec §4.5 step 7's "Call transfer" branch.
func (u *DispatchUsecase) TransferCall(ctx context.Context, principalOrgID, principalAgentID string, isAdmin bool, req dispatch.TransferRequest) error {
	orgID, _, err := u.authorizeAgent(ctx, principalOrgID, principalAgentID, isAdmin, req.AgentID)
	if err != nil {
		return err
	}
	to := req.To
	if maybeAgent, err := u.agents.Get(ctx, orgID, req.To); err == nil && maybeAgent.PhoneNumber != "" {
		to = maybeAgent.PhoneNumber
	}
	dctx, cancel := context.WithTimeout(ctx, providers.DeadlineVoiceInit)
	defer cancel()
	if err := u.providers.Telephony.TransferCall(dctx, req.CallSID, to); err != nil {
		return apierr.ProviderError("telephony", err)
	}
	return nil
}

func (u *DispatchUsecase) authorizeAgent(ctx context.Context, principalOrgID, principalAgentID string, isAdmin bool, requestedAgentID string) (string, agent.Agent, error) {
	if !isAdmin && principalAgentID != requestedAgentID {
		return "", agent.Agent{}, apierr.AuthDenied("token is not scoped to this agent")
	}
	orgID := principalOrgID
	a, err := u.loadAgent(ctx, orgID, requestedAgentID)
	if err != nil {
		return "", agent.Agent{}, err
	}
	return a.OrgID, a, nil
}

func (u *DispatchUsecase) resolveSender(ctx context.Context, orgID string, a agent.Agent, to, channel string) (string, error) {
	if channel == "email" {
		if a.EmailAddress == "" {
			return "", apierr.Conflict("agent has no email identity")
		}
		return a.EmailAddress, nil
	}
	if channel == "whatsapp" {
		if a.WhatsappSenderSID == "" {
			return "", apierr.Conflict("agent has no whatsapp identity")
		}
		return a.WhatsappSenderSID, nil
	}
	from, err := u.routing.ResolveFromNumber(ctx, orgID, a.PhoneNumber, to, channel)
	if err != nil {
		return "", apierr.Internal()
	}
	if from == "" {
		return "", apierr.Conflict("no_sender")
	}
	return from, nil
}

func (u *DispatchUsecase) deadLetterSend(ctx context.Context, a agent.Agent, channel, from string, req dispatch.SendRequest, cause error) {
	u.deadLetterGeneric(ctx, a, channel, "outbound", "send_failed", from, req.To, req.Body, cause)
}

func (u *DispatchUsecase) deadLetterGeneric(ctx context.Context, a agent.Agent, channel, direction, reason, from, to, body string, cause error) {
	origReq, _ := json.Marshal(map[string]string{"from": from, "to": to, "body": body})
	if err := u.deadletters.Append(ctx, deadletter.Entry{
		AgentID: a.AgentID, OrgID: a.OrgID, Channel: channel, Direction: direction, Reason: reason,
		FromAddress: from, ToAddress: to, Body: body,
		OriginalRequest: string(origReq), ErrorDetails: cause.Error(),
	}); err != nil {
		u.log.WithError(err).Error("dead-letter insert failed")
	}
}

// HandleInbound implements spec §4.6: the raw-body webhook is already
// signature-verified and replay-checked by the HTTP layer before this is
// called; here we only do agent lookup and fire-and-log callback forwarding.
func (u *DispatchUsecase) HandleInbound(ctx context.Context, in dispatch.InboundWebhook) error {
	var row database.AgentChannelModel
	q := u.db.WithContext(ctx)
	switch in.Channel {
	case dispatch.ChannelSMS, dispatch.ChannelVoice:
		q = q.Where("phone_number = ?", in.ToAddress)
	case dispatch.ChannelWhatsApp:
		q = q.Where("whatsapp_sender_sid = ?", in.ToAddress)
	case dispatch.ChannelEmail:
		q = q.Where("email_address = ?", in.ToAddress)
	default:
		q = q.Where("agent_id = ?", in.AgentID)
	}
	if err := q.First(&row).Error; err != nil {
		return apierr.NotFound("no agent bound to this address")
	}
	a := fromRow(row)

	if a.Status != agent.StatusActive || a.IsChannelBlocked(agent.Channel(in.Channel)) {
		return nil // caller responds 200 + empty body; nothing further to do
	}

	if a.CallbackURL == "" {
		u.deadLetterGeneric(ctx, a, string(in.Channel), "inbound", "agent_offline", in.FromAddress, in.ToAddress, in.Body, fmt.Errorf("no callback url configured"))
		return nil
	}

	// Fire-and-log: forward asynchronously so the carrier response is
	// never delayed by the agent's callback latency.
	go u.forwardCallback(context.Background(), a, in)
	return nil
}

func (u *DispatchUsecase) forwardCallback(ctx context.Context, a agent.Agent, in dispatch.InboundWebhook) {
	payload, _ := json.Marshal(map[string]any{
		"agent_id": a.AgentID, "channel": in.Channel, "from": in.FromAddress,
		"to": in.ToAddress, "body": in.Body, "external_id": in.ExternalID,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.CallbackURL, bytes.NewReader(payload))
	if err != nil {
		u.deadLetterGeneric(ctx, a, string(in.Channel), "inbound", "agent_offline", in.FromAddress, in.ToAddress, in.Body, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := u.httpClient.Do(req)
	if err != nil {
		u.deadLetterGeneric(ctx, a, string(in.Channel), "inbound", "agent_offline", in.FromAddress, in.ToAddress, in.Body, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		u.deadLetterGeneric(ctx, a, string(in.Channel), "inbound", "agent_offline", in.FromAddress, in.ToAddress, in.Body, fmt.Errorf("callback returned status %d", resp.StatusCode))
	}
}

func validateAddress(addr string, ch dispatch.Channel) error {
	if ch == dispatch.ChannelEmail {
		return sanitize.Email(addr)
	}
	return sanitize.Phone(addr)
}

func estimatedCost(ch dispatch.Channel) float64 {
	switch ch {
	case dispatch.ChannelWhatsApp:
		return 0.01
	case dispatch.ChannelEmail:
		return 0.001
	case dispatch.ChannelVoice:
		return 0.02
	default:
		return 0.0075
	}
}
