package mcp

import (
	"context"
	"fmt"

	"github.com/AzielCF/az-wap/domains/auth"
	"github.com/AzielCF/az-wap/domains/dispatch"
	"github.com/AzielCF/az-wap/domains/provision"
	"github.com/AzielCF/az-wap/usecase"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// QueryHandler exposes the dispatch and provisioning pipelines as MCP tools.
// The SSE transport carries no HTTP headers a bearer-token middleware could
// read, so every tool takes an explicit "token" argument and resolves its
// own principal the same way the REST middleware does (spec §6).
type QueryHandler struct {
	resolver    auth.IResolver
	dispatcher  dispatch.IDispatcher
	provisioner provision.IUsecase
	deadLetters *usecase.DeadLetterUsecase
}

func InitMcpQuery(resolver auth.IResolver, dispatcher dispatch.IDispatcher, provisioner provision.IUsecase, deadLetters *usecase.DeadLetterUsecase) *QueryHandler {
	return &QueryHandler{
		resolver:    resolver,
		dispatcher:  dispatcher,
		provisioner: provisioner,
		deadLetters: deadLetters,
	}
}

func (h *QueryHandler) AddQueryTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(h.toolSendMessage(), h.handleSendMessage)
	mcpServer.AddTool(h.toolMakeCall(), h.handleMakeCall)
	mcpServer.AddTool(h.toolTransferCall(), h.handleTransferCall)
	mcpServer.AddTool(h.toolProvisionAgent(), h.handleProvisionAgent)
	mcpServer.AddTool(h.toolDeprovisionAgent(), h.handleDeprovisionAgent)
	mcpServer.AddTool(h.toolGetWaitingMessages(), h.handleGetWaitingMessages)
	mcpServer.AddTool(h.toolGetVoiceSession(), h.handleGetVoiceSession)
}

func tokenArg() mcp.ToolOption {
	return mcp.WithString("token",
		mcp.Description("Bearer token identifying the calling org or agent."),
		mcp.Required(),
	)
}

func (h *QueryHandler) principal(ctx context.Context, request mcp.CallToolRequest) (auth.Principal, error) {
	token, err := request.RequireString("token")
	if err != nil {
		return auth.Principal{}, err
	}
	return h.resolver.Resolve(ctx, token)
}

func (h *QueryHandler) toolSendMessage() mcp.Tool {
	return mcp.NewTool(
		"send_message",
		mcp.WithDescription("Send a message to a phone number, WhatsApp address, or email through a provisioned agent."),
		mcp.WithTitleAnnotation("Send Message"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		tokenArg(),
		mcp.WithString("agent_id", mcp.Description("Agent to send as; an agent token may only name its own agent, any other value is rejected with auth_denied."), mcp.Required()),
		mcp.WithString("to", mcp.Description("Destination address (E.164 phone, email, or WhatsApp number)."), mcp.Required()),
		mcp.WithString("channel", mcp.Description("One of sms, email, voice, whatsapp."), mcp.Required()),
		mcp.WithString("body", mcp.Description("Message body.")),
		mcp.WithString("subject", mcp.Description("Subject line; required for email.")),
		mcp.WithString("media_url", mcp.Description("Optional media attachment URL.")),
		mcp.WithString("template_id", mcp.Description("Optional provider template identifier.")),
		mcp.WithString("timezone", mcp.Description("IANA timezone used for compliance time-of-day checks.")),
	)
}

func (h *QueryHandler) handleSendMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := h.principal(ctx, request)
	if err != nil {
		return nil, err
	}
	agentID, err := request.RequireString("agent_id")
	if err != nil {
		return nil, err
	}
	to, err := request.RequireString("to")
	if err != nil {
		return nil, err
	}
	channel, err := request.RequireString("channel")
	if err != nil {
		return nil, err
	}

	req := dispatch.SendRequest{
		AgentID:    agentID,
		To:         to,
		Channel:    dispatch.Channel(channel),
		Body:       request.GetString("body", ""),
		Subject:    request.GetString("subject", ""),
		MediaURL:   request.GetString("media_url", ""),
		TemplateID: request.GetString("template_id", ""),
		Timezone:   request.GetString("timezone", ""),
	}

	resp, err := h.dispatcher.SendMessage(ctx, p.OrgID, p.AgentID, p.IsAdmin(), req)
	if err != nil {
		return nil, err
	}
	fallback := fmt.Sprintf("sent via %s, status=%s", resp.From, resp.Status)
	return mcp.NewToolResultStructured(resp, fallback), nil
}

func (h *QueryHandler) toolMakeCall() mcp.Tool {
	return mcp.NewTool(
		"make_call",
		mcp.WithDescription("Place an outbound voice call through a provisioned agent."),
		mcp.WithTitleAnnotation("Make Call"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		tokenArg(),
		mcp.WithString("agent_id", mcp.Description("Agent to call as; an agent token may only name its own agent, any other value is rejected with auth_denied."), mcp.Required()),
		mcp.WithString("to", mcp.Description("Destination E.164 phone number."), mcp.Required()),
		mcp.WithString("timezone", mcp.Description("IANA timezone used for compliance time-of-day checks.")),
	)
}

func (h *QueryHandler) handleMakeCall(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := h.principal(ctx, request)
	if err != nil {
		return nil, err
	}
	agentID, err := request.RequireString("agent_id")
	if err != nil {
		return nil, err
	}
	to, err := request.RequireString("to")
	if err != nil {
		return nil, err
	}

	req := dispatch.CallRequest{
		AgentID:  agentID,
		To:       to,
		Timezone: request.GetString("timezone", ""),
	}

	resp, err := h.dispatcher.MakeCall(ctx, p.OrgID, p.AgentID, p.IsAdmin(), req)
	if err != nil {
		return nil, err
	}
	fallback := fmt.Sprintf("call placed, sid=%s", resp.CallSID)
	return mcp.NewToolResultStructured(resp, fallback), nil
}

func (h *QueryHandler) toolTransferCall() mcp.Tool {
	return mcp.NewTool(
		"transfer_call",
		mcp.WithDescription("Transfer an in-progress call to another number or agent."),
		mcp.WithTitleAnnotation("Transfer Call"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		tokenArg(),
		mcp.WithString("agent_id", mcp.Description("Agent owning the in-progress call."), mcp.Required()),
		mcp.WithString("call_sid", mcp.Description("Provider call SID to transfer."), mcp.Required()),
		mcp.WithString("to", mcp.Description("Phone number or agent id to transfer to."), mcp.Required()),
	)
}

func (h *QueryHandler) handleTransferCall(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := h.principal(ctx, request)
	if err != nil {
		return nil, err
	}
	agentID, err := request.RequireString("agent_id")
	if err != nil {
		return nil, err
	}
	callSID, err := request.RequireString("call_sid")
	if err != nil {
		return nil, err
	}
	to, err := request.RequireString("to")
	if err != nil {
		return nil, err
	}

	req := dispatch.TransferRequest{AgentID: agentID, CallSID: callSID, To: to}
	if err := h.dispatcher.TransferCall(ctx, p.OrgID, p.AgentID, p.IsAdmin(), req); err != nil {
		return nil, err
	}
	return mcp.NewToolResultStructured(map[string]bool{"success": true}, "call transferred"), nil
}

func (h *QueryHandler) toolProvisionAgent() mcp.Tool {
	return mcp.NewTool(
		"provision_agent",
		mcp.WithDescription("Provision a new agent with phone, WhatsApp, email, and voice capabilities."),
		mcp.WithTitleAnnotation("Provision Agent"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		tokenArg(),
		mcp.WithString("agent_id", mcp.Description("Identifier for the new agent."), mcp.Required()),
		mcp.WithString("display_name", mcp.Description("Human-readable agent name."), mcp.Required()),
		mcp.WithString("country", mcp.Description("ISO country code to source a phone number from.")),
		mcp.WithBoolean("phone", mcp.Description("Provision a phone number.")),
		mcp.WithBoolean("whatsapp", mcp.Description("Provision a WhatsApp sender.")),
		mcp.WithBoolean("email", mcp.Description("Provision an email address.")),
		mcp.WithBoolean("voice_ai", mcp.Description("Enable voice AI capability.")),
	)
}

func (h *QueryHandler) handleProvisionAgent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := h.principal(ctx, request)
	if err != nil {
		return nil, err
	}
	if err := usecase.RequireAdmin(p); err != nil {
		return nil, err
	}
	agentID, err := request.RequireString("agent_id")
	if err != nil {
		return nil, err
	}
	displayName, err := request.RequireString("display_name")
	if err != nil {
		return nil, err
	}

	req := provision.Request{
		AgentID:     agentID,
		OrgID:       p.OrgID,
		DisplayName: displayName,
		Country:     request.GetString("country", ""),
		Capabilities: provision.Capabilities{
			Phone:    request.GetBool("phone", false),
			Whatsapp: request.GetBool("whatsapp", false),
			Email:    request.GetBool("email", false),
			VoiceAI:  request.GetBool("voice_ai", false),
		},
	}

	result, err := h.provisioner.Provision(ctx, req)
	if err != nil {
		return nil, err
	}
	fallback := fmt.Sprintf("agent %s provisioned", result.AgentID)
	return mcp.NewToolResultStructured(result, fallback), nil
}

func (h *QueryHandler) toolDeprovisionAgent() mcp.Tool {
	return mcp.NewTool(
		"deprovision_agent",
		mcp.WithDescription("Release an agent's provisioned resources and deactivate it."),
		mcp.WithTitleAnnotation("Deprovision Agent"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		tokenArg(),
		mcp.WithString("agent_id", mcp.Description("Agent to deprovision."), mcp.Required()),
	)
}

func (h *QueryHandler) handleDeprovisionAgent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := h.principal(ctx, request)
	if err != nil {
		return nil, err
	}
	if err := usecase.RequireAdmin(p); err != nil {
		return nil, err
	}
	agentID, err := request.RequireString("agent_id")
	if err != nil {
		return nil, err
	}

	if err := h.provisioner.Deprovision(ctx, p.OrgID, agentID); err != nil {
		return nil, err
	}
	return mcp.NewToolResultStructured(map[string]bool{"success": true}, "agent deprovisioned"), nil
}

func (h *QueryHandler) toolGetVoiceSession() mcp.Tool {
	return mcp.NewTool(
		"get_voice_session",
		mcp.WithDescription("Fetch the greeting/prompt context for an in-flight AI voice call set up by make_call."),
		mcp.WithTitleAnnotation("Get Voice Session"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		tokenArg(),
		mcp.WithString("session_id", mcp.Description("Session id returned by make_call."), mcp.Required()),
	)
}

func (h *QueryHandler) handleGetVoiceSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := h.principal(ctx, request); err != nil {
		return nil, err
	}
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return nil, err
	}

	info, err := h.dispatcher.GetVoiceSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	fallback := fmt.Sprintf("voice session %s fetched", info.SessionID)
	return mcp.NewToolResultStructured(info, fallback), nil
}

func (h *QueryHandler) toolGetWaitingMessages() mcp.Tool {
	return mcp.NewTool(
		"get_waiting_messages",
		mcp.WithDescription("Fetch and acknowledge inbound messages an agent's callback could not deliver."),
		mcp.WithTitleAnnotation("Get Waiting Messages"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		tokenArg(),
		mcp.WithString("agent_id", mcp.Description("Agent to fetch waiting messages for; defaults to the token's own agent.")),
		mcp.WithString("channel", mcp.Description("Restrict to one channel.")),
	)
}

func (h *QueryHandler) handleGetWaitingMessages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := h.principal(ctx, request)
	if err != nil {
		return nil, err
	}
	agentID := request.GetString("agent_id", p.AgentID)
	if err := usecase.RequireAgent(agentID, p); err != nil {
		return nil, err
	}

	entries, err := h.deadLetters.GetWaiting(ctx, agentID, request.GetString("channel", ""), 50)
	if err != nil {
		return nil, err
	}
	fallback := fmt.Sprintf("%d waiting message(s) acknowledged", len(entries))
	return mcp.NewToolResultStructured(entries, fallback), nil
}
