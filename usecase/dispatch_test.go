package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/AzielCF/az-wap/core/database"
	"github.com/AzielCF/az-wap/domains/dispatch"
	"github.com/AzielCF/az-wap/providers"
	"github.com/AzielCF/az-wap/usecase"
	"github.com/sirupsen/logrus"
)

// failingTelephony fails every SendSms call while leaving the rest of the
// mock telephony behavior (MakeCall, number provisioning) untouched.
type failingTelephony struct {
	*providers.MockTelephony
}

func (f failingTelephony) SendSms(ctx context.Context, req providers.SmsRequest) (providers.SendResult, error) {
	return providers.SendResult{}, errors.New("carrier unreachable")
}

// TestSendMessage_ProviderFailure_DeadLettersNotUsageLogs covers invariant 6:
// a provider failure writes a dead letter and never a usage log row for the
// same send attempt.
func TestSendMessage_ProviderFailure_DeadLettersNotUsageLogs(t *testing.T) {
	db := openTestDB(t)
	if err := db.Create(&database.AgentChannelModel{
		AgentID: "agentA", OrgID: "org1", DisplayName: "Agent A", Status: "active",
	}).Error; err != nil {
		t.Fatalf("failed to seed agent: %v", err)
	}
	if err := db.Create(&database.NumberPoolModel{
		PhoneNumber: "+18452514056", OrgID: "org1", CountryCode: "US",
		Capabilities: `["sms","voice"]`, IsDefault: true,
	}).Error; err != nil {
		t.Fatalf("failed to seed number pool: %v", err)
	}

	audit := usecase.NewAuditUsecase(db)
	agents := usecase.NewAgentUsecase(db)
	routing := usecase.NewRoutingUsecase(db)
	compliance := usecase.NewComplianceUsecase(db, audit)
	rateLimit := usecase.NewRateLimitUsecase(db)
	deadLetters := usecase.NewDeadLetterUsecase(db)
	provs := providers.NewMockSet("https://gateway.example.com")
	provs.Telephony = failingTelephony{MockTelephony: providers.NewMockTelephony()}
	dispatcher := usecase.NewDispatchUsecase(db, agents, routing, compliance, rateLimit, deadLetters, audit, provs, logrus.StandardLogger(), nil, usecase.VoiceDefaults{})

	_, err := dispatcher.SendMessage(context.Background(), "org1", "agentA", false, dispatch.SendRequest{
		AgentID: "agentA", Channel: dispatch.ChannelSMS, To: "+18001234567", Body: "hello",
	})
	if err == nil {
		t.Fatal("expected SendMessage to surface the provider failure")
	}

	var dlCount int64
	db.Model(&database.DeadLetterModel{}).Where("agent_id = ? AND reason = ?", "agentA", "send_failed").Count(&dlCount)
	if dlCount != 1 {
		t.Fatalf("expected 1 dead letter, got %d", dlCount)
	}

	var usageCount int64
	db.Model(&database.UsageLogModel{}).Where("agent_id = ?", "agentA").Count(&usageCount)
	if usageCount != 0 {
		t.Fatalf("expected 0 usage log rows on provider failure, got %d", usageCount)
	}
}

// TestMakeCall_US covers S2: a call to a US number resolves the default US
// sender, succeeds against the mock provider, and leaves a pending outbound
// call log with a live voice session attached.
func TestMakeCall_US(t *testing.T) {
	db := openTestDB(t)
	if err := db.Create(&database.AgentChannelModel{
		AgentID: "agentA", OrgID: "org1", DisplayName: "Agent A", Status: "active",
	}).Error; err != nil {
		t.Fatalf("failed to seed agent: %v", err)
	}
	if err := db.Create(&database.NumberPoolModel{
		PhoneNumber: "+18452514056", OrgID: "org1", CountryCode: "US",
		Capabilities: `["sms","voice"]`, IsDefault: true,
	}).Error; err != nil {
		t.Fatalf("failed to seed number pool: %v", err)
	}

	audit := usecase.NewAuditUsecase(db)
	agents := usecase.NewAgentUsecase(db)
	routing := usecase.NewRoutingUsecase(db)
	compliance := usecase.NewComplianceUsecase(db, audit)
	rateLimit := usecase.NewRateLimitUsecase(db)
	deadLetters := usecase.NewDeadLetterUsecase(db)
	provs := providers.NewMockSet("https://gateway.example.com")
	voiceSessions := usecase.NewVoiceSessionRegistry()
	dispatcher := usecase.NewDispatchUsecase(db, agents, routing, compliance, rateLimit, deadLetters, audit, provs, logrus.StandardLogger(), voiceSessions, usecase.VoiceDefaults{Greeting: "hi"})

	res, err := dispatcher.MakeCall(context.Background(), "org1", "agentA", false, dispatch.CallRequest{
		AgentID: "agentA", To: "+18001234567",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.From != "+18452514056" {
		t.Fatalf("expected default US number, got %q", res.From)
	}
	if res.SessionID == "" {
		t.Fatal("expected a voice session id to be returned")
	}
	if _, ok := voiceSessions.Get(res.SessionID); !ok {
		t.Fatal("expected the returned session id to be resolvable")
	}
}
