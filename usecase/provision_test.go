package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/AzielCF/az-wap/core/database"
	"github.com/AzielCF/az-wap/domains/provision"
	"github.com/AzielCF/az-wap/providers"
	"github.com/AzielCF/az-wap/usecase"
	"github.com/sirupsen/logrus"
)

// failingWebhookTelephony succeeds on BuyNumber but fails on
// ConfigureWebhooks, exercising the saga's reverse-order compensation.
type failingWebhookTelephony struct {
	released string
}

func (f *failingWebhookTelephony) SendSms(ctx context.Context, req providers.SmsRequest) (providers.SendResult, error) {
	return providers.SendResult{}, nil
}
func (f *failingWebhookTelephony) MakeCall(ctx context.Context, req providers.CallRequest) (providers.CallResult, error) {
	return providers.CallResult{}, nil
}
func (f *failingWebhookTelephony) BuyNumber(ctx context.Context, country string, caps []providers.NumberCapability) (providers.BoughtNumber, error) {
	return providers.BoughtNumber{PhoneNumber: "+15005550006", ProviderSID: "PN123"}, nil
}
func (f *failingWebhookTelephony) ReleaseNumber(ctx context.Context, providerSID string) error {
	f.released = providerSID
	return nil
}
func (f *failingWebhookTelephony) ConfigureWebhooks(ctx context.Context, providerSID, baseURL string) error {
	return errors.New("webhook config unreachable")
}
func (f *failingWebhookTelephony) VerifyWebhookSignature(ctx context.Context, url string, form map[string]string, signature string) bool {
	return true
}
func (f *failingWebhookTelephony) TransferCall(ctx context.Context, callSID, to string) error {
	return nil
}

// TestProvision_RollbackOnWebhookFailure covers S4: a failure partway
// through the saga leaves no agent row, no token, and the pool count
// unchanged, with the purchased number released.
func TestProvision_RollbackOnWebhookFailure(t *testing.T) {
	db := openTestDB(t)
	if err := db.Create(&database.OrganizationModel{ID: "org1", Name: "Org One", Slug: "org-one"}).Error; err != nil {
		t.Fatalf("failed to seed org: %v", err)
	}
	if err := db.Create(&database.AgentPoolModel{OrgID: "org1", MaxAgents: 10, ActiveAgents: 0}).Error; err != nil {
		t.Fatalf("failed to seed pool: %v", err)
	}

	telephony := &failingWebhookTelephony{}
	audit := usecase.NewAuditUsecase(db)
	p := usecase.NewProvisionUsecase(db, telephony, audit, logrus.StandardLogger(), "https://gateway.example.com", "agents.example.com")

	_, err := p.Provision(context.Background(), provision.Request{
		AgentID: "x", OrgID: "org1", DisplayName: "Agent X",
		Capabilities: provision.Capabilities{Phone: true}, Country: "US",
	})
	if err == nil {
		t.Fatal("expected provisioning to fail")
	}

	var agentCount int64
	db.Model(&database.AgentChannelModel{}).Where("agent_id = ?", "x").Count(&agentCount)
	if agentCount != 0 {
		t.Fatalf("expected no agent_channels row, found %d", agentCount)
	}

	var tokenCount int64
	db.Model(&database.AgentTokenModel{}).Where("agent_id = ?", "x").Count(&tokenCount)
	if tokenCount != 0 {
		t.Fatalf("expected no tokens for agent x, found %d", tokenCount)
	}

	var pool database.AgentPoolModel
	if err := db.Where("org_id = ?", "org1").First(&pool).Error; err != nil {
		t.Fatalf("failed to load pool: %v", err)
	}
	if pool.ActiveAgents != 0 {
		t.Fatalf("expected active_agents unchanged at 0, got %d", pool.ActiveAgents)
	}

	if telephony.released != "PN123" {
		t.Fatalf("expected number PN123 to be released, got %q", telephony.released)
	}
}
