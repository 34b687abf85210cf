package usecase_test

import (
	"context"
	"testing"

	"github.com/AzielCF/az-wap/core/database"
	"github.com/AzielCF/az-wap/domains/provision"
	"github.com/AzielCF/az-wap/providers"
	"github.com/AzielCF/az-wap/usecase"
	"github.com/sirupsen/logrus"
)

// TestProvision_TokenPlaintextOnlyOnce covers invariant 5: the plaintext
// token is returned exactly once, from Provision itself, and the persisted
// row carries only its hash.
func TestProvision_TokenPlaintextOnlyOnce(t *testing.T) {
	db := openTestDB(t)
	if err := db.Create(&database.OrganizationModel{ID: "org1", Name: "Org One", Slug: "org-one"}).Error; err != nil {
		t.Fatalf("failed to seed org: %v", err)
	}
	if err := db.Create(&database.AgentPoolModel{OrgID: "org1", MaxAgents: 10, ActiveAgents: 0}).Error; err != nil {
		t.Fatalf("failed to seed pool: %v", err)
	}

	audit := usecase.NewAuditUsecase(db)
	p := usecase.NewProvisionUsecase(db, providers.NewMockTelephony(), audit, logrus.StandardLogger(), "https://gateway.example.com", "agents.example.com")

	result, err := p.Provision(context.Background(), provision.Request{
		AgentID: "x", OrgID: "org1", DisplayName: "Agent X",
		Capabilities: provision.Capabilities{Phone: true}, Country: "US",
	})
	if err != nil {
		t.Fatalf("provision failed: %v", err)
	}
	if result.PlaintextToken == "" {
		t.Fatal("expected a plaintext token in the provisioning result")
	}

	var token database.AgentTokenModel
	if err := db.Where("agent_id = ?", "x").First(&token).Error; err != nil {
		t.Fatalf("failed to load token row: %v", err)
	}
	if token.TokenHash == "" {
		t.Fatal("expected a non-empty token hash")
	}
	if token.TokenHash == result.PlaintextToken {
		t.Fatal("stored hash must not equal the plaintext token")
	}
}
