package rest_test

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AzielCF/az-wap/core/database"
	"github.com/AzielCF/az-wap/pkg/replay"
	"github.com/AzielCF/az-wap/providers"
	"github.com/AzielCF/az-wap/ui/rest"
	"github.com/AzielCF/az-wap/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openWebhookTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	return db
}

// TestWebhookHandle_AgentOffline covers S6: a valid inbound SMS webhook for
// an agent with no callback URL returns the empty TwiML envelope within the
// request and leaves exactly one fetch-acknowledge-able dead letter behind.
func TestWebhookHandle_AgentOffline(t *testing.T) {
	db := openWebhookTestDB(t)
	if err := db.Create(&database.AgentChannelModel{
		AgentID: "A", OrgID: "org1", DisplayName: "Agent A",
		PhoneNumber: sql.NullString{String: "+15557654321", Valid: true}, Status: "active",
	}).Error; err != nil {
		t.Fatalf("failed to seed agent: %v", err)
	}

	audit := usecase.NewAuditUsecase(db)
	agents := usecase.NewAgentUsecase(db)
	routing := usecase.NewRoutingUsecase(db)
	compliance := usecase.NewComplianceUsecase(db, audit)
	rateLimit := usecase.NewRateLimitUsecase(db)
	deadLetters := usecase.NewDeadLetterUsecase(db)
	provs := providers.NewMockSet("https://gateway.example.com")
	dispatcher := usecase.NewDispatchUsecase(db, agents, routing, compliance, rateLimit, deadLetters, audit, provs, logrus.StandardLogger(), nil, usecase.VoiceDefaults{})

	app := fiber.New()
	rest.InitRestWebhook(app, dispatcher, provs, replay.NewGuard(128, time.Minute), "https://gateway.example.com", "", true)

	form := "Body=hello&From=%2B15551234567&To=%2B15557654321&MessageSid=SM123"
	req := httptest.NewRequest(http.MethodPost, "/webhooks/A/sms", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	waiting, err := deadLetters.GetWaiting(req.Context(), "A", "", 50)
	if err != nil {
		t.Fatalf("GetWaiting failed: %v", err)
	}
	if len(waiting) != 1 {
		t.Fatalf("expected exactly 1 waiting dead letter, got %d", len(waiting))
	}
	if waiting[0].Reason != "agent_offline" {
		t.Fatalf("expected reason agent_offline, got %q", waiting[0].Reason)
	}
	if waiting[0].FromAddress != "+15551234567" || waiting[0].ToAddress != "+15557654321" || waiting[0].Body != "hello" {
		t.Fatalf("unexpected dead letter contents: %+v", waiting[0])
	}

	second, err := deadLetters.GetWaiting(req.Context(), "A", "", 50)
	if err != nil {
		t.Fatalf("second GetWaiting failed: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("expected 0 waiting entries on second fetch, got %d", len(second))
	}
}
