package usecase_test

import (
	"context"
	"testing"

	"github.com/AzielCF/az-wap/core/database"
	"github.com/AzielCF/az-wap/usecase"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
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

func seedNumberPool(t *testing.T, db *gorm.DB, orgID string, entries ...database.NumberPoolModel) {
	t.Helper()
	for _, e := range entries {
		e.OrgID = orgID
		if err := db.Create(&e).Error; err != nil {
			t.Fatalf("failed to seed number pool: %v", err)
		}
	}
}

// TestResolveFromNumber_CountryMatch covers S1: an IL-coded entry wins over
// the org default for a +972 recipient.
func TestResolveFromNumber_CountryMatch(t *testing.T) {
	db := openTestDB(t)
	seedNumberPool(t, db, "org1",
		database.NumberPoolModel{PhoneNumber: "+18452514056", CountryCode: "US", Capabilities: `["sms","voice"]`, IsDefault: true},
		database.NumberPoolModel{PhoneNumber: "+97243760273", CountryCode: "IL", Capabilities: `["sms","voice"]`},
	)
	r := usecase.NewRoutingUsecase(db)

	from, err := r.ResolveFromNumber(context.Background(), "org1", "", "+972502629999", "sms")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if from != "+97243760273" {
		t.Fatalf("expected IL number, got %q", from)
	}
}

// TestResolveFromNumber_DefaultFallback covers invariant 7's default rung:
// a GB recipient with no GB entry in the pool falls back to the org default.
func TestResolveFromNumber_DefaultFallback(t *testing.T) {
	db := openTestDB(t)
	seedNumberPool(t, db, "org1",
		database.NumberPoolModel{PhoneNumber: "+18452514056", CountryCode: "US", Capabilities: `["sms","voice"]`, IsDefault: true},
		database.NumberPoolModel{PhoneNumber: "+97243760273", CountryCode: "IL", Capabilities: `["sms","voice"]`},
	)
	r := usecase.NewRoutingUsecase(db)

	from, err := r.ResolveFromNumber(context.Background(), "org1", "", "+447700900123", "sms")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if from != "+18452514056" {
		t.Fatalf("expected default US number, got %q", from)
	}
}

// TestResolveFromNumber_AgentPhoneFallback covers invariant 7's last rung:
// no pool entries capable of the channel, fall back to the agent's own
// phone number.
func TestResolveFromNumber_AgentPhoneFallback(t *testing.T) {
	db := openTestDB(t)
	r := usecase.NewRoutingUsecase(db)

	from, err := r.ResolveFromNumber(context.Background(), "org1", "+15005550006", "+18001234567", "sms")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if from != "+15005550006" {
		t.Fatalf("expected agent phone fallback, got %q", from)
	}
}

// TestResolveFromNumber_NoSender covers invariant 7's final rung: nothing
// capable and no agent phone resolves to empty, which the dispatcher turns
// into a no_sender conflict.
func TestResolveFromNumber_NoSender(t *testing.T) {
	db := openTestDB(t)
	r := usecase.NewRoutingUsecase(db)

	from, err := r.ResolveFromNumber(context.Background(), "org1", "", "+18001234567", "sms")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if from != "" {
		t.Fatalf("expected no sender, got %q", from)
	}
}
