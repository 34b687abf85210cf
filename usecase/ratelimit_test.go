package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/AzielCF/az-wap/core/database"
	"github.com/AzielCF/az-wap/domains/ratelimit"
	"github.com/AzielCF/az-wap/pkg/apierr"
	"github.com/AzielCF/az-wap/usecase"
)

// TestRateLimitAllow_PerMinuteCap covers invariant 8: once the per-minute
// limit is reached, the next check is rejected rate_limited.
func TestRateLimitAllow_PerMinuteCap(t *testing.T) {
	db := openTestDB(t)
	limit := 3
	if err := db.Create(&database.SpendingLimitModel{
		AgentID: "agentA", OrgID: "org1", MaxActionsPerMinute: &limit,
	}).Error; err != nil {
		t.Fatalf("failed to seed spending limit: %v", err)
	}

	rl := usecase.NewRateLimitUsecase(db)
	ctx := context.Background()
	check := ratelimit.Check{AgentID: "agentA", OrgID: "org1", Cost: 0.01}

	for i := 0; i < limit; i++ {
		if err := rl.Allow(ctx, check); err != nil {
			t.Fatalf("action %d unexpectedly blocked: %v", i, err)
		}
		if err := rl.RecordUsage(ctx, "agentA", "org1", "send_message", "sms", "+15551230000", 0.01, "ext-"+string(rune('0'+i))); err != nil {
			t.Fatalf("record usage %d failed: %v", i, err)
		}
	}

	err := rl.Allow(ctx, check)
	if err == nil {
		t.Fatal("expected the action past the per-minute limit to be rejected")
	}
	var gwErr *apierr.GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected *apierr.GatewayError, got %T", err)
	}
	if gwErr.Kind != apierr.KindRateLimited {
		t.Fatalf("expected rate_limited, got %q", gwErr.Kind)
	}
}
