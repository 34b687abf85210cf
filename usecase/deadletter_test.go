package usecase_test

import (
	"context"
	"testing"

	"github.com/AzielCF/az-wap/domains/deadletter"
	"github.com/AzielCF/az-wap/usecase"
)

// TestDeadLetterGetWaiting_FetchAcknowledge covers invariant 9 / S6: a row
// returned by GetWaiting is marked acknowledged and never resurfaces for
// the same pending filter.
func TestDeadLetterGetWaiting_FetchAcknowledge(t *testing.T) {
	db := openTestDB(t)
	dl := usecase.NewDeadLetterUsecase(db)
	ctx := context.Background()

	entry := deadletter.Entry{
		AgentID: "agentA", OrgID: "org1", Channel: "sms", Direction: "inbound",
		Reason: "agent_offline", FromAddress: "+15551234567", ToAddress: "+15557654321", Body: "hello",
	}
	if err := dl.Append(ctx, entry); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	first, err := dl.GetWaiting(ctx, "agentA", "", 50)
	if err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 waiting entry, got %d", len(first))
	}
	if first[0].Status != "acknowledged" {
		t.Fatalf("expected acknowledged status, got %q", first[0].Status)
	}

	second, err := dl.GetWaiting(ctx, "agentA", "", 50)
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("expected 0 waiting entries on second fetch, got %d", len(second))
	}
}
