package usecase_test

import (
	"context"
	"testing"

	"github.com/AzielCF/az-wap/core/database"
	"github.com/AzielCF/az-wap/domains/audit"
	"github.com/AzielCF/az-wap/usecase"
)

// TestAuditChain_VerifyValid covers invariant 4: a freshly appended chain
// verifies clean.
func TestAuditChain_VerifyValid(t *testing.T) {
	db := openTestDB(t)
	a := usecase.NewAuditUsecase(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := a.Append(ctx, audit.Entry{EventType: "test_event", Actor: "system", OrgID: "org1", Details: "{}"}); err != nil {
			t.Fatalf("append %d failed: %v", i, err)
		}
	}

	result, err := a.Verify(ctx, "org1")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !result.Valid || result.CheckedCount != 3 {
		t.Fatalf("expected valid chain of 3, got %+v", result)
	}
}

// TestAuditChain_TamperDetected covers S5: directly mutating row 2's
// details breaks the chain at index 1.
func TestAuditChain_TamperDetected(t *testing.T) {
	db := openTestDB(t)
	a := usecase.NewAuditUsecase(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := a.Append(ctx, audit.Entry{EventType: "test_event", Actor: "system", OrgID: "org1", Details: "{}"}); err != nil {
			t.Fatalf("append %d failed: %v", i, err)
		}
	}

	var rows []database.AuditLogModel
	if err := db.Where("org_id = ?", "org1").Order("timestamp ASC, rowid ASC").Find(&rows).Error; err != nil {
		t.Fatalf("failed to load rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	tampered := rows[1]
	tampered.Details.String = `{"tampered":true}`
	tampered.Details.Valid = true
	if err := db.Save(&tampered).Error; err != nil {
		t.Fatalf("failed to tamper row: %v", err)
	}

	result, err := a.Verify(ctx, "org1")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if result.Valid {
		t.Fatalf("expected tamper to be detected")
	}
	if result.BrokenAtIndex == nil || *result.BrokenAtIndex != 1 {
		t.Fatalf("expected break at index 1, got %+v", result.BrokenAtIndex)
	}
}
