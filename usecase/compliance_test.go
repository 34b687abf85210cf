package usecase_test

import (
	"context"
	"errors"
	"testing"

	"database/sql"

	"github.com/AzielCF/az-wap/core/database"
	"github.com/AzielCF/az-wap/domains/compliance"
	"github.com/AzielCF/az-wap/pkg/apierr"
	"github.com/AzielCF/az-wap/usecase"
)

// TestComplianceEvaluate_DNCBlock covers S3: a recipient on the DNC list is
// rejected with compliance_denied before any usage log would be written.
func TestComplianceEvaluate_DNCBlock(t *testing.T) {
	db := openTestDB(t)
	audit := usecase.NewAuditUsecase(db)
	c := usecase.NewComplianceUsecase(db, audit)
	ctx := context.Background()

	if err := db.Create(&database.DNCEntryModel{
		ID: "dnc1", OrgID: "org1", PhoneNumber: sql.NullString{String: "+15559999999", Valid: true},
	}).Error; err != nil {
		t.Fatalf("failed to seed DNC entry: %v", err)
	}

	err := c.Evaluate(ctx, compliance.Request{OrgID: "org1", Channel: "sms", ToAddress: "+15559999999", Body: "hi"})
	if err == nil {
		t.Fatal("expected compliance_denied error, got nil")
	}
	var gwErr *apierr.GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected *apierr.GatewayError, got %T", err)
	}
	if gwErr.Kind != apierr.KindComplianceDenied {
		t.Fatalf("expected compliance_denied, got %q", gwErr.Kind)
	}
}

// TestComplianceEvaluate_AllowsUnlisted covers the negative case: a
// recipient absent from every rule passes clean.
func TestComplianceEvaluate_AllowsUnlisted(t *testing.T) {
	db := openTestDB(t)
	audit := usecase.NewAuditUsecase(db)
	c := usecase.NewComplianceUsecase(db, audit)
	ctx := context.Background()

	if err := c.Evaluate(ctx, compliance.Request{OrgID: "org1", Channel: "sms", ToAddress: "+15551230000", Body: "hi"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
