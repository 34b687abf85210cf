package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/AzielCF/az-wap/core/database"
	"github.com/AzielCF/az-wap/domains/erasure"
	"github.com/AzielCF/az-wap/pkg/apierr"
	"gorm.io/gorm"
)

type ErasureUsecase struct {
	db *gorm.DB
}

func NewErasureUsecase(db *gorm.DB) *ErasureUsecase {
	return &ErasureUsecase{db: db}
}

// Execute walks every table that can reference a phone/email and deletes
// matching rows inside one transaction, generalizing the best-effort
// multi-step teardown the provisioning saga uses for a single agent to an
// identifier across every tenant's rows; the deletes carry no org_id
// filter (spec §3 "Erasure request").
func (u *ErasureUsecase) Execute(ctx context.Context, subjectIdentifier string, idType erasure.IdentifierType) (erasure.Result, error) {
	req := database.ErasureRequestModel{
		ID:                newID(),
		SubjectIdentifier: subjectIdentifier,
		IdentifierType:    string(idType),
		Status:            "pending",
		CreatedAt:         time.Now().UTC(),
	}
	if err := u.db.WithContext(ctx).Create(&req).Error; err != nil {
		return erasure.Result{}, apierr.Internal()
	}

	addrColumn := "phone_number"
	usageColumn := "target_address"
	if idType == erasure.IdentifierEmail {
		addrColumn = "email_address"
	}

	var tablesAffected []string
	rowsDeleted := 0

	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if n, err := deleteMatching(tx, &database.UsageLogModel{}, usageColumn, subjectIdentifier); err != nil {
			return err
		} else if n > 0 {
			tablesAffected = append(tablesAffected, "usage_logs")
			rowsDeleted += n
		}

		if n, err := deleteMatchingEither(tx, &database.DeadLetterModel{}, "from_address", "to_address", subjectIdentifier); err != nil {
			return err
		} else if n > 0 {
			tablesAffected = append(tablesAffected, "dead_letters")
			rowsDeleted += n
		}

		if n, err := deleteMatchingEither(tx, &database.CallLogModel{}, "from_address", "to_address", subjectIdentifier); err != nil {
			return err
		} else if n > 0 {
			tablesAffected = append(tablesAffected, "call_logs")
			rowsDeleted += n
		}

		if n, err := deleteMatching(tx, &database.DNCEntryModel{}, addrColumn, subjectIdentifier); err != nil {
			return err
		} else if n > 0 {
			tablesAffected = append(tablesAffected, "dnc_list")
			rowsDeleted += n
		}

		return nil
	})
	if err != nil {
		return erasure.Result{}, apierr.Internal()
	}

	affectedJSON, _ := json.Marshal(tablesAffected)
	now := time.Now().UTC()
	u.db.WithContext(ctx).Model(&database.ErasureRequestModel{}).Where("id = ?", req.ID).
		Updates(map[string]any{
			"status": "completed", "tables_affected": string(affectedJSON),
			"rows_deleted": rowsDeleted, "completed_at": now,
		})

	return erasure.Result{RequestID: req.ID, TablesAffected: tablesAffected, RowsDeleted: rowsDeleted}, nil
}

func deleteMatching(tx *gorm.DB, model interface{}, column, value string) (int, error) {
	res := tx.Where(column+" = ?", value).Delete(model)
	return int(res.RowsAffected), res.Error
}

func deleteMatchingEither(tx *gorm.DB, model interface{}, colA, colB, value string) (int, error) {
	res := tx.Where(colA+" = ? OR "+colB+" = ?", value, value).Delete(model)
	return int(res.RowsAffected), res.Error
}
