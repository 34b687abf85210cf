package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/AzielCF/az-wap/core/database"
	domainCredential "github.com/AzielCF/az-wap/domains/credential"
	"github.com/AzielCF/az-wap/pkg/apierr"
	"github.com/AzielCF/az-wap/pkg/crypto"
	"gorm.io/gorm"
)

type CredentialUsecase struct {
	db *gorm.DB
}

func NewCredentialUsecase(db *gorm.DB) *CredentialUsecase {
	return &CredentialUsecase{db: db}
}

func (u *CredentialUsecase) Create(ctx context.Context, req domainCredential.CreateRequest) (domainCredential.Credential, error) {
	if req.Name == "" {
		return domainCredential.Credential{}, apierr.BadInput("name", "name is required")
	}
	switch req.Kind {
	case domainCredential.KindTwilio, domainCredential.KindResend, domainCredential.KindElevenLabs:
	default:
		return domainCredential.Credential{}, apierr.BadInput("kind", "unsupported credential kind")
	}

	plain, err := json.Marshal(req.Data)
	if err != nil {
		return domainCredential.Credential{}, apierr.Internal()
	}
	encrypted, err := crypto.Encrypt(string(plain))
	if err != nil {
		return domainCredential.Credential{}, apierr.Internal()
	}

	row := database.CredentialModel{
		ID: newID(), OrgID: req.OrgID, Kind: string(req.Kind), Name: req.Name,
		EncryptedJSON: encrypted, CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	if err := u.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domainCredential.Credential{}, apierr.Internal()
	}

	return domainCredential.Credential{ID: row.ID, OrgID: row.OrgID, Kind: req.Kind, Name: row.Name, Data: req.Data}, nil
}

func (u *CredentialUsecase) List(ctx context.Context, orgID string) ([]domainCredential.Credential, error) {
	var rows []database.CredentialModel
	if err := u.db.WithContext(ctx).Where("org_id = ?", orgID).Find(&rows).Error; err != nil {
		return nil, apierr.Internal()
	}
	out := make([]domainCredential.Credential, 0, len(rows))
	for _, r := range rows {
		out = append(out, domainCredential.Credential{ID: r.ID, OrgID: r.OrgID, Kind: domainCredential.Kind(r.Kind), Name: r.Name})
	}
	return out, nil
}

func (u *CredentialUsecase) Get(ctx context.Context, orgID, id string) (domainCredential.Credential, error) {
	var row database.CredentialModel
	if err := u.db.WithContext(ctx).Where("id = ? AND org_id = ?", id, orgID).First(&row).Error; err != nil {
		return domainCredential.Credential{}, apierr.NotFound("credential not found")
	}
	plain, err := crypto.Decrypt(row.EncryptedJSON)
	if err != nil {
		return domainCredential.Credential{}, apierr.Internal()
	}
	var data map[string]string
	_ = json.Unmarshal([]byte(plain), &data)
	return domainCredential.Credential{ID: row.ID, OrgID: row.OrgID, Kind: domainCredential.Kind(row.Kind), Name: row.Name, Data: data}, nil
}

func (u *CredentialUsecase) Delete(ctx context.Context, orgID, id string) error {
	res := u.db.WithContext(ctx).Where("id = ? AND org_id = ?", id, orgID).Delete(&database.CredentialModel{})
	if res.Error != nil {
		return apierr.Internal()
	}
	if res.RowsAffected == 0 {
		return apierr.NotFound("credential not found")
	}
	return nil
}
