package usecase

import (
	"context"
	"regexp"
	"time"

	"github.com/AzielCF/az-wap/core/database"
	"github.com/AzielCF/az-wap/domains/org"
	"github.com/AzielCF/az-wap/pkg/apierr"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var slugRe = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

type OrgUsecase struct {
	db *gorm.DB
}

func NewOrgUsecase(db *gorm.DB) *OrgUsecase {
	return &OrgUsecase{db: db}
}

func (u *OrgUsecase) Create(ctx context.Context, req org.CreateRequest) (org.Organization, error) {
	err := validation.ValidateStructWithContext(ctx, &req,
		validation.Field(&req.Name, validation.Required),
		validation.Field(&req.Slug, validation.Required, validation.Match(slugRe)),
	)
	if err != nil {
		return org.Organization{}, apierr.BadInput("", err.Error())
	}

	row := database.OrganizationModel{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Slug:      req.Slug,
		Settings:  "{}",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := u.db.WithContext(ctx).Create(&row).Error; err != nil {
		return org.Organization{}, apierr.Conflict("organization slug already exists")
	}

	pool := database.AgentPoolModel{OrgID: row.ID, MaxAgents: 100, ActiveAgents: 0}
	if err := u.db.WithContext(ctx).Create(&pool).Error; err != nil {
		return org.Organization{}, apierr.Internal()
	}

	return toOrg(row), nil
}

func (u *OrgUsecase) List(ctx context.Context) ([]org.Organization, error) {
	var rows []database.OrganizationModel
	if err := u.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, apierr.Internal()
	}
	out := make([]org.Organization, 0, len(rows))
	for _, r := range rows {
		out = append(out, toOrg(r))
	}
	return out, nil
}

func (u *OrgUsecase) Get(ctx context.Context, id string) (org.Organization, error) {
	var row database.OrganizationModel
	if err := u.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return org.Organization{}, apierr.NotFound("organization not found")
	}
	return toOrg(row), nil
}

func toOrg(r database.OrganizationModel) org.Organization {
	return org.Organization{ID: r.ID, Name: r.Name, Slug: r.Slug, Settings: r.Settings}
}
