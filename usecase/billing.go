package usecase

import (
	"context"
	"time"

	"github.com/AzielCF/az-wap/core/database"
	"github.com/AzielCF/az-wap/pkg/apierr"
	"gorm.io/gorm"
)

type UsageEntry struct {
	AgentID       string    `json:"agent_id"`
	ActionType    string    `json:"action_type"`
	Channel       string    `json:"channel"`
	TargetAddress string    `json:"target_address"`
	Cost          float64   `json:"cost"`
	CreatedAt     time.Time `json:"created_at"`
}

type BillingSummary struct {
	AgentID       string  `json:"agent_id"`
	Tier          string  `json:"tier"`
	MarkupPercent float64 `json:"markup_percent"`
	SpendToday    float64 `json:"spend_today"`
	SpendThisMonth float64 `json:"spend_this_month"`
}

type BillingUsecase struct {
	db *gorm.DB
}

func NewBillingUsecase(db *gorm.DB) *BillingUsecase {
	return &BillingUsecase{db: db}
}

// Usage returns usage_logs rows for an org (or a single agent when scoped),
// backing GET /api/v1/usage.
func (u *BillingUsecase) Usage(ctx context.Context, orgID, agentID string, since time.Time) ([]UsageEntry, error) {
	var rows []database.UsageLogModel
	q := u.db.WithContext(ctx).Where("org_id = ?", orgID)
	if agentID != "" {
		q = q.Where("agent_id = ?", agentID)
	}
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, apierr.Internal()
	}
	out := make([]UsageEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, UsageEntry{
			AgentID: r.AgentID, ActionType: r.ActionType, Channel: r.Channel,
			TargetAddress: r.TargetAddress, Cost: r.Cost, CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

// Billing returns the per-agent billing config plus current-period spend,
// backing GET /api/v1/billing.
func (u *BillingUsecase) Billing(ctx context.Context, orgID, agentID string) (BillingSummary, error) {
	var bc database.BillingConfigModel
	if err := u.db.WithContext(ctx).Where("agent_id = ? AND org_id = ?", agentID, orgID).First(&bc).Error; err != nil {
		bc = database.BillingConfigModel{AgentID: agentID, OrgID: orgID, Tier: "free"}
	}

	now := time.Now().UTC()
	dayTotal, _ := u.sum(ctx, agentID, dayStart(now))
	monthTotal, _ := u.sum(ctx, agentID, monthStart(now))

	return BillingSummary{
		AgentID: agentID, Tier: bc.Tier, MarkupPercent: bc.MarkupPercent,
		SpendToday: dayTotal, SpendThisMonth: monthTotal,
	}, nil
}

func (u *BillingUsecase) sum(ctx context.Context, agentID string, since time.Time) (float64, error) {
	var total float64
	row := u.db.WithContext(ctx).Model(&database.UsageLogModel{}).
		Select("COALESCE(SUM(cost), 0)").Where("agent_id = ? AND created_at >= ?", agentID, since).Row()
	if err := row.Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
