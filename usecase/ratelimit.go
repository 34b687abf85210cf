package usecase

import (
	"context"
	"time"

	"github.com/AzielCF/az-wap/core/database"
	"github.com/AzielCF/az-wap/domains/ratelimit"
	"github.com/AzielCF/az-wap/pkg/apierr"
	"gorm.io/gorm"
)

// defaultLimits apply when an agent has no spending_limits override (spec
// §3 "Absent = use org/system defaults").
var defaultLimits = struct {
	perMinute, perHour, perDay int
	perDaySpend, perMonthSpend float64
}{perMinute: 20, perHour: 500, perDay: 5000, perDaySpend: 50, perMonthSpend: 1000}

type RateLimitUsecase struct {
	db *gorm.DB
}

func NewRateLimitUsecase(db *gorm.DB) *RateLimitUsecase {
	return &RateLimitUsecase{db: db}
}

type window struct {
	name  string
	since time.Duration
	limit int
}

// Allow implements spec §4.3's five ANDed checks against usage_logs. It
// writes nothing: RecordUsage inserts the usage row after a successful
// provider call. The window between this read and that write is
// intentionally racy per spec ("accept transient over-count").
func (u *RateLimitUsecase) Allow(ctx context.Context, c ratelimit.Check) error {
	limits, err := u.resolveLimits(ctx, c.AgentID, c.OrgID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	windows := []window{
		{"max_actions_per_minute", time.Minute, limits.perMinute},
		{"max_actions_per_hour", time.Hour, limits.perHour},
		{"max_actions_per_day", 24 * time.Hour, limits.perDay},
	}
	for _, w := range windows {
		if w.limit <= 0 {
			continue
		}
		var count int64
		if err := u.db.WithContext(ctx).Model(&database.UsageLogModel{}).
			Where("agent_id = ? AND created_at >= ?", c.AgentID, now.Add(-w.since)).
			Count(&count).Error; err != nil {
			return apierr.Internal()
		}
		if int(count) >= w.limit {
			return apierr.RateLimited(w.name, now.Add(w.since).Format(time.RFC3339))
		}
	}

	if limits.perDaySpend > 0 {
		spent, err := u.sumCost(ctx, c.AgentID, dayStart(now))
		if err != nil {
			return err
		}
		if spent+c.Cost > limits.perDaySpend {
			return apierr.RateLimited("max_spend_per_day", dayStart(now).Add(24*time.Hour).Format(time.RFC3339))
		}
	}
	if limits.perMonthSpend > 0 {
		spent, err := u.sumCost(ctx, c.AgentID, monthStart(now))
		if err != nil {
			return err
		}
		if spent+c.Cost > limits.perMonthSpend {
			return apierr.RateLimited("max_spend_per_month", monthStart(now).AddDate(0, 1, 0).Format(time.RFC3339))
		}
	}

	return nil
}

func (u *RateLimitUsecase) sumCost(ctx context.Context, agentID string, since time.Time) (float64, error) {
	var total float64
	row := u.db.WithContext(ctx).Model(&database.UsageLogModel{}).
		Select("COALESCE(SUM(cost), 0)").
		Where("agent_id = ? AND created_at >= ?", agentID, since).Row()
	if err := row.Scan(&total); err != nil {
		return 0, apierr.Internal()
	}
	return total, nil
}

type resolvedLimits struct {
	perMinute, perHour, perDay int
	perDaySpend, perMonthSpend float64
}

func (u *RateLimitUsecase) resolveLimits(ctx context.Context, agentID, orgID string) (resolvedLimits, error) {
	out := resolvedLimits{
		perMinute:      defaultLimits.perMinute,
		perHour:        defaultLimits.perHour,
		perDay:         defaultLimits.perDay,
		perDaySpend:    defaultLimits.perDaySpend,
		perMonthSpend:  defaultLimits.perMonthSpend,
	}
	var row database.SpendingLimitModel
	if err := u.db.WithContext(ctx).Where("agent_id = ?", agentID).First(&row).Error; err != nil {
		return out, nil
	}
	if row.MaxActionsPerMinute != nil {
		out.perMinute = *row.MaxActionsPerMinute
	}
	if row.MaxActionsPerHour != nil {
		out.perHour = *row.MaxActionsPerHour
	}
	if row.MaxActionsPerDay != nil {
		out.perDay = *row.MaxActionsPerDay
	}
	if row.MaxSpendPerDay != nil {
		out.perDaySpend = *row.MaxSpendPerDay
	}
	if row.MaxSpendPerMonth != nil {
		out.perMonthSpend = *row.MaxSpendPerMonth
	}
	return out, nil
}

// RecordUsage inserts the usage_logs row after a successful provider call,
// applying the agent's billing markup to the raw provider cost.
func (u *RateLimitUsecase) RecordUsage(ctx context.Context, agentID, orgID, actionType, channel, target string, rawCost float64, externalID string) error {
	markup := 0.0
	var bc database.BillingConfigModel
	if err := u.db.WithContext(ctx).Where("agent_id = ?", agentID).First(&bc).Error; err == nil {
		markup = bc.MarkupPercent
	}
	row := database.UsageLogModel{
		ID:            newID(),
		AgentID:       agentID,
		OrgID:         orgID,
		ActionType:    actionType,
		Channel:       channel,
		TargetAddress: target,
		Cost:          rawCost * (1 + markup/100),
		CreatedAt:     time.Now().UTC(),
	}
	if externalID != "" {
		row.ExternalID.String, row.ExternalID.Valid = externalID, true
	}
	if err := u.db.WithContext(ctx).Create(&row).Error; err != nil {
		return apierr.Internal()
	}
	return nil
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
