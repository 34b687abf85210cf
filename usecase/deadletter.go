package usecase

import (
	"context"
	"time"

	"github.com/AzielCF/az-wap/core/database"
	"github.com/AzielCF/az-wap/domains/deadletter"
	"github.com/AzielCF/az-wap/pkg/apierr"
	"gorm.io/gorm"
)

type DeadLetterUsecase struct {
	db *gorm.DB
}

func NewDeadLetterUsecase(db *gorm.DB) *DeadLetterUsecase {
	return &DeadLetterUsecase{db: db}
}

func (u *DeadLetterUsecase) Append(ctx context.Context, e deadletter.Entry) error {
	row := database.DeadLetterModel{
		ID:        newID(),
		AgentID:   e.AgentID,
		OrgID:     e.OrgID,
		Channel:   e.Channel,
		Direction: e.Direction,
		Reason:    e.Reason,
		Status:    "pending",
		CreatedAt: time.Now().UTC(),
	}
	if e.FromAddress != "" {
		row.FromAddress.String, row.FromAddress.Valid = e.FromAddress, true
	}
	if e.ToAddress != "" {
		row.ToAddress.String, row.ToAddress.Valid = e.ToAddress, true
	}
	if e.Body != "" {
		row.Body.String, row.Body.Valid = e.Body, true
	}
	if e.MediaURL != "" {
		row.MediaURL.String, row.MediaURL.Valid = e.MediaURL, true
	}
	if e.OriginalRequest != "" {
		row.OriginalRequest.String, row.OriginalRequest.Valid = e.OriginalRequest, true
	}
	if e.ErrorDetails != "" {
		row.ErrorDetails.String, row.ErrorDetails.Valid = e.ErrorDetails, true
	}
	if e.ExternalID != "" {
		row.ExternalID.String, row.ExternalID.Valid = e.ExternalID, true
	}
	if err := u.db.WithContext(ctx).Create(&row).Error; err != nil {
		return apierr.Internal()
	}
	return nil
}

// GetWaiting implements fetch-acknowledge: returns up to `limit` pending
// rows then immediately marks them acknowledged in the same call (spec
// §4.9, invariant 9).
func (u *DeadLetterUsecase) GetWaiting(ctx context.Context, agentID, channel string, limit int) ([]deadletter.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []database.DeadLetterModel
	q := u.db.WithContext(ctx).Where("agent_id = ? AND status = ?", agentID, "pending")
	if channel != "" {
		q = q.Where("channel = ?", channel)
	}
	if err := q.Order("created_at ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, apierr.Internal()
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	now := time.Now().UTC()
	if err := u.db.WithContext(ctx).Model(&database.DeadLetterModel{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"status": "acknowledged", "acknowledged_at": now}).Error; err != nil {
		return nil, apierr.Internal()
	}

	out := make([]deadletter.Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, deadletter.Entry{
			ID: r.ID, AgentID: r.AgentID, OrgID: r.OrgID, Channel: r.Channel,
			Direction: r.Direction, Reason: r.Reason,
			FromAddress: r.FromAddress.String, ToAddress: r.ToAddress.String,
			Body: r.Body.String, MediaURL: r.MediaURL.String,
			OriginalRequest: r.OriginalRequest.String, ErrorDetails: r.ErrorDetails.String,
			ExternalID: r.ExternalID.String, Status: "acknowledged",
		})
	}
	return out, nil
}
