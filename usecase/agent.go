package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/AzielCF/az-wap/core/database"
	"github.com/AzielCF/az-wap/domains/agent"
	"github.com/AzielCF/az-wap/pkg/apierr"
	"gorm.io/gorm"
)

type AgentUsecase struct {
	db *gorm.DB
}

func NewAgentUsecase(db *gorm.DB) *AgentUsecase {
	return &AgentUsecase{db: db}
}

func (u *AgentUsecase) Get(ctx context.Context, orgID, agentID string) (agent.Agent, error) {
	var row database.AgentChannelModel
	q := u.db.WithContext(ctx).Where("agent_id = ?", agentID)
	if orgID != "" {
		q = q.Where("org_id = ?", orgID)
	}
	if err := q.First(&row).Error; err != nil {
		return agent.Agent{}, apierr.NotFound("agent not found")
	}
	return fromRow(row), nil
}

func (u *AgentUsecase) List(ctx context.Context, orgID string) ([]agent.Agent, error) {
	var rows []database.AgentChannelModel
	if err := u.db.WithContext(ctx).Where("org_id = ?", orgID).Find(&rows).Error; err != nil {
		return nil, apierr.Internal()
	}
	out := make([]agent.Agent, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromRow(r))
	}
	return out, nil
}

func (u *AgentUsecase) UpdateCallback(ctx context.Context, orgID, agentID, callbackURL string) error {
	res := u.db.WithContext(ctx).Model(&database.AgentChannelModel{}).
		Where("agent_id = ? AND org_id = ?", agentID, orgID).
		Updates(map[string]any{"callback_url": callbackURL, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return apierr.Internal()
	}
	if res.RowsAffected == 0 {
		return apierr.NotFound("agent not found")
	}
	return nil
}

func fromRow(r database.AgentChannelModel) agent.Agent {
	var blocked []agent.Channel
	if r.BlockedChannels != "" {
		var raw []string
		_ = json.Unmarshal([]byte(r.BlockedChannels), &raw)
		for _, s := range raw {
			blocked = append(blocked, agent.Channel(s))
		}
	}
	return agent.Agent{
		AgentID:           r.AgentID,
		OrgID:             r.OrgID,
		DisplayName:       r.DisplayName,
		PhoneNumber:       r.PhoneNumber.String,
		WhatsappSenderSID: r.WhatsappSenderSID.String,
		EmailAddress:      r.EmailAddress.String,
		VoiceID:           r.VoiceID.String,
		SystemPrompt:      r.SystemPrompt.String,
		Greeting:          r.Greeting.String,
		BlockedChannels:   blocked,
		Status:            agent.Status(r.Status),
		WhatsappStatus:    r.WhatsappStatus.String,
		CallbackURL:       r.CallbackURL.String,
	}
}
