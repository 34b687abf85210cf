package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/AzielCF/az-wap/core/database"
	"github.com/AzielCF/az-wap/domains/audit"
	"github.com/AzielCF/az-wap/domains/provision"
	"github.com/AzielCF/az-wap/pkg/apierr"
	"github.com/AzielCF/az-wap/providers"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ProvisionUsecase struct {
	db          *gorm.DB
	telephony   providers.Telephony
	audit       audit.IAppender
	log         *logrus.Logger
	webhookBase string
	emailDomain string
}

func NewProvisionUsecase(db *gorm.DB, telephony providers.Telephony, appender audit.IAppender, log *logrus.Logger, webhookBase, emailDomain string) *ProvisionUsecase {
	return &ProvisionUsecase{db: db, telephony: telephony, audit: appender, log: log, webhookBase: webhookBase, emailDomain: emailDomain}
}

// Provision runs the saga of spec §4.7. Preconditions are checked before
// any external call; the saga's steps then execute in order, compensating
// in reverse on the first failure.
func (u *ProvisionUsecase) Provision(ctx context.Context, req provision.Request) (provision.Result, error) {
	var existing database.AgentChannelModel
	if err := u.db.WithContext(ctx).Where("agent_id = ?", req.AgentID).First(&existing).Error; err == nil {
		return provision.Result{}, apierr.Conflict("agent already exists")
	}

	var pool database.AgentPoolModel
	if err := u.db.WithContext(ctx).Where("org_id = ?", req.OrgID).First(&pool).Error; err != nil {
		return provision.Result{}, apierr.NotFound("organization pool not found")
	}
	if pool.ActiveAgents >= pool.MaxAgents {
		return provision.Result{}, apierr.Conflict("agent pool is full")
	}

	var (
		phoneNumber, providerSID string
		whatsappSID              string
		whatsappUnavailable      bool
		emailAddress             string
		plaintextToken           string
		tokenHash                string
	)

	completed := make([]func(ctx context.Context), 0, 8)
	compensate := func(ctx context.Context) {
		for i := len(completed) - 1; i >= 0; i-- {
			func() {
				defer func() {
					if r := recover(); r != nil {
						u.log.WithField("panic", r).Error("provision compensation panicked")
					}
				}()
				completed[i](ctx)
			}()
		}
	}

	// Step 1: buy number.
	if req.Capabilities.Phone || req.Capabilities.VoiceAI {
		caps := []providers.NumberCapability{}
		if req.Capabilities.Phone {
			caps = append(caps, providers.CapSMS)
		}
		if req.Capabilities.VoiceAI {
			caps = append(caps, providers.CapVoice)
		}
		bought, err := u.telephony.BuyNumber(ctx, req.Country, caps)
		if err != nil {
			return provision.Result{}, apierr.ProviderError("telephony", err)
		}
		phoneNumber, providerSID = bought.PhoneNumber, bought.ProviderSID
		completed = append(completed, func(ctx context.Context) {
			if err := u.telephony.ReleaseNumber(ctx, providerSID); err != nil {
				u.log.WithError(err).Warn("provision rollback: release number failed")
			}
		})
		if err := u.telephony.ConfigureWebhooks(ctx, providerSID, u.webhookBase); err != nil {
			compensate(ctx)
			return provision.Result{}, apierr.ProviderError("telephony", err)
		}
	}

	// Step 2: derive email, no external call, no compensation.
	if req.Capabilities.Email {
		emailAddress = req.AgentID + "@" + u.emailDomain
	}

	// Step 3: insert agent_channels row.
	row := database.AgentChannelModel{
		AgentID:     req.AgentID,
		OrgID:       req.OrgID,
		DisplayName: req.DisplayName,
		Status:      "active",
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if phoneNumber != "" {
		row.PhoneNumber.String, row.PhoneNumber.Valid = phoneNumber, true
	}
	if emailAddress != "" {
		row.EmailAddress.String, row.EmailAddress.Valid = emailAddress, true
	}
	if err := u.db.WithContext(ctx).Create(&row).Error; err != nil {
		compensate(ctx)
		return provision.Result{}, apierr.Conflict("agent already exists")
	}
	agentID := req.AgentID
	completed = append(completed, func(ctx context.Context) {
		if err := u.db.WithContext(ctx).Where("agent_id = ?", agentID).Delete(&database.AgentChannelModel{}).Error; err != nil {
			u.log.WithError(err).Warn("provision rollback: delete agent row failed")
		}
	})

	// Step 4: assign WhatsApp from pool.
	if req.Capabilities.Whatsapp {
		res := u.db.WithContext(ctx).Model(&database.WhatsappPoolModel{}).
			Where("org_id = ? AND status = 'available'", req.OrgID).
			Limit(1).
			Updates(map[string]any{"status": "assigned", "assigned_to_agent": agentID})
		if res.Error != nil {
			compensate(ctx)
			return provision.Result{}, apierr.Internal()
		}
		if res.RowsAffected == 0 {
			whatsappUnavailable = true
			u.db.WithContext(ctx).Model(&database.AgentChannelModel{}).
				Where("agent_id = ?", agentID).
				Update("whatsapp_status", "unavailable")
		} else {
			var assigned database.WhatsappPoolModel
			u.db.WithContext(ctx).Where("org_id = ? AND assigned_to_agent = ?", req.OrgID, agentID).First(&assigned)
			whatsappSID = assigned.SenderSID
			u.db.WithContext(ctx).Model(&database.AgentChannelModel{}).
				Where("agent_id = ?", agentID).
				Update("whatsapp_sender_sid", whatsappSID)
			completed = append(completed, func(ctx context.Context) {
				u.db.WithContext(ctx).Model(&database.WhatsappPoolModel{}).
					Where("sender_sid = ?", whatsappSID).
					Updates(map[string]any{"status": "available", "assigned_to_agent": nil})
			})
		}
	}

	// Step 5: increment pool count, conditional on capacity (spec §5).
	res := u.db.WithContext(ctx).Model(&database.AgentPoolModel{}).
		Where("org_id = ? AND active_agents < max_agents", req.OrgID).
		Update("active_agents", gorm.Expr("active_agents + 1"))
	if res.Error != nil || res.RowsAffected == 0 {
		compensate(ctx)
		return provision.Result{}, apierr.Conflict("agent pool is full")
	}
	completed = append(completed, func(ctx context.Context) {
		u.db.WithContext(ctx).Model(&database.AgentPoolModel{}).
			Where("org_id = ?", req.OrgID).
			Update("active_agents", gorm.Expr("active_agents - 1"))
	})

	// Step 6: mint agent token.
	plaintextToken, tokenHash = mintToken()
	tokenRow := database.AgentTokenModel{
		ID:        newID(),
		TokenHash: tokenHash,
		AgentID:   agentID,
		OrgID:     req.OrgID,
		Label:     "provisioning",
		CreatedAt: time.Now().UTC(),
	}
	if err := u.db.WithContext(ctx).Create(&tokenRow).Error; err != nil {
		compensate(ctx)
		return provision.Result{}, apierr.Internal()
	}
	tokenID := tokenRow.ID
	completed = append(completed, func(ctx context.Context) {
		now := time.Now().UTC()
		u.db.WithContext(ctx).Model(&database.AgentTokenModel{}).Where("id = ?", tokenID).Update("revoked_at", now)
	})

	// Step 7: default spending limits.
	limitsRow := database.SpendingLimitModel{AgentID: agentID, OrgID: req.OrgID}
	if err := u.db.WithContext(ctx).Create(&limitsRow).Error; err != nil {
		compensate(ctx)
		return provision.Result{}, apierr.Internal()
	}
	completed = append(completed, func(ctx context.Context) {
		u.db.WithContext(ctx).Where("agent_id = ?", agentID).Delete(&database.SpendingLimitModel{})
	})

	// Step 8: audit.
	if u.audit != nil {
		details, _ := json.Marshal(map[string]any{"display_name": req.DisplayName, "whatsapp_unavailable": whatsappUnavailable})
		_ = u.audit.Append(ctx, audit.Entry{
			EventType: "agent_provisioned", Actor: "system", Target: agentID,
			Details: string(details), OrgID: req.OrgID,
		})
	}

	var refreshed database.AgentPoolModel
	u.db.WithContext(ctx).Where("org_id = ?", req.OrgID).First(&refreshed)

	return provision.Result{
		AgentID:        agentID,
		PlaintextToken: plaintextToken,
		Channels: provision.Channels{
			PhoneNumber:       phoneNumber,
			WhatsappSenderSID: whatsappSID,
			EmailAddress:      emailAddress,
		},
		PoolSlotsRemaining: refreshed.MaxAgents - refreshed.ActiveAgents,
	}, nil
}

// Deprovision is the saga inverted: best-effort release of every external
// and pool resource, then a terminal status flip. Unlike Provision it
// cannot fail partway into an unobservable state — every step here is
// itself already a compensation, so a failed number release is logged and
// the walk continues, the WhatsApp, token and limit updates ignore their
// errors, and only a failed status flip returns an internal error (spec
// §4.7 "Deprovisioning is the same saga inverted").
func (u *ProvisionUsecase) Deprovision(ctx context.Context, orgID, agentID string) error {
	var row database.AgentChannelModel
	if err := u.db.WithContext(ctx).Where("agent_id = ? AND org_id = ?", agentID, orgID).First(&row).Error; err != nil {
		return apierr.NotFound("agent not found")
	}

	if row.Status == "deprovisioned" {
		return nil
	}

	if row.PhoneNumber.Valid {
		// providerSID is not modeled on AgentChannelModel; release is
		// best-effort and keyed by phone number at the adapter boundary.
		if err := u.telephony.ReleaseNumber(ctx, row.PhoneNumber.String); err != nil {
			u.log.WithError(err).Warn("deprovision: release number failed")
		}
	}

	if row.WhatsappSenderSID.Valid {
		u.db.WithContext(ctx).Model(&database.WhatsappPoolModel{}).
			Where("sender_sid = ?", row.WhatsappSenderSID.String).
			Updates(map[string]any{"status": "available", "assigned_to_agent": nil})
	}

	now := time.Now().UTC()
	u.db.WithContext(ctx).Model(&database.AgentTokenModel{}).
		Where("agent_id = ? AND revoked_at IS NULL", agentID).
		Update("revoked_at", now)

	u.db.WithContext(ctx).Where("agent_id = ?", agentID).Delete(&database.SpendingLimitModel{})

	if err := u.db.WithContext(ctx).Model(&database.AgentChannelModel{}).
		Where("agent_id = ?", agentID).
		Update("status", "deprovisioned").Error; err != nil {
		return apierr.Internal()
	}

	u.db.WithContext(ctx).Model(&database.AgentPoolModel{}).
		Where("org_id = ? AND active_agents > 0", orgID).
		Update("active_agents", gorm.Expr("active_agents - 1"))

	if u.audit != nil {
		_ = u.audit.Append(ctx, audit.Entry{
			EventType: "agent_deprovisioned", Actor: "system", Target: agentID, OrgID: orgID,
		})
	}

	return nil
}

func mintToken() (plaintext, hash string) {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	plaintext = hex.EncodeToString(buf)
	sum := sha256.Sum256([]byte(plaintext))
	hash = hex.EncodeToString(sum[:])
	return
}
