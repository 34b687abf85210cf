package usecase

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"sync"
	"time"

	"github.com/AzielCF/az-wap/core/database"
	"github.com/AzielCF/az-wap/domains/auth"
	"github.com/AzielCF/az-wap/pkg/apierr"
	"gorm.io/gorm"
)

// AuthUsecase resolves bearer tokens to principals across the three token
// tiers (master, org, agent) described in spec §4.1.
type AuthUsecase struct {
	db           *gorm.DB
	masterToken  string
	demoMode     bool
	verifyLimiter *verifyRateLimiter
}

func NewAuthUsecase(db *gorm.DB, masterToken string, demoMode bool) *AuthUsecase {
	return &AuthUsecase{
		db:            db,
		masterToken:   masterToken,
		demoMode:      demoMode,
		verifyLimiter: newVerifyRateLimiter(),
	}
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// Resolve implements auth.IResolver. tokenPlain is the raw bearer value
// (never hashed by the caller). It calls ResolveWithIP with an empty caller
// IP, so the brute-force limiter keys on the token prefix alone.
func (u *AuthUsecase) Resolve(ctx context.Context, tokenPlain string) (auth.Principal, error) {
	return u.ResolveWithIP(ctx, tokenPlain, "")
}

func (u *AuthUsecase) ResolveWithIP(ctx context.Context, tokenPlain, callerIP string) (auth.Principal, error) {
	if tokenPlain == "" {
		if u.demoMode {
			// Demo-mode bypass: single switch, no per-call escape hatch
			// (spec §4.1) — a missing token under demo mode is always the
			// synthetic admin principal, never conditionally sometimes.
			return auth.Principal{Scopes: []auth.Scope{auth.ScopeAdmin, auth.ScopeSuperAdmin}}, nil
		}
		return auth.Principal{}, apierr.AuthDenied("missing bearer token")
	}

	if !u.verifyLimiter.Allow(callerIP + ":" + tokenPrefix(tokenPlain)) {
		return auth.Principal{}, apierr.RateLimited("token_verification", time.Now().Add(time.Minute).Format(time.RFC3339))
	}

	if u.masterToken != "" && subtle.ConstantTimeCompare([]byte(tokenPlain), []byte(u.masterToken)) == 1 {
		return auth.Principal{Scopes: []auth.Scope{auth.ScopeAdmin, auth.ScopeSuperAdmin}}, nil
	}

	hashed := hashToken(tokenPlain)

	var orgTok database.OrgTokenModel
	if err := u.db.WithContext(ctx).Where("token_hash = ? AND revoked_at IS NULL", hashed).First(&orgTok).Error; err == nil {
		return auth.Principal{OrgID: orgTok.OrgID, Scopes: []auth.Scope{auth.ScopeAdmin}}, nil
	}

	var agentTok database.AgentTokenModel
	if err := u.db.WithContext(ctx).Where("token_hash = ? AND revoked_at IS NULL", hashed).First(&agentTok).Error; err == nil {
		now := time.Now().UTC()
		_ = u.db.WithContext(ctx).Model(&database.AgentTokenModel{}).
			Where("token_hash = ?", hashed).Update("last_used_at", now).Error
		return auth.Principal{OrgID: agentTok.OrgID, AgentID: agentTok.AgentID, Scopes: []auth.Scope{auth.ScopeAgent}}, nil
	}

	return auth.Principal{}, apierr.AuthDenied("invalid or revoked token")
}

func tokenPrefix(token string) string {
	if len(token) > 8 {
		return token[:8]
	}
	return token
}

// RequireAgent fails with auth_denied unless the principal IS the named
// agent, or is an admin.
func RequireAgent(agentID string, p auth.Principal) error {
	if p.IsAdmin() {
		return nil
	}
	if p.AgentID == agentID {
		return nil
	}
	return apierr.AuthDenied("principal is not authorized for this agent")
}

// RequireAgentInOrg additionally checks the target agent row's org_id
// against the principal, guarding against cross-tenant agent IDs.
func RequireAgentInOrg(ctx context.Context, db *gorm.DB, agentID string, p auth.Principal) error {
	if err := RequireAgent(agentID, p); err != nil {
		return err
	}
	var row database.AgentChannelModel
	if err := db.WithContext(ctx).Where("agent_id = ?", agentID).First(&row).Error; err != nil {
		return apierr.NotFound("agent not found")
	}
	if !p.IsAdmin() && row.OrgID != p.OrgID {
		return apierr.AuthDenied("agent does not belong to principal's organization")
	}
	return nil
}

// RequireSuperAdmin gates org create/list operations (spec §4.1).
func RequireSuperAdmin(p auth.Principal) error {
	if !p.IsSuperAdmin() {
		return apierr.AuthDenied("operation requires super_admin scope")
	}
	return nil
}

// RequireAdmin gates operations whose precondition is "principal is
// admin-of-org" (spec §4.7's provisioning saga among them) — an
// agent-scoped token must never pass this check, even for its own org.
func RequireAdmin(p auth.Principal) error {
	if !p.IsAdmin() {
		return apierr.AuthDenied("operation requires admin scope")
	}
	return nil
}

// verifyRateLimiter is a small sliding-window brute-force defense for
// token verification itself, independent of the agent-action rate
// limiter in usecase/ratelimit.go (that one gates business actions, this
// one gates auth attempts before a principal even exists).
type verifyRateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	window   time.Duration
	max      int
}

func newVerifyRateLimiter() *verifyRateLimiter {
	return &verifyRateLimiter{
		attempts: make(map[string][]time.Time),
		window:   time.Minute,
		max:      30,
	}
}

func (v *verifyRateLimiter) Allow(key string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-v.window)
	kept := v.attempts[key][:0]
	for _, t := range v.attempts[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= v.max {
		v.attempts[key] = kept
		return false
	}
	v.attempts[key] = append(kept, now)
	return true
}
