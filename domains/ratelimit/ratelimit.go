// Package ratelimit implements the per-agent sliding-window action counters
// and spend caps of spec §4.3.
package ratelimit

import "context"

// Check describes one proposed action pending a limit decision.
type Check struct {
	AgentID string
	OrgID   string
	Cost    float64 // estimated provider cost, pre-markup
}

// IGuard evaluates the five ANDed checks (actions/minute, /hour, /day,
// spend/day, spend/month). Allow does not record the action; the usage row
// is written separately after a successful provider call.
type IGuard interface {
	Allow(ctx context.Context, c Check) error
}
