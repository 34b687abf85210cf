// Package provision defines the cross-resource agent provisioning and
// deprovisioning transaction (spec §4.7), implemented as an ordered saga
// of (do, undo) steps with reverse-order compensation on failure.
package provision

import "context"

type Capabilities struct {
	Phone   bool
	Whatsapp bool
	Email   bool
	VoiceAI bool
}

type Request struct {
	AgentID      string
	OrgID        string
	DisplayName  string
	Capabilities Capabilities
	Country      string
}

type Channels struct {
	PhoneNumber       string
	WhatsappSenderSID string
	EmailAddress      string
}

type Result struct {
	AgentID          string
	PlaintextToken   string
	Channels         Channels
	PoolSlotsRemaining int
}

// IUsecase provisions and deprovisions agents atomically across the
// number pool, WhatsApp pool, agent row, token, and spending limits.
type IUsecase interface {
	Provision(ctx context.Context, req Request) (Result, error)
	Deprovision(ctx context.Context, orgID, agentID string) error
}

// step is one saga action with its compensating inverse. undo is called in
// reverse order on any later step's failure; undo errors are logged, never
// propagated (spec §4.7: "compensation errors are logged but do not abort
// the rollback").
type step struct {
	name string
	do   func(ctx context.Context) error
	undo func(ctx context.Context)
}
