// Package routing resolves which provisioned number sends an outbound
// message for a given agent, recipient, and channel (spec §4.4).
package routing

import "context"

// Candidate is one entry from the org's number pool, already filtered to
// the requested channel's capability.
type Candidate struct {
	PhoneNumber string
	CountryCode string
	IsDefault   bool
	CreatedAt   int64 // unix seconds, oldest wins ties
}

// IResolver picks the outbound sender address for an agent's request.
// The recipient's country comes from its longest matching E.164 prefix; a
// recipient with no matching prefix (e.g. an email address) is treated as US.
type IResolver interface {
	ResolveFromNumber(ctx context.Context, orgID, agentPhone, recipient, channel string) (string, error)
}
