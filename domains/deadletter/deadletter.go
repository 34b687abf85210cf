// Package deadletter models the pending-envelope buffer for failed sends
// and offline inbound deliveries (spec §4.9).
package deadletter

import "context"

type Entry struct {
	ID              string
	AgentID         string
	OrgID           string
	Channel         string
	Direction       string // inbound, outbound
	Reason          string // send_failed, agent_offline
	FromAddress     string
	ToAddress       string
	Body            string
	MediaURL        string
	OriginalRequest string // JSON
	ErrorDetails    string
	ExternalID      string
	Status          string // pending, acknowledged
}

// IBuffer appends failures and drains them with fetch-acknowledge semantics.
type IBuffer interface {
	Append(ctx context.Context, e Entry) error
	GetWaiting(ctx context.Context, agentID, channel string, limit int) ([]Entry, error)
}
