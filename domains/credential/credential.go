// Package credential models per-org, at-rest-encrypted provider secrets
// (spec §6 CREDENTIALS_ENCRYPTION_KEY), e.g. a tenant's own Twilio
// sub-account credentials layered over the system-wide provider config.
package credential

import "context"

type Kind string

const (
	KindTwilio     Kind = "twilio"
	KindResend     Kind = "resend"
	KindElevenLabs Kind = "elevenlabs"
)

type Credential struct {
	ID    string            `json:"id"`
	OrgID string            `json:"org_id"`
	Kind  Kind              `json:"kind"`
	Name  string            `json:"name"`
	Data  map[string]string `json:"data,omitempty"` // decrypted, present only on create/read-by-admin
}

type CreateRequest struct {
	OrgID string
	Kind  Kind
	Name  string
	Data  map[string]string
}

type IUsecase interface {
	Create(ctx context.Context, req CreateRequest) (Credential, error)
	List(ctx context.Context, orgID string) ([]Credential, error)
	Get(ctx context.Context, orgID, id string) (Credential, error)
	Delete(ctx context.Context, orgID, id string) error
}
