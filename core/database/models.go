package database

import (
	"database/sql"
	"time"
)

// Models mirrors the data model of spec.md §3 as a flat set of GORM row
// types. Domain packages translate between these rows and their own
// public types; the usecase layer and the cmd wiring also use gorm
// directly.

type OrganizationModel struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Slug      string `gorm:"uniqueIndex;not null"`
	Settings  string `gorm:"type:text"` // opaque JSON
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (OrganizationModel) TableName() string { return "organizations" }

type UserAccountModel struct {
	ID             string `gorm:"primaryKey"`
	Email          string `gorm:"uniqueIndex;not null"`
	PasswordHash   string `gorm:"not null"`
	PasswordSalt   string `gorm:"not null"`
	OrgID          string `gorm:"column:org_id;index;not null"`
	Verified       bool   `gorm:"default:false"`
	LockedUntil    *time.Time
	FailedAttempts int    `gorm:"default:0"`
	AccountStatus  string `gorm:"default:'pending_review'"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (UserAccountModel) TableName() string { return "user_accounts" }

type AgentChannelModel struct {
	AgentID          string `gorm:"primaryKey;column:agent_id"`
	OrgID            string `gorm:"column:org_id;index;not null"`
	DisplayName      string `gorm:"not null"`
	PhoneNumber      sql.NullString `gorm:"column:phone_number"`
	WhatsappSenderSID sql.NullString `gorm:"column:whatsapp_sender_sid"`
	EmailAddress     sql.NullString `gorm:"column:email_address"`
	VoiceID          sql.NullString `gorm:"column:voice_id"`
	SystemPrompt     sql.NullString `gorm:"column:system_prompt"`
	Greeting         sql.NullString `gorm:"column:greeting"`
	BlockedChannels  string         `gorm:"column:blocked_channels;type:text;default:'[]'"` // JSON array
	Status           string         `gorm:"default:'active'"`
	WhatsappStatus   sql.NullString `gorm:"column:whatsapp_status"`
	CallbackURL      sql.NullString `gorm:"column:callback_url"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (AgentChannelModel) TableName() string { return "agent_channels" }

// AgentPoolModel is a per-org singleton row.
type AgentPoolModel struct {
	OrgID        string `gorm:"primaryKey;column:org_id"`
	MaxAgents    int    `gorm:"not null;default:100"`
	ActiveAgents int    `gorm:"not null;default:0"`
}

func (AgentPoolModel) TableName() string { return "agent_pools" }

type WhatsappPoolModel struct {
	PhoneNumber     string `gorm:"primaryKey;column:phone_number"`
	OrgID           string `gorm:"column:org_id;index;not null"`
	SenderSID       string `gorm:"column:sender_sid;uniqueIndex;not null"`
	Status          string `gorm:"default:'available'"`
	AssignedToAgent sql.NullString `gorm:"column:assigned_to_agent"`
}

func (WhatsappPoolModel) TableName() string { return "whatsapp_pool" }

type NumberPoolModel struct {
	PhoneNumber  string `gorm:"primaryKey;column:phone_number"`
	OrgID        string `gorm:"column:org_id;index;not null"`
	CountryCode  string `gorm:"column:country_code;index;not null"`
	Capabilities string `gorm:"type:text;not null"` // JSON array subset of {sms,voice}
	IsDefault    bool   `gorm:"column:is_default;default:false"`
	CreatedAt    time.Time
}

func (NumberPoolModel) TableName() string { return "number_pool" }

type AgentTokenModel struct {
	ID         string `gorm:"primaryKey"`
	TokenHash  string `gorm:"column:token_hash;uniqueIndex;not null"`
	AgentID    string `gorm:"column:agent_id;index;not null"`
	OrgID      string `gorm:"column:org_id;index;not null"`
	Label      string
	CreatedAt  time.Time
	RevokedAt  *time.Time
	LastUsedAt *time.Time
}

func (AgentTokenModel) TableName() string { return "agent_tokens" }

// OrgTokenModel backs the org-level admin bearer token (spec §4.1 tier b).
type OrgTokenModel struct {
	ID        string `gorm:"primaryKey"`
	TokenHash string `gorm:"column:token_hash;uniqueIndex;not null"`
	OrgID     string `gorm:"column:org_id;index;not null"`
	Label     string
	CreatedAt time.Time
	RevokedAt *time.Time
}

func (OrgTokenModel) TableName() string { return "org_tokens" }

type UsageLogModel struct {
	ID            string `gorm:"primaryKey"`
	AgentID       string `gorm:"column:agent_id;index;not null"`
	OrgID         string `gorm:"column:org_id;index;not null"`
	ActionType    string `gorm:"column:action_type;not null"`
	Channel       string `gorm:"not null"`
	TargetAddress string `gorm:"column:target_address"`
	Cost          float64
	ExternalID    sql.NullString `gorm:"column:external_id"`
	CreatedAt     time.Time      `gorm:"index"`
}

func (UsageLogModel) TableName() string { return "usage_logs" }

type AuditLogModel struct {
	ID        string `gorm:"primaryKey"`
	Timestamp time.Time `gorm:"index"`
	EventType string    `gorm:"column:event_type;not null"`
	Actor     string    `gorm:"not null"`
	Target    sql.NullString
	Details   sql.NullString `gorm:"type:text"`
	PrevHash  sql.NullString `gorm:"column:prev_hash"`
	RowHash   string         `gorm:"column:row_hash;not null"`
	OrgID     string         `gorm:"column:org_id;index;not null"`
}

func (AuditLogModel) TableName() string { return "audit_logs" }

type DeadLetterModel struct {
	ID              string `gorm:"primaryKey"`
	AgentID         string `gorm:"column:agent_id;index;not null"`
	OrgID           string `gorm:"column:org_id;index;not null"`
	Channel         string `gorm:"not null"`
	Direction       string `gorm:"not null"`
	Reason          string `gorm:"not null"`
	FromAddress     sql.NullString `gorm:"column:from_address"`
	ToAddress       sql.NullString `gorm:"column:to_address"`
	Body            sql.NullString
	MediaURL        sql.NullString `gorm:"column:media_url"`
	OriginalRequest sql.NullString `gorm:"column:original_request;type:text"`
	ErrorDetails    sql.NullString `gorm:"column:error_details;type:text"`
	ExternalID      sql.NullString `gorm:"column:external_id"`
	Status          string         `gorm:"default:'pending';index"`
	CreatedAt       time.Time      `gorm:"index"`
	AcknowledgedAt  *time.Time     `gorm:"column:acknowledged_at"`
}

func (DeadLetterModel) TableName() string { return "dead_letters" }

type SpendingLimitModel struct {
	AgentID             string `gorm:"primaryKey;column:agent_id"`
	OrgID               string `gorm:"column:org_id;index;not null"`
	MaxActionsPerMinute *int   `gorm:"column:max_actions_per_minute"`
	MaxActionsPerHour   *int   `gorm:"column:max_actions_per_hour"`
	MaxActionsPerDay    *int   `gorm:"column:max_actions_per_day"`
	MaxSpendPerDay      *float64 `gorm:"column:max_spend_per_day"`
	MaxSpendPerMonth    *float64 `gorm:"column:max_spend_per_month"`
}

func (SpendingLimitModel) TableName() string { return "spending_limits" }

type BillingConfigModel struct {
	AgentID       string `gorm:"primaryKey;column:agent_id"`
	OrgID         string `gorm:"column:org_id;index;not null"`
	Tier          string `gorm:"default:'free'"`
	MarkupPercent float64 `gorm:"column:markup_percent;default:0"`
	BillingEmail  sql.NullString `gorm:"column:billing_email"`
}

func (BillingConfigModel) TableName() string { return "billing_configs" }

type CallLogModel struct {
	ID              string `gorm:"primaryKey"`
	AgentID         string `gorm:"column:agent_id;index;not null"`
	OrgID           string `gorm:"column:org_id;index;not null"`
	CallSID         string `gorm:"column:call_sid;uniqueIndex"`
	Direction       string `gorm:"not null"`
	FromAddress     string `gorm:"column:from_address;not null"`
	ToAddress       string `gorm:"column:to_address;not null"`
	Status          string `gorm:"not null;index"`
	DurationSeconds *int   `gorm:"column:duration_seconds"`
	TransferTo      sql.NullString `gorm:"column:transfer_to"`
	CreatedAt       time.Time
	EndedAt         *time.Time `gorm:"column:ended_at"`
}

func (CallLogModel) TableName() string { return "call_logs" }

type ErasureRequestModel struct {
	ID               string `gorm:"primaryKey"`
	SubjectIdentifier string `gorm:"column:subject_identifier;not null"`
	IdentifierType   string `gorm:"column:identifier_type;not null"`
	Status           string `gorm:"default:'pending'"`
	TablesAffected   string `gorm:"column:tables_affected;type:text"` // JSON array
	RowsDeleted      int    `gorm:"column:rows_deleted;default:0"`
	CreatedAt        time.Time
	CompletedAt      *time.Time `gorm:"column:completed_at"`
}

func (ErasureRequestModel) TableName() string { return "erasure_requests" }

type DNCEntryModel struct {
	ID           string `gorm:"primaryKey"`
	OrgID        string `gorm:"column:org_id;index;not null"`
	PhoneNumber  sql.NullString `gorm:"column:phone_number;index"`
	EmailAddress sql.NullString `gorm:"column:email_address;index"`
	Reason       string
	AddedBy      string    `gorm:"column:added_by"`
	AddedAt      time.Time `gorm:"column:added_at"`
}

func (DNCEntryModel) TableName() string { return "dnc_list" }

type OTPCodeModel struct {
	ID             string `gorm:"primaryKey"`
	ContactAddress string `gorm:"column:contact_address;index;not null"`
	CodeHash       string `gorm:"column:code_hash;not null"`
	ExpiresAt      time.Time `gorm:"column:expires_at"`
	Attempts       int       `gorm:"default:0"`
	Purpose        string
	CreatedAt      time.Time
}

func (OTPCodeModel) TableName() string { return "otp_codes" }

// CredentialModel persists at-rest-encrypted provider secrets (§6
// CREDENTIALS_ENCRYPTION_KEY) per org, e.g. a tenant's own Twilio
// sub-account credentials.
type CredentialModel struct {
	ID            string `gorm:"primaryKey"`
	OrgID         string `gorm:"column:org_id;index;not null"`
	Kind          string `gorm:"not null"`
	Name          string `gorm:"not null"`
	EncryptedJSON string `gorm:"column:encrypted_json;type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (CredentialModel) TableName() string { return "credentials" }

// AllModels is the full list passed to AutoMigrate.
var AllModels = []interface{}{
	&OrganizationModel{},
	&UserAccountModel{},
	&AgentChannelModel{},
	&AgentPoolModel{},
	&WhatsappPoolModel{},
	&NumberPoolModel{},
	&AgentTokenModel{},
	&OrgTokenModel{},
	&UsageLogModel{},
	&AuditLogModel{},
	&DeadLetterModel{},
	&SpendingLimitModel{},
	&BillingConfigModel{},
	&CallLogModel{},
	&ErasureRequestModel{},
	&DNCEntryModel{},
	&OTPCodeModel{},
	&CredentialModel{},
}

// Migrate runs AutoMigrate for every model. Grounded in the teacher's
// cmd/migration.go invocation shape, generalized from a hand-written SQL
// migration file to GORM's reflective migrator.
func Migrate(db interface{ AutoMigrate(...interface{}) error }) error {
	return db.AutoMigrate(AllModels...)
}
