// Package apierr defines the gateway's error-kind taxonomy (spec §7).
package apierr

import "net/http"

// Kind tags a GatewayError with one of the fixed categories the dispatcher,
// auth layer, and provisioning saga raise.
type Kind string

const (
	KindAuthDenied        Kind = "auth_denied"
	KindNotFound          Kind = "not_found"
	KindBadInput          Kind = "bad_input"
	KindConflict          Kind = "conflict"
	KindComplianceDenied  Kind = "compliance_denied"
	KindRateLimited       Kind = "rate_limited"
	KindProviderError     Kind = "provider_error"
	KindInternal          Kind = "internal"
)

var statusByKind = map[Kind]int{
	KindAuthDenied:       http.StatusUnauthorized,
	KindNotFound:         http.StatusNotFound,
	KindBadInput:         http.StatusBadRequest,
	KindConflict:         http.StatusConflict,
	KindComplianceDenied: http.StatusForbidden,
	KindRateLimited:      http.StatusTooManyRequests,
	KindProviderError:    http.StatusBadGateway,
	KindInternal:         http.StatusInternalServerError,
}

// GenericError is the interface the teacher's recovery middleware expects
// of any error it renders (pkg/error.NotFoundError in the teacher repo).
type GenericError interface {
	error
	ErrCode() string
	StatusCode() int
}

// GatewayError is the concrete error type every public-facing operation
// returns. Field carries optional structured detail (e.g. which field
// failed sanitization, or the binding rate-limit name).
type GatewayError struct {
	Kind    Kind
	Message string
	Field   string // populated for bad_input
	Limit   string // populated for rate_limited
	ResetAt string // populated for rate_limited
	Reason  string // populated for compliance_denied
	Provider string // populated for provider_error
}

func (e *GatewayError) Error() string {
	return e.Message
}

func (e *GatewayError) ErrCode() string {
	return string(e.Kind)
}

func (e *GatewayError) StatusCode() int {
	if code, ok := statusByKind[e.Kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func New(kind Kind, message string) *GatewayError {
	return &GatewayError{Kind: kind, Message: message}
}

func AuthDenied(message string) *GatewayError {
	return New(KindAuthDenied, message)
}

func NotFound(message string) *GatewayError {
	return New(KindNotFound, message)
}

func BadInput(field, message string) *GatewayError {
	return &GatewayError{Kind: KindBadInput, Message: message, Field: field}
}

func Conflict(message string) *GatewayError {
	return New(KindConflict, message)
}

func ComplianceDenied(reason string) *GatewayError {
	return &GatewayError{Kind: KindComplianceDenied, Message: reason, Reason: reason}
}

func RateLimited(limit, resetAt string) *GatewayError {
	return &GatewayError{
		Kind:    KindRateLimited,
		Message: "rate limit exceeded: " + limit,
		Limit:   limit,
		ResetAt: resetAt,
	}
}

// ProviderError includes the underlying provider error text, shortened by
// maskSensitive; the text is not otherwise redacted.
func ProviderError(provider string, err error) *GatewayError {
	msg := "upstream provider error"
	if err != nil {
		msg = "upstream provider error: " + maskSensitive(err.Error())
	}
	return &GatewayError{Kind: KindProviderError, Message: msg, Provider: provider}
}

// Internal never echoes the underlying cause to the caller; callers should
// log the wrapped error themselves before constructing this.
func Internal() *GatewayError {
	return New(KindInternal, "internal error")
}

// maskSensitive truncates an upstream error message to 160 bytes followed
// by "..."; it does not remove credentials or response bodies that the
// message contains.
func maskSensitive(s string) string {
	const max = 160
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// Is reports whether err is a *GatewayError of the given kind.
func Is(err error, kind Kind) bool {
	ge, ok := err.(*GatewayError)
	return ok && ge.Kind == kind
}
