// Package sanitize implements the input screening required before any
// public entry point touches the database (spec §4.2).
package sanitize

import (
	"regexp"
	"strings"

	"github.com/AzielCF/az-wap/pkg/apierr"
)

var (
	scriptTagRe   = regexp.MustCompile(`(?i)<script[\s\S]*?>|javascript:`)
	eventHandlerRe = regexp.MustCompile(`(?i)\bon\w+\s*=`)
	sqlMetaRe     = regexp.MustCompile(`(?i)('\s*;\s*drop\b)|(\bor\b\s+1\s*=\s*1\b)|(--\s*$)|(;\s*--)`)
	pathTraversalRe = regexp.MustCompile(`\.\./|\.\.\\`)
	shellMetaRe   = regexp.MustCompile(`;\s*rm\b|\|\s*sh\b|` + "`" + `.*` + "`" + `|\$\(.*\)`)
	crlfRe        = regexp.MustCompile(`[\r\n]`)

	e164Re = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
)

// Sanitize fails with bad_input if text matches any of the disallowed
// patterns in spec §4.2. field names the offending request field.
func Sanitize(text, field string) error {
	if crlfRe.MatchString(text) {
		return apierr.BadInput(field, "contains disallowed CR/LF sequence")
	}
	if scriptTagRe.MatchString(text) {
		return apierr.BadInput(field, "contains disallowed script content")
	}
	if eventHandlerRe.MatchString(text) {
		return apierr.BadInput(field, "contains disallowed event handler attribute")
	}
	if sqlMetaRe.MatchString(text) {
		return apierr.BadInput(field, "contains disallowed SQL metacharacters")
	}
	if pathTraversalRe.MatchString(text) {
		return apierr.BadInput(field, "contains disallowed path traversal sequence")
	}
	if shellMetaRe.MatchString(text) {
		return apierr.BadInput(field, "contains disallowed shell metacharacters")
	}
	return nil
}

// Phone validates E.164: a leading '+', a non-zero first digit, 2 to 15
// total digits.
func Phone(phone string) error {
	if !e164Re.MatchString(phone) {
		return apierr.BadInput("phone", "must be a valid E.164 phone number")
	}
	return nil
}

// Email performs a light RFC-5322-ish check: exactly one '@', a non-empty
// local part, and a domain with at least one '.'.
func Email(email string) error {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return apierr.BadInput("email", "must contain exactly one '@'")
	}
	local, domain := parts[0], parts[1]
	if local == "" || domain == "" {
		return apierr.BadInput("email", "missing local or domain part")
	}
	if !strings.Contains(domain, ".") {
		return apierr.BadInput("email", "domain must contain a dot")
	}
	if crlfRe.MatchString(email) {
		return apierr.BadInput("email", "contains disallowed CR/LF sequence")
	}
	return nil
}
