// Package compliance implements the DNC / content / TCPA / recording-consent
// gate every outbound dispatch passes through before a rate-limit check
// (spec §4.2, §4.5 step 4).
package compliance

import "context"

// Request describes one outbound send subject to the compliance gate.
type Request struct {
	OrgID       string
	Channel     string // sms, email, voice, whatsapp, line
	ToAddress   string
	Body        string
	Timezone    string // IANA zone of the recipient, if known
	CallerCountry string // carrier-inferred country, fallback when Timezone is empty
	AllPartyConsentJurisdiction bool
	ConsentAnnounced bool
}

// IGate evaluates a request against every compliance rule in order and
// returns a GatewayError(compliance_denied) on the first violation.
type IGate interface {
	Evaluate(ctx context.Context, req Request) error
}
