// Package otp implements short-lived one-time codes for contact address
// verification (spec §3 OTP code row). Internal helper only, per
// SPEC_FULL.md §4.14: no HTTP route of its own.
package otp

import "context"

type IUsecase interface {
	Issue(ctx context.Context, contactAddress, purpose string) error
	Verify(ctx context.Context, contactAddress, purpose, code string) (bool, error)
}
