// Package erasure implements subject-identifier cascading deletion across
// tenant tables (spec §3 Erasure request row).
package erasure

import "context"

type IdentifierType string

const (
	IdentifierPhone IdentifierType = "phone"
	IdentifierEmail IdentifierType = "email"
)

type Result struct {
	RequestID      string
	TablesAffected []string
	RowsDeleted    int
}

type IUsecase interface {
	Execute(ctx context.Context, subjectIdentifier string, idType IdentifierType) (Result, error)
}
