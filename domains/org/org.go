// Package org models the Organization (tenant) entity of spec §3.
package org

import "context"

type Organization struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Settings string `json:"settings"` // opaque JSON
}

type CreateRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// IUsecase is implemented by usecase.OrgUsecase. Create/List require the
// super_admin scope (spec §4.1).
type IUsecase interface {
	Create(ctx context.Context, req CreateRequest) (Organization, error)
	List(ctx context.Context) ([]Organization, error)
	Get(ctx context.Context, id string) (Organization, error)
}
