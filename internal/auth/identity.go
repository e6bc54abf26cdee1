// Package auth carries the authenticated caller through request contexts.
package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/tienbob/Tubex-sub003/internal/model"
)

// Identity is the authenticated user acting on behalf of a company.
type Identity struct {
	UserID        uuid.UUID
	CompanyID     uuid.UUID
	CompanyType   model.CompanyType
	Role          model.UserRole
	Email         string
	PlatformAdmin bool
	IPAddress     string
	UserAgent     string
}

// IsSupplier reports whether the caller's company sells products.
func (i Identity) IsSupplier() bool {
	return i.CompanyType == model.CompanyTypeSupplier
}

// HasRole reports whether the caller holds at least min inside their company.
func (i Identity) HasRole(min model.UserRole) bool {
	return i.Role.AtLeast(min)
}

type contextKey struct{}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored in ctx.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
