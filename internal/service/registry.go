package service

import (
	"github.com/gatehouse-dev/gatehouse/internal/config"
	"github.com/gatehouse-dev/gatehouse/internal/domain"
	internal_errors "github.com/gatehouse-dev/gatehouse/internal/errors"
)

// Registry resolves tenant keys to their workflow configuration. The
// tenant set is fixed at startup, so lookups need no locking.
type Registry struct {
	tenants config.Tenants
}

func NewRegistry(tenants config.Tenants) *Registry {
	return &Registry{tenants: tenants}
}

func (r *Registry) Resolve(key domain.TenantKey) (*config.TenantConfig, error) {
	tenant, ok := r.tenants[key]
	if !ok {
		return nil, internal_errors.UnknownTenant(key)
	}
	return tenant, nil
}

func (r *Registry) Has(key domain.TenantKey) bool {
	_, ok := r.tenants[key]
	return ok
}
