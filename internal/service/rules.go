package service

import (
	"fmt"

	"github.com/gatehouse-dev/gatehouse/internal/blacklist"
	"github.com/gatehouse-dev/gatehouse/internal/domain"
	internal_errors "github.com/gatehouse-dev/gatehouse/internal/errors"
	"github.com/gatehouse-dev/gatehouse/internal/logger"
)

// RuleStorage persists blacklist rules.
type RuleStorage interface {
	SaveBlacklistRule(rule domain.BlacklistRule) (domain.BlacklistRule, error)
	UpdateBlacklistRule(rule domain.BlacklistRule) error
	DeleteBlacklistRule(id domain.RuleId) error
	BlacklistRulesForTenant(tenantKey domain.TenantKey) ([]domain.BlacklistRule, error)
}

// RuleService is the administrative CRUD surface over blacklist rules.
// Every write refreshes the in-memory rule cache so matching picks the
// change up immediately instead of waiting for the next background
// refresh. A failed refresh is logged, not returned: the write landed
// and the periodic refresh will converge.
type RuleService struct {
	registry *Registry
	storage  RuleStorage
	cache    *blacklist.RuleCache
}

func NewRuleService(registry *Registry, storage RuleStorage, cache *blacklist.RuleCache) *RuleService {
	return &RuleService{registry: registry, storage: storage, cache: cache}
}

func (s *RuleService) refreshCache() {
	if err := s.cache.Update(); err != nil {
		logger.Log.Error("blacklist cache refresh failed", "error", err)
	}
}

func (s *RuleService) Create(tenantKey domain.TenantKey, pattern, classification string, priority int) (domain.BlacklistRule, error) {
	if _, err := s.registry.Resolve(tenantKey); err != nil {
		return domain.BlacklistRule{}, err
	}
	class, err := domain.ParseClassification(classification)
	if err != nil {
		return domain.BlacklistRule{}, internal_errors.BadRequest(err.Error())
	}
	if pattern == "" {
		return domain.BlacklistRule{}, internal_errors.BadRequest("pattern must not be empty")
	}

	rule, err := s.storage.SaveBlacklistRule(domain.BlacklistRule{
		TenantKey:      tenantKey,
		Pattern:        pattern,
		Classification: class,
		Priority:       priority,
	})
	if err != nil {
		return domain.BlacklistRule{}, fmt.Errorf("save blacklist rule: %w", err)
	}
	s.refreshCache()
	return rule, nil
}

func (s *RuleService) Update(tenantKey domain.TenantKey, id domain.RuleId, pattern, classification string, priority int) error {
	if _, err := s.registry.Resolve(tenantKey); err != nil {
		return err
	}
	class, err := domain.ParseClassification(classification)
	if err != nil {
		return internal_errors.BadRequest(err.Error())
	}
	if pattern == "" {
		return internal_errors.BadRequest("pattern must not be empty")
	}

	if err := s.storage.UpdateBlacklistRule(domain.BlacklistRule{
		Id:             id,
		TenantKey:      tenantKey,
		Pattern:        pattern,
		Classification: class,
		Priority:       priority,
	}); err != nil {
		return fmt.Errorf("update blacklist rule: %w", err)
	}
	s.refreshCache()
	return nil
}

func (s *RuleService) Delete(tenantKey domain.TenantKey, id domain.RuleId) error {
	if _, err := s.registry.Resolve(tenantKey); err != nil {
		return err
	}
	if err := s.storage.DeleteBlacklistRule(id); err != nil {
		return fmt.Errorf("delete blacklist rule: %w", err)
	}
	s.refreshCache()
	return nil
}

func (s *RuleService) List(tenantKey domain.TenantKey) ([]domain.BlacklistRule, error) {
	if _, err := s.registry.Resolve(tenantKey); err != nil {
		return nil, err
	}
	rules, err := s.storage.BlacklistRulesForTenant(tenantKey)
	if err != nil {
		return nil, fmt.Errorf("list blacklist rules: %w", err)
	}
	return rules, nil
}
