package blacklist

import (
	"context"
	"sync"
	"time"

	"github.com/gatehouse-dev/gatehouse/internal/domain"
	"github.com/gatehouse-dev/gatehouse/internal/logger"
)

// RuleStorage defines the database operations needed for rule caching.
type RuleStorage interface {
	AllBlacklistRules() ([]domain.BlacklistRule, error)
}

// RuleCache keeps every tenant's compiled rules in memory so the
// registration hot path never compiles a pattern or touches the
// database. Rules are recompiled on every refresh, which also covers
// the "matcher regenerated whenever the pattern changes" invariant:
// admin writes call Update after committing.
type RuleCache struct {
	storage        RuleStorage
	mu             sync.RWMutex
	rules          map[domain.TenantKey][]CompiledRule
	lastUpdateTime time.Time
}

func NewRuleCache(storage RuleStorage) *RuleCache {
	return &RuleCache{
		storage: storage,
		rules:   make(map[domain.TenantKey][]CompiledRule),
	}
}

// Update reloads and recompiles all rules, then atomically swaps the
// cache. Rules arrive from storage already ordered by priority, so the
// per-tenant slices keep first-match-wins semantics.
func (rc *RuleCache) Update() error {
	all, err := rc.storage.AllBlacklistRules()
	if err != nil {
		return err
	}

	fresh := make(map[domain.TenantKey][]CompiledRule)
	for _, rule := range all {
		fresh[rule.TenantKey] = append(fresh[rule.TenantKey], NewCompiledRule(rule))
	}

	rc.mu.Lock()
	rc.rules = fresh
	rc.lastUpdateTime = time.Now()
	rc.mu.Unlock()

	logger.Log.Debug("blacklist rule cache updated", "rules", len(all), "tenants", len(fresh))
	return nil
}

// RulesFor returns the compiled rules for one tenant in priority order.
// The returned slice is shared and must not be mutated.
func (rc *RuleCache) RulesFor(tenantKey domain.TenantKey) []CompiledRule {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.rules[tenantKey]
}

// StartBackgroundUpdate refreshes the cache periodically until ctx is
// cancelled, so external rule edits converge even without an explicit
// Update call.
func (rc *RuleCache) StartBackgroundUpdate(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := rc.Update(); err != nil {
					logger.Log.Error("background blacklist rule refresh failed", "error", err)
				}
			}
		}
	}()
}
