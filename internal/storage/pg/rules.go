package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gatehouse-dev/gatehouse/internal/domain"
	internal_errors "github.com/gatehouse-dev/gatehouse/internal/errors"
)

// =========================================================================
// Public Methods (satisfy service.RuleStorage and blacklist.RuleStorage)
// =========================================================================

// AllBlacklistRules returns every tenant's rules ordered by priority.
// The rule cache relies on this ordering for first-match-wins.
func (s *Storage) AllBlacklistRules() ([]domain.BlacklistRule, error) {
	return s.blacklistRules(s.db, "", false)
}

func (s *Storage) BlacklistRulesForTenant(tenantKey domain.TenantKey) ([]domain.BlacklistRule, error) {
	return s.blacklistRules(s.db, tenantKey, true)
}

func (s *Storage) SaveBlacklistRule(rule domain.BlacklistRule) (domain.BlacklistRule, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var saved domain.BlacklistRule
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		saved, err = s.saveBlacklistRule(tx, rule)
		return err
	})
	return saved, err
}

func (s *Storage) UpdateBlacklistRule(rule domain.BlacklistRule) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.updateBlacklistRule(tx, rule)
	})
}

func (s *Storage) DeleteBlacklistRule(id domain.RuleId) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.deleteBlacklistRule(tx, id)
	})
}

// =========================================================================
// Internal Methods (Core Database Logic)
// =========================================================================

func (s *Storage) blacklistRules(q Querier, tenantKey domain.TenantKey, filtered bool) ([]domain.BlacklistRule, error) {
	query := `
		SELECT id, tenant_key, pattern, classification, priority, created_at
		FROM blacklist_rules`
	var args []interface{}
	if filtered {
		query += " WHERE tenant_key = $1"
		args = append(args, tenantKey)
	}
	query += " ORDER BY tenant_key, priority, id"

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query blacklist rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.BlacklistRule
	for rows.Next() {
		var rule domain.BlacklistRule
		if err := rows.Scan(&rule.Id, &rule.TenantKey, &rule.Pattern, &rule.Classification, &rule.Priority, &rule.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan blacklist rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating blacklist rules: %w", err)
	}
	return rules, nil
}

func (s *Storage) saveBlacklistRule(q Querier, rule domain.BlacklistRule) (domain.BlacklistRule, error) {
	err := q.QueryRow(`
		INSERT INTO blacklist_rules(tenant_key, pattern, classification, priority)
		VALUES($1, $2, $3, $4)
		RETURNING id, created_at`,
		rule.TenantKey, rule.Pattern, rule.Classification, rule.Priority,
	).Scan(&rule.Id, &rule.CreatedAt)
	if err != nil {
		return domain.BlacklistRule{}, fmt.Errorf("failed to insert blacklist rule: %w", err)
	}
	return rule, nil
}

func (s *Storage) updateBlacklistRule(q Querier, rule domain.BlacklistRule) error {
	result, err := q.Exec(`
		UPDATE blacklist_rules
		SET pattern = $2, classification = $3, priority = $4
		WHERE id = $1 AND tenant_key = $5`,
		rule.Id, rule.Pattern, rule.Classification, rule.Priority, rule.TenantKey,
	)
	if err != nil {
		return fmt.Errorf("failed to update blacklist rule: %w", err)
	}
	return oneRowAffected(result, "Blacklist rule not found")
}

func (s *Storage) deleteBlacklistRule(q Querier, id domain.RuleId) error {
	result, err := q.Exec("DELETE FROM blacklist_rules WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete blacklist rule: %w", err)
	}
	return oneRowAffected(result, "Blacklist rule not found")
}

func oneRowAffected(result sql.Result, notFoundMessage string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return internal_errors.NotFound(notFoundMessage)
	}
	return nil
}
