package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lib/pq"

	"github.com/gatehouse-dev/gatehouse/internal/domain"
	internal_errors "github.com/gatehouse-dev/gatehouse/internal/errors"
)

const accountColumns = "id, tenant_key, email, password_hash, display_name, locale, active, is_admin, last_login, created_at"

// =========================================================================
// Public Methods (satisfy the service.AccountStorage interface)
// =========================================================================

// SaveAccount inserts a new, inactive account. A duplicate email within
// the tenant comes back as a conflict, not an internal error.
func (s *Storage) SaveAccount(data domain.AccountCreationData) (domain.Account, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var account domain.Account
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		account, err = s.saveAccount(tx, data)
		return err
	})
	return account, err
}

// Account fetches one account by tenant and email.
func (s *Storage) Account(tenantKey domain.TenantKey, email domain.Email) (domain.Account, error) {
	return s.account(s.db, tenantKey, email)
}

func (s *Storage) AccountById(id domain.AccountId) (domain.Account, error) {
	return s.accountById(s.db, id)
}

func (s *Storage) ActivateAccount(id domain.AccountId) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.activateAccount(tx, id)
	})
}

// DeleteAccount removes the account. ON DELETE CASCADE cleans up its
// tokens and review record.
func (s *Storage) DeleteAccount(id domain.AccountId) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.deleteAccount(tx, id)
	})
}

func (s *Storage) UpdatePassword(id domain.AccountId, passHash string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.updatePassword(tx, id, passHash)
	})
}

func (s *Storage) UpdateProfile(id domain.AccountId, update domain.ProfileUpdate) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.updateProfile(tx, id, update)
	})
}

func (s *Storage) UpdateEmail(id domain.AccountId, email domain.Email) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.updateEmail(tx, id, email)
	})
}

func (s *Storage) TouchLastLogin(id domain.AccountId) error {
	_, err := s.db.Exec("UPDATE accounts SET last_login = now() WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to touch last login: %w", err)
	}
	return nil
}

// =========================================================================
// Internal Methods (Core Database Logic)
// These methods accept a Querier and are transaction-agnostic.
// =========================================================================

func (s *Storage) saveAccount(q Querier, data domain.AccountCreationData) (domain.Account, error) {
	var account domain.Account
	err := q.QueryRow(`
		INSERT INTO accounts(tenant_key, email, password_hash, display_name, locale)
		VALUES($1, $2, $3, $4, $5)
		RETURNING `+accountColumns,
		data.TenantKey, data.Email, data.PassHash, data.DisplayName, data.Locale,
	).Scan(accountFields(&account)...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return domain.Account{}, &internal_errors.ErrorWithStatusCode{
				Message:    "An account with this email already exists",
				StatusCode: http.StatusConflict,
			}
		}
		return domain.Account{}, fmt.Errorf("failed to insert account: %w", err)
	}
	return account, nil
}

func (s *Storage) account(q Querier, tenantKey domain.TenantKey, email domain.Email) (domain.Account, error) {
	var account domain.Account
	err := q.QueryRow(
		"SELECT "+accountColumns+" FROM accounts WHERE tenant_key = $1 AND email = $2",
		tenantKey, email,
	).Scan(accountFields(&account)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, internal_errors.NotFound("Account not found")
		}
		return domain.Account{}, fmt.Errorf("failed to query account: %w", err)
	}
	return account, nil
}

func (s *Storage) accountById(q Querier, id domain.AccountId) (domain.Account, error) {
	var account domain.Account
	err := q.QueryRow(
		"SELECT "+accountColumns+" FROM accounts WHERE id = $1", id,
	).Scan(accountFields(&account)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, internal_errors.NotFound("Account not found")
		}
		return domain.Account{}, fmt.Errorf("failed to query account: %w", err)
	}
	return account, nil
}

func (s *Storage) activateAccount(q Querier, id domain.AccountId) error {
	return s.execOnAccount(q, "UPDATE accounts SET active = TRUE WHERE id = $1", id)
}

func (s *Storage) deleteAccount(q Querier, id domain.AccountId) error {
	return s.execOnAccount(q, "DELETE FROM accounts WHERE id = $1", id)
}

func (s *Storage) updatePassword(q Querier, id domain.AccountId, passHash string) error {
	return s.execOnAccount(q, "UPDATE accounts SET password_hash = $2 WHERE id = $1", id, passHash)
}

func (s *Storage) updateProfile(q Querier, id domain.AccountId, update domain.ProfileUpdate) error {
	return s.execOnAccount(q, "UPDATE accounts SET display_name = $2, locale = $3 WHERE id = $1",
		id, update.DisplayName, update.Locale)
}

func (s *Storage) updateEmail(q Querier, id domain.AccountId, email domain.Email) error {
	err := s.execOnAccount(q, "UPDATE accounts SET email = $2 WHERE id = $1", id, email)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return &internal_errors.ErrorWithStatusCode{
			Message:    "An account with this email already exists",
			StatusCode: http.StatusConflict,
		}
	}
	return err
}

// execOnAccount runs a single-account statement and maps "no row
// touched" to a not found error.
func (s *Storage) execOnAccount(q Querier, query string, args ...interface{}) error {
	result, err := q.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to exec account statement: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return internal_errors.NotFound("Account not found")
	}
	return nil
}

func accountFields(a *domain.Account) []interface{} {
	return []interface{}{
		&a.Id, &a.TenantKey, &a.Email, &a.PassHash, &a.DisplayName,
		&a.Locale, &a.Active, &a.Admin, &a.LastLogin, &a.CreatedAt,
	}
}
