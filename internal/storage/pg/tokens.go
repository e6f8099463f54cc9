package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gatehouse-dev/gatehouse/internal/domain"
	internal_errors "github.com/gatehouse-dev/gatehouse/internal/errors"
)

// Token classes. One active token per account per class; issuing a new
// one replaces whatever was outstanding.
const (
	tokenClassConfirmation  = "confirmation"
	tokenClassPasswordReset = "password_reset"
)

// =========================================================================
// Public Methods (satisfy the service.TokenStorage interface)
// =========================================================================

func (s *Storage) SaveConfirmationToken(accountId domain.AccountId, token domain.Token) error {
	return s.saveToken(accountId, tokenClassConfirmation, token)
}

// ConsumeConfirmationToken atomically resolves and invalidates a
// confirmation token. Exactly one concurrent caller gets the account id;
// everyone else sees not found.
func (s *Storage) ConsumeConfirmationToken(token domain.Token) (domain.AccountId, error) {
	return s.consumeToken(tokenClassConfirmation, token)
}

func (s *Storage) SavePasswordResetToken(accountId domain.AccountId, token domain.Token) error {
	return s.saveToken(accountId, tokenClassPasswordReset, token)
}

func (s *Storage) ConsumePasswordResetToken(token domain.Token) (domain.AccountId, error) {
	return s.consumeToken(tokenClassPasswordReset, token)
}

// =========================================================================
// Internal Methods (Core Database Logic)
// =========================================================================

func (s *Storage) saveToken(accountId domain.AccountId, class string, token domain.Token) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		// The upsert keys on (account_id, class), so reissuing replaces
		// the previous token and invalidates it in the same statement.
		_, err := tx.Exec(`
			INSERT INTO account_tokens(account_id, class, token)
			VALUES($1, $2, $3)
			ON CONFLICT (account_id, class)
			DO UPDATE SET token = EXCLUDED.token, created_at = now()`,
			accountId, class, token,
		)
		if err != nil {
			return fmt.Errorf("failed to save %s token: %w", class, err)
		}
		return nil
	})
}

func (s *Storage) consumeToken(class string, token domain.Token) (domain.AccountId, error) {
	var accountId domain.AccountId
	err := s.db.QueryRow(`
		DELETE FROM account_tokens
		WHERE class = $1 AND token = $2
		RETURNING account_id`,
		class, token,
	).Scan(&accountId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, internal_errors.NotFound("Token not found")
		}
		return 0, fmt.Errorf("failed to consume %s token: %w", class, err)
	}
	return accountId, nil
}
