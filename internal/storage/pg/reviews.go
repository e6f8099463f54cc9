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

// =========================================================================
// Public Methods (satisfy the service.ReviewStorage interface)
// =========================================================================

// SavePendingReview opens (or reopens) the review for an account. The
// upsert keys on account_id, so a repeated registration attempt of the
// same held account replaces the outstanding token instead of stacking
// a second review.
func (s *Storage) SavePendingReview(tenantKey domain.TenantKey, accountId domain.AccountId, token domain.Token) (domain.PendingReview, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var review domain.PendingReview
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		review, err = s.savePendingReview(tx, tenantKey, accountId, token)
		return err
	})
	return review, err
}

// DecideReview moves a review out of state new and clears its token in
// the same statement. The WHERE clause makes the transition atomic: a
// review already decided matches nothing, so the second use of a token
// fails exactly like a token that never existed.
func (s *Storage) DecideReview(token domain.Token, state domain.ReviewState) (domain.PendingReview, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var review domain.PendingReview
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		review, err = s.decideReview(tx, token, state)
		return err
	})
	return review, err
}

func (s *Storage) PendingReviews(tenantKey domain.TenantKey) ([]domain.PendingReview, error) {
	return s.pendingReviews(s.db, tenantKey)
}

// =========================================================================
// Internal Methods (Core Database Logic)
// =========================================================================

func (s *Storage) savePendingReview(q Querier, tenantKey domain.TenantKey, accountId domain.AccountId, token domain.Token) (domain.PendingReview, error) {
	row := q.QueryRow(`
		INSERT INTO pending_reviews(tenant_key, account_id, token)
		VALUES($1, $2, $3)
		ON CONFLICT (account_id)
		DO UPDATE SET token = EXCLUDED.token, state = 'new', created_at = now(), decided_at = NULL
		RETURNING id, tenant_key, account_id, token, state, created_at, decided_at`,
		tenantKey, accountId, token,
	)
	review, err := scanReview(row)
	if err != nil {
		return domain.PendingReview{}, fmt.Errorf("failed to save pending review: %w", err)
	}
	return review, nil
}

func (s *Storage) decideReview(q Querier, token domain.Token, state domain.ReviewState) (domain.PendingReview, error) {
	row := q.QueryRow(`
		UPDATE pending_reviews
		SET state = $2, token = NULL, decided_at = now()
		WHERE token = $1 AND state = 'new'
		RETURNING id, tenant_key, account_id, token, state, created_at, decided_at`,
		token, state,
	)
	review, err := scanReview(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PendingReview{}, internal_errors.NotFound("Review not found")
		}
		return domain.PendingReview{}, fmt.Errorf("failed to decide review: %w", err)
	}
	return review, nil
}

func (s *Storage) pendingReviews(q Querier, tenantKey domain.TenantKey) ([]domain.PendingReview, error) {
	rows, err := q.Query(`
		SELECT id, tenant_key, account_id, token, state, created_at, decided_at
		FROM pending_reviews
		WHERE tenant_key = $1 AND state = 'new'
		ORDER BY created_at`,
		tenantKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending reviews: %w", err)
	}
	defer rows.Close()

	var reviews []domain.PendingReview
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending review: %w", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending reviews: %w", err)
	}
	return reviews, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReview(row rowScanner) (domain.PendingReview, error) {
	var review domain.PendingReview
	var token sql.NullString
	var decidedAt sql.NullTime
	err := row.Scan(&review.Id, &review.TenantKey, &review.AccountId, &token, &review.State, &review.CreatedAt, &decidedAt)
	if err != nil {
		return domain.PendingReview{}, err
	}
	review.Token = domain.Token(token.String)
	review.DecidedAt = decidedAt.Time
	return review, nil
}
