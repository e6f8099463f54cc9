package service

import (
	"fmt"

	"github.com/gatehouse-dev/gatehouse/internal/domain"
	internal_errors "github.com/gatehouse-dev/gatehouse/internal/errors"
	"github.com/gatehouse-dev/gatehouse/internal/logger"
)

// ResolveReview applies an administrator's decision to a pending
// blacklist review. The decision only lands on a review still in state
// new; the token is cleared in the same storage operation, so the
// second click on either link in the admin email fails like any stale
// token. A confirmed account activates, a denied one stays inactive
// and, when the tenant asks for it, is deleted after the denial mail
// was attempted.
func (w *Workflow) ResolveReview(tenantKey domain.TenantKey, token domain.Token, decision domain.ReviewDecision) (domain.PendingReview, error) {
	tenant, err := w.registry.Resolve(tenantKey)
	if err != nil {
		return domain.PendingReview{}, err
	}

	var state domain.ReviewState
	switch decision {
	case domain.ReviewConfirm:
		state = domain.ReviewStateConfirmed
	case domain.ReviewDeny:
		state = domain.ReviewStateDenied
	default:
		return domain.PendingReview{}, internal_errors.BadRequest(fmt.Sprintf("invalid review decision %q", decision))
	}

	review, err := w.storage.DecideReview(token, state)
	if err != nil {
		if internal_errors.IsNotFound(err) {
			return domain.PendingReview{}, internal_errors.InvalidOrExpiredToken()
		}
		return domain.PendingReview{}, fmt.Errorf("decide review: %w", err)
	}
	account, err := w.storage.AccountById(review.AccountId)
	if err != nil {
		return domain.PendingReview{}, fmt.Errorf("load account: %w", err)
	}
	logger.Log.Info("blacklist review decided",
		"tenant", tenantKey, "account_id", account.Id, "state", string(state))

	if state == domain.ReviewStateConfirmed {
		if err := w.storage.ActivateAccount(account.Id); err != nil {
			return domain.PendingReview{}, fmt.Errorf("activate account: %w", err)
		}
		account.Active = true
		return review, w.sendStageMail(tenant, domain.ActionBlacklistConfirmed, account, nil)
	}

	mailErr := w.sendStageMail(tenant, domain.ActionBlacklistDenied, account, nil)
	if tenant.Action(domain.ActionBlacklistDenied).DeleteAccount {
		if err := w.storage.DeleteAccount(account.Id); err != nil {
			return domain.PendingReview{}, fmt.Errorf("delete denied account: %w", err)
		}
	}
	return review, mailErr
}

// PendingReviews lists a tenant's open reviews for the admin surface.
func (w *Workflow) PendingReviews(tenantKey domain.TenantKey) ([]domain.PendingReview, error) {
	if _, err := w.registry.Resolve(tenantKey); err != nil {
		return nil, err
	}
	reviews, err := w.storage.PendingReviews(tenantKey)
	if err != nil {
		return nil, fmt.Errorf("list pending reviews: %w", err)
	}
	return reviews, nil
}
