package service

import (
	"fmt"

	"github.com/gatehouse-dev/gatehouse/internal/domain"
	internal_errors "github.com/gatehouse-dev/gatehouse/internal/errors"
	"github.com/gatehouse-dev/gatehouse/internal/logger"
)

// ConfirmEmail consumes a confirmation token and activates the account
// it was issued for. Consumption is atomic in storage, so concurrent
// submissions of the same token activate the account once and every
// loser gets the same invalid-token answer as a token that never
// existed.
func (w *Workflow) ConfirmEmail(tenantKey domain.TenantKey, token domain.Token, locale domain.Locale) (domain.ConfirmationResult, error) {
	tenant, err := w.registry.Resolve(tenantKey)
	if err != nil {
		return domain.ConfirmationResult{}, err
	}
	cfg := tenant.Action(domain.ActionConfirmation)
	if !cfg.Enabled {
		return domain.ConfirmationResult{}, internal_errors.ActionDisabled("confirmation")
	}

	accountId, err := w.storage.ConsumeConfirmationToken(token)
	if err != nil {
		if internal_errors.IsNotFound(err) {
			return domain.ConfirmationResult{}, internal_errors.InvalidOrExpiredToken()
		}
		return domain.ConfirmationResult{}, fmt.Errorf("consume confirmation token: %w", err)
	}

	if err := w.storage.ActivateAccount(accountId); err != nil {
		return domain.ConfirmationResult{}, fmt.Errorf("activate account: %w", err)
	}
	account, err := w.storage.AccountById(accountId)
	if err != nil {
		return domain.ConfirmationResult{}, fmt.Errorf("load account: %w", err)
	}
	logger.Log.Info("email confirmed", "tenant", tenantKey, "account_id", account.Id)

	sessionToken, err := w.startSession(cfg, account)
	if err != nil {
		return domain.ConfirmationResult{}, fmt.Errorf("start session: %w", err)
	}
	loc := locale
	if loc == "" {
		loc = account.Locale
	}
	redirect, err := w.redirectTarget(cfg.RedirectTo, w.locale(tenant, loc))
	if err != nil {
		return domain.ConfirmationResult{}, fmt.Errorf("resolve redirect: %w", err)
	}

	result := domain.ConfirmationResult{
		Account:      account,
		SessionToken: sessionToken,
		RedirectTo:   redirect,
	}
	return result, w.sendStageMail(tenant, domain.ActionConfirmation, account, nil)
}
