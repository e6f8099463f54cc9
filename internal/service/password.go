package service

import (
	"fmt"

	"github.com/gatehouse-dev/gatehouse/internal/domain"
	internal_errors "github.com/gatehouse-dev/gatehouse/internal/errors"
	"github.com/gatehouse-dev/gatehouse/internal/logger"
	"github.com/gatehouse-dev/gatehouse/internal/utils"
)

// PasswordForget issues a password reset token and mails the reset
// link. An unknown email is deliberately a no-op success, so the
// endpoint cannot be used to probe which addresses have accounts.
// Reissuing replaces any earlier reset token for the same account.
func (w *Workflow) PasswordForget(tenantKey domain.TenantKey, email domain.Email) error {
	tenant, err := w.registry.Resolve(tenantKey)
	if err != nil {
		return err
	}
	cfg := tenant.Action(domain.ActionPasswordForget)
	if !cfg.Enabled {
		return internal_errors.ActionDisabled("password forget")
	}

	account, err := w.storage.Account(tenantKey, email)
	if err != nil {
		if internal_errors.IsNotFound(err) {
			logger.Log.Info("password forget for unknown email", "tenant", tenantKey)
			return nil
		}
		return fmt.Errorf("load account: %w", err)
	}

	token := utils.GenerateToken()
	if err := w.storage.SavePasswordResetToken(account.Id, token); err != nil {
		return fmt.Errorf("save password reset token: %w", err)
	}
	return w.sendStageMail(tenant, domain.ActionPasswordForget, account, map[string]string{"token": token})
}

// PasswordReset consumes a reset token and replaces the account
// password. Consumption and invalidation are one atomic storage
// operation; a replayed or never-issued token gets the generic
// invalid-token answer.
func (w *Workflow) PasswordReset(tenantKey domain.TenantKey, token domain.Token, newPassword domain.Password) (domain.ConfirmationResult, error) {
	tenant, err := w.registry.Resolve(tenantKey)
	if err != nil {
		return domain.ConfirmationResult{}, err
	}
	cfg := tenant.Action(domain.ActionPasswordReset)
	if !cfg.Enabled {
		return domain.ConfirmationResult{}, internal_errors.ActionDisabled("password reset")
	}

	accountId, err := w.storage.ConsumePasswordResetToken(token)
	if err != nil {
		if internal_errors.IsNotFound(err) {
			return domain.ConfirmationResult{}, internal_errors.InvalidOrExpiredToken()
		}
		return domain.ConfirmationResult{}, fmt.Errorf("consume password reset token: %w", err)
	}

	passHash, err := utils.HashPassword(string(newPassword))
	if err != nil {
		return domain.ConfirmationResult{}, fmt.Errorf("hash password: %w", err)
	}
	if err := w.storage.UpdatePassword(accountId, passHash); err != nil {
		return domain.ConfirmationResult{}, fmt.Errorf("update password: %w", err)
	}
	account, err := w.storage.AccountById(accountId)
	if err != nil {
		return domain.ConfirmationResult{}, fmt.Errorf("load account: %w", err)
	}
	logger.Log.Info("password reset", "tenant", tenantKey, "account_id", account.Id)

	sessionToken, err := w.startSession(cfg, account)
	if err != nil {
		return domain.ConfirmationResult{}, fmt.Errorf("start session: %w", err)
	}
	redirect, err := w.redirectTarget(cfg.RedirectTo, w.locale(tenant, account.Locale))
	if err != nil {
		return domain.ConfirmationResult{}, fmt.Errorf("resolve redirect: %w", err)
	}

	result := domain.ConfirmationResult{
		Account:      account,
		SessionToken: sessionToken,
		RedirectTo:   redirect,
	}
	return result, w.sendStageMail(tenant, domain.ActionPasswordReset, account, nil)
}
