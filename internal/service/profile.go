package service

import (
	"fmt"
	"io"

	"github.com/microcosm-cc/bluemonday"

	"github.com/gatehouse-dev/gatehouse/internal/domain"
	internal_errors "github.com/gatehouse-dev/gatehouse/internal/errors"
	"github.com/gatehouse-dev/gatehouse/internal/logger"
	"github.com/gatehouse-dev/gatehouse/internal/utils"
)

// AvatarStore persists uploaded avatar images. The transport layer has
// already validated size, mime type and pixel dimensions by the time a
// reader gets here.
type AvatarStore interface {
	SaveAvatar(accountId domain.AccountId, filename string, r io.Reader) (string, error)
}

// displayNamePolicy strips every tag from author-supplied names; they
// end up in rendered emails and admin pages.
var displayNamePolicy = bluemonday.StrictPolicy()

// ProfileData is a profile save submission.
type ProfileData struct {
	DisplayName string
	Locale      domain.Locale
	Email       domain.Email // empty means unchanged
}

// SaveProfile applies profile edits for a logged-in account. A changed
// email address goes through the email confirmation gate again: the
// address is updated, a fresh confirmation token replaces whatever was
// outstanding, and the confirmation mail goes to the new address.
func (w *Workflow) SaveProfile(tenantKey domain.TenantKey, account domain.Account, data ProfileData) (domain.Account, error) {
	tenant, err := w.registry.Resolve(tenantKey)
	if err != nil {
		return domain.Account{}, err
	}
	cfg := tenant.Action(domain.ActionProfile)
	if !cfg.Enabled {
		return domain.Account{}, internal_errors.ActionDisabled("profile")
	}

	update := domain.ProfileUpdate{
		DisplayName: displayNamePolicy.Sanitize(data.DisplayName),
		Locale:      data.Locale,
	}
	if err := w.storage.UpdateProfile(account.Id, update); err != nil {
		return domain.Account{}, fmt.Errorf("update profile: %w", err)
	}
	account.DisplayName = update.DisplayName
	account.Locale = update.Locale

	mailErr := w.sendStageMail(tenant, domain.ActionProfile, account, nil)

	if data.Email != "" && data.Email != account.Email {
		emailCfg := tenant.Action(domain.ActionEmailConfirmation)
		if err := w.storage.UpdateEmail(account.Id, data.Email); err != nil {
			return domain.Account{}, fmt.Errorf("update email: %w", err)
		}
		account.Email = data.Email
		if emailCfg.Enabled {
			token := utils.GenerateToken()
			if err := w.storage.SaveConfirmationToken(account.Id, token); err != nil {
				return domain.Account{}, fmt.Errorf("save confirmation token: %w", err)
			}
			logger.Log.Info("email change pending confirmation", "tenant", tenantKey, "account_id", account.Id)
			if err := w.sendStageMail(tenant, domain.ActionEmailConfirmation, account, map[string]string{"token": token}); err != nil {
				mailErr = err
			}
		}
	}
	return account, mailErr
}

// SaveAvatar stores a validated avatar upload and returns where it
// landed. Gated by the profile stage like the rest of profile editing.
func (w *Workflow) SaveAvatar(tenantKey domain.TenantKey, account domain.Account, filename string, r io.Reader) (string, error) {
	tenant, err := w.registry.Resolve(tenantKey)
	if err != nil {
		return "", err
	}
	if !tenant.Action(domain.ActionProfile).Enabled {
		return "", internal_errors.ActionDisabled("profile")
	}
	path, err := w.avatars.SaveAvatar(account.Id, filename, r)
	if err != nil {
		return "", fmt.Errorf("save avatar: %w", err)
	}
	return path, nil
}
