package service

import (
	"fmt"

	"github.com/gatehouse-dev/gatehouse/internal/blacklist"
	"github.com/gatehouse-dev/gatehouse/internal/config"
	"github.com/gatehouse-dev/gatehouse/internal/domain"
	internal_errors "github.com/gatehouse-dev/gatehouse/internal/errors"
	"github.com/gatehouse-dev/gatehouse/internal/logger"
	"github.com/gatehouse-dev/gatehouse/internal/utils"
)

// RegistrationData is a registration submission after transport-level
// validation.
type RegistrationData struct {
	Email       domain.Email
	Password    domain.Password
	DisplayName string
	Locale      domain.Locale
}

// Register runs a submission through the blacklist and creates the
// account on the path the classification picked. A blocked email is
// rejected without persisting anything; a requested one is held behind
// an administrative review token; an unlisted one proceeds through
// email confirmation or, when the tenant activates on registration,
// straight to an active account.
//
// The returned error can accompany a populated result: mail dispatch
// happens after the account state committed, so a delivery failure is
// reported without undoing the registration.
func (w *Workflow) Register(tenantKey domain.TenantKey, data RegistrationData) (domain.RegistrationResult, error) {
	tenant, err := w.registry.Resolve(tenantKey)
	if err != nil {
		return domain.RegistrationResult{}, err
	}
	regCfg := tenant.Action(domain.ActionRegistration)
	if !regCfg.Enabled {
		return domain.RegistrationResult{}, internal_errors.ActionDisabled("registration")
	}

	switch blacklist.Classify(string(data.Email), w.rules.RulesFor(tenantKey)) {
	case domain.ClassificationBlock:
		logger.Log.Info("registration blocked by blacklist", "tenant", tenantKey, "email", string(data.Email))
		return domain.RegistrationResult{Status: domain.RegistrationRejected}, nil
	case domain.ClassificationRequest:
		return w.registerForReview(tenant, data)
	}
	return w.registerUnlisted(tenant, regCfg, data)
}

func (w *Workflow) createAccount(tenantKey domain.TenantKey, data RegistrationData) (domain.Account, error) {
	passHash, err := utils.HashPassword(string(data.Password))
	if err != nil {
		return domain.Account{}, fmt.Errorf("hash password: %w", err)
	}
	account, err := w.storage.SaveAccount(domain.AccountCreationData{
		TenantKey:   tenantKey,
		Email:       data.Email,
		PassHash:    passHash,
		DisplayName: data.DisplayName,
		Locale:      data.Locale,
	})
	if err != nil {
		return domain.Account{}, fmt.Errorf("save account: %w", err)
	}
	return account, nil
}

// registerForReview holds the account behind an administrative decision.
// The review token goes to the tenant's admins, never to the registrant.
func (w *Workflow) registerForReview(tenant *config.TenantConfig, data RegistrationData) (domain.RegistrationResult, error) {
	account, err := w.createAccount(tenant.Key, data)
	if err != nil {
		return domain.RegistrationResult{}, err
	}

	token := utils.GenerateToken()
	if _, err := w.storage.SavePendingReview(tenant.Key, account.Id, token); err != nil {
		return domain.RegistrationResult{}, fmt.Errorf("save pending review: %w", err)
	}
	logger.Log.Info("registration held for review", "tenant", tenant.Key, "account_id", account.Id)

	result := domain.RegistrationResult{Status: domain.AwaitingAdminReview, Account: account}
	return result, w.sendStageMail(tenant, domain.ActionBlacklisted, account, map[string]string{"token": token})
}

// registerUnlisted is the no-match path: either an email confirmation
// round-trip or, for tenants that activate on registration, a live
// account right away.
func (w *Workflow) registerUnlisted(tenant *config.TenantConfig, regCfg config.ActionConfig, data RegistrationData) (domain.RegistrationResult, error) {
	account, err := w.createAccount(tenant.Key, data)
	if err != nil {
		return domain.RegistrationResult{}, err
	}

	if !regCfg.ActivateAccount {
		token := utils.GenerateToken()
		if err := w.storage.SaveConfirmationToken(account.Id, token); err != nil {
			return domain.RegistrationResult{}, fmt.Errorf("save confirmation token: %w", err)
		}
		result := domain.RegistrationResult{Status: domain.AwaitingEmailConfirmation, Account: account}
		return result, w.sendStageMail(tenant, domain.ActionRegistration, account, map[string]string{"token": token})
	}

	if err := w.storage.ActivateAccount(account.Id); err != nil {
		return domain.RegistrationResult{}, fmt.Errorf("activate account: %w", err)
	}
	account.Active = true

	sessionToken, err := w.startSession(regCfg, account)
	if err != nil {
		return domain.RegistrationResult{}, fmt.Errorf("start session: %w", err)
	}
	redirect, err := w.redirectTarget(regCfg.RedirectTo, w.locale(tenant, data.Locale))
	if err != nil {
		return domain.RegistrationResult{}, fmt.Errorf("resolve redirect: %w", err)
	}

	result := domain.RegistrationResult{
		Status:       domain.RegistrationCompleted,
		Account:      account,
		SessionToken: sessionToken,
		RedirectTo:   redirect,
	}
	return result, w.sendStageMail(tenant, domain.ActionRegistration, account, nil)
}
