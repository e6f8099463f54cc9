package service

import (
	"strings"
	"time"

	"github.com/gatehouse-dev/gatehouse/internal/config"
	"github.com/gatehouse-dev/gatehouse/internal/domain"
	internal_errors "github.com/gatehouse-dev/gatehouse/internal/errors"
	"github.com/gatehouse-dev/gatehouse/internal/logger"
)

// Workflow drives account registration and the token gates around it:
// email confirmation, administrative blacklist review, password reset
// and profile changes. State transitions commit before any email goes
// out; a failed delivery is reported but never rolls a transition back.
type Workflow struct {
	registry *Registry
	storage  WorkflowStorage
	rules    RuleProvider
	mailer   Mailer
	sessions Sessions
	routes   RouteResolver
	avatars  AvatarStore

	lastLoginInterval time.Duration
}

func NewWorkflow(
	registry *Registry,
	storage WorkflowStorage,
	rules RuleProvider,
	mailer Mailer,
	sessions Sessions,
	routes RouteResolver,
	avatars AvatarStore,
	lastLoginInterval time.Duration,
) *Workflow {
	return &Workflow{
		registry:          registry,
		storage:           storage,
		rules:             rules,
		mailer:            mailer,
		sessions:          sessions,
		routes:            routes,
		avatars:           avatars,
		lastLoginInterval: lastLoginInterval,
	}
}

// redirectTarget turns a configured redirect into a concrete URL.
// Absolute paths get their {localization} placeholder substituted with
// the locale; anything else is treated as a route name and handed to
// the resolver.
func (w *Workflow) redirectTarget(redirectTo string, locale domain.Locale) (string, error) {
	if redirectTo == "" {
		return "", nil
	}
	if strings.HasPrefix(redirectTo, "/") {
		return strings.ReplaceAll(redirectTo, "{localization}", string(locale)), nil
	}
	return w.routes.Resolve(redirectTo)
}

// sendStageMail dispatches the emails of one stage. A disabled stage
// sends nothing. Delivery failures come back as the error so the caller
// can surface them next to an already committed result.
func (w *Workflow) sendStageMail(tenant *config.TenantConfig, action domain.ActionType, account domain.Account, data map[string]string) error {
	cfg := tenant.Action(action)
	if !cfg.Enabled {
		return nil
	}
	if err := w.mailer.SendActionEmails(tenant, cfg, account, data); err != nil {
		logger.Log.Error("mail dispatch failed",
			"tenant", tenant.Key, "action", string(action), "account_id", account.Id, "error", err)
		return err
	}
	return nil
}

// startSession opens a session when the stage asks for auto-login.
func (w *Workflow) startSession(cfg config.ActionConfig, account domain.Account) (string, error) {
	if !cfg.AutoLogin {
		return "", nil
	}
	return w.sessions.NewToken(account)
}

// AccountProfile loads the account behind a session, scoped to the
// tenant so a token minted for one site cannot read another's accounts.
func (w *Workflow) AccountProfile(tenantKey domain.TenantKey, id domain.AccountId) (domain.Account, error) {
	if _, err := w.registry.Resolve(tenantKey); err != nil {
		return domain.Account{}, err
	}
	account, err := w.storage.AccountById(id)
	if err != nil {
		return domain.Account{}, err
	}
	if account.TenantKey != tenantKey {
		return domain.Account{}, internal_errors.NotFound("Account not found")
	}
	return account, nil
}

func (w *Workflow) locale(tenant *config.TenantConfig, locale domain.Locale) domain.Locale {
	if locale != "" {
		return locale
	}
	return tenant.DefaultLocale
}
