package service

import (
	"github.com/gatehouse-dev/gatehouse/internal/blacklist"
	"github.com/gatehouse-dev/gatehouse/internal/config"
	"github.com/gatehouse-dev/gatehouse/internal/domain"
)

// AccountStorage owns account records. Accounts are created inactive;
// activation, deletion and field updates are explicit transitions.
type AccountStorage interface {
	SaveAccount(data domain.AccountCreationData) (domain.Account, error)
	Account(tenantKey domain.TenantKey, email domain.Email) (domain.Account, error)
	AccountById(id domain.AccountId) (domain.Account, error)
	ActivateAccount(id domain.AccountId) error
	DeleteAccount(id domain.AccountId) error
	UpdatePassword(id domain.AccountId, passHash string) error
	UpdateProfile(id domain.AccountId, update domain.ProfileUpdate) error
	UpdateEmail(id domain.AccountId, email domain.Email) error
	TouchLastLogin(id domain.AccountId) error
}

// TokenStorage persists single-use tokens. Saving a token for a subject
// replaces any prior active token of the same class; consuming is an
// atomic resolve-and-invalidate, so exactly one concurrent caller can
// win a given token.
type TokenStorage interface {
	SaveConfirmationToken(accountId domain.AccountId, token domain.Token) error
	ConsumeConfirmationToken(token domain.Token) (domain.AccountId, error)
	SavePasswordResetToken(accountId domain.AccountId, token domain.Token) error
	ConsumePasswordResetToken(token domain.Token) (domain.AccountId, error)
}

// ReviewStorage persists administrative blacklist reviews. DecideReview
// only succeeds against a review still in state new and clears the
// token in the same statement.
type ReviewStorage interface {
	SavePendingReview(tenantKey domain.TenantKey, accountId domain.AccountId, token domain.Token) (domain.PendingReview, error)
	DecideReview(token domain.Token, state domain.ReviewState) (domain.PendingReview, error)
	PendingReviews(tenantKey domain.TenantKey) ([]domain.PendingReview, error)
}

// WorkflowStorage is everything the verification workflow needs from
// the database.
type WorkflowStorage interface {
	AccountStorage
	TokenStorage
	ReviewStorage
}

// Mailer dispatches the emails configured for one workflow stage.
type Mailer interface {
	SendActionEmails(tenant *config.TenantConfig, action config.ActionConfig, account domain.Account, data map[string]string) error
}

// Sessions starts a login session for an activated account and returns
// the session credential the transport layer hands to the client.
type Sessions interface {
	NewToken(account domain.Account) (string, error)
}

// RouteResolver maps a route name to a URL. Only consulted for
// redirect targets that are not absolute paths.
type RouteResolver interface {
	Resolve(routeName string) (string, error)
}

// RuleProvider serves a tenant's compiled blacklist rules in priority
// order. Satisfied by blacklist.RuleCache.
type RuleProvider interface {
	RulesFor(tenantKey domain.TenantKey) []blacklist.CompiledRule
}
