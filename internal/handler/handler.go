package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gatehouse-dev/gatehouse/internal/config"
	"github.com/gatehouse-dev/gatehouse/internal/domain"
	"github.com/gatehouse-dev/gatehouse/internal/logger"
	"github.com/gatehouse-dev/gatehouse/internal/middleware"
	"github.com/gatehouse-dev/gatehouse/internal/service"
)

// WorkflowService is what the transport layer needs from the
// verification workflow. Satisfied by *service.Workflow.
type WorkflowService interface {
	Register(tenantKey domain.TenantKey, data service.RegistrationData) (domain.RegistrationResult, error)
	ConfirmEmail(tenantKey domain.TenantKey, token domain.Token, locale domain.Locale) (domain.ConfirmationResult, error)
	ResolveReview(tenantKey domain.TenantKey, token domain.Token, decision domain.ReviewDecision) (domain.PendingReview, error)
	PendingReviews(tenantKey domain.TenantKey) ([]domain.PendingReview, error)
	PasswordForget(tenantKey domain.TenantKey, email domain.Email) error
	PasswordReset(tenantKey domain.TenantKey, token domain.Token, newPassword domain.Password) (domain.ConfirmationResult, error)
	Login(tenantKey domain.TenantKey, email domain.Email, password domain.Password) (domain.Account, string, error)
	SaveProfile(tenantKey domain.TenantKey, account domain.Account, data service.ProfileData) (domain.Account, error)
	SaveAvatar(tenantKey domain.TenantKey, account domain.Account, filename string, r io.Reader) (string, error)
	AccountProfile(tenantKey domain.TenantKey, id domain.AccountId) (domain.Account, error)
}

// RuleAdminService is the blacklist rule CRUD surface. Satisfied by
// *service.RuleService.
type RuleAdminService interface {
	Create(tenantKey domain.TenantKey, pattern, classification string, priority int) (domain.BlacklistRule, error)
	Update(tenantKey domain.TenantKey, id domain.RuleId, pattern, classification string, priority int) error
	Delete(tenantKey domain.TenantKey, id domain.RuleId) error
	List(tenantKey domain.TenantKey) ([]domain.BlacklistRule, error)
}

type Handler struct {
	workflow WorkflowService
	rules    RuleAdminService
	health   Pinger
	cfg      *config.Config
}

func New(workflow WorkflowService, rules RuleAdminService, health Pinger, cfg *config.Config) *Handler {
	return &Handler{workflow, rules, health, cfg}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
	}
}

// setSessionCookie installs the session for browser clients. Non-cookie
// clients get the same token in the response body.
func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     middleware.SessionCookieName,
		Value:    token,
		MaxAge:   int(h.cfg.JwtTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.Public.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     middleware.SessionCookieName,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.Public.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
