package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gatehouse-dev/gatehouse/internal/config"
	"github.com/gatehouse-dev/gatehouse/internal/domain"
	"github.com/gatehouse-dev/gatehouse/internal/middleware"
	"github.com/gatehouse-dev/gatehouse/internal/service"
)

type mockWorkflow struct {
	register       func(tenantKey domain.TenantKey, data service.RegistrationData) (domain.RegistrationResult, error)
	confirmEmail   func(tenantKey domain.TenantKey, token domain.Token, locale domain.Locale) (domain.ConfirmationResult, error)
	resolveReview  func(tenantKey domain.TenantKey, token domain.Token, decision domain.ReviewDecision) (domain.PendingReview, error)
	pendingReviews func(tenantKey domain.TenantKey) ([]domain.PendingReview, error)
	passwordForget func(tenantKey domain.TenantKey, email domain.Email) error
	passwordReset  func(tenantKey domain.TenantKey, token domain.Token, newPassword domain.Password) (domain.ConfirmationResult, error)
	login          func(tenantKey domain.TenantKey, email domain.Email, password domain.Password) (domain.Account, string, error)
	saveProfile    func(tenantKey domain.TenantKey, account domain.Account, data service.ProfileData) (domain.Account, error)
	saveAvatar     func(tenantKey domain.TenantKey, account domain.Account, filename string, r io.Reader) (string, error)
	accountProfile func(tenantKey domain.TenantKey, id domain.AccountId) (domain.Account, error)
}

func (m *mockWorkflow) Register(tenantKey domain.TenantKey, data service.RegistrationData) (domain.RegistrationResult, error) {
	return m.register(tenantKey, data)
}
func (m *mockWorkflow) ConfirmEmail(tenantKey domain.TenantKey, token domain.Token, locale domain.Locale) (domain.ConfirmationResult, error) {
	return m.confirmEmail(tenantKey, token, locale)
}
func (m *mockWorkflow) ResolveReview(tenantKey domain.TenantKey, token domain.Token, decision domain.ReviewDecision) (domain.PendingReview, error) {
	return m.resolveReview(tenantKey, token, decision)
}
func (m *mockWorkflow) PendingReviews(tenantKey domain.TenantKey) ([]domain.PendingReview, error) {
	return m.pendingReviews(tenantKey)
}
func (m *mockWorkflow) PasswordForget(tenantKey domain.TenantKey, email domain.Email) error {
	return m.passwordForget(tenantKey, email)
}
func (m *mockWorkflow) PasswordReset(tenantKey domain.TenantKey, token domain.Token, newPassword domain.Password) (domain.ConfirmationResult, error) {
	return m.passwordReset(tenantKey, token, newPassword)
}
func (m *mockWorkflow) Login(tenantKey domain.TenantKey, email domain.Email, password domain.Password) (domain.Account, string, error) {
	return m.login(tenantKey, email, password)
}
func (m *mockWorkflow) SaveProfile(tenantKey domain.TenantKey, account domain.Account, data service.ProfileData) (domain.Account, error) {
	return m.saveProfile(tenantKey, account, data)
}
func (m *mockWorkflow) SaveAvatar(tenantKey domain.TenantKey, account domain.Account, filename string, r io.Reader) (string, error) {
	return m.saveAvatar(tenantKey, account, filename, r)
}
func (m *mockWorkflow) AccountProfile(tenantKey domain.TenantKey, id domain.AccountId) (domain.Account, error) {
	return m.accountProfile(tenantKey, id)
}

type mockRuleAdmin struct {
	create func(tenantKey domain.TenantKey, pattern, classification string, priority int) (domain.BlacklistRule, error)
	update func(tenantKey domain.TenantKey, id domain.RuleId, pattern, classification string, priority int) error
	delete func(tenantKey domain.TenantKey, id domain.RuleId) error
	list   func(tenantKey domain.TenantKey) ([]domain.BlacklistRule, error)
}

func (m *mockRuleAdmin) Create(tenantKey domain.TenantKey, pattern, classification string, priority int) (domain.BlacklistRule, error) {
	return m.create(tenantKey, pattern, classification, priority)
}
func (m *mockRuleAdmin) Update(tenantKey domain.TenantKey, id domain.RuleId, pattern, classification string, priority int) error {
	return m.update(tenantKey, id, pattern, classification, priority)
}
func (m *mockRuleAdmin) Delete(tenantKey domain.TenantKey, id domain.RuleId) error {
	return m.delete(tenantKey, id)
}
func (m *mockRuleAdmin) List(tenantKey domain.TenantKey) ([]domain.BlacklistRule, error) {
	return m.list(tenantKey)
}

func testConfig() *config.Config {
	return &config.Config{Public: config.Public{JwtTTL: time.Hour}}
}

func newTestHandler(workflow *mockWorkflow, rules *mockRuleAdmin) (*Handler, *chi.Mux) {
	h := New(workflow, rules, nil, testConfig())

	r := chi.NewRouter()
	r.Route("/{tenant}", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Get("/confirm/{token}", h.ConfirmEmail)
		r.Get("/review/{token}/confirm", h.ConfirmReview)
		r.Get("/review/{token}/deny", h.DenyReview)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Post("/password-forget", h.PasswordForget)
		r.Post("/password-reset", h.PasswordReset)
		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.SaveProfile)
		r.Get("/admin/reviews", h.PendingReviews)
		r.Get("/admin/rules", h.ListRules)
		r.Post("/admin/rules", h.CreateRule)
		r.Put("/admin/rules/{rule}", h.UpdateRule)
		r.Delete("/admin/rules/{rule}", h.DeleteRule)
	})
	return h, r
}

func createRequest(t *testing.T, method, url string, body []byte, cookies ...*http.Cookie) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, url, bytes.NewBuffer(body))
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func withSession(req *http.Request, account *domain.Account) *http.Request {
	// Populates the context the way the auth middleware would have
	// after validating the session token.
	ctx := context.WithValue(req.Context(), middleware.AccountClaimsKey, account)
	return req.WithContext(ctx)
}
