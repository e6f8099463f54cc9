package service

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-dev/gatehouse/internal/blacklist"
	"github.com/gatehouse-dev/gatehouse/internal/config"
	"github.com/gatehouse-dev/gatehouse/internal/domain"
	internal_errors "github.com/gatehouse-dev/gatehouse/internal/errors"
	"github.com/gatehouse-dev/gatehouse/internal/utils"
)

type mockStorage struct {
	saveAccount         func(data domain.AccountCreationData) (domain.Account, error)
	account             func(tenantKey domain.TenantKey, email domain.Email) (domain.Account, error)
	accountById         func(id domain.AccountId) (domain.Account, error)
	activateAccount     func(id domain.AccountId) error
	deleteAccount       func(id domain.AccountId) error
	updatePassword      func(id domain.AccountId, passHash string) error
	updateProfile       func(id domain.AccountId, update domain.ProfileUpdate) error
	updateEmail         func(id domain.AccountId, email domain.Email) error
	touchLastLogin      func(id domain.AccountId) error
	saveConfirmation    func(accountId domain.AccountId, token domain.Token) error
	consumeConfirmation func(token domain.Token) (domain.AccountId, error)
	saveReset           func(accountId domain.AccountId, token domain.Token) error
	consumeReset        func(token domain.Token) (domain.AccountId, error)
	savePendingReview   func(tenantKey domain.TenantKey, accountId domain.AccountId, token domain.Token) (domain.PendingReview, error)
	decideReview        func(token domain.Token, state domain.ReviewState) (domain.PendingReview, error)
	pendingReviews      func(tenantKey domain.TenantKey) ([]domain.PendingReview, error)
}

func (m *mockStorage) SaveAccount(data domain.AccountCreationData) (domain.Account, error) {
	return m.saveAccount(data)
}
func (m *mockStorage) Account(tenantKey domain.TenantKey, email domain.Email) (domain.Account, error) {
	return m.account(tenantKey, email)
}
func (m *mockStorage) AccountById(id domain.AccountId) (domain.Account, error) {
	return m.accountById(id)
}
func (m *mockStorage) ActivateAccount(id domain.AccountId) error { return m.activateAccount(id) }
func (m *mockStorage) DeleteAccount(id domain.AccountId) error   { return m.deleteAccount(id) }
func (m *mockStorage) UpdatePassword(id domain.AccountId, passHash string) error {
	return m.updatePassword(id, passHash)
}
func (m *mockStorage) UpdateProfile(id domain.AccountId, update domain.ProfileUpdate) error {
	return m.updateProfile(id, update)
}
func (m *mockStorage) UpdateEmail(id domain.AccountId, email domain.Email) error {
	return m.updateEmail(id, email)
}
func (m *mockStorage) TouchLastLogin(id domain.AccountId) error { return m.touchLastLogin(id) }
func (m *mockStorage) SaveConfirmationToken(accountId domain.AccountId, token domain.Token) error {
	return m.saveConfirmation(accountId, token)
}
func (m *mockStorage) ConsumeConfirmationToken(token domain.Token) (domain.AccountId, error) {
	return m.consumeConfirmation(token)
}
func (m *mockStorage) SavePasswordResetToken(accountId domain.AccountId, token domain.Token) error {
	return m.saveReset(accountId, token)
}
func (m *mockStorage) ConsumePasswordResetToken(token domain.Token) (domain.AccountId, error) {
	return m.consumeReset(token)
}
func (m *mockStorage) SavePendingReview(tenantKey domain.TenantKey, accountId domain.AccountId, token domain.Token) (domain.PendingReview, error) {
	return m.savePendingReview(tenantKey, accountId, token)
}
func (m *mockStorage) DecideReview(token domain.Token, state domain.ReviewState) (domain.PendingReview, error) {
	return m.decideReview(token, state)
}
func (m *mockStorage) PendingReviews(tenantKey domain.TenantKey) ([]domain.PendingReview, error) {
	return m.pendingReviews(tenantKey)
}

type stageMail struct {
	subject string
	account domain.Account
	data    map[string]string
}

type mockMailer struct {
	err  error
	sent []stageMail
}

func (m *mockMailer) SendActionEmails(tenant *config.TenantConfig, action config.ActionConfig, account domain.Account, data map[string]string) error {
	// Mirrors the real factory: no templates, nothing sent.
	if action.Email.UserTemplate == "" && action.Email.AdminTemplate == "" {
		return nil
	}
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, stageMail{subject: action.Email.Subject, account: account, data: data})
	return nil
}

type mockSessions struct {
	newToken func(account domain.Account) (string, error)
}

func (m *mockSessions) NewToken(account domain.Account) (string, error) {
	if m.newToken != nil {
		return m.newToken(account)
	}
	return "session-token", nil
}

type mockRoutes struct {
	routes map[string]string
}

func (m *mockRoutes) Resolve(routeName string) (string, error) {
	if url, ok := m.routes[routeName]; ok {
		return url, nil
	}
	return "", internal_errors.NotFound("unknown route " + routeName)
}

type mockAvatars struct {
	saveAvatar func(accountId domain.AccountId, filename string, r io.Reader) (string, error)
}

func (m *mockAvatars) SaveAvatar(accountId domain.AccountId, filename string, r io.Reader) (string, error) {
	return m.saveAvatar(accountId, filename, r)
}

type stubRules struct {
	rules map[domain.TenantKey][]blacklist.CompiledRule
}

func (s *stubRules) RulesFor(tenantKey domain.TenantKey) []blacklist.CompiledRule {
	return s.rules[tenantKey]
}

func compiled(pattern string, class domain.Classification) blacklist.CompiledRule {
	return blacklist.NewCompiledRule(domain.BlacklistRule{Pattern: pattern, Classification: class})
}

// Each stage gets a distinct subject so tests can tell the dispatched
// stages apart through the mailer mock.
func testTenantConfig() *config.TenantConfig {
	return &config.TenantConfig{
		Key:           "acme",
		From:          "no-reply@acme.test",
		AdminEmails:   []string{"admin@acme.test"},
		DefaultLocale: "en",
		Actions: map[string]config.ActionConfig{
			"registration": {
				Enabled: true,
				Email:   config.EmailTemplates{Subject: "registration", UserTemplate: "registration.md"},
			},
			"confirmation": {
				Enabled:    true,
				AutoLogin:  true,
				RedirectTo: "/welcome/{localization}",
				Email:      config.EmailTemplates{Subject: "confirmation", UserTemplate: "confirmation.md"},
			},
			"password_forget": {
				Enabled: true,
				Email:   config.EmailTemplates{Subject: "password_forget", UserTemplate: "password_forget.md"},
			},
			"password_reset": {
				Enabled: true,
				Email:   config.EmailTemplates{Subject: "password_reset", UserTemplate: "password_reset.md"},
			},
			"profile": {
				Enabled: true,
			},
			"blacklisted": {
				Enabled: true,
				Email:   config.EmailTemplates{Subject: "blacklisted", AdminTemplate: "blacklisted.md"},
			},
			"blacklist_confirmed": {
				Enabled: true,
				Email:   config.EmailTemplates{Subject: "blacklist_confirmed", UserTemplate: "blacklist_confirmed.md"},
			},
			"blacklist_denied": {
				Enabled:       true,
				DeleteAccount: true,
				Email:         config.EmailTemplates{Subject: "blacklist_denied", UserTemplate: "blacklist_denied.md"},
			},
			"email_confirmation": {
				Enabled: true,
				Email:   config.EmailTemplates{Subject: "email_confirmation", UserTemplate: "email_confirmation.md"},
			},
		},
	}
}

type workflowHarness struct {
	workflow *Workflow
	storage  *mockStorage
	mailer   *mockMailer
	rules    *stubRules
}

func newWorkflowHarness(tenant *config.TenantConfig) *workflowHarness {
	storage := &mockStorage{}
	mailer := &mockMailer{}
	rules := &stubRules{rules: map[domain.TenantKey][]blacklist.CompiledRule{}}
	registry := NewRegistry(config.Tenants{tenant.Key: tenant})
	workflow := NewWorkflow(
		registry,
		storage,
		rules,
		mailer,
		&mockSessions{},
		&mockRoutes{routes: map[string]string{"member_area": "https://acme.test/members"}},
		&mockAvatars{},
		time.Hour,
	)
	return &workflowHarness{workflow: workflow, storage: storage, mailer: mailer, rules: rules}
}

func registration() RegistrationData {
	return RegistrationData{
		Email:       "new.user@example.com",
		Password:    "hunter2hunter2",
		DisplayName: "New User",
		Locale:      "de",
	}
}

func TestRegister_UnknownTenant(t *testing.T) {
	h := newWorkflowHarness(testTenantConfig())

	_, err := h.workflow.Register("nope", registration())

	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, internal_errors.StatusCode(err))
}

func TestRegister_Disabled(t *testing.T) {
	tenant := testTenantConfig()
	delete(tenant.Actions, "registration")
	h := newWorkflowHarness(tenant)

	_, err := h.workflow.Register("acme", registration())

	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, internal_errors.StatusCode(err))
}

func TestRegister_BlockedPersistsNothing(t *testing.T) {
	h := newWorkflowHarness(testTenantConfig())
	h.rules.rules["acme"] = []blacklist.CompiledRule{
		compiled("*@example.com", domain.ClassificationBlock),
	}

	saved := false
	h.storage.saveAccount = func(data domain.AccountCreationData) (domain.Account, error) {
		saved = true
		return domain.Account{}, nil
	}

	result, err := h.workflow.Register("acme", registration())

	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationRejected, result.Status)
	assert.False(t, saved)
	assert.Empty(t, h.mailer.sent)
}

func TestRegister_RequestHeldForReview(t *testing.T) {
	h := newWorkflowHarness(testTenantConfig())
	h.rules.rules["acme"] = []blacklist.CompiledRule{
		compiled("*@example.com", domain.ClassificationRequest),
	}

	var savedReviewToken domain.Token
	confirmationIssued := false
	h.storage.saveAccount = func(data domain.AccountCreationData) (domain.Account, error) {
		assert.Equal(t, domain.TenantKey("acme"), data.TenantKey)
		assert.True(t, utils.CheckPassword("hunter2hunter2", data.PassHash))
		return domain.Account{Id: 7, TenantKey: data.TenantKey, Email: data.Email}, nil
	}
	h.storage.savePendingReview = func(tenantKey domain.TenantKey, accountId domain.AccountId, token domain.Token) (domain.PendingReview, error) {
		savedReviewToken = token
		return domain.PendingReview{Id: 1, TenantKey: tenantKey, AccountId: accountId, Token: token, State: domain.ReviewStateNew}, nil
	}
	h.storage.saveConfirmation = func(accountId domain.AccountId, token domain.Token) error {
		confirmationIssued = true
		return nil
	}

	result, err := h.workflow.Register("acme", registration())

	require.NoError(t, err)
	// A "request" match never takes the email confirmation path.
	assert.Equal(t, domain.AwaitingAdminReview, result.Status)
	assert.False(t, confirmationIssued)
	assert.NotEmpty(t, savedReviewToken)
	assert.Empty(t, result.SessionToken)

	require.Len(t, h.mailer.sent, 1)
	assert.Equal(t, "blacklisted", h.mailer.sent[0].subject)
	assert.Equal(t, string(savedReviewToken), h.mailer.sent[0].data["token"])
}

func TestRegister_EmailConfirmationPath(t *testing.T) {
	h := newWorkflowHarness(testTenantConfig())

	var issuedToken domain.Token
	h.storage.saveAccount = func(data domain.AccountCreationData) (domain.Account, error) {
		return domain.Account{Id: 7, TenantKey: data.TenantKey, Email: data.Email}, nil
	}
	h.storage.saveConfirmation = func(accountId domain.AccountId, token domain.Token) error {
		assert.Equal(t, domain.AccountId(7), accountId)
		issuedToken = token
		return nil
	}

	result, err := h.workflow.Register("acme", registration())

	require.NoError(t, err)
	assert.Equal(t, domain.AwaitingEmailConfirmation, result.Status)
	assert.False(t, result.Account.Active)
	assert.NotEmpty(t, issuedToken)

	require.Len(t, h.mailer.sent, 1)
	assert.Equal(t, "registration", h.mailer.sent[0].subject)
	assert.Equal(t, string(issuedToken), h.mailer.sent[0].data["token"])
}

func TestRegister_ActivateOnRegistration(t *testing.T) {
	tenant := testTenantConfig()
	reg := tenant.Actions["registration"]
	reg.ActivateAccount = true
	reg.AutoLogin = true
	reg.RedirectTo = "/welcome/{localization}"
	tenant.Actions["registration"] = reg
	h := newWorkflowHarness(tenant)

	activated := false
	h.storage.saveAccount = func(data domain.AccountCreationData) (domain.Account, error) {
		return domain.Account{Id: 7, TenantKey: data.TenantKey, Email: data.Email, Locale: data.Locale}, nil
	}
	h.storage.activateAccount = func(id domain.AccountId) error {
		activated = true
		return nil
	}

	result, err := h.workflow.Register("acme", registration())

	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationCompleted, result.Status)
	assert.True(t, activated)
	assert.True(t, result.Account.Active)
	assert.Equal(t, "session-token", result.SessionToken)
	assert.Equal(t, "/welcome/de", result.RedirectTo)
}

func TestRegister_MailFailureKeepsAccount(t *testing.T) {
	h := newWorkflowHarness(testTenantConfig())
	h.mailer.err = internal_errors.DeliveryError("smtp down")

	saved := false
	h.storage.saveAccount = func(data domain.AccountCreationData) (domain.Account, error) {
		saved = true
		return domain.Account{Id: 7, Email: data.Email}, nil
	}
	h.storage.saveConfirmation = func(accountId domain.AccountId, token domain.Token) error { return nil }

	result, err := h.workflow.Register("acme", registration())

	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, internal_errors.StatusCode(err))
	// The transition committed; only the mail is lost.
	assert.True(t, saved)
	assert.Equal(t, domain.AwaitingEmailConfirmation, result.Status)
}

func TestConfirmEmail(t *testing.T) {
	h := newWorkflowHarness(testTenantConfig())

	consumed := map[domain.Token]bool{"tok-1": false}
	h.storage.consumeConfirmation = func(token domain.Token) (domain.AccountId, error) {
		used, known := consumed[token]
		if !known || used {
			return 0, internal_errors.NotFound("token not found")
		}
		consumed[token] = true
		return 7, nil
	}
	h.storage.activateAccount = func(id domain.AccountId) error { return nil }
	h.storage.accountById = func(id domain.AccountId) (domain.Account, error) {
		return domain.Account{Id: id, TenantKey: "acme", Email: "new.user@example.com", Active: true}, nil
	}

	result, err := h.workflow.ConfirmEmail("acme", "tok-1", "en")

	require.NoError(t, err)
	assert.True(t, result.Account.Active)
	assert.Equal(t, "session-token", result.SessionToken)
	assert.Equal(t, "/welcome/en", result.RedirectTo)

	// Same token again behaves exactly like one that never existed.
	_, err = h.workflow.ConfirmEmail("acme", "tok-1", "en")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, internal_errors.StatusCode(err))
	assert.EqualError(t, err, "Invalid or expired token")

	_, err = h.workflow.ConfirmEmail("acme", "never-issued", "en")
	require.Error(t, err)
	assert.EqualError(t, err, "Invalid or expired token")
}

func TestConfirmEmail_NamedRouteRedirect(t *testing.T) {
	tenant := testTenantConfig()
	conf := tenant.Actions["confirmation"]
	conf.RedirectTo = "member_area"
	tenant.Actions["confirmation"] = conf
	h := newWorkflowHarness(tenant)

	h.storage.consumeConfirmation = func(token domain.Token) (domain.AccountId, error) { return 7, nil }
	h.storage.activateAccount = func(id domain.AccountId) error { return nil }
	h.storage.accountById = func(id domain.AccountId) (domain.Account, error) {
		return domain.Account{Id: id, Active: true}, nil
	}

	result, err := h.workflow.ConfirmEmail("acme", "tok-1", "en")

	require.NoError(t, err)
	assert.Equal(t, "https://acme.test/members", result.RedirectTo)
}

func TestResolveReview_Confirm(t *testing.T) {
	h := newWorkflowHarness(testTenantConfig())

	activated := false
	h.storage.decideReview = func(token domain.Token, state domain.ReviewState) (domain.PendingReview, error) {
		assert.Equal(t, domain.ReviewStateConfirmed, state)
		return domain.PendingReview{Id: 1, AccountId: 7, State: state}, nil
	}
	h.storage.accountById = func(id domain.AccountId) (domain.Account, error) {
		return domain.Account{Id: id, Email: "new.user@example.com"}, nil
	}
	h.storage.activateAccount = func(id domain.AccountId) error {
		activated = true
		return nil
	}

	review, err := h.workflow.ResolveReview("acme", "rev-tok", domain.ReviewConfirm)

	require.NoError(t, err)
	assert.Equal(t, domain.ReviewStateConfirmed, review.State)
	assert.True(t, activated)
	require.Len(t, h.mailer.sent, 1)
	assert.Equal(t, "blacklist_confirmed", h.mailer.sent[0].subject)
}

func TestResolveReview_DenyDeletesAccountOnce(t *testing.T) {
	h := newWorkflowHarness(testTenantConfig())

	deletions := 0
	h.storage.decideReview = func(token domain.Token, state domain.ReviewState) (domain.PendingReview, error) {
		assert.Equal(t, domain.ReviewStateDenied, state)
		return domain.PendingReview{Id: 1, AccountId: 7, State: state}, nil
	}
	h.storage.accountById = func(id domain.AccountId) (domain.Account, error) {
		return domain.Account{Id: id, Email: "new.user@example.com"}, nil
	}
	h.storage.deleteAccount = func(id domain.AccountId) error {
		deletions++
		return nil
	}

	review, err := h.workflow.ResolveReview("acme", "rev-tok", domain.ReviewDeny)

	require.NoError(t, err)
	assert.Equal(t, domain.ReviewStateDenied, review.State)
	assert.Equal(t, 1, deletions)
	// The denial mail went out before the account disappeared.
	require.Len(t, h.mailer.sent, 1)
	assert.Equal(t, "blacklist_denied", h.mailer.sent[0].subject)
}

func TestResolveReview_DenyWithoutDeletion(t *testing.T) {
	tenant := testTenantConfig()
	denied := tenant.Actions["blacklist_denied"]
	denied.DeleteAccount = false
	tenant.Actions["blacklist_denied"] = denied
	h := newWorkflowHarness(tenant)

	h.storage.decideReview = func(token domain.Token, state domain.ReviewState) (domain.PendingReview, error) {
		return domain.PendingReview{Id: 1, AccountId: 7, State: state}, nil
	}
	h.storage.accountById = func(id domain.AccountId) (domain.Account, error) {
		return domain.Account{Id: id}, nil
	}
	h.storage.deleteAccount = func(id domain.AccountId) error {
		t.Fatal("account must not be deleted")
		return nil
	}

	_, err := h.workflow.ResolveReview("acme", "rev-tok", domain.ReviewDeny)
	require.NoError(t, err)
}

func TestResolveReview_StaleToken(t *testing.T) {
	h := newWorkflowHarness(testTenantConfig())

	h.storage.decideReview = func(token domain.Token, state domain.ReviewState) (domain.PendingReview, error) {
		return domain.PendingReview{}, internal_errors.NotFound("review not found")
	}

	_, err := h.workflow.ResolveReview("acme", "already-used", domain.ReviewConfirm)

	require.Error(t, err)
	assert.EqualError(t, err, "Invalid or expired token")
}

func TestResolveReview_InvalidDecision(t *testing.T) {
	h := newWorkflowHarness(testTenantConfig())

	_, err := h.workflow.ResolveReview("acme", "rev-tok", "maybe")

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, internal_errors.StatusCode(err))
}

func TestPasswordForget(t *testing.T) {
	h := newWorkflowHarness(testTenantConfig())

	var issued domain.Token
	h.storage.account = func(tenantKey domain.TenantKey, email domain.Email) (domain.Account, error) {
		return domain.Account{Id: 7, TenantKey: tenantKey, Email: email, Active: true}, nil
	}
	h.storage.saveReset = func(accountId domain.AccountId, token domain.Token) error {
		issued = token
		return nil
	}

	err := h.workflow.PasswordForget("acme", "new.user@example.com")

	require.NoError(t, err)
	assert.NotEmpty(t, issued)
	require.Len(t, h.mailer.sent, 1)
	assert.Equal(t, "password_forget", h.mailer.sent[0].subject)
	assert.Equal(t, string(issued), h.mailer.sent[0].data["token"])
}

func TestPasswordForget_UnknownEmailIsSilent(t *testing.T) {
	h := newWorkflowHarness(testTenantConfig())

	h.storage.account = func(tenantKey domain.TenantKey, email domain.Email) (domain.Account, error) {
		return domain.Account{}, internal_errors.NotFound("account not found")
	}

	err := h.workflow.PasswordForget("acme", "nobody@example.com")

	require.NoError(t, err)
	assert.Empty(t, h.mailer.sent)
}

func TestPasswordReset(t *testing.T) {
	h := newWorkflowHarness(testTenantConfig())

	var newHash string
	h.storage.consumeReset = func(token domain.Token) (domain.AccountId, error) {
		if token != "reset-tok" {
			return 0, internal_errors.NotFound("token not found")
		}
		return 7, nil
	}
	h.storage.updatePassword = func(id domain.AccountId, passHash string) error {
		newHash = passHash
		return nil
	}
	h.storage.accountById = func(id domain.AccountId) (domain.Account, error) {
		return domain.Account{Id: id, TenantKey: "acme", Active: true}, nil
	}

	_, err := h.workflow.PasswordReset("acme", "reset-tok", "new-password-1")

	require.NoError(t, err)
	assert.True(t, utils.CheckPassword("new-password-1", newHash))
	require.Len(t, h.mailer.sent, 1)
	assert.Equal(t, "password_reset", h.mailer.sent[0].subject)

	_, err = h.workflow.PasswordReset("acme", "unknown-tok", "new-password-1")
	require.Error(t, err)
	assert.EqualError(t, err, "Invalid or expired token")
}

func TestLogin(t *testing.T) {
	h := newWorkflowHarness(testTenantConfig())

	hash, err := utils.HashPassword("hunter2hunter2")
	require.NoError(t, err)

	touched := 0
	h.storage.account = func(tenantKey domain.TenantKey, email domain.Email) (domain.Account, error) {
		return domain.Account{Id: 7, TenantKey: tenantKey, Email: email, PassHash: hash, Active: true}, nil
	}
	h.storage.touchLastLogin = func(id domain.AccountId) error {
		touched++
		return nil
	}

	account, token, err := h.workflow.Login("acme", "new.user@example.com", "hunter2hunter2")

	require.NoError(t, err)
	assert.Equal(t, domain.AccountId(7), account.Id)
	assert.Equal(t, "session-token", token)
	assert.Equal(t, 1, touched)
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newWorkflowHarness(testTenantConfig())

	hash, err := utils.HashPassword("hunter2hunter2")
	require.NoError(t, err)
	h.storage.account = func(tenantKey domain.TenantKey, email domain.Email) (domain.Account, error) {
		return domain.Account{Id: 7, PassHash: hash, Active: true}, nil
	}

	_, _, err = h.workflow.Login("acme", "new.user@example.com", "wrong")

	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, internal_errors.StatusCode(err))

	// Unknown email gives the identical answer.
	h.storage.account = func(tenantKey domain.TenantKey, email domain.Email) (domain.Account, error) {
		return domain.Account{}, internal_errors.NotFound("account not found")
	}
	_, _, err2 := h.workflow.Login("acme", "nobody@example.com", "hunter2hunter2")
	require.Error(t, err2)
	assert.Equal(t, err.Error(), err2.Error())
}

func TestLogin_InactiveAccount(t *testing.T) {
	h := newWorkflowHarness(testTenantConfig())

	hash, err := utils.HashPassword("hunter2hunter2")
	require.NoError(t, err)
	h.storage.account = func(tenantKey domain.TenantKey, email domain.Email) (domain.Account, error) {
		return domain.Account{Id: 7, PassHash: hash, Active: false}, nil
	}

	_, _, err = h.workflow.Login("acme", "new.user@example.com", "hunter2hunter2")

	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, internal_errors.StatusCode(err))
}

func TestLogin_LastLoginIntervalNotElapsed(t *testing.T) {
	h := newWorkflowHarness(testTenantConfig())

	hash, err := utils.HashPassword("hunter2hunter2")
	require.NoError(t, err)
	h.storage.account = func(tenantKey domain.TenantKey, email domain.Email) (domain.Account, error) {
		return domain.Account{Id: 7, PassHash: hash, Active: true, LastLogin: time.Now().Add(-time.Minute)}, nil
	}
	h.storage.touchLastLogin = func(id domain.AccountId) error {
		t.Fatal("last login must not be touched inside the interval")
		return nil
	}

	_, _, err = h.workflow.Login("acme", "new.user@example.com", "hunter2hunter2")
	require.NoError(t, err)
}

func TestSaveProfile_SanitizesDisplayName(t *testing.T) {
	h := newWorkflowHarness(testTenantConfig())

	var saved domain.ProfileUpdate
	h.storage.updateProfile = func(id domain.AccountId, update domain.ProfileUpdate) error {
		saved = update
		return nil
	}

	account := domain.Account{Id: 7, TenantKey: "acme", Email: "new.user@example.com", Active: true}
	updated, err := h.workflow.SaveProfile("acme", account, ProfileData{
		DisplayName: `<script>alert(1)</script>Bob`,
		Locale:      "de",
	})

	require.NoError(t, err)
	assert.Equal(t, "Bob", saved.DisplayName)
	assert.Equal(t, "Bob", updated.DisplayName)
	assert.Equal(t, domain.Locale("de"), updated.Locale)
}

func TestSaveProfile_EmailChangeReissuesConfirmation(t *testing.T) {
	h := newWorkflowHarness(testTenantConfig())

	var tokens []domain.Token
	var storedEmail domain.Email
	h.storage.updateProfile = func(id domain.AccountId, update domain.ProfileUpdate) error { return nil }
	h.storage.updateEmail = func(id domain.AccountId, email domain.Email) error {
		storedEmail = email
		return nil
	}
	h.storage.saveConfirmation = func(accountId domain.AccountId, token domain.Token) error {
		tokens = append(tokens, token)
		return nil
	}

	account := domain.Account{Id: 7, TenantKey: "acme", Email: "old@example.com", Active: true}
	updated, err := h.workflow.SaveProfile("acme", account, ProfileData{
		DisplayName: "Bob",
		Locale:      "en",
		Email:       "new@example.com",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.Email("new@example.com"), storedEmail)
	assert.Equal(t, domain.Email("new@example.com"), updated.Email)
	require.Len(t, tokens, 1)

	// The confirmation mail carries the fresh token and targets the new
	// address.
	require.Len(t, h.mailer.sent, 1)
	assert.Equal(t, "email_confirmation", h.mailer.sent[0].subject)
	assert.Equal(t, string(tokens[0]), h.mailer.sent[0].data["token"])
	assert.Equal(t, domain.Email("new@example.com"), h.mailer.sent[0].account.Email)
}

func TestSaveProfile_Disabled(t *testing.T) {
	tenant := testTenantConfig()
	delete(tenant.Actions, "profile")
	h := newWorkflowHarness(tenant)

	_, err := h.workflow.SaveProfile("acme", domain.Account{Id: 7}, ProfileData{DisplayName: "Bob"})

	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, internal_errors.StatusCode(err))
}

func TestRegisterThenConfirmEndToEnd(t *testing.T) {
	h := newWorkflowHarness(testTenantConfig())

	// A tiny in-memory account + token store wired through the mocks.
	var account domain.Account
	tokens := map[domain.Token]domain.AccountId{}
	h.storage.saveAccount = func(data domain.AccountCreationData) (domain.Account, error) {
		account = domain.Account{Id: 7, TenantKey: data.TenantKey, Email: data.Email, Locale: data.Locale}
		return account, nil
	}
	h.storage.saveConfirmation = func(accountId domain.AccountId, token domain.Token) error {
		tokens[token] = accountId
		return nil
	}
	h.storage.consumeConfirmation = func(token domain.Token) (domain.AccountId, error) {
		id, ok := tokens[token]
		if !ok {
			return 0, internal_errors.NotFound("token not found")
		}
		delete(tokens, token)
		return id, nil
	}
	h.storage.activateAccount = func(id domain.AccountId) error {
		account.Active = true
		return nil
	}
	h.storage.accountById = func(id domain.AccountId) (domain.Account, error) { return account, nil }

	regResult, err := h.workflow.Register("acme", registration())
	require.NoError(t, err)
	require.Equal(t, domain.AwaitingEmailConfirmation, regResult.Status)
	require.Len(t, h.mailer.sent, 1)
	mailedToken := domain.Token(h.mailer.sent[0].data["token"])

	confResult, err := h.workflow.ConfirmEmail("acme", mailedToken, "en")
	require.NoError(t, err)
	assert.True(t, confResult.Account.Active)
	assert.Equal(t, "/welcome/en", confResult.RedirectTo)
	assert.NotEmpty(t, confResult.SessionToken)

	_, err = h.workflow.ConfirmEmail("acme", mailedToken, "en")
	require.Error(t, err)
	assert.EqualError(t, err, "Invalid or expired token")
}
