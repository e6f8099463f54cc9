package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gatehouse-dev/gatehouse/internal/domain"
	internal_errors "github.com/gatehouse-dev/gatehouse/internal/errors"
	"github.com/gatehouse-dev/gatehouse/internal/logger"
	"github.com/gatehouse-dev/gatehouse/internal/utils"
)

var errInvalidCredentials = &internal_errors.ErrorWithStatusCode{
	Message:    "Invalid email or password",
	StatusCode: http.StatusUnauthorized,
}

// Login checks credentials and opens a session. The invalid-password
// and unknown-email answers are identical. Inactive accounts cannot log
// in regardless of password; the gate that holds them (confirmation or
// review) must resolve first.
//
// A successful login refreshes the account's last-login timestamp, but
// only when the configured interval has passed since the previous one,
// keeping hot accounts from rewriting the row on every request.
func (w *Workflow) Login(tenantKey domain.TenantKey, email domain.Email, password domain.Password) (domain.Account, string, error) {
	if _, err := w.registry.Resolve(tenantKey); err != nil {
		return domain.Account{}, "", err
	}

	account, err := w.storage.Account(tenantKey, email)
	if err != nil {
		if internal_errors.IsNotFound(err) {
			return domain.Account{}, "", errInvalidCredentials
		}
		return domain.Account{}, "", fmt.Errorf("load account: %w", err)
	}
	if !utils.CheckPassword(string(password), account.PassHash) {
		return domain.Account{}, "", errInvalidCredentials
	}
	if !account.Active {
		return domain.Account{}, "", &internal_errors.ErrorWithStatusCode{
			Message:    "Account is not activated",
			StatusCode: http.StatusForbidden,
		}
	}

	token, err := w.sessions.NewToken(account)
	if err != nil {
		return domain.Account{}, "", fmt.Errorf("start session: %w", err)
	}

	if time.Since(account.LastLogin) >= w.lastLoginInterval {
		if err := w.storage.TouchLastLogin(account.Id); err != nil {
			// Stale timestamp is tolerable; failing the login is not.
			logger.Log.Error("touch last login failed", "account_id", account.Id, "error", err)
		}
	}
	return account, token, nil
}
