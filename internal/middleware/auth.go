package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gatehouse-dev/gatehouse/internal/domain"
	"github.com/gatehouse-dev/gatehouse/internal/logger"
	"github.com/gatehouse-dev/gatehouse/internal/utils"
	"github.com/gatehouse-dev/gatehouse/internal/utils/jwt"
)

// Key to store the account claims in the request context
type key int

const AccountClaimsKey key = 0

// SessionCookieName is where browser clients carry the session token.
const SessionCookieName = "accessToken"

// Auth holds dependencies for authentication middleware
type Auth struct {
	jwtService    jwt.JwtService
	secureCookies bool
}

func NewAuth(jwtService jwt.JwtService, secureCookies bool) *Auth {
	return &Auth{jwtService: jwtService, secureCookies: secureCookies}
}

// NeedAuth returns middleware that requires a valid session.
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return a.auth(false)
}

// AdminOnly returns middleware that requires an admin session.
func (a *Auth) AdminOnly() func(http.Handler) http.Handler {
	return a.auth(true)
}

// extractAccount validates the session token from the cookie or the
// Authorization header and rebuilds the account identity from it.
func (a *Auth) extractAccount(r *http.Request) (*domain.Account, error) {
	var tokenString string
	accessCookie, err := r.Cookie(SessionCookieName)
	if err == nil {
		tokenString = accessCookie.Value
	} else if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		tokenString = token
	}

	if tokenString == "" {
		return nil, errNoToken
	}

	token, err := a.jwtService.DecodeToken(tokenString)
	if err != nil {
		return nil, err
	}
	account, err := jwt.AccountFromClaims(token)
	if err != nil {
		return nil, errInvalidClaims
	}
	return account, nil
}

var (
	errNoToken       = errorString("no token")
	errInvalidClaims = errorString("invalid claims")
)

type errorString string

func (e errorString) Error() string { return string(e) }

func (a *Auth) auth(adminOnly bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, err := a.extractAccount(r)
			if err != nil {
				switch err {
				case errNoToken:
					http.Error(w, "Please sign-in", http.StatusUnauthorized)
				case errInvalidClaims:
					logger.Log.Error("invalid jwt claims")
					http.Error(w, "Invalid token", http.StatusUnauthorized)
				default:
					utils.WriteErrorAndStatusCode(w, err)
				}
				return
			}

			if adminOnly && !account.Admin {
				http.Error(w, "Access denied. Only for admin", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), AccountClaimsKey, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAccountFromContext retrieves the session account from the context.
func GetAccountFromContext(r *http.Request) *domain.Account {
	account, ok := r.Context().Value(AccountClaimsKey).(*domain.Account)
	if !ok {
		return nil
	}
	return account
}
