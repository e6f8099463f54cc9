package errors

import (
	"errors"
	"net/http"
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

// The workflow's failure modes. Token failures are deliberately
// indistinguishable: "never existed" and "already consumed" produce the
// same message, so callers cannot probe token state.

func ActionDisabled(action string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{
		Message:    "The " + action + " feature is not available",
		StatusCode: http.StatusForbidden,
	}
}

func UnknownTenant(tenantKey string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{
		Message:    "Tenant \"" + tenantKey + "\" is not configured",
		StatusCode: http.StatusNotFound,
	}
}

func InvalidOrExpiredToken() *ErrorWithStatusCode {
	return &ErrorWithStatusCode{
		Message:    "Invalid or expired token",
		StatusCode: http.StatusBadRequest,
	}
}

func NotFound(message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusNotFound}
}

func BadRequest(message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusBadRequest}
}

// DeliveryError marks a mail dispatch failure. It never undoes a state
// transition that already committed; resending is the caller's call.
func DeliveryError(message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusBadGateway}
}

// IsNotFound and StatusCode see through fmt.Errorf wrapping, so a
// storage error keeps its code after the service layer adds context.

func IsNotFound(err error) bool {
	var e *ErrorWithStatusCode
	return errors.As(err, &e) && e.StatusCode == http.StatusNotFound
}

func StatusCode(err error) int {
	var e *ErrorWithStatusCode
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}
