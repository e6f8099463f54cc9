package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gatehouse-dev/gatehouse/internal/api"
	"github.com/gatehouse-dev/gatehouse/internal/domain"
	"github.com/gatehouse-dev/gatehouse/internal/logger"
	"github.com/gatehouse-dev/gatehouse/internal/middleware/metrics"
	"github.com/gatehouse-dev/gatehouse/internal/service"
	"github.com/gatehouse-dev/gatehouse/internal/utils"
)

var registrationMessages = map[domain.RegistrationStatus]string{
	domain.RegistrationRejected:      "Registration is not possible with this email address",
	domain.AwaitingAdminReview:       "Your registration is awaiting approval",
	domain.AwaitingEmailConfirmation: "Please check your inbox to confirm your email address",
	domain.RegistrationCompleted:     "Registration completed",
}

// Register handles a self-service registration submission.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	tenant := domain.TenantKey(chi.URLParam(r, "tenant"))

	var req api.RegisterRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	result, err := h.workflow.Register(tenant, service.RegistrationData{
		Email:       domain.Email(req.Email),
		Password:    domain.Password(req.Password),
		DisplayName: req.DisplayName,
		Locale:      domain.Locale(req.Locale),
	})
	if err != nil && result.Status == "" {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err != nil {
		// State committed, only mail dispatch failed. The registrant
		// can request a fresh token later; no reason to fail the
		// submission.
		logger.Log.Error("registration mail failed", "tenant", tenant, "error", err)
	}
	metrics.CountRegistration(string(tenant), string(result.Status))

	resp := api.RegisterResponse{
		Status:     string(result.Status),
		Message:    registrationMessages[result.Status],
		RedirectTo: result.RedirectTo,
	}
	if result.SessionToken != "" {
		h.setSessionCookie(w, result.SessionToken)
		resp.AccessToken = result.SessionToken
	}
	writeJSON(w, resp)
}
