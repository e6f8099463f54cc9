package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gatehouse-dev/gatehouse/internal/api"
	"github.com/gatehouse-dev/gatehouse/internal/domain"
	"github.com/gatehouse-dev/gatehouse/internal/logger"
	"github.com/gatehouse-dev/gatehouse/internal/utils"
)

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	tenant := domain.TenantKey(chi.URLParam(r, "tenant"))

	var req api.LoginRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	_, token, err := h.workflow.Login(tenant, domain.Email(req.Email), domain.Password(req.Password))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, api.LoginResponse{Message: "You logged in", AccessToken: token})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	writeJSON(w, api.MessageResponse{Message: "You logged out"})
}

func (h *Handler) PasswordForget(w http.ResponseWriter, r *http.Request) {
	tenant := domain.TenantKey(chi.URLParam(r, "tenant"))

	var req api.PasswordForgetRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.workflow.PasswordForget(tenant, domain.Email(req.Email)); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	// Same answer whether or not the address has an account.
	writeJSON(w, api.MessageResponse{Message: "If an account exists for this address, a reset link has been sent"})
}

func (h *Handler) PasswordReset(w http.ResponseWriter, r *http.Request) {
	tenant := domain.TenantKey(chi.URLParam(r, "tenant"))

	var req api.PasswordResetRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	result, err := h.workflow.PasswordReset(tenant, domain.Token(req.Token), domain.Password(req.Password))
	if err != nil && result.Account.Id == 0 {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err != nil {
		logger.Log.Error("password reset mail failed", "tenant", tenant, "error", err)
	}

	resp := api.ConfirmationResponse{
		Message:    "Password updated",
		RedirectTo: result.RedirectTo,
	}
	if result.SessionToken != "" {
		h.setSessionCookie(w, result.SessionToken)
		resp.AccessToken = result.SessionToken
	}
	writeJSON(w, resp)
}
