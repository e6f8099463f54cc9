package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gatehouse-dev/gatehouse/internal/api"
	"github.com/gatehouse-dev/gatehouse/internal/domain"
	internal_errors "github.com/gatehouse-dev/gatehouse/internal/errors"
	"github.com/gatehouse-dev/gatehouse/internal/logger"
	"github.com/gatehouse-dev/gatehouse/internal/middleware"
	"github.com/gatehouse-dev/gatehouse/internal/service"
	"github.com/gatehouse-dev/gatehouse/internal/utils"
)

func (h *Handler) sessionAccount(w http.ResponseWriter, r *http.Request) (domain.Account, bool) {
	claims := middleware.GetAccountFromContext(r)
	if claims == nil {
		http.Error(w, "Please sign-in", http.StatusUnauthorized)
		return domain.Account{}, false
	}
	tenant := domain.TenantKey(chi.URLParam(r, "tenant"))
	account, err := h.workflow.AccountProfile(tenant, claims.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return domain.Account{}, false
	}
	return account, true
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	account, ok := h.sessionAccount(w, r)
	if !ok {
		return
	}
	writeJSON(w, api.ProfileResponse{
		Email:       string(account.Email),
		DisplayName: account.DisplayName,
		Locale:      string(account.Locale),
	})
}

func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	account, ok := h.sessionAccount(w, r)
	if !ok {
		return
	}
	tenant := domain.TenantKey(chi.URLParam(r, "tenant"))

	var req api.ProfileRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	updated, err := h.workflow.SaveProfile(tenant, account, service.ProfileData{
		DisplayName: req.DisplayName,
		Locale:      domain.Locale(req.Locale),
		Email:       domain.Email(req.Email),
	})
	if err != nil && updated.Id == 0 {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err != nil {
		logger.Log.Error("profile mail failed", "tenant", tenant, "error", err)
	}

	writeJSON(w, api.ProfileResponse{
		Email:       string(updated.Email),
		DisplayName: updated.DisplayName,
		Locale:      string(updated.Locale),
	})
}

// SaveAvatar accepts a multipart upload under the "avatar" field. The
// image is validated for size, type and dimensions before it touches
// disk.
func (h *Handler) SaveAvatar(w http.ResponseWriter, r *http.Request) {
	account, ok := h.sessionAccount(w, r)
	if !ok {
		return
	}
	tenant := domain.TenantKey(chi.URLParam(r, "tenant"))

	limits := utils.AvatarLimits{
		MaxSizeBytes:   h.cfg.Public.AvatarMaxSizeBytes,
		MaxPixelWidth:  h.cfg.Public.AvatarMaxPixelWidth,
		MaxPixelHeight: h.cfg.Public.AvatarMaxPixelHeight,
	}

	if err := r.ParseMultipartForm(limits.MaxSizeBytes); err != nil {
		utils.WriteErrorAndStatusCode(w, internal_errors.BadRequest("Invalid multipart body"))
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, internal_errors.BadRequest("Missing avatar file"))
		return
	}
	defer file.Close()

	if err := utils.ValidateAvatar(header, limits); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	path, err := h.workflow.SaveAvatar(tenant, account, header.Filename, file)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.ProfileResponse{
		Email:       string(account.Email),
		DisplayName: account.DisplayName,
		Locale:      string(account.Locale),
		AvatarPath:  path,
	})
}
