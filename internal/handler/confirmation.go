package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gatehouse-dev/gatehouse/internal/api"
	"github.com/gatehouse-dev/gatehouse/internal/domain"
	"github.com/gatehouse-dev/gatehouse/internal/logger"
	"github.com/gatehouse-dev/gatehouse/internal/utils"
)

// ConfirmEmail resolves an emailed confirmation link. GET because the
// token arrives as a link; the token itself is the credential.
func (h *Handler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	tenant := domain.TenantKey(chi.URLParam(r, "tenant"))
	token := domain.Token(chi.URLParam(r, "token"))
	locale := domain.Locale(r.URL.Query().Get("locale"))

	result, err := h.workflow.ConfirmEmail(tenant, token, locale)
	if err != nil && result.Account.Id == 0 {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err != nil {
		logger.Log.Error("confirmation mail failed", "tenant", tenant, "error", err)
	}

	resp := api.ConfirmationResponse{
		Message:    "Email address confirmed",
		RedirectTo: result.RedirectTo,
	}
	if result.SessionToken != "" {
		h.setSessionCookie(w, result.SessionToken)
		resp.AccessToken = result.SessionToken
	}
	writeJSON(w, resp)
}

// ConfirmReview and DenyReview resolve the two links from the admin
// notification email.
func (h *Handler) ConfirmReview(w http.ResponseWriter, r *http.Request) {
	h.resolveReview(w, r, domain.ReviewConfirm)
}

func (h *Handler) DenyReview(w http.ResponseWriter, r *http.Request) {
	h.resolveReview(w, r, domain.ReviewDeny)
}

func (h *Handler) resolveReview(w http.ResponseWriter, r *http.Request, decision domain.ReviewDecision) {
	tenant := domain.TenantKey(chi.URLParam(r, "tenant"))
	token := domain.Token(chi.URLParam(r, "token"))

	review, err := h.workflow.ResolveReview(tenant, token, decision)
	if err != nil && review.Id == 0 {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err != nil {
		logger.Log.Error("review mail failed", "tenant", tenant, "error", err)
	}

	writeJSON(w, api.NewReviewResponse(review))
}

// PendingReviews lists a tenant's open reviews for admins.
func (h *Handler) PendingReviews(w http.ResponseWriter, r *http.Request) {
	tenant := domain.TenantKey(chi.URLParam(r, "tenant"))

	reviews, err := h.workflow.PendingReviews(tenant)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	resp := make([]api.ReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		resp = append(resp, api.NewReviewResponse(review))
	}
	writeJSON(w, resp)
}
