package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gatehouse-dev/gatehouse/internal/api"
	"github.com/gatehouse-dev/gatehouse/internal/domain"
	internal_errors "github.com/gatehouse-dev/gatehouse/internal/errors"
	"github.com/gatehouse-dev/gatehouse/internal/utils"
)

func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	tenant := domain.TenantKey(chi.URLParam(r, "tenant"))

	rules, err := h.rules.List(tenant)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	resp := make([]api.RuleResponse, 0, len(rules))
	for _, rule := range rules {
		resp = append(resp, api.NewRuleResponse(rule))
	}
	writeJSON(w, resp)
}

func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	tenant := domain.TenantKey(chi.URLParam(r, "tenant"))

	var req api.RuleRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	rule, err := h.rules.Create(tenant, req.Pattern, req.Classification, req.Priority)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, api.NewRuleResponse(rule))
}

func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	tenant := domain.TenantKey(chi.URLParam(r, "tenant"))
	id, ok := ruleId(w, r)
	if !ok {
		return
	}

	var req api.RuleRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.rules.Update(tenant, id, req.Pattern, req.Classification, req.Priority); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.MessageResponse{Message: "Rule updated"})
}

func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	tenant := domain.TenantKey(chi.URLParam(r, "tenant"))
	id, ok := ruleId(w, r)
	if !ok {
		return
	}

	if err := h.rules.Delete(tenant, id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.MessageResponse{Message: "Rule deleted"})
}

func ruleId(w http.ResponseWriter, r *http.Request) (domain.RuleId, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "rule"), 10, 64)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, internal_errors.BadRequest("Invalid rule id"))
		return 0, false
	}
	return domain.RuleId(id), true
}
