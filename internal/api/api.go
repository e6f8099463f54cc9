package api

import (
	"time"

	"github.com/gatehouse-dev/gatehouse/internal/domain"
)

// Request DTOs

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name"`
	Locale      string `json:"locale"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type PasswordForgetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type ProfileRequest struct {
	DisplayName string `json:"display_name" validate:"required"`
	Locale      string `json:"locale"`
	Email       string `json:"email" validate:"omitempty,email"`
}

type RuleRequest struct {
	Pattern        string `json:"pattern" validate:"required"`
	Classification string `json:"classification" validate:"required,oneof=request block"`
	Priority       int    `json:"priority"`
}

// Response DTOs

type RegisterResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	RedirectTo string `json:"redirect_to,omitempty"`
	// Token for non-cookie clients; only present when the tenant
	// auto-logs-in on a completed registration.
	AccessToken string `json:"access_token,omitempty"`
}

type ConfirmationResponse struct {
	Message     string `json:"message"`
	RedirectTo  string `json:"redirect_to,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
}

type LoginResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token,omitempty"`
}

type ProfileResponse struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Locale      string `json:"locale"`
	AvatarPath  string `json:"avatar_path,omitempty"`
}

type ReviewResponse struct {
	Id        int64     `json:"id"`
	AccountId int64     `json:"account_id"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

func NewReviewResponse(review domain.PendingReview) ReviewResponse {
	return ReviewResponse{
		Id:        int64(review.Id),
		AccountId: int64(review.AccountId),
		State:     string(review.State),
		CreatedAt: review.CreatedAt,
	}
}

type RuleResponse struct {
	Id             int64     `json:"id"`
	Pattern        string    `json:"pattern"`
	Classification string    `json:"classification"`
	Priority       int       `json:"priority"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewRuleResponse(rule domain.BlacklistRule) RuleResponse {
	return RuleResponse{
		Id:             int64(rule.Id),
		Pattern:        rule.Pattern,
		Classification: string(rule.Classification),
		Priority:       rule.Priority,
		CreatedAt:      rule.CreatedAt,
	}
}

type MessageResponse struct {
	Message string `json:"message"`
}
