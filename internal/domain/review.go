package domain

import "time"

// ReviewState is the lifecycle of an administrative blacklist review.
// New is the only state holding a token; Confirmed and Denied are
// terminal and tokenless.
type ReviewState string

const (
	ReviewStateNew       ReviewState = "new"
	ReviewStateConfirmed ReviewState = "confirmed"
	ReviewStateDenied    ReviewState = "denied"
)

// ReviewDecision is the administrator's answer to a pending review.
type ReviewDecision string

const (
	ReviewConfirm ReviewDecision = "confirm"
	ReviewDeny    ReviewDecision = "deny"
)

// PendingReview is created when a registration classifies as "request".
// Token is non-empty exactly while State == new; deciding the review
// clears it in the same storage operation, making it single-use.
type PendingReview struct {
	Id        ReviewId
	TenantKey TenantKey
	AccountId AccountId
	Token     Token
	State     ReviewState
	CreatedAt time.Time
	DecidedAt time.Time
}
