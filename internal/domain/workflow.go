package domain

// ActionType names a configurable stage of the verification workflow.
// The set is closed; config referencing anything else is rejected at
// load time.
type ActionType string

const (
	ActionRegistration       ActionType = "registration"
	ActionConfirmation       ActionType = "confirmation"
	ActionPasswordForget     ActionType = "password_forget"
	ActionPasswordReset      ActionType = "password_reset"
	ActionProfile            ActionType = "profile"
	ActionBlacklisted        ActionType = "blacklisted"
	ActionBlacklistConfirmed ActionType = "blacklist_confirmed"
	ActionBlacklistDenied    ActionType = "blacklist_denied"
	ActionEmailConfirmation  ActionType = "email_confirmation"
)

// ActionTypes lists every valid action type.
var ActionTypes = []ActionType{
	ActionRegistration,
	ActionConfirmation,
	ActionPasswordForget,
	ActionPasswordReset,
	ActionProfile,
	ActionBlacklisted,
	ActionBlacklistConfirmed,
	ActionBlacklistDenied,
	ActionEmailConfirmation,
}

// RegistrationStatus is the outcome of a registration submission.
type RegistrationStatus string

const (
	// RegistrationRejected: a block rule matched. Terminal, nothing persisted.
	RegistrationRejected RegistrationStatus = "rejected"
	// AwaitingAdminReview: a request rule matched, account held for review.
	AwaitingAdminReview RegistrationStatus = "awaiting_admin_review"
	// AwaitingEmailConfirmation: account created, confirmation link mailed.
	AwaitingEmailConfirmation RegistrationStatus = "awaiting_email_confirmation"
	// RegistrationCompleted: account active, no further gate.
	RegistrationCompleted RegistrationStatus = "completed"
)

// RegistrationResult reports what the workflow decided for a submission.
// SessionToken and RedirectTo are only set for completed registrations.
type RegistrationResult struct {
	Status       RegistrationStatus
	Account      Account
	SessionToken string
	RedirectTo   string
}

// ConfirmationResult reports a resolved token gate (email confirmation,
// password reset or admin review).
type ConfirmationResult struct {
	Account      Account
	SessionToken string
	RedirectTo   string
}
