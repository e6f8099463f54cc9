package domain

type (
	Email     = string
	Password  = string
	Locale    = string
	TenantKey = string

	AccountId = int64
	RuleId    = int64
	ReviewId  = int64

	// Token is an opaque single-use credential. Its only structure is
	// "unguessable string"; everything else is storage concern.
	Token = string
)
