package domain

import "time"

type Account struct {
	Id          AccountId
	TenantKey   TenantKey
	Email       Email
	PassHash    string
	DisplayName string
	Locale      Locale
	Active      bool
	Admin       bool
	LastLogin   time.Time
	CreatedAt   time.Time
}

// AccountCreationData is everything the workflow knows about an account
// before the store assigns an id. Accounts are always created inactive;
// activation is a separate, explicit transition.
type AccountCreationData struct {
	TenantKey   TenantKey
	Email       Email
	PassHash    string
	DisplayName string
	Locale      Locale
}

type ProfileUpdate struct {
	DisplayName string
	Locale      Locale
}
