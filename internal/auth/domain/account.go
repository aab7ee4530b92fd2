package domain

import "time"

type Account struct {
	ID                string
	Name              string
	Email             string
	PasswordHash      string
	BusinessType      string
	Roles             Roles
	Enabled           bool
	ConfirmationToken *string
	RefreshToken      *string
	CreatedAt         time.Time
}

// HasPendingConfirmation reports whether token is the confirmation token still awaiting use.
func (a *Account) HasPendingConfirmation(token string) bool {
	return a.ConfirmationToken != nil && *a.ConfirmationToken == token
}

// AccountUpdate holds the admin-editable fields; nil means unchanged.
type AccountUpdate struct {
	Name         *string
	Email        *string
	BusinessType *string
	Enabled      *bool
	Roles        Roles
}

// Apply copies the set fields of u onto a.
func (u AccountUpdate) Apply(a *Account) {
	if u.Name != nil {
		a.Name = *u.Name
	}
	if u.Email != nil {
		a.Email = *u.Email
	}
	if u.BusinessType != nil {
		a.BusinessType = *u.BusinessType
	}
	if u.Enabled != nil {
		a.Enabled = *u.Enabled
	}
	if len(u.Roles) > 0 {
		a.Roles = NewRoles(u.Roles...)
	}
}
