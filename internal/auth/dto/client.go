package dto

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/domain"
	"github.com/AnthoniusHendriyanto/client-auth-service/pkg/constant"
)

// ClientOutput is the admin listing view: no credentials, tokens or roles.
type ClientOutput struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	BusinessType string    `json:"businessType"`
	Enabled      bool      `json:"enabled"`
	CreatedAt    time.Time `json:"createdAt"`
}

func NewClientOutput(a *domain.Account) ClientOutput {
	return ClientOutput{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		BusinessType: a.BusinessType,
		Enabled:      a.Enabled,
		CreatedAt:    a.CreatedAt,
	}
}

// AccountOutput is returned after an admin update.
type AccountOutput struct {
	ClientOutput
	Roles []constant.RoleCode `json:"roles"`
}

func NewAccountOutput(a *domain.Account) AccountOutput {
	return AccountOutput{
		ClientOutput: NewClientOutput(a),
		Roles:        []constant.RoleCode(a.Roles),
	}
}

type UpdateClientInput struct {
	Name         *string             `json:"name"`
	Email        *string             `json:"email"`
	BusinessType *string             `json:"businessType"`
	Enabled      *bool               `json:"enabled"`
	Roles        []constant.RoleCode `json:"roles"`
}

func (r UpdateClientInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.By(notBlankWhenSet)),
		validation.Field(&r.Email, validation.By(notBlankWhenSet), is.Email),
		validation.Field(&r.BusinessType, validation.By(notBlankWhenSet)),
		validation.Field(&r.Roles, validation.By(knownRoleCodes)),
	)
}

// ToUpdate converts the payload into a domain update.
func (r UpdateClientInput) ToUpdate() domain.AccountUpdate {
	u := domain.AccountUpdate{
		Name:         r.Name,
		BusinessType: r.BusinessType,
		Enabled:      r.Enabled,
	}
	if r.Email != nil {
		email := NormalizeEmail(*r.Email)
		u.Email = &email
	}
	if len(r.Roles) > 0 {
		u.Roles = domain.NewRoles(r.Roles...)
	}
	return u
}

func notBlankWhenSet(value interface{}) error {
	s, ok := value.(*string)
	if ok && s != nil && strings.TrimSpace(*s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

func knownRoleCodes(value interface{}) error {
	codes, _ := value.([]constant.RoleCode)
	for _, c := range codes {
		if !domain.IsKnownRole(c) {
			return errors.New("contains an unknown role code")
		}
	}
	return nil
}

// NormalizeEmail trims and lower-cases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
