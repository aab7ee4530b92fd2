package dto

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type ForgotPasswordInput struct {
	Email string `json:"email"`
}

type ResetPasswordInput struct {
	Token       string `json:"-"`
	NewPassword string `json:"newPassword"`
}

func (r ResetPasswordInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required.Error("Please check the url link sent to your inbox")),
		validation.Field(&r.NewPassword, validation.Required.Error("Please provide new password")),
	)
}

type ChangePasswordInput struct {
	UserID      string `json:"userId"`
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (r ChangePasswordInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.OldPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required),
	)
}
