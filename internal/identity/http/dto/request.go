// Package dto provides data transfer objects for the identity HTTP API.
package dto

import (
	validation "github.com/jellydator/validation"
)

// RegisterRequest contains the parameters for account registration.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Validate checks if the register request is valid. Password strength is
// enforced by the use case; this only checks shape.
func (r *RegisterRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// EmailRequest contains a single email address, shared by the password reset
// and newsletter endpoints.
type EmailRequest struct {
	Email string `json:"email" binding:"required"`
}

// Validate checks if the email request is valid.
func (r *EmailRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required),
	)
}

// RequestVerificationRequest contains the parameters for re-sending the
// verification mail.
type RequestVerificationRequest struct {
	SubjectID string `json:"subject_id" binding:"required"`
}

// Validate checks if the request verification request is valid.
func (r *RequestVerificationRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.SubjectID, validation.Required, validation.Length(36, 36)),
	)
}

// ConfirmRequest contains a token confirmation attempt. NewPassword is only
// used with the password_reset purpose.
type ConfirmRequest struct {
	Selector    string `json:"selector" binding:"required"`
	Validator   string `json:"validator" binding:"required"`
	Purpose     string `json:"purpose" binding:"required"`
	NewPassword string `json:"new_password"`
}

// Validate checks if the confirm request is valid.
func (r *ConfirmRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Selector, validation.Required),
		validation.Field(&r.Validator, validation.Required),
		validation.Field(&r.Purpose, validation.Required),
	)
}
