// Package validator adapts go-playground/validator to Echo's Validator
// interface and owns the storefront's custom validation rules.
package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// emailPattern requires a dot-qualified domain on top of the stock rule.
	emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

	// digitsPattern accepts decimal digits only. The stock numeric rule also
	// admits signs and a decimal point, which phone and pincode must not.
	digitsPattern = regexp.MustCompile(`^[0-9]+$`)
)

// NewValidate builds a validator with the storefront's custom rules
// registered. The checkout orchestrator and the Echo request validator share
// this one registration.
func NewValidate() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())

	// Registration only fails for an empty tag or nil func.
	_ = validate.RegisterValidation("email_strict", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return digitsPattern.MatchString(fl.Field().String())
	})

	return validate
}

// CustomValidator wraps a validator.Validate instance for Echo.
type CustomValidator struct {
	validate *validator.Validate
}

// New creates the request validator.
func New() *CustomValidator {
	return &CustomValidator{validate: NewValidate()}
}

// Validate implements echo.Validator.
func (v *CustomValidator) Validate(i any) error {
	return v.validate.Struct(i)
}
