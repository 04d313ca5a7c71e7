package auth

import (
	"fmt"
	"unicode"

	"github.com/go-playground/validator/v10"

	"unicomm/domain"
	"unicomm/errors"
)

var validate = validator.New()

type RegisterRequest struct {
	Username string `validate:"required,min=3,max=32,alphanum"`
	Password string `validate:"required,min=12,max=72"`
}

func ValidateRegister(req RegisterRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	if !isPasswordComplex(req.Password) {
		return errors.ErrInvalidPassword
	}
	return nil
}

// ValidateContact checks the mutable contact fields. The phone format is
// E.164-like: a leading '+' followed by digits only.
func ValidateContact(fields domain.ContactFields) error {
	type contactRules struct {
		Name  string `validate:"required,max=100"`
		Email string `validate:"omitempty,email"`
	}
	rules := contactRules{Name: fields.Name, Email: fields.Email}
	if err := validate.Struct(rules); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	if !domain.ValidNumber(fields.Phone) {
		return fmt.Errorf("%w: phone must be '+' followed by digits", errors.ErrValidation)
	}
	return nil
}

func isPasswordComplex(s string) bool {
	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, char := range s {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasNumber && hasSpecial
}
