package errors

import (
	stderrors "errors"
	"fmt"
)

// Is re-exports the standard matcher so callers importing this package
// do not need a second errors import.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

var (
	ErrValidation         = fmt.Errorf("validation failed")
	ErrPermissionDenied   = fmt.Errorf("permission denied")
	ErrNotFound           = fmt.Errorf("resource not found")
	ErrNotParticipant     = fmt.Errorf("sender is not a chat participant")
	ErrInvalidTransition  = fmt.Errorf("illegal call state transition")
	ErrInvalidTarget      = fmt.Errorf("call target is neither a user nor a valid number")
	ErrTransport          = fmt.Errorf("transport gateway failure")
	ErrStorage            = fmt.Errorf("storage failure")
	ErrUserAlreadyExists  = fmt.Errorf("username already taken")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrUserDeactivated    = fmt.Errorf("user account is deactivated")
)
