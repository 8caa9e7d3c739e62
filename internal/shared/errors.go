package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness conflict.
	ErrDuplicate = errors.New("duplicate record")
	// ErrInvalidState indicates an illegal document lifecycle transition.
	ErrInvalidState = errors.New("invalid document state")
	// ErrAlreadyVoid indicates a void was attempted on a void document.
	ErrAlreadyVoid = errors.New("document already void")
	// ErrPaymentExceedsBalance indicates a payment larger than the open balance.
	ErrPaymentExceedsBalance = errors.New("payment exceeds outstanding balance")
	// ErrUnbalancedEntry indicates a journal entry whose debits and credits
	// differ. Posting code constructs balanced entries, so seeing this error
	// means a defect in the calling business logic, not bad user input.
	ErrUnbalancedEntry = errors.New("journal entry is not balanced")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports malformed or missing caller input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Validation builds a ValidationError for a field.
func Validation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Validationf builds a ValidationError with a formatted message.
func Validationf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AccountNotConfiguredError reports a missing system account. This is an
// operator problem (incomplete organisation setup), never a user problem.
type AccountNotConfiguredError struct {
	Role string
	Code string
}

func (e *AccountNotConfiguredError) Error() string {
	return fmt.Sprintf("account for role %q (code %s) is not configured", e.Role, e.Code)
}

// IsAccountNotConfigured reports whether err wraps an AccountNotConfiguredError.
func IsAccountNotConfigured(err error) bool {
	var ae *AccountNotConfiguredError
	return errors.As(err, &ae)
}
