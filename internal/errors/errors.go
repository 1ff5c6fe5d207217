package errors

import (
	"errors"
)

// UserError represents an error with both technical and user-friendly messages
type UserError struct {
	Err       error
	UserMsg   string
	Retryable bool
	// Warning marks errors that leave the requested change applied
	Warning bool
}

func (e *UserError) Error() string {
	return e.Err.Error()
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// Predefined errors
var (
	ErrInvalidValue = &UserError{
		Err:       errors.New("invalid value"),
		UserMsg:   "That value is not allowed for this setting.",
		Retryable: false,
	}

	ErrUnknownSetting = &UserError{
		Err:       errors.New("unknown setting"),
		UserMsg:   "There is no setting with that name.",
		Retryable: false,
	}

	ErrPersistenceWriteFailed = &UserError{
		Err:       errors.New("persistence write failed"),
		UserMsg:   "The setting was changed but could not be saved. It will revert after a restart.",
		Retryable: true,
		Warning:   true,
	}

	ErrUnauthorized = &UserError{
		Err:       errors.New("unauthorized user"),
		UserMsg:   "Sorry, you are not authorized to change these settings.",
		Retryable: false,
	}

	ErrBusy = &UserError{
		Err:       errors.New("command already in progress"),
		UserMsg:   "Your previous command is still running. Please wait a moment.",
		Retryable: true,
	}

	ErrCancelled = &UserError{
		Err:       errors.New("cancelled by user"),
		UserMsg:   "Nothing was changed.",
		Retryable: true,
	}
)

// Wrap wraps a technical error with a user message
func Wrap(err error, userMsg string, retryable bool) *UserError {
	return &UserError{
		Err:       err,
		UserMsg:   userMsg,
		Retryable: retryable,
	}
}

// GetUserMessage extracts user-friendly message from error
func GetUserMessage(err error) string {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.UserMsg
	}
	// Default message for unexpected errors
	return "An unexpected error occurred. Please try again later."
}

// IsRetryable checks if an error can be retried
func IsRetryable(err error) bool {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.Retryable
	}
	return false
}

// IsWarning reports whether err describes a change that was applied anyway
func IsWarning(err error) bool {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.Warning
	}
	return false
}
