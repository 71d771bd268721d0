package editor

import "errors"

var (
	// ErrLocked is returned when saving or deleting the profile the tunnel is running.
	ErrLocked = errors.New("profile is in use by the running tunnel")
	// ErrDisplayNameRequired is returned when no display name is supplied or persisted.
	ErrDisplayNameRequired = errors.New("display name is required")
	// ErrDeleteNotAllowed is returned when deleting a profile that was never saved.
	ErrDeleteNotAllowed = errors.New("profile has not been saved")
	// ErrParse is returned when the raw configuration cannot be parsed.
	ErrParse = errors.New("invalid configuration")
	// ErrSessionClosed is returned when a session is used after a save or delete.
	ErrSessionClosed = errors.New("editing session is closed")
)

// ValidationError reports a rejected save or delete.
// It matches its kind sentinel with errors.Is and exposes the cause,
// typically a *parser.ParseError, with errors.As.
type ValidationError struct {
	// Kind is one of the Err* sentinels of this package.
	Kind error
	// Message is the text shown to the user.
	Message string
	// Err is the underlying cause, if any.
	Err error
}

// Error implements error.
func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

// Unwrap returns the kind and the cause.
func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func rejected(kind error) *ValidationError {
	return &ValidationError{Kind: kind, Message: kind.Error()}
}
