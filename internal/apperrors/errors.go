package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel kinds for remote-source failures. The github client classifies
// every transport/status failure into exactly one of these so callers can
// branch with errors.Is without inspecting response objects.
var (
	// ErrRemoteNotFound means the remote source reports the entity does not exist.
	ErrRemoteNotFound = errors.New("remote entity not found")
	// ErrRemoteClient covers other 4xx responses, including quota exhaustion.
	ErrRemoteClient = errors.New("remote client error")
	// ErrRemoteServer covers 5xx responses.
	ErrRemoteServer = errors.New("remote server error")
	// ErrRemoteNetwork covers transport-level failures before any status code.
	ErrRemoteNetwork = errors.New("remote network error")
	// ErrAggregation marks an unexpected failure while deriving analytics
	// from otherwise-present data.
	ErrAggregation = errors.New("aggregation error")
)

// ValidationError is returned when caller input violates a stated constraint,
// before any remote interaction is attempted.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is (or wraps) ErrRemoteNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRemoteNotFound)
}

// Transient reports whether err is worth retrying: server-side or network
// failures only. Not-found and other client errors never are.
func Transient(err error) bool {
	return errors.Is(err, ErrRemoteServer) || errors.Is(err, ErrRemoteNetwork)
}
