package tool

import (
	"errors"
	"fmt"
)

var (
	ErrToolNotFound  = errors.New("tool not found")
	ErrTimeout       = errors.New("tool execution timeout")
	ErrValidation    = errors.New("validation failed")
	ErrShutdown      = errors.New("registry is shutting down")
	ErrStreamAborted = errors.New("tool output stream aborted")
)

// ClientError is a failure the agent caused and can fix: malformed JSON, a schema
// violation, a rejected value. Reason is shown to the agent as is, so it must not
// carry internals. Err may hold a sentinel such as ErrValidation.
type ClientError struct {
	Reason string
	// Retryable tells the agent that repeating the same call may succeed.
	Retryable bool
	Err       error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("invalid tool input: %s", e.Reason)
}

func (e *ClientError) Unwrap() error { return e.Err }

// SystemError is an internal failure (I/O, panic). Its message never includes the
// cause; the cause stays reachable through Unwrap for logs.
type SystemError struct {
	Err error
}

func (e *SystemError) Error() string {
	return "internal system error during tool execution"
}

func (e *SystemError) Unwrap() error { return e.Err }

// IsClientError reports whether err has a ClientError in its chain.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}

// IsSystemError reports whether err has a SystemError in its chain.
func IsSystemError(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}

func wrapJSONParseError(err error) error {
	return &ClientError{Reason: "json parse error: " + err.Error()}
}

// wrapYieldError tags a refusal from the consumer's yield so it is not mistaken for a
// tool failure.
func wrapYieldError(err error) error {
	if errors.Is(err, ErrStreamAborted) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStreamAborted, err)
}

// wrapHandlerError lets ClientError and aborted streams through and hides the rest
// behind SystemError.
func wrapHandlerError(err error) error {
	if err == nil || IsClientError(err) || errors.Is(err, ErrStreamAborted) {
		return err
	}
	return &SystemError{Err: err}
}
