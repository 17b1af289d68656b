package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout reports that the backend did not answer within the request timeout.
	ErrTimeout = errors.New("backend request timed out")
	// ErrTransport reports a network or connection failure other than a timeout.
	ErrTransport = errors.New("backend transport failure")
	// ErrMalformedResponse reports a 200 body that is not the JSON shape the caller expects.
	ErrMalformedResponse = errors.New("malformed backend response")
)

// TransportError is returned by Fetch when no HTTP response was obtained.
// It matches ErrTimeout or ErrTransport with errors.Is, and also unwraps to the
// underlying net/http error.
type TransportError struct {
	Method  string
	URL     string
	Err     error
	timeout bool
}

func (e *TransportError) Error() string {
	kind := "failed"
	if e.timeout {
		kind = "timed out"
	}
	return fmt.Sprintf("%s %s %s: %v", e.Method, e.URL, kind, e.Err)
}

// Timeout reports whether the request exceeded its deadline.
func (e *TransportError) Timeout() bool { return e.timeout }

func (e *TransportError) Unwrap() []error {
	if e.timeout {
		return []error{ErrTimeout, e.Err}
	}
	return []error{ErrTransport, e.Err}
}

// StatusError is returned by the listing operations for any non-200 answer.
// Body holds the raw response text for diagnosis.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d - %s", e.Code, e.Body)
}
