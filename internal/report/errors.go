package report

import (
	"errors"
	"fmt"
)

// Kind classifies a failed generation.
type Kind int

const (
	// KindTransportTimeout: the backend did not answer in time.
	KindTransportTimeout Kind = iota + 1
	// KindTransportFailure: no HTTP response (connection refused, DNS, bad URL).
	KindTransportFailure
	// KindHTTPStatus: the backend answered with a status other than 200.
	KindHTTPStatus
	// KindMalformedResponse: the 200 body is not JSON, or not a JSON array.
	KindMalformedResponse
	// KindFileIO: the store could not be created or written.
	KindFileIO
	// KindFatalUnexpected: anything else.
	KindFatalUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindTransportTimeout:
		return "transport_timeout"
	case KindTransportFailure:
		return "transport_failure"
	case KindHTTPStatus:
		return "http_status"
	case KindMalformedResponse:
		return "malformed_response"
	case KindFileIO:
		return "file_io"
	case KindFatalUnexpected:
		return "fatal_unexpected"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	// ErrNotArray is wrapped by a KindMalformedResponse error when the body is valid
	// JSON of another shape.
	ErrNotArray = errors.New("response is not a JSON array")
	// ErrOffsetOutOfRange is returned by Extract for a negative offset or one past the
	// view length.
	ErrOffsetOutOfRange = errors.New("offset out of range")
)

// Error is returned by Generate. Status and Body are set for KindHTTPStatus; Body also
// carries the raw response for KindMalformedResponse.
type Error struct {
	Kind   Kind
	Table  string
	Status int
	Body   string
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("report %s: %s: %d - %s", e.Table, e.Kind, e.Status, e.Body)
	default:
		if e.Err == nil {
			return fmt.Sprintf("report %s: %s", e.Table, e.Kind)
		}
		return fmt.Sprintf("report %s: %s: %v", e.Table, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return 0
}
