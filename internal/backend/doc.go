// Package backend is the HTTP client for the SAAM fiscal reporting API.
//
// Every request carries the fixed User-Agent signature and runs under its own timeout
// (180 seconds unless overridden). Keep-alives are disabled, so each request opens a
// fresh connection. Transport failures come back as *TransportError; a timeout is told
// apart from other failures with errors.Is(err, ErrTimeout). The client never logs or
// persists anything on behalf of its callers.
package backend
