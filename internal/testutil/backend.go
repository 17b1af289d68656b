package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/saam-fiscal/rotina178/internal/backend"
	"github.com/saam-fiscal/rotina178/internal/config"
)

// Route is the canned answer of the fake backend for one method and path.
type Route struct {
	Status int
	Body   string
	// Delay holds the answer back; the request context still cancels it.
	Delay time.Duration
}

// RecordedRequest is one request received by the fake backend.
type RecordedRequest struct {
	Method    string
	Path      string
	UserAgent string
	Body      []byte
}

// FakeBackend is an httptest server standing in for the reporting API.
// Unknown routes answer 404.
type FakeBackend struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string]Route
	requests []RecordedRequest
}

// NewFakeBackend starts a fake backend closed at the end of the test.
func NewFakeBackend(tb testing.TB) *FakeBackend {
	tb.Helper()
	f := &FakeBackend{routes: make(map[string]Route)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	tb.Cleanup(f.Close)
	return f
}

// Handle sets the answer for method and path.
func (f *FakeBackend) Handle(method, path string, route Route) {
	if route.Status == 0 {
		route.Status = http.StatusOK
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = route
}

// JSON answers 200 with body for method and path.
func (f *FakeBackend) JSON(method, path, body string) {
	f.Handle(method, path, Route{Body: body})
}

// Requests returns a copy of the requests received so far.
func (f *FakeBackend) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// Client returns a backend client pointed at the fake with the given request timeout
// (0 selects the default).
func (f *FakeBackend) Client(timeout time.Duration) *backend.Client {
	return backend.NewClient(config.BackendConfig{BaseURL: f.URL, Timeout: timeout})
}

func (f *FakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, RecordedRequest{
		Method:    r.Method,
		Path:      r.URL.Path,
		UserAgent: r.UserAgent(),
		Body:      body,
	})
	route, ok := f.routes[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	if route.Delay > 0 {
		select {
		case <-time.After(route.Delay):
		case <-r.Context().Done():
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(route.Status)
	_, _ = io.WriteString(w, route.Body)
}
