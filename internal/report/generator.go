package report

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/saam-fiscal/rotina178/internal/backend"
	"github.com/saam-fiscal/rotina178/internal/config"
)

const logPrefixLen = 500

// Fetcher issues one backend request. *backend.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, method, endpoint string, body any, timeout time.Duration) (*backend.Response, error)
}

// Summary describes a finished generation. Files is empty when the backend returned
// no records.
type Summary struct {
	Table string
	Files []string
	Total int
}

// Empty reports whether the backend returned no records.
func (s Summary) Empty() bool { return len(s.Files) == 0 }

// Generator fetches reports and persists them into a Store.
type Generator struct {
	fetcher  Fetcher
	store    *Store
	timeout  time.Duration
	logger   *slog.Logger
	observer func(Summary)
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithLogger sets the logger used for backend responses and saved files.
func WithLogger(logger *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithRequestTimeout overrides the per-request timeout (default 180s).
func WithRequestTimeout(d time.Duration) GeneratorOption {
	return func(g *Generator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithObserver registers fn to be called after every successful generation,
// including empty ones.
func WithObserver(fn func(Summary)) GeneratorOption {
	return func(g *Generator) { g.observer = fn }
}

// NewGenerator returns a Generator writing into store.
func NewGenerator(fetcher Fetcher, store *Store, opts ...GeneratorOption) *Generator {
	g := &Generator{
		fetcher: fetcher,
		store:   store,
		timeout: config.DefaultBackendTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Store returns the store the generator writes into.
func (g *Generator) Store() *Store { return g.store }

// Generate fetches req and writes its records as chunk files. Failures are returned
// as *Error; in that case no file of req's key was written. An empty record array is
// a successful Summary with no files.
func (g *Generator) Generate(ctx context.Context, req Request) (Summary, error) {
	summary := Summary{Table: req.Table}
	key := req.Key()
	logger := g.logger.With(slog.String("table", req.Table), slog.String("key", key))

	if err := g.store.Ensure(); err != nil {
		return summary, &Error{Kind: KindFileIO, Table: req.Table, Err: err}
	}

	resp, err := g.fetcher.Fetch(ctx, http.MethodPost, req.Endpoint(), req.Payload(), g.timeout)
	if err != nil {
		kind := KindFatalUnexpected
		switch {
		case errors.Is(err, backend.ErrTimeout):
			kind = KindTransportTimeout
		case errors.Is(err, backend.ErrTransport):
			kind = KindTransportFailure
		}
		logger.Error("Report request failed", slog.String("kind", kind.String()), slog.String("error", err.Error()))
		return summary, &Error{Kind: kind, Table: req.Table, Err: err}
	}

	logger.Info("Backend response", slog.Int("status", resp.StatusCode), slog.String("body", truncate(resp.Text(), logPrefixLen)))

	if resp.StatusCode != http.StatusOK {
		return summary, &Error{Kind: KindHTTPStatus, Table: req.Table, Status: resp.StatusCode, Body: resp.Text()}
	}

	records, err := decodeRecords(resp.Body)
	if err != nil {
		logger.Error("Unexpected report response", slog.String("error", err.Error()), slog.String("body", truncate(resp.Text(), 2*logPrefixLen)))
		return summary, &Error{Kind: KindMalformedResponse, Table: req.Table, Body: resp.Text(), Err: err}
	}
	summary.Total = len(records)
	if len(records) == 0 {
		logger.Info("Empty report")
		g.notify(summary)
		return summary, nil
	}

	chunks := Partition(records, g.store.Parts())
	names, err := g.store.Write(key, chunks)
	if err != nil {
		logger.Error("Failed to persist report", slog.String("error", err.Error()))
		return summary, &Error{Kind: KindFileIO, Table: req.Table, Err: err}
	}
	for i, name := range names {
		logger.Info("Chunk saved", slog.String("file", name), slog.Int("records", len(chunks[i])))
	}
	summary.Files = names
	logger.Info("Report finished", slog.Int("files", len(names)), slog.Int("records", summary.Total))
	g.notify(summary)
	return summary, nil
}

func (g *Generator) notify(s Summary) {
	if g.observer != nil {
		g.observer(s)
	}
}

// decodeRecords splits a JSON array into raw records, keeping number text and key
// order. Valid JSON of any other shape, null included, yields ErrNotArray.
func decodeRecords(body []byte) ([]json.RawMessage, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, ErrNotArray
		}
		return nil, err
	}
	if records == nil {
		return nil, ErrNotArray
	}
	return records, nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
