package report

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/saam-fiscal/rotina178/internal/config"
)

// Outcome tells whether an extraction found content.
type Outcome int

const (
	OutcomeOK Outcome = iota
	// OutcomeStoreNotFound: the store directory does not exist.
	OutcomeStoreNotFound
	// OutcomeNoFiles: the directory holds no file matching the store pattern.
	OutcomeNoFiles
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeStoreNotFound:
		return "store_not_found"
	case OutcomeNoFiles:
		return "no_files"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is one window of the concatenated view. Offset and End are character
// positions; Text holds the characters in [Offset, End).
type Result struct {
	Outcome Outcome
	Offset  int
	End     int
	Total   int
	Text    string
}

// Extractor serves offset/limit windows over the concatenated content of a Store.
// The view is rebuilt only when the directory signature or the store's write
// generation changes.
type Extractor struct {
	store        *Store
	defaultLimit int

	mu     sync.Mutex
	cached *view
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithDefaultLimit sets the window size used when Extract gets limit <= 0.
func WithDefaultLimit(n int) ExtractorOption {
	return func(e *Extractor) {
		if n > 0 {
			e.defaultLimit = n
		}
	}
}

// NewExtractor returns an Extractor over store.
func NewExtractor(store *Store, opts ...ExtractorOption) *Extractor {
	e := &Extractor{store: store, defaultLimit: config.DefaultLimit}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DefaultLimit is the window size applied when none is given.
func (e *Extractor) DefaultLimit() int { return e.defaultLimit }

// Extract returns the characters [offset, min(offset+limit, total)) of the view.
// limit <= 0 selects the default limit. A missing store or an empty one is reported
// through Result.Outcome. An offset past the end (or negative) returns
// ErrOffsetOutOfRange together with the view length in Result.Total.
func (e *Extractor) Extract(offset, limit int) (Result, error) {
	if limit <= 0 {
		limit = e.defaultLimit
	}

	names, err := e.store.List()
	if errors.Is(err, fs.ErrNotExist) {
		return Result{Outcome: OutcomeStoreNotFound}, nil
	}
	if err != nil {
		return Result{}, err
	}
	if len(names) == 0 {
		return Result{Outcome: OutcomeNoFiles}, nil
	}

	text := e.view(names)
	total := len(text)
	switch {
	case offset < 0:
		return Result{Offset: offset, Total: total}, fmt.Errorf("%w: negative offset %d", ErrOffsetOutOfRange, offset)
	case offset > total:
		return Result{Offset: offset, Total: total}, fmt.Errorf("%w: %d > %d", ErrOffsetOutOfRange, offset, total)
	}
	end := total
	if limit < total-offset {
		end = offset + limit
	}
	return Result{
		Outcome: OutcomeOK,
		Offset:  offset,
		End:     end,
		Total:   total,
		Text:    string(text[offset:end]),
	}, nil
}

func (e *Extractor) view(names []string) []rune {
	dir := e.store.Dir()
	gen := e.store.Generation()
	sig := signature(dir, names)

	e.mu.Lock()
	defer e.mu.Unlock()
	if c := e.cached; c != nil && c.signature == sig && c.generation == gen {
		return c.text
	}
	v := &view{signature: sig, generation: gen, text: buildView(dir, names)}
	e.cached = v
	return v.text
}
