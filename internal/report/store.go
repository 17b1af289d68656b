package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/saam-fiscal/rotina178/internal/config"
)

const tempPattern = ".chunk-*.tmp"

// Store is the flat directory holding every persisted chunk.
// Writes bump an in-process generation counter that extractors use to invalidate
// cached views.
type Store struct {
	dir        string
	parts      int
	pattern    string
	generation atomic.Uint64
}

// NewStore builds a Store from the store section of the configuration.
// Zero values fall back to the package defaults.
func NewStore(cfg config.StoreConfig) *Store {
	s := &Store{dir: cfg.Dir, parts: cfg.Parts, pattern: cfg.Pattern}
	if s.dir == "" {
		s.dir = config.DefaultStoreDir()
	}
	if s.parts < 1 {
		s.parts = config.DefaultParts
	}
	if s.pattern == "" {
		s.pattern = config.DefaultPattern
	}
	return s
}

func (s *Store) Dir() string { return s.dir }

// Parts is the number of chunks a report is split into.
func (s *Store) Parts() int { return s.parts }

// Generation counts completed writes by this process.
func (s *Store) Generation() uint64 { return s.generation.Load() }

// Ensure creates the directory if needed. It is idempotent.
func (s *Store) Ensure() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create store %s: %w", s.dir, err)
	}
	return nil
}

// ChunkName returns the file name of chunk index (1-based) of key.
func ChunkName(key string, index int) string {
	return key + "_parte" + strconv.Itoa(index) + ".json"
}

// Write persists chunks as {key}_parte1.json .. {key}_parteN.json and returns the
// names in order. Every chunk is encoded to a temp file first, so an encoding or disk
// failure leaves the previous parts untouched. The temp files then replace their
// targets one rename at a time, and only after that are parts of the same key beyond
// N removed.
func (s *Store) Write(key string, chunks [][]json.RawMessage) ([]string, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}

	temps := make([]string, 0, len(chunks))
	cleanup := func() {
		for _, t := range temps {
			_ = os.Remove(t)
		}
	}
	for _, chunk := range chunks {
		data, err := encodeChunk(chunk)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("encode chunk: %w", err)
		}
		tmp, err := writeTemp(s.dir, data)
		if tmp != "" {
			temps = append(temps, tmp)
		}
		if err != nil {
			cleanup()
			return nil, err
		}
	}

	defer s.generation.Add(1)

	names := make([]string, 0, len(temps))
	for i, tmp := range temps {
		name := ChunkName(key, i+1)
		if err := os.Rename(tmp, filepath.Join(s.dir, name)); err != nil {
			temps = temps[i:]
			cleanup()
			return nil, fmt.Errorf("rename %s: %w", name, err)
		}
		names = append(names, name)
	}
	if err := s.purge(key, len(names)); err != nil {
		return nil, err
	}
	return names, nil
}

// purge removes the {key}_parte{n}.json files other than parts 1..keep, left behind by
// earlier generations that produced more parts.
func (s *Store) purge(key string, keep int) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read store: %w", err)
	}
	part := regexp.MustCompile(`^` + regexp.QuoteMeta(key) + `_parte([0-9]+)\.json$`)
	for _, e := range entries {
		m := part.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n <= keep && e.Name() == ChunkName(key, n) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove stale %s: %w", e.Name(), err)
		}
	}
	return nil
}

// List returns the names of the files matching the store pattern, sorted.
// A missing directory is reported as fs.ErrNotExist.
func (s *Store) List() ([]string, error) {
	info, err := os.Stat(s.dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", s.dir, fs.ErrNotExist)
	}
	names, err := doublestar.Glob(os.DirFS(s.dir), s.pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("list store: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// encodeChunk renders chunk as a two-space indented array with literal strings.
func encodeChunk(chunk []json.RawMessage) ([]byte, error) {
	records := make([]json.RawMessage, len(chunk))
	for i, rec := range chunk {
		lit, err := literalJSON(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records[i] = lit
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func writeTemp(dir string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return "", fmt.Errorf("create chunk: %w", err)
	}
	if err := f.Chmod(0o644); err != nil {
		_ = f.Close()
		return f.Name(), fmt.Errorf("chmod chunk: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return f.Name(), fmt.Errorf("write chunk: %w", err)
	}
	if err := f.Close(); err != nil {
		return f.Name(), fmt.Errorf("close chunk: %w", err)
	}
	return f.Name(), nil
}
