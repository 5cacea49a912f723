package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileLedger stores the ledger as a single indented JSON object.
type FileLedger struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// OpenFile opens a JSON ledger, creating "{}" when the file does not exist.
func OpenFile(path string, logger *slog.Logger) (*FileLedger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
			return nil, fmt.Errorf("create ledger: %w", err)
		}
	}
	return &FileLedger{path: path, logger: logger}, nil
}

// Path returns the ledger file path.
func (l *FileLedger) Path() string { return l.path }

// read loads the document. Missing, unreadable or malformed files yield an
// empty map.
func (l *FileLedger) read() map[string]json.RawMessage {
	doc := map[string]json.RawMessage{}
	data, err := os.ReadFile(l.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("ledger unreadable, treating as empty", "path", l.path, "error", err)
		}
		return doc
	}
	if err := json.Unmarshal(data, &doc); err != nil || doc == nil {
		l.logger.Warn("ledger malformed, treating as empty", "path", l.path, "error", err)
		return map[string]json.RawMessage{}
	}
	return doc
}

// Put sets key to the JSON encoding of value and rewrites the file.
// Other keys are preserved as-is.
func (l *FileLedger) Put(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("ledger put %s: %w", key, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	doc := l.read()
	doc[key] = raw
	if err := l.write(doc); err != nil {
		return fmt.Errorf("ledger put %s: %w", key, err)
	}
	l.logger.Debug("ledger updated", "key", key, "path", l.path)
	return nil
}

// write replaces the file through a temp file and rename.
func (l *FileLedger) write(doc map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".ledger-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Get returns the raw value stored at key.
func (l *FileLedger) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.read()[key]
	return v, ok, nil
}

// All returns a copy of the whole document.
func (l *FileLedger) All(ctx context.Context) (map[string]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read(), nil
}

// Close is a no-op.
func (l *FileLedger) Close() error { return nil }
