package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
)

// Ledger is a durable key → JSON value map. Put overwrites.
type Ledger interface {
	Put(ctx context.Context, key string, value any) error
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
	All(ctx context.Context) (map[string]json.RawMessage, error)
	Close() error
}

var sqliteExtensions = map[string]bool{
	".db":      true,
	".sqlite":  true,
	".sqlite3": true,
}

// IsSQLitePath reports whether Open would choose the SQLite backend.
func IsSQLitePath(path string) bool {
	return sqliteExtensions[strings.ToLower(filepath.Ext(path))]
}

// Open returns the ledger backend matching path's extension.
func Open(path string, logger *slog.Logger) (Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if IsSQLitePath(path) {
		return OpenSQLite(path, logger)
	}
	return OpenFile(path, logger)
}
