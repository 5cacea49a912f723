package store

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenFile_CreatesEmptyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "memory.json")

	l, err := OpenFile(path, nil)
	require.NoError(t, err)
	defer l.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestFileLedger_LastWriteWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	l, err := OpenFile(path, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, l.Put(ctx, "score:AAA", map[string]any{"ts": 1, "score": 0.73}))
	require.NoError(t, l.Put(ctx, "score:AAA", map[string]any{"ts": 2, "score": 0.91}))

	raw, ok, err := l.Get(ctx, "score:AAA")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"ts":2,"score":0.91}`, string(raw))

	all, err := l.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFileLedger_PreservesUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"notes":{"owner":"ops","tags":[1,2]}}`), 0o644))

	l, err := OpenFile(path, nil)
	require.NoError(t, err)
	require.NoError(t, l.Put(context.Background(), "score:AAA", 0.8))

	var doc map[string]any
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, map[string]any{"owner": "ops", "tags": []any{1.0, 2.0}}, doc["notes"])
	assert.Equal(t, 0.8, doc["score:AAA"])
}

func TestFileLedger_MalformedDegradesToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"broken`), 0o644))

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	l, err := OpenFile(path, logger)
	require.NoError(t, err)

	all, err := l.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Contains(t, buf.String(), "ledger malformed")

	require.NoError(t, l.Put(context.Background(), "score:AAA", 0.5))
	raw, ok, err := l.Get(context.Background(), "score:AAA")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "0.5", string(raw))
}

func TestFileLedger_ConcurrentPutsKeepEveryKey(t *testing.T) {
	l, err := OpenFile(filepath.Join(t.TempDir(), "memory.json"), nil)
	require.NoError(t, err)
	ctx := context.Background()

	var wg sync.WaitGroup
	keys := []string{"score:A", "score:B", "score:C", "score:D", "score:E"}
	for i, key := range keys {
		wg.Add(1)
		go func(key string, v int) {
			defer wg.Done()
			assert.NoError(t, l.Put(ctx, key, v))
		}(key, i)
	}
	wg.Wait()

	all, err := l.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(keys))
}

func TestFileLedger_UnencodableValue(t *testing.T) {
	l, err := OpenFile(filepath.Join(t.TempDir(), "memory.json"), nil)
	require.NoError(t, err)

	err = l.Put(context.Background(), "bad", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger put bad")
}
