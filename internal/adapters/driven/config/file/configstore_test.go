package file

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
	assert.Empty(t, store.Keys())
}

func TestNewConfigStore_WithNestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}

func TestDefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot determine home directory")
	}

	dir, err := DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".cassation"), dir)
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("store.driver", "postgres"))
	require.NoError(t, store.Set("ingest.workers", 8))

	val, ok := store.Get("store.driver")
	assert.True(t, ok)
	assert.Equal(t, "postgres", val)
	assert.Equal(t, "postgres", store.GetString("store.driver"))
	assert.Equal(t, 8, store.GetInt("ingest.workers"))

	_, ok = store.Get("missing")
	assert.False(t, ok)
	assert.Empty(t, store.GetString("missing"))
	assert.Zero(t, store.GetInt("missing"))
}

func TestConfigStore_WrongTypes(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("a.string", "x"))
	require.NoError(t, store.Set("a.int", 3))

	assert.Zero(t, store.GetInt("a.string"))
	assert.Empty(t, store.GetString("a.int"))
}

func TestConfigStore_PersistenceAsTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("store.driver", "sqlite"))
	require.NoError(t, store.Set("store.data_dir", "/var/lib/cassation"))
	require.NoError(t, store.Set("query.max_limit", 200))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[store]")
	assert.Contains(t, string(raw), "[query]")

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", reloaded.GetString("store.driver"))
	assert.Equal(t, "/var/lib/cassation", reloaded.GetString("store.data_dir"))
	assert.Equal(t, 200, reloaded.GetInt("query.max_limit"))
	assert.Equal(t, []string{"query.max_limit", "store.data_dir", "store.driver"}, reloaded.Keys())
}

func TestConfigStore_LoadHandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := strings.Join([]string{
		"[ingest]",
		"workers = 4",
		"retry_backoff_ms = 500",
		"",
		"[server]",
		`addr = "127.0.0.1:9000"`,
	}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, 4, store.GetInt("ingest.workers"))
	assert.Equal(t, 500, store.GetInt("ingest.retry_backoff_ms"))
	assert.Equal(t, "127.0.0.1:9000", store.GetString("server.addr"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("server.addr", ":8000"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), nil, 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, store.Keys())
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[[[ not toml"), 0600))

	_, err := NewConfigStore(tmpDir)
	assert.Error(t, err)
}

func TestConfigStore_SetFailureKeepsPreviousValue(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store.Set("server.addr", ":8000"))

	// Replace the file with a directory so the write fails.
	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, os.Mkdir(store.Path(), 0700))

	err = store.Set("server.addr", ":9000")
	assert.Error(t, err)
	assert.Equal(t, ":8000", store.GetString("server.addr"))

	err = store.Set("store.driver", "postgres")
	assert.Error(t, err)
	_, ok := store.Get("store.driver")
	assert.False(t, ok)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("ingest.workers", n)
			_ = store.GetInt("ingest.workers")
			_ = store.Keys()
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("ingest.workers")
	assert.True(t, ok)
}

func TestNestMap(t *testing.T) {
	flat := map[string]any{
		"store.driver":   "sqlite",
		"store.data_dir": "/data",
		"top":            1,
	}
	nested := nestMap(flat)

	assert.Equal(t, map[string]any{
		"store": map[string]any{"driver": "sqlite", "data_dir": "/data"},
		"top":   1,
	}, nested)
	assert.Equal(t, flat, flattenMap(nested, ""))
}

func TestNestMap_ValueAndTableCollision(t *testing.T) {
	flat := map[string]any{
		"a":   1,
		"a.b": 2,
	}
	nested := nestMap(flat)

	assert.Equal(t, 1, nested["a"])
	assert.Equal(t, 2, nested["a.b"])
}
