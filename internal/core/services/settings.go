package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/cassation/internal/core/domain"
	"github.com/custodia-labs/cassation/internal/core/ports/driven"
	"github.com/custodia-labs/cassation/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyStoreDriver       = "store.driver"
	keyStoreDataDir      = "store.data_dir"
	keyStorePostgresDSN  = "store.postgres_dsn"
	keyIngestWorkers     = "ingest.workers"
	keyIngestMaxRetries  = "ingest.max_retries"
	keyIngestBackoff     = "ingest.retry_backoff_ms"
	keyIngestWriteRate   = "ingest.writes_per_second"
	keyIngestDedupCache  = "ingest.dedup_cache_size"
	keyIngestMaxEntry    = "ingest.max_entry_bytes"
	keyQueryDefaultLimit = "query.default_limit"
	keyQueryMaxLimit     = "query.max_limit"
	keyServerAddr        = "server.addr"
)

// settingKind tells Set how to parse a value.
type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindDriver
)

var settingKinds = map[string]settingKind{
	keyStoreDriver:       kindDriver,
	keyStoreDataDir:      kindString,
	keyStorePostgresDSN:  kindString,
	keyIngestWorkers:     kindInt,
	keyIngestMaxRetries:  kindInt,
	keyIngestBackoff:     kindInt,
	keyIngestWriteRate:   kindInt,
	keyIngestDedupCache:  kindInt,
	keyIngestMaxEntry:    kindInt,
	keyQueryDefaultLimit: kindInt,
	keyQueryMaxLimit:     kindInt,
	keyServerAddr:        kindString,
}

// DefaultDataDir returns ~/.cassation/data, or a relative path when the
// home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".cassation", "data")
	}
	return filepath.Join(home, ".cassation", "data")
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := s.GetDefaults()

	settings := &domain.AppSettings{
		Store: domain.StoreSettings{
			Driver:      s.getDriver(defaults.Store.Driver),
			DataDir:     s.getString(keyStoreDataDir, defaults.Store.DataDir),
			PostgresDSN: s.configStore.GetString(keyStorePostgresDSN),
		},
		Ingest: domain.IngestSettings{
			Workers:            s.getInt(keyIngestWorkers, defaults.Ingest.Workers),
			MaxRetries:         s.getInt(keyIngestMaxRetries, defaults.Ingest.MaxRetries),
			RetryBackoffMillis: s.getInt(keyIngestBackoff, defaults.Ingest.RetryBackoffMillis),
			WritesPerSecond:    s.getInt(keyIngestWriteRate, defaults.Ingest.WritesPerSecond),
			DedupCacheSize:     s.getInt(keyIngestDedupCache, defaults.Ingest.DedupCacheSize),
			MaxEntryBytes:      s.getInt(keyIngestMaxEntry, defaults.Ingest.MaxEntryBytes),
		},
		Query: domain.QuerySettings{
			DefaultLimit: s.getInt(keyQueryDefaultLimit, defaults.Query.DefaultLimit),
			MaxLimit:     s.getInt(keyQueryMaxLimit, defaults.Query.MaxLimit),
		},
		Server: domain.ServerSettings{
			Addr: s.getString(keyServerAddr, defaults.Server.Addr),
		},
	}

	if settings.Query.DefaultLimit > settings.Query.MaxLimit {
		return nil, fmt.Errorf("%w: %s (%d) exceeds %s (%d)", domain.ErrInvalidInput,
			keyQueryDefaultLimit, settings.Query.DefaultLimit, keyQueryMaxLimit, settings.Query.MaxLimit)
	}

	return settings, nil
}

// Set parses value for key and persists it.
func (s *SettingsService) Set(key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	value = strings.TrimSpace(value)

	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		if n < 0 {
			return fmt.Errorf("%w: %s must not be negative", domain.ErrInvalidInput, key)
		}
		return s.save(key, n)
	case kindDriver:
		driver := domain.StoreDriver(strings.ToLower(value))
		if !driver.IsValid() {
			return fmt.Errorf("%w: invalid store driver %q", domain.ErrInvalidInput, value)
		}
		return s.save(key, driver.String())
	default:
		return s.save(key, value)
	}
}

func (s *SettingsService) save(key string, value any) error {
	if err := s.configStore.Set(key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns every recognised setting key in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	defaults := domain.DefaultAppSettings()
	defaults.Store.DataDir = DefaultDataDir()
	return defaults
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getDriver(defaultVal domain.StoreDriver) domain.StoreDriver {
	val := s.configStore.GetString(keyStoreDriver)
	if val == "" {
		return defaultVal
	}
	driver := domain.StoreDriver(val)
	if !driver.IsValid() {
		return defaultVal
	}
	return driver
}
