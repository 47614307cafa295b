package domain

import "runtime"

const unknownDescription = "Unknown"

// StoreDriver selects the decision store backend.
type StoreDriver string

// Available store drivers.
const (
	// StoreDriverSQLite is an embedded SQLite file with an FTS5 index.
	StoreDriverSQLite StoreDriver = "sqlite"

	// StoreDriverPostgres is a PostgreSQL server with a tsvector index.
	StoreDriverPostgres StoreDriver = "postgres"
)

// IsValid returns true if the store driver is recognised.
func (d StoreDriver) IsValid() bool {
	switch d {
	case StoreDriverSQLite, StoreDriverPostgres:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (d StoreDriver) String() string {
	return string(d)
}

// Description returns a human-readable description of the driver.
func (d StoreDriver) Description() string {
	switch d {
	case StoreDriverSQLite:
		return "SQLite (embedded, FTS5 ranking)"
	case StoreDriverPostgres:
		return "PostgreSQL (tsvector ranking)"
	default:
		return unknownDescription
	}
}

// StoreSettings configures the decision store.
type StoreSettings struct {
	// Driver selects the backend.
	Driver StoreDriver

	// DataDir is where the SQLite database lives.
	DataDir string

	// PostgresDSN is the connection string for the postgres driver.
	PostgresDSN string
}

// IngestSettings configures ingestion runs.
type IngestSettings struct {
	// Workers is the number of parallel bucket workers.
	Workers int

	// MaxRetries bounds retries of transient store write failures.
	MaxRetries int

	// RetryBackoffMillis is the first retry delay; it doubles per attempt.
	RetryBackoffMillis int

	// WritesPerSecond paces store writes. Zero means unlimited.
	WritesPerSecond int

	// DedupCacheSize is the per-run LRU of already written versions.
	DedupCacheSize int

	// MaxEntryBytes bounds a single archive entry.
	MaxEntryBytes int
}

// QuerySettings configures the query engine.
type QuerySettings struct {
	// DefaultLimit applies when a request has no limit.
	DefaultLimit int

	// MaxLimit caps any requested limit.
	MaxLimit int
}

// ServerSettings configures the HTTP query surface.
type ServerSettings struct {
	// Addr is the listen address.
	Addr string
}

// AppSettings holds all user-configurable settings.
type AppSettings struct {
	Store  StoreSettings
	Ingest IngestSettings
	Query  QuerySettings
	Server ServerSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// DataDir is resolved by the settings service; an empty PostgresDSN is
// built from the POSTGRES_* environment by the postgres adapter.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Store: StoreSettings{
			Driver: StoreDriverSQLite,
		},
		Ingest: IngestSettings{
			Workers:            runtime.GOMAXPROCS(0),
			MaxRetries:         3,
			RetryBackoffMillis: 200,
			WritesPerSecond:    0,
			DedupCacheSize:     4096,
			MaxEntryBytes:      64 << 20,
		},
		Query: QuerySettings{
			DefaultLimit: 50,
			MaxLimit:     500,
		},
		Server: ServerSettings{
			Addr: ":8000",
		},
	}
}

// AllStoreDrivers returns all available store drivers.
func AllStoreDrivers() []StoreDriver {
	return []StoreDriver{StoreDriverSQLite, StoreDriverPostgres}
}
