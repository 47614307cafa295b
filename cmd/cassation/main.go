// Command cassation ingests and serves French Court of Cassation decisions.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/cassation/internal/adapters/driven/config/file"
	"github.com/custodia-labs/cassation/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/cassation/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/cassation/internal/adapters/driving/cli"
	"github.com/custodia-labs/cassation/internal/core/domain"
	"github.com/custodia-labs/cassation/internal/core/ports/driven"
	"github.com/custodia-labs/cassation/internal/core/services"
	"github.com/custodia-labs/cassation/internal/logger"
	"github.com/custodia-labs/cassation/internal/normalisers/juritext"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

// store is what both backends provide.
type store interface {
	driven.DecisionStore
	driven.ArchiveLedger
}

func main() {
	// A missing .env is the common case.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("loading .env: %v", err)
	}

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	err := cli.Execute(context.Background())
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// bootstrap wires the services for one command invocation.
func bootstrap(_ context.Context, opts cli.Options) (*cli.Services, func() error, error) {
	dir := opts.ConfigDir
	if dir == "" {
		d, err := file.DefaultDir()
		if err != nil {
			return nil, nil, err
		}
		dir = d
	}

	configStore, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)

	svc := &cli.Services{Settings: settingsService}
	if !opts.NeedStore {
		return svc, func() error { return nil }, nil
	}

	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("reading settings: %w", err)
	}

	st, err := openStore(settings.Store)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("store: %s", settings.Store.Driver.Description())

	normaliser := juritext.New()
	svc.Ingest = services.NewIngestCoordinator(st, st, juritext.Pipeline{},
		services.IngestConfigFromSettings(settings.Ingest))
	svc.Query = services.NewQueryEngine(st, normaliser, settings.Query)

	return svc, st.Close, nil
}

func openStore(s domain.StoreSettings) (store, error) {
	switch s.Driver {
	case domain.StoreDriverPostgres:
		dsn := s.PostgresDSN
		if dsn == "" {
			dsn = postgres.DSNFromEnv()
		}
		return postgres.NewStore(dsn)
	case domain.StoreDriverSQLite, "":
		return sqlite.NewStore(s.DataDir)
	default:
		return nil, fmt.Errorf("%w: store driver %q", domain.ErrInvalidInput, s.Driver)
	}
}
