// Package cli provides the cobra command tree for the cassation binary.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cassation/internal/core/ports/driving"
	"github.com/custodia-labs/cassation/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// annotationServices declares which services a command needs. Commands
// without it get every service.
const annotationServices = "cassation/services"

const (
	servicesNone     = "none"
	servicesSettings = "settings"
)

// Options are the global flags handed to the bootstrap function.
type Options struct {
	// ConfigDir overrides the configuration directory.
	ConfigDir string

	// NeedStore is false for commands that only read or write settings.
	NeedStore bool
}

// Services holds the driving ports the commands call.
type Services struct {
	Ingest   driving.IngestService
	Query    driving.QueryService
	Settings driving.SettingsService
}

// BootstrapFunc builds the services for one command invocation. The
// returned cleanup is called once the command finishes.
type BootstrapFunc func(ctx context.Context, opts Options) (*Services, func() error, error)

var (
	ingestService   driving.IngestService
	queryService    driving.QueryService
	settingsService driving.SettingsService

	bootstrap BootstrapFunc
	cleanup   func() error

	verbose      bool
	configDir    string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "cassation",
	Short: "Ingest and query French Court of Cassation decisions",
	Long: `cassation ingests DILA open-data archives of Court of Cassation
decisions into a local store and serves them through the command line,
an HTTP API, an MCP server and an interactive terminal UI.

Archives are processed concurrently and idempotently: ingesting the same
archive twice leaves the store unchanged.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(*cobra.Command, []string) error {
		return teardown()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.cassation)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", formatTable, "output format: table, json or yaml")
}

// SetBootstrap installs the function that wires services before a command runs.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetServices installs services directly, bypassing bootstrap.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	ingestService = s.Ingest
	queryService = s.Query
	settingsService = s.Settings
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if err := validateFormat(outputFormat); err != nil {
		return err
	}
	need := cmd.Annotations[annotationServices]
	if bootstrap == nil || need == servicesNone {
		return nil
	}

	opts := Options{
		ConfigDir: configDir,
		NeedStore: need != servicesSettings,
	}
	svc, done, err := bootstrap(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("initialising: %w", err)
	}
	SetServices(svc)
	cleanup = done
	return nil
}

func teardown() error {
	if cleanup == nil {
		return nil
	}
	err := cleanup()
	cleanup = nil
	return err
}

// errNotConfigured reports a command run without its service.
func errNotConfigured(name string) error {
	return errors.New(name + " service not configured")
}
