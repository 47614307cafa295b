package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cassation/internal/adapters/driven/archive/archivetest"
	"github.com/custodia-labs/cassation/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/cassation/internal/core/services"
	"github.com/custodia-labs/cassation/internal/normalisers/juritext"
)

// setupTestServices wires real services over in-memory stores and
// restores the previous wiring when the test ends.
func setupTestServices(t *testing.T) *memory.DecisionStore {
	t.Helper()

	oldIngest, oldQuery, oldSettings := ingestService, queryService, settingsService
	oldBootstrap := bootstrap
	t.Cleanup(func() {
		ingestService, queryService, settingsService = oldIngest, oldQuery, oldSettings
		bootstrap = oldBootstrap
	})

	store := memory.NewDecisionStore()
	settings := services.NewSettingsService(memory.NewConfigStore())
	defaults := settings.GetDefaults()

	bootstrap = nil
	SetServices(&Services{
		Ingest: services.NewIngestCoordinator(store, store, juritext.Pipeline{}, services.IngestConfig{
			Workers:      2,
			MaxRetries:   1,
			RetryBackoff: time.Millisecond,
		}),
		Query:    services.NewQueryEngine(store, juritext.New(), defaults.Query),
		Settings: settings,
	})
	return store
}

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWithInput(t, nil, args...)
}

func executeWithInput(t *testing.T, in io.Reader, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(in)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag to its default between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// writeArchive writes a tarball with three decisions into a temp dir.
func writeArchive(t *testing.T, name string) string {
	t.Helper()

	data := archivetest.TarGz(t,
		archivetest.File("CASS/JURITEXT000001.xml",
			archivetest.JudicialXML("JURITEXT000001", "CHAMBRE_CIVILE_1", "Attendu que le bail commercial est résilié.")),
		archivetest.File("CASS/JURITEXT000002.xml",
			archivetest.JudicialXML("JURITEXT000002", "CHAMBRE_SOCIALE", "Le licenciement est sans cause réelle et sérieuse.")),
		archivetest.File("CASS/JURITEXT000003.xml",
			archivetest.JudicialXML("JURITEXT000003", "", "Arrêt sans formation, le bail est renouvelé.")),
	)
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}
