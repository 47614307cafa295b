package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cassation/internal/adapters/driving/rest"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve decisions over HTTP",
	Long: `Starts a read-only HTTP API over the store.

Endpoints:
  GET /health                   store status and decision count
  GET /decisions                list or search (chambre, search, limit, offset)
  GET /decisions/{text_id}      a single decision, 404 when absent

Examples:
  cassation serve
  cassation serve --addr 127.0.0.1:9000
  curl 'http://localhost:8000/decisions?chambre=CIV1&search=bail'`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if queryService == nil {
		return errNotConfigured("query")
	}

	addr := serveAddr
	if addr == "" && settingsService != nil {
		if s, err := settingsService.Get(); err == nil {
			addr = s.Server.Addr
		}
	}
	if addr == "" {
		addr = ":8000"
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "HTTP API listening on %s\n", addr)
	return rest.NewServer(queryService).Run(ctx, addr)
}
