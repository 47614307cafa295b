package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change settings stored in ~/.cassation/config.toml.

Keys use dot notation, for example store.driver or ingest.workers.
Run 'cassation settings keys' for the full list.`,
	Annotations: map[string]string{annotationServices: servicesSettings},
	RunE:        runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show current settings",
	Annotations: map[string]string{annotationServices: servicesSettings},
	RunE:        runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Change a setting",
	Long: `Validates and stores a single setting.

When the value is omitted it is read from stdin without echo, which keeps
credentials such as store.postgres_dsn out of the shell history.

Examples:
  cassation settings set store.driver postgres
  cassation settings set ingest.workers 8
  cassation settings set store.postgres_dsn`,
	Args:        cobra.RangeArgs(1, 2),
	Annotations: map[string]string{annotationServices: servicesSettings},
	RunE:        runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:         "keys",
	Short:       "List setting keys",
	Annotations: map[string]string{annotationServices: servicesSettings},
	RunE: func(cmd *cobra.Command, _ []string) error {
		if settingsService == nil {
			return errNotConfigured("settings")
		}
		for _, k := range settingsService.Keys() {
			cmd.Println(k)
		}
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	shown := *settings
	shown.Store.PostgresDSN = maskDSN(settings.Store.PostgresDSN)

	return render(cmd, shown, func(w io.Writer) error {
		fmt.Fprintln(w, "[Store]")
		fmt.Fprintf(w, "  Driver:\t%s\n", shown.Store.Driver.Description())
		fmt.Fprintf(w, "  Data dir:\t%s\n", shown.Store.DataDir)
		if shown.Store.PostgresDSN != "" {
			fmt.Fprintf(w, "  Postgres DSN:\t%s\n", shown.Store.PostgresDSN)
		} else {
			fmt.Fprintln(w, "  Postgres DSN:\t(from POSTGRES_* environment)")
		}
		fmt.Fprintln(w)

		fmt.Fprintln(w, "[Ingest]")
		fmt.Fprintf(w, "  Workers:\t%d\n", shown.Ingest.Workers)
		fmt.Fprintf(w, "  Max retries:\t%d\n", shown.Ingest.MaxRetries)
		fmt.Fprintf(w, "  Retry backoff:\t%dms\n", shown.Ingest.RetryBackoffMillis)
		if shown.Ingest.WritesPerSecond > 0 {
			fmt.Fprintf(w, "  Writes/second:\t%d\n", shown.Ingest.WritesPerSecond)
		} else {
			fmt.Fprintln(w, "  Writes/second:\tunlimited")
		}
		fmt.Fprintf(w, "  Dedup cache:\t%d\n", shown.Ingest.DedupCacheSize)
		fmt.Fprintf(w, "  Max entry bytes:\t%d\n", shown.Ingest.MaxEntryBytes)
		fmt.Fprintln(w)

		fmt.Fprintln(w, "[Query]")
		fmt.Fprintf(w, "  Default limit:\t%d\n", shown.Query.DefaultLimit)
		fmt.Fprintf(w, "  Max limit:\t%d\n", shown.Query.MaxLimit)
		fmt.Fprintln(w)

		fmt.Fprintln(w, "[Server]")
		_, err := fmt.Fprintf(w, "  Address:\t%s\n", shown.Server.Addr)
		return err
	})
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	key := args[0]
	var value string
	if len(args) == 2 {
		value = args[1]
	} else {
		cmd.Printf("Value for %s: ", key)
		value = readSecret(cmd.InOrStdin())
		cmd.Println()
		if value == "" {
			return errors.New("no value given")
		}
	}

	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	shown := value
	if key == "store.postgres_dsn" {
		shown = maskDSN(value)
	}
	cmd.Printf("%s = %s\n", key, shown)
	return nil
}

// readSecret reads one line from in, without echo when in is a terminal.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readSecret(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	line, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(line)
}

var dsnPassword = regexp.MustCompile(`(password=)\S+`)

// maskDSN hides the password in a URL or key=value connection string.
func maskDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		return u.Redacted()
	}
	return dsnPassword.ReplaceAllString(dsn, "${1}xxxxx")
}
