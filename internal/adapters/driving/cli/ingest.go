package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/cassation/internal/adapters/driven/archive"
	"github.com/custodia-labs/cassation/internal/core/domain"
	"github.com/custodia-labs/cassation/internal/core/ports/driven"
	"github.com/custodia-labs/cassation/internal/core/ports/driving"
)

// stdinArchive is the path argument that reads a tarball from stdin.
const stdinArchive = "-"

var (
	ingestWorkers       int
	ingestSkipProcessed bool
	ingestNoProgress    bool
	ingestMaxEntryBytes int64
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <archive>...",
	Short: "Ingest decision archives",
	Long: `Ingests DILA archives (.tar.gz, .tgz or an extracted directory) into the
store. Nested tarballs are unpacked in place; every XML document is parsed,
normalised and upserted by text_id.

Re-ingesting an archive leaves the store unchanged. When two archives carry
different versions of the same decision, the one from the later archive
wins regardless of ingestion order. An archive is dated by the timestamp in
its name (CASS_20240101-120000.tar.gz), otherwise by the modification time
of the file or directory, and a stream read from stdin by the time it is
read. Versions that lose are counted as superseded.

Use "-" to read a gzip-compressed tarball from stdin.

Examples:
  cassation ingest CASS_20240101-120000.tar.gz
  cassation ingest --workers 8 --skip-processed dumps/*.tar.gz
  curl -s https://echanges.dila.gouv.fr/OPENDATA/CASS/Freemium_cass_global.tar.gz | cassation ingest -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().IntVarP(&ingestWorkers, "workers", "w", 0, "number of parallel workers (0 = configured default)")
	ingestCmd.Flags().BoolVar(&ingestSkipProcessed, "skip-processed", false, "skip archives already fully ingested")
	ingestCmd.Flags().BoolVar(&ingestNoProgress, "no-progress", false, "disable the progress line")
	ingestCmd.Flags().Int64Var(&ingestMaxEntryBytes, "max-entry-bytes", 0, "largest archive entry read into memory (0 = configured default)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var openOpts []archive.Option
	if n := maxEntryBytes(); n > 0 {
		openOpts = append(openOpts, archive.WithMaxEntryBytes(n))
	}

	summaries := make([]*domain.IngestSummary, 0, len(args))
	var runErr error
	for _, p := range args {
		src, err := openArchive(cmd, p, openOpts)
		if err != nil {
			runErr = err
			break
		}

		opts := driving.IngestOptions{
			Workers:       ingestWorkers,
			SkipProcessed: ingestSkipProcessed,
		}
		progress := newProgressLine(cmd.ErrOrStderr(), !ingestNoProgress && isTerminal(cmd.ErrOrStderr()))
		opts.Progress = progress.update

		summary, err := ingestService.Ingest(ctx, src, opts)
		progress.done()
		closeErr := src.Close()
		if summary != nil {
			summaries = append(summaries, summary)
		}
		if err != nil {
			runErr = fmt.Errorf("ingesting %s: %w", p, err)
			break
		}
		if closeErr != nil {
			runErr = fmt.Errorf("closing %s: %w", p, closeErr)
			break
		}
	}

	if err := render(cmd, summaries, func(w io.Writer) error {
		return writeSummaryTable(w, summaries)
	}); err != nil {
		return err
	}
	return runErr
}

func openArchive(cmd *cobra.Command, p string, opts []archive.Option) (driven.ArchiveSource, error) {
	if p == stdinArchive {
		return archive.NewTarGz("stdin", cmd.InOrStdin(), opts...)
	}
	return archive.Open(p, opts...)
}

// maxEntryBytes resolves the flag against the configured setting.
func maxEntryBytes() int64 {
	if ingestMaxEntryBytes > 0 {
		return ingestMaxEntryBytes
	}
	if settingsService == nil {
		return 0
	}
	s, err := settingsService.Get()
	if err != nil {
		return 0
	}
	return int64(s.Ingest.MaxEntryBytes)
}

func writeSummaryTable(w io.Writer, summaries []*domain.IngestSummary) error {
	if len(summaries) == 0 {
		_, err := fmt.Fprintln(w, "No archives ingested.")
		return err
	}
	fmt.Fprintln(w, "ARCHIVE\tDISCOVERED\tPARSED\tINSERTED\tUPDATED\tDUPLICATE\tSUPERSEDED\tREJECTED\tFAILED\tDURATION\tSTATUS")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
			s.Archive, s.Discovered, s.Parsed, s.Inserted, s.Updated, s.Duplicate, s.Superseded,
			s.Rejected, s.Failed, s.Duration().Round(time.Millisecond), summaryStatus(s))
	}
	for _, s := range summaries {
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  %s: %s %s %s\n", s.Archive, e.Kind, orDash(firstNonEmpty(e.TextID, e.Path)), e.Message)
		}
	}
	return nil
}

func summaryStatus(s *domain.IngestSummary) string {
	switch {
	case s.Skipped:
		return "skipped"
	case s.Interrupted:
		return "interrupted"
	case s.Failed > 0:
		return "partial"
	default:
		return "ok"
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// progressLine rewrites a single status line on a terminal.
type progressLine struct {
	w       io.Writer
	enabled bool
	printed bool
}

func newProgressLine(w io.Writer, enabled bool) *progressLine {
	return &progressLine{w: w, enabled: enabled}
}

func (p *progressLine) update(s domain.IngestSummary) {
	if !p.enabled {
		return
	}
	p.printed = true
	fmt.Fprintf(p.w, "\r%s: %d documents, %d stored, %d rejected, %d failed",
		s.Archive, s.Discovered, s.Stored(), s.Rejected, s.Failed)
}

func (p *progressLine) done() {
	if p.printed {
		fmt.Fprintln(p.w)
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
