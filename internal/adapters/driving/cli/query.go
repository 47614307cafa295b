package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cassation/internal/core/domain"
)

var (
	queryChambre string
	queryLimit   int
	queryOffset  int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored decisions",
	Long: `Lists stored decisions ordered by text_id.

Use --chambre to restrict to one chamber. The value may be a canonical
chamber (chambre_civile_1), an alias (CIV1, Chambre civile 1), or "empty"
to list decisions stored without a chamber.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runQuery(cmd, "")
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <terms>...",
	Short: "Search decision text",
	Long: `Ranks stored decisions by relevance to the given terms.
Terms are matched against the decision text regardless of accents and case.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, strings.Join(args, " "))
	},
}

var getCmd = &cobra.Command{
	Use:   "get <text_id>",
	Short: "Show a single decision",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	for _, c := range []*cobra.Command{listCmd, searchCmd} {
		c.Flags().StringVarP(&queryChambre, "chambre", "c", "", "restrict to a chamber (\"empty\" for none)")
		c.Flags().IntVarP(&queryLimit, "limit", "n", 0, "maximum number of results (0 = configured default)")
		c.Flags().IntVar(&queryOffset, "offset", 0, "number of results to skip")
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(getCmd)
}

func runQuery(cmd *cobra.Command, search string) error {
	if queryService == nil {
		return errNotConfigured("query")
	}

	q := domain.DecisionQuery{
		Search: search,
		Limit:  queryLimit,
		Offset: queryOffset,
	}
	if cmd.Flags().Changed("chambre") {
		c := queryChambre
		q.Chambre = &c
	}

	results, err := queryService.Query(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	return render(cmd, results, func(w io.Writer) error {
		if len(results) == 0 {
			_, err := fmt.Fprintln(w, "No decisions found.")
			return err
		}
		header := "TEXT_ID\tCHAMBRE\tDATE\tTITRE"
		if search != "" {
			header += "\tSCORE"
		}
		fmt.Fprintln(w, header)
		for i := range results {
			d := &results[i].Decision
			line := fmt.Sprintf("%s\t%s\t%s\t%s", d.TextID, orDash(d.Chambre), formatDate(d), truncate(d.Titre, 60))
			if search != "" {
				line += fmt.Sprintf("\t%.4f", results[i].Score)
			}
			fmt.Fprintln(w, line)
		}
		return nil
	})
}

func runGet(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errNotConfigured("query")
	}

	d, err := queryService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get %s: %w", args[0], err)
	}

	return render(cmd, d, func(w io.Writer) error {
		fmt.Fprintf(w, "Text ID:\t%s\n", d.TextID)
		fmt.Fprintf(w, "Chambre:\t%s\n", orDash(d.Chambre))
		fmt.Fprintf(w, "Date:\t%s\n", formatDate(d))
		if d.Titre != "" {
			fmt.Fprintf(w, "Titre:\t%s\n", d.Titre)
		}
		if d.Revision != "" {
			fmt.Fprintf(w, "Revision:\t%s\n", d.Revision)
		}
		_, err := fmt.Fprintf(w, "\n%s\n", d.Contenu)
		return err
	})
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatDate(d *domain.Decision) string {
	if d.DateDecision == nil {
		return "-"
	}
	return d.DateDecision.Format("2006-01-02")
}
