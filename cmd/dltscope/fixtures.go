package main

import (
	"fmt"
	"time"

	"github.com/okian/dltscope/internal/testpages"
	"github.com/spf13/cobra"
)

func newFixturesCmd(_ *state) *cobra.Command {
	cfg := testpages.Config{}
	var newest string
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Write synthetic listing pages, a ranking snapshot and expert detail pages.",
		Long: "Writes pages/page-NNN.html, ranking.json and experts/<id>.html into --dir. " +
			"Point draw_snapshot_glob and ranking_snapshot at them to run every command offline.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			first, err := time.ParseInLocation("2006-01-02", newest, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --newest-date: %w", err)
			}
			cfg.FirstDate = first
			if err := testpages.WriteSnapshots(cmd.Context(), cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fixtures written to %s\n", cfg.Dir)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.Dir, "dir", "data", "output directory")
	f.IntVar(&cfg.Pages, "pages", 5, "listing pages")
	f.IntVar(&cfg.RowsPerPage, "rows", 25, "valid rows per page")
	f.BoolVar(&cfg.Malformed, "malformed", true, "append one malformed row to every page")
	f.IntVar(&cfg.Experts, "experts", 30, "experts in the ranking")
	f.IntVar(&cfg.FirstPeriod, "newest-period", 25071, "period of the newest draw")
	f.StringVar(&newest, "newest-date", "2025-06-30", "date of the newest draw")
	f.Uint64Var(&cfg.Seed, "seed", 1, "random seed")
	return cmd
}
