package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/battrend/internal/synth"
)

func newSynthCmd(_ *globals) *cobra.Command {
	cfg := synth.NewConfig()
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Generate a synthetic league and optionally drive a running service with it",
		Long: `Generate a seeded league of season records. Every 7th player's last season
carries a BABIP spike and every 11th a slump, with contact quality unchanged,
so a working engine should flag them as sells and buys.

With --output the league is written to a .json or .yaml file that "load" and
--data accept. With --url the records are posted to a running "serve" in
batches, and once they are stored the digest is fetched and checked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.BaseURL == "" && cfg.OutputFile == "" {
				return fmt.Errorf("nothing to do: set --output, --url or both")
			}
			stats, err := synth.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return writeSynthStats(cmd.OutOrStdout(), cfg, stats)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.BaseURL, "url", "", "base URL of a running service, e.g. http://localhost:9080")
	flags.StringVarP(&cfg.OutputFile, "output", "o", "", "write the league to this .json or .yaml file")
	flags.IntVar(&cfg.Players, "players", cfg.Players, "players in the league")
	flags.IntVar(&cfg.Seasons, "seasons", cfg.Seasons, "seasons per player")
	flags.IntVar(&cfg.LastSeason, "last-season", cfg.LastSeason, "most recent season generated")
	flags.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "generator seed")
	flags.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "records per POST /records")
	flags.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent submitters")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	flags.DurationVar(&cfg.IngestWait, "ingest-wait", cfg.IngestWait, "how long to wait for the service to store every record")
	return cmd
}

func writeSynthStats(w io.Writer, cfg synth.Config, s *synth.Stats) error {
	fmt.Fprintf(w, "generated %d records for %d players (%d lucky, %d unlucky)\n", s.Records, s.Players, s.Lucky, s.Unlucky)
	if cfg.OutputFile != "" {
		fmt.Fprintf(w, "written to %s\n", cfg.OutputFile)
	}
	if cfg.BaseURL == "" {
		return nil
	}
	fmt.Fprintf(w, "submitted %d/%d batches (%d duplicates, %d retries), %d records stored in %s\n",
		s.BatchesAccepted, s.Batches, s.BatchesDuplicate, s.BatchesRetried, s.Stored, s.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "digest for %d: %d evaluated, %d failures, %d alerts\n", s.Season, s.Evaluated, s.Failures, s.Alerts)

	cats := make([]string, 0, len(s.Counts))
	for c := range s.Counts {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for _, c := range cats {
		fmt.Fprintf(w, "  %-12s %d\n", c, s.Counts[c])
	}
	_, err := fmt.Fprintf(w, "lucky flagged as sells: %d/%d, unlucky flagged as buys: %d/%d\n",
		s.LuckyFlagged, s.Lucky, s.UnluckyFlagged, s.Unlucky)
	return err
}
