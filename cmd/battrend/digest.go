package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/battrend/internal/domain/report"
)

func newDigestCmd(g *globals) *cobra.Command {
	out := &outputFlags{}
	var date string
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Summarize a season's regression alerts",
		Long: `Scan a season and group the players with active signals into strong buy,
buy, strong sell, sell and mixed. Players without signals are left out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			r, f, err := out.renderer()
			if err != nil {
				return err
			}
			if date == "" {
				date = time.Now().Format(time.DateOnly)
			} else if _, err := time.Parse(time.DateOnly, date); err != nil {
				return fmt.Errorf("invalid --date %q: %w", date, err)
			}
			svc, err := g.open(ctx)
			if err != nil {
				return err
			}
			defer closeService(ctx, svc)

			res, err := svc.Evaluate(ctx, out.season, nil)
			if err != nil {
				return err
			}
			return r.Digest(cmd.OutOrStdout(), report.BuildDigest(res.Reports), res.Season, date, f)
		},
	}
	out.register(cmd)
	cmd.Flags().StringVar(&date, "date", "", "date printed on the digest, YYYY-MM-DD (default today)")
	return cmd
}
