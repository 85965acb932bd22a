package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/battrend/internal/adapters/mq/worker"
	"github.com/okian/battrend/internal/adapters/render"
)

func newBatchCmd(g *globals) *cobra.Command {
	out := &outputFlags{}
	var players []string
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Evaluate every player of a season",
		Long: `Evaluate every player with a record in the season, or only the players named
with --player, using the configured number of concurrent workers. Players
that cannot be evaluated are listed as failures; the scan itself only fails
when the league baseline cannot be built.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			r, f, err := out.renderer()
			if err != nil {
				return err
			}
			svc, err := g.open(ctx)
			if err != nil {
				return err
			}
			defer closeService(ctx, svc)

			res, err := svc.Evaluate(ctx, out.season, players)
			if err != nil {
				return err
			}
			if f != render.FormatText {
				return render.Structured(cmd.OutOrStdout(), f, res)
			}
			return writeScan(cmd.OutOrStdout(), r, res)
		},
	}
	out.register(cmd)
	cmd.Flags().StringSliceVarP(&players, "player", "p", nil, "limit the scan to these player ids")
	return cmd
}

func writeScan(w io.Writer, r *render.Renderer, res worker.Results) error {
	if _, err := io.WriteString(w, r.ScanText(res.Season, res.Reports)); err != nil {
		return err
	}
	for _, f := range res.Failures {
		if _, err := fmt.Fprintf(w, "failed: %s (%s): %v\n", f.PlayerID, f.Reason, f.Err); err != nil {
			return err
		}
	}
	return nil
}
