package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/battrend/internal/adapters/render"
)

// outputFlags are shared by the commands that print reports.
type outputFlags struct {
	season int
	format string
	color  bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&o.season, "season", "s", 0, "season to evaluate (default: latest stored)")
	cmd.Flags().StringVarP(&o.format, "format", "f", "text", "output format: text, json, yaml")
	cmd.Flags().BoolVar(&o.color, "color", false, "style text output for a terminal")
}

func (o *outputFlags) renderer() (*render.Renderer, render.Format, error) {
	f, err := render.ParseFormat(o.format)
	if err != nil {
		return nil, "", err
	}
	return render.New(render.WithColor(o.color)), f, nil
}

func newReportCmd(g *globals) *cobra.Command {
	out := &outputFlags{}
	cmd := &cobra.Command{
		Use:   "report <player-id>",
		Short: "Print the regression and projection report of one player",
		Long: `Assemble the report of one player-season: league percentiles, role, career
trend, regression signals with the net buy/sell call, and the next-season
projection. Without --season the player's latest stored season is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			rep, err := svc.Report(ctx, args[0], out.season)
			if err != nil {
				return err
			}
			return r.Report(cmd.OutOrStdout(), rep, f)
		},
	}
	out.register(cmd)
	return cmd
}
