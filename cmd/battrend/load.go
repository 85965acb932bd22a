package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/battrend/internal/adapters/ingest"
	service "github.com/okian/battrend/internal/app"
	"github.com/okian/battrend/pkg/logger"
)

func newLoadCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>...",
		Short: "Validate season records and upsert them into the store",
		Long: `Read season records from JSON, YAML or CSV files, validate every record and
upsert them keyed by player, season and team, so loading a file twice is
harmless. A file with an invalid record is rejected as a whole.

Use --store badger --store-path DIR to keep the records between runs.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := g.open(ctx)
			if err != nil {
				return err
			}
			defer closeService(ctx, svc)

			n, err := loadFiles(ctx, svc, args)
			if err != nil {
				return err
			}
			seasons, err := svc.Seasons(ctx)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "loaded %d records from %d files; seasons stored: %v\n", n, len(args), seasons)
			return err
		},
	}
}

// loadFiles reads each file and writes its records. It returns the number of
// records written.
func loadFiles(ctx context.Context, svc *service.Service, paths []string) (int, error) {
	var total int
	for _, path := range paths {
		records, err := ingest.ReadFile(path)
		if err != nil {
			return total, err
		}
		if err := svc.Load(ctx, records); err != nil {
			return total, fmt.Errorf("%s: %w", path, err)
		}
		total += len(records)
		logger.Get().Info(ctx, "records loaded", logger.String("file", path), logger.Int("records", len(records)))
	}
	return total, nil
}
