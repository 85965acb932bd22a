package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/battrend/internal/adapters/ingest"
	"github.com/okian/battrend/internal/domain/model"
	"github.com/okian/battrend/internal/domain/report"
	"github.com/okian/battrend/pkg/logger"
)

const directoryPermission = 0o755

// Run generates a league and, when cfg.BaseURL is set, submits it to the
// service, waits until every record is stored and verifies the digest.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	log := logger.Get().Named("synth")
	stats := &Stats{StartTime: time.Now()}
	defer func() {
		stats.EndTime = time.Now()
		stats.Duration = stats.EndTime.Sub(stats.StartTime)
	}()

	league, err := Generate(cfg)
	if err != nil {
		return stats, err
	}
	stats.Players = cfg.Players
	stats.Records = len(league.Records)
	stats.Lucky = len(league.Lucky)
	stats.Unlucky = len(league.Unlucky)
	log.Info(ctx, "league generated",
		logger.Int("players", stats.Players),
		logger.Int("records", stats.Records),
		logger.Int("lucky", stats.Lucky),
		logger.Int("unlucky", stats.Unlucky))

	if cfg.OutputFile != "" {
		if err := WriteFile(cfg.OutputFile, league.Records); err != nil {
			return stats, err
		}
		log.Info(ctx, "league saved to file", logger.String("filename", cfg.OutputFile))
	}
	if cfg.BaseURL == "" {
		return stats, nil
	}

	c := newClient(cfg.BaseURL, cfg.Timeout)
	if err := c.health(ctx); err != nil {
		return stats, err
	}
	if err := c.submit(ctx, runKey(cfg), league.Records, cfg.BatchSize, cfg.Workers, stats); err != nil {
		return stats, err
	}
	stored, err := c.waitStored(ctx, stats.Records, cfg.IngestWait)
	stats.Stored = stored
	if err != nil {
		return stats, err
	}

	d, err := c.digest(ctx)
	if err != nil {
		return stats, err
	}
	if err := verify(league, d, stats); err != nil {
		return stats, err
	}
	log.Info(ctx, "verification completed",
		logger.Int("season", stats.Season),
		logger.Int("evaluated", stats.Evaluated),
		logger.Int("alerts", stats.Alerts),
		logger.Int("luckyFlagged", stats.LuckyFlagged),
		logger.Int("unluckyFlagged", stats.UnluckyFlagged))
	return stats, nil
}

// runKey names a run by what it generates, so resubmitting the same league
// to the same service is deduplicated batch by batch.
func runKey(cfg Config) string {
	return fmt.Sprintf("synth-%d-%d-%d-%d-%d", cfg.Seed, cfg.Players, cfg.Seasons, cfg.LastSeason, cfg.BatchSize)
}

// verify checks the digest covers the generated season and counts how many
// planted players landed on the side their swing predicts.
func verify(league *League, d *digestBody, stats *Stats) error {
	stats.Season = d.Season
	stats.Evaluated = d.Evaluated
	stats.Failures = d.Failures
	stats.Alerts = d.Players
	stats.Counts = d.Counts

	if d.Season != league.LastSeason {
		return fmt.Errorf("%w: digest season %d, generated through %d", ErrVerification, d.Season, league.LastSeason)
	}
	if d.Evaluated == 0 {
		return fmt.Errorf("%w: digest evaluated no players", ErrVerification)
	}

	flagged := func(cats ...report.Category) map[string]bool {
		out := make(map[string]bool)
		for _, c := range cats {
			for _, e := range d.Entries[string(c)] {
				out[e.PlayerID] = true
			}
		}
		return out
	}
	sells := flagged(report.CategoryStrongSell, report.CategorySell)
	buys := flagged(report.CategoryStrongBuy, report.CategoryBuy)
	for _, id := range league.Lucky {
		if sells[id] {
			stats.LuckyFlagged++
		}
	}
	for _, id := range league.Unlucky {
		if buys[id] {
			stats.UnluckyFlagged++
		}
	}
	return nil
}

// WriteFile writes records as a JSON or YAML document chosen by extension.
func WriteFile(path string, records []model.SeasonRecord) error {
	f, err := ingest.FormatOf(path)
	if err != nil {
		return err
	}
	var data []byte
	doc := map[string][]model.SeasonRecord{"records": records}
	switch f {
	case ingest.FormatJSON:
		data, err = json.MarshalIndent(doc, "", "  ")
	case ingest.FormatYAML:
		data, err = yaml.Marshal(doc)
	default:
		return fmt.Errorf("%w: cannot write %s", ingest.ErrUnknownFormat, f)
	}
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
