// Package baseline builds per-season league distributions for every rate metric
// and answers percentile questions against them.
package baseline

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/battrend/internal/domain/model"
	"github.com/okian/battrend/internal/domain/stats"
	"github.com/okian/battrend/internal/domain/tuning"
)

// Source supplies every record of one season. Implementations may return the
// same player more than once when they changed teams.
type Source interface {
	LeagueSeason(ctx context.Context, season int) ([]model.SeasonRecord, error)
}

// Summary is the distribution of one metric over qualifying players.
type Summary struct {
	Metric model.Metric `json:"metric" yaml:"metric"`
	Count  int          `json:"count" yaml:"count"`
	Mean   float64      `json:"mean" yaml:"mean"`
	StdDev float64      `json:"std_dev" yaml:"std_dev"`
	P1     float64      `json:"p1" yaml:"p1"`
	P10    float64      `json:"p10" yaml:"p10"`
	P25    float64      `json:"p25" yaml:"p25"`
	P50    float64      `json:"p50" yaml:"p50"`
	P75    float64      `json:"p75" yaml:"p75"`
	P90    float64      `json:"p90" yaml:"p90"`
	P99    float64      `json:"p99" yaml:"p99"`

	// YoYStdDev is the spread of season-over-season changes among the
	// YoYCount players who also qualified the season before.
	YoYCount  int     `json:"yoy_count" yaml:"yoy_count"`
	YoYStdDev float64 `json:"yoy_std_dev" yaml:"yoy_std_dev"`
}

// LeagueBaseline is the league context for one evaluated season.
type LeagueBaseline struct {
	// Season is the season that was asked for.
	Season int `json:"season" yaml:"season"`
	// SourceSeason is the season the numbers come from. It differs from
	// Season only when Estimated is set.
	SourceSeason int  `json:"source_season" yaml:"source_season"`
	Estimated    bool `json:"estimated" yaml:"estimated"`
	Qualifying   int  `json:"qualifying" yaml:"qualifying"`
	// PlateAppearances describes playing-time share among qualifiers.
	PlateAppearances Summary   `json:"plate_appearances" yaml:"plate_appearances"`
	Metrics          []Summary `json:"metrics" yaml:"metrics"`

	sorted     map[model.Metric][]float64
	qualifying []model.SeasonRecord
}

// Compute builds the baseline of one season from its raw records. Traded
// players are merged so each counts once; only lines with at least
// cfg.MinQualifyingPA contribute.
func Compute(season int, records []model.SeasonRecord, cfg tuning.Baseline) (*LeagueBaseline, error) {
	lines, err := model.PlayerLines(records)
	if err != nil {
		return nil, fmt.Errorf("league season %d: %w", season, err)
	}

	qualifying := make([]model.SeasonRecord, 0, len(lines))
	for i := range lines {
		if lines[i].Season == season && lines[i].PA >= cfg.MinQualifyingPA {
			qualifying = append(qualifying, lines[i])
		}
	}

	b := &LeagueBaseline{
		Season:       season,
		SourceSeason: season,
		Qualifying:   len(qualifying),
		Metrics:      make([]Summary, 0, len(model.RateMetrics)),
		sorted:       make(map[model.Metric][]float64, len(model.RateMetrics)),
		qualifying:   qualifying,
	}

	pa := make([]float64, len(qualifying))
	for i := range qualifying {
		pa[i] = float64(qualifying[i].PA)
	}
	b.PlateAppearances, _ = summarize("pa", pa)

	for _, m := range model.RateMetrics {
		values := make([]float64, len(qualifying))
		for i := range qualifying {
			values[i] = qualifying[i].Value(m)
		}
		s, sorted := summarize(m, values)
		b.Metrics = append(b.Metrics, s)
		b.sorted[m] = sorted
	}
	return b, nil
}

// Resolve returns the baseline for season. When the season is short of
// cfg.MinSample qualifiers the nearest earlier season that meets it, searching
// back at most cfg.Lookback seasons, is substituted and marked Estimated.
func Resolve(ctx context.Context, src Source, season int, cfg tuning.Baseline) (*LeagueBaseline, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	notFound := &InsufficientLeagueDataError{Season: season, Lookback: cfg.Lookback, BestSeason: season, MinSample: cfg.MinSample}

	for back := 0; back <= cfg.Lookback; back++ {
		candidate := season - back
		records, err := src.LeagueSeason(ctx, candidate)
		if err != nil {
			return nil, fmt.Errorf("read league season %d: %w", candidate, err)
		}
		b, err := Compute(candidate, records, cfg)
		if err != nil {
			return nil, err
		}
		if b.Qualifying >= cfg.MinSample {
			if back > 0 {
				b.Season = season
				b.Estimated = true
			}
			prior, err := src.LeagueSeason(ctx, candidate-1)
			if err != nil {
				return nil, fmt.Errorf("read league season %d: %w", candidate-1, err)
			}
			if err := b.YearOverYear(prior, cfg); err != nil {
				return nil, err
			}
			return b, nil
		}
		if b.Qualifying > notFound.Best {
			notFound.Best = b.Qualifying
			notFound.BestSeason = candidate
		}
	}
	return nil, notFound
}

// YearOverYear fills the YoY fields of every summary from the season before
// SourceSeason. Players must qualify in both seasons; traded lines are merged.
func (b *LeagueBaseline) YearOverYear(prior []model.SeasonRecord, cfg tuning.Baseline) error {
	lines, err := model.PlayerLines(prior)
	if err != nil {
		return fmt.Errorf("league season %d: %w", b.SourceSeason-1, err)
	}
	before := make(map[string]model.SeasonRecord, len(lines))
	for _, l := range lines {
		if l.Season == b.SourceSeason-1 && l.PA >= cfg.MinQualifyingPA {
			before[l.PlayerID] = l
		}
	}
	for i := range b.Metrics {
		m := b.Metrics[i].Metric
		var deltas []float64
		for _, cur := range b.qualifying {
			if prev, ok := before[cur.PlayerID]; ok {
				deltas = append(deltas, cur.Value(m)-prev.Value(m))
			}
		}
		b.Metrics[i].YoYCount = len(deltas)
		b.Metrics[i].YoYStdDev = stats.SampleStdDev(deltas)
	}
	return nil
}

// Summary returns the distribution for m.
func (b *LeagueBaseline) Summary(m model.Metric) (Summary, bool) {
	for _, s := range b.Metrics {
		if s.Metric == m {
			return s, true
		}
	}
	return Summary{}, false
}

// Percentile returns the p-th empirical percentile of m (linear interpolation).
func (b *LeagueBaseline) Percentile(m model.Metric, p float64) (float64, bool) {
	sorted := b.sorted[m]
	if len(sorted) == 0 {
		return 0, false
	}
	return stats.Percentile(sorted, p), true
}

// PercentileRank returns the share of qualifying players strictly below v, in [0,100].
func (b *LeagueBaseline) PercentileRank(m model.Metric, v float64) (float64, bool) {
	sorted := b.sorted[m]
	if len(sorted) == 0 {
		return 0, false
	}
	below := sort.SearchFloat64s(sorted, v)
	return float64(below) / float64(len(sorted)) * 100, true
}

// Tier words for a percentile rank.
const (
	TierElite        = "Elite"
	TierAboveAverage = "Above Average"
	TierAverage      = "Average"
	TierBelowAverage = "Below Average"
	TierPoor         = "Poor"
)

// RankTier names the band a percentile rank falls in.
func RankTier(rank float64) string {
	switch {
	case rank >= 90:
		return TierElite
	case rank >= 75:
		return TierAboveAverage
	case rank >= 50:
		return TierAverage
	case rank >= 25:
		return TierBelowAverage
	default:
		return TierPoor
	}
}

func summarize(m model.Metric, values []float64) (Summary, []float64) {
	sorted := stats.Sorted(values)
	s := Summary{Metric: m, Count: len(sorted)}
	if len(sorted) == 0 {
		return s, sorted
	}
	s.Mean = stats.Mean(sorted)
	s.StdDev = stats.SampleStdDev(sorted)
	s.P1 = stats.Percentile(sorted, 1)
	s.P10 = stats.Percentile(sorted, 10)
	s.P25 = stats.Percentile(sorted, 25)
	s.P50 = stats.Percentile(sorted, 50)
	s.P75 = stats.Percentile(sorted, 75)
	s.P90 = stats.Percentile(sorted, 90)
	s.P99 = stats.Percentile(sorted, 99)
	return s, sorted
}
