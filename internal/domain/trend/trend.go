// Package trend summarises one player's season-by-season history: rolling
// averages, year-over-year movement, breakout and decline flags, aging bucket,
// career peak and the wRC+ trajectory.
package trend

import (
	"fmt"

	"github.com/okian/battrend/internal/domain/model"
	"github.com/okian/battrend/internal/domain/stats"
	"github.com/okian/battrend/internal/domain/tuning"
)

const eps = 1e-9

// Trajectory directions.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
	DirectionFlat = "flat"
)

// MetricTrend is the trend of one metric up to the current season.
type MetricTrend struct {
	Metric  model.Metric `json:"metric" yaml:"metric"`
	Current float64      `json:"current" yaml:"current"`
	// Rolling averages the last Window available seasons, current included.
	Rolling float64 `json:"rolling" yaml:"rolling"`
	// PriorRolling averages the Window available seasons before the current one.
	PriorRolling *float64 `json:"prior_rolling,omitempty" yaml:"prior_rolling,omitempty"`
	// YoY is current minus the previous available season; nil with a single season.
	YoY *float64 `json:"yoy,omitempty" yaml:"yoy,omitempty"`
	// Volatility is the sample deviation of every year-over-year change.
	Volatility float64 `json:"volatility" yaml:"volatility"`
	// PriorDeviation is the sample deviation of the prior season values.
	PriorDeviation float64 `json:"prior_deviation" yaml:"prior_deviation"`
	// Slope is the least-squares change per season over the rolling window.
	Slope float64 `json:"slope" yaml:"slope"`
	// Streak counts consecutive year-over-year moves in one direction ending at
	// the current season; positive for rises, negative for falls.
	Streak       int  `json:"streak" yaml:"streak"`
	PriorSeasons int  `json:"prior_seasons" yaml:"prior_seasons"`
	Breakout     bool `json:"breakout" yaml:"breakout"`
	Decline      bool `json:"decline" yaml:"decline"`
}

// Peak is the best wRC+ season among those with enough playing time.
type Peak struct {
	Season         int     `json:"season" yaml:"season"`
	WRCPlus        float64 `json:"wrc_plus" yaml:"wrc_plus"`
	AtPeak         bool    `json:"at_peak" yaml:"at_peak"`
	YearsSincePeak int     `json:"years_since_peak" yaml:"years_since_peak"`
}

// Trajectory is the direction of wRC+ over the rolling window.
type Trajectory struct {
	Slope     float64 `json:"slope" yaml:"slope"`
	Direction string  `json:"direction" yaml:"direction"`
}

// Summary is the trend view of a player at one season.
type Summary struct {
	PlayerID string `json:"player_id" yaml:"player_id"`
	Season   int    `json:"season" yaml:"season"`
	// Seasons lists every available season up to and including Season.
	Seasons   []int           `json:"seasons" yaml:"seasons"`
	Age       int             `json:"age,omitempty" yaml:"age,omitempty"`
	AgeBucket model.AgeBucket `json:"age_bucket" yaml:"age_bucket"`
	// Gaps counts calendar seasons missing inside the trailing window.
	Gaps       int           `json:"gaps" yaml:"gaps"`
	Metrics    []MetricTrend `json:"metrics" yaml:"metrics"`
	Peak       *Peak         `json:"peak,omitempty" yaml:"peak,omitempty"`
	Trajectory Trajectory    `json:"trajectory" yaml:"trajectory"`
}

// SeasonCount is the number of available seasons.
func (s *Summary) SeasonCount() int { return len(s.Seasons) }

// Metric returns the trend for m.
func (s *Summary) Metric(m model.Metric) (MetricTrend, bool) {
	for _, t := range s.Metrics {
		if t.Metric == m {
			return t, true
		}
	}
	return MetricTrend{}, false
}

// Track builds the trend summary of lines, which must be one merged line per
// season in ascending order. The last line is the current season.
func Track(lines []model.SeasonRecord, cfg tuning.Trend) (Summary, error) {
	if len(lines) == 0 {
		return Summary{}, ErrEmptyHistory
	}
	for i := 1; i < len(lines); i++ {
		if lines[i].Season <= lines[i-1].Season {
			return Summary{}, fmt.Errorf("%w: %d after %d", ErrUnorderedHistory, lines[i].Season, lines[i-1].Season)
		}
	}
	window := cfg.Window
	if window < 1 {
		window = 1
	}

	current := lines[len(lines)-1]
	s := Summary{
		PlayerID: current.PlayerID,
		Season:   current.Season,
		Seasons:  make([]int, len(lines)),
		Age:      current.Age,
		Metrics:  make([]MetricTrend, 0, len(model.ProjectedMetrics)),
	}
	for i := range lines {
		s.Seasons[i] = lines[i].Season
	}
	s.AgeBucket = Bucket(len(lines), current.Age, cfg)
	s.Gaps = gaps(s.Seasons, window)

	for _, m := range model.ProjectedMetrics {
		s.Metrics = append(s.Metrics, trackMetric(lines, m, window, cfg))
	}

	if wrc, ok := s.Metric(model.MetricWRCPlus); ok {
		s.Trajectory = Trajectory{Slope: wrc.Slope, Direction: DirectionFlat}
		switch {
		case wrc.Slope >= cfg.FlatSlope && wrc.Slope > eps:
			s.Trajectory.Direction = DirectionUp
		case wrc.Slope <= -cfg.FlatSlope && wrc.Slope < -eps:
			s.Trajectory.Direction = DirectionDown
		}
	}
	s.Peak = careerPeak(lines, cfg)
	return s, nil
}

func trackMetric(lines []model.SeasonRecord, m model.Metric, window int, cfg tuning.Trend) MetricTrend {
	values := make([]float64, len(lines))
	years := make([]float64, len(lines))
	for i := range lines {
		values[i] = lines[i].Value(m)
		years[i] = float64(lines[i].Season)
	}
	n := len(values)
	prior := values[:n-1]

	t := MetricTrend{
		Metric:         m,
		Current:        values[n-1],
		Rolling:        stats.Mean(tail(values, window)),
		PriorSeasons:   len(prior),
		PriorDeviation: stats.SampleStdDev(prior),
		Slope:          stats.Slope(tail(years, window), tail(values, window)),
	}
	if len(prior) > 0 {
		pr := stats.Mean(tail(prior, window))
		t.PriorRolling = &pr
		yoy := values[n-1] - values[n-2]
		t.YoY = &yoy
	}

	deltas := make([]float64, 0, n)
	for i := 1; i < n; i++ {
		deltas = append(deltas, values[i]-values[i-1])
	}
	t.Volatility = stats.SampleStdDev(deltas)
	t.Streak = streak(deltas)

	if t.PriorRolling != nil && len(prior) >= cfg.MinPriorSeasons {
		band := cfg.BreakoutMultiple * t.PriorDeviation
		diff := t.Current - *t.PriorRolling
		t.Breakout = diff > band && diff > eps
		t.Decline = -diff > band && -diff > eps
	}
	return t
}

// streak counts trailing same-sign deltas. Flat moves end a streak.
func streak(deltas []float64) int {
	if len(deltas) == 0 {
		return 0
	}
	dir := stats.Sign(deltas[len(deltas)-1], eps)
	if dir == 0 {
		return 0
	}
	run := 0
	for i := len(deltas) - 1; i >= 0; i-- {
		if stats.Sign(deltas[i], eps) != dir {
			break
		}
		run++
	}
	return run * dir
}

// Bucket places a season on the aging curve. A player with a single available
// season is a rookie; otherwise age decides, and an unknown age stays unknown.
func Bucket(seasons, age int, cfg tuning.Trend) model.AgeBucket {
	switch {
	case seasons <= 1:
		return model.AgeRookie
	case age <= 0:
		return model.AgeUnknown
	case age <= cfg.AscendingMaxAge:
		return model.AgeAscending
	case age <= cfg.PrimeMaxAge:
		return model.AgePrime
	case age <= cfg.LatePrimeMaxAge:
		return model.AgeLatePrime
	default:
		return model.AgeDecline
	}
}

func gaps(seasons []int, window int) int {
	w := tail(seasons, window)
	if len(w) < 2 {
		return 0
	}
	return w[len(w)-1] - w[0] + 1 - len(w)
}

func careerPeak(lines []model.SeasonRecord, cfg tuning.Trend) *Peak {
	var peak *model.SeasonRecord
	var latest *model.SeasonRecord
	for i := range lines {
		if lines[i].PA < cfg.PeakMinPA {
			continue
		}
		if peak == nil || lines[i].WRCPlus > peak.WRCPlus {
			peak = &lines[i]
		}
		latest = &lines[i]
	}
	if peak == nil {
		return nil
	}
	return &Peak{
		Season:         peak.Season,
		WRCPlus:        peak.WRCPlus,
		AtPeak:         latest.WRCPlus >= peak.WRCPlus*cfg.PeakShare,
		YearsSincePeak: latest.Season - peak.Season,
	}
}

func tail[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
