// Package projection builds the next-season estimate for each projected metric
// from recency-weighted history, an aging shift, reversion toward the career
// baseline and a power sustainability check, then grades its confidence.
package projection

import (
	"fmt"

	"github.com/okian/battrend/internal/domain/baseline"
	"github.com/okian/battrend/internal/domain/model"
	"github.com/okian/battrend/internal/domain/regression"
	"github.com/okian/battrend/internal/domain/stats"
	"github.com/okian/battrend/internal/domain/trend"
	"github.com/okian/battrend/internal/domain/tuning"
)

// Confidence grades a projection.
type Confidence string

// Confidence levels, strongest first.
const (
	High   Confidence = "HIGH"
	Medium Confidence = "MEDIUM"
	Low    Confidence = "LOW"
)

// Volatility sources for a range. VolatilityLeagueSpread is the league's
// cross-player spread, used when no year-over-year league data exists.
const (
	VolatilityPlayer       = "player"
	VolatilityLeague       = "league"
	VolatilityLeagueSpread = "league_spread"
	VolatilityNone         = "none"
)

// Components break a point estimate into its additive parts.
type Components struct {
	Base           float64 `json:"base" yaml:"base"`
	Age            float64 `json:"age" yaml:"age"`
	Regression     float64 `json:"regression" yaml:"regression"`
	Sustainability float64 `json:"sustainability" yaml:"sustainability"`
}

// Estimate is the projection of one metric.
type Estimate struct {
	Metric     model.Metric `json:"metric" yaml:"metric"`
	Point      float64      `json:"point" yaml:"point"`
	Low        float64      `json:"low" yaml:"low"`
	High       float64      `json:"high" yaml:"high"`
	Components Components   `json:"components" yaml:"components"`
	// Clipped is set when the raw sum fell outside the plausible domain.
	Clipped          bool    `json:"clipped,omitempty" yaml:"clipped,omitempty"`
	Volatility       float64 `json:"volatility" yaml:"volatility"`
	VolatilitySource string  `json:"volatility_source" yaml:"volatility_source"`
}

// Projection is the next-season outlook of one player.
type Projection struct {
	TargetSeason int `json:"target_season" yaml:"target_season"`
	// BasisSeasons are the seasons blended into the base, most recent first.
	BasisSeasons      []int                    `json:"basis_seasons" yaml:"basis_seasons"`
	AgeBucket         model.AgeBucket          `json:"age_bucket" yaml:"age_bucket"`
	Role              model.RoleLabel          `json:"role" yaml:"role"`
	Evidence          regression.EvidenceState `json:"evidence" yaml:"evidence"`
	Estimates         []Estimate               `json:"estimates" yaml:"estimates"`
	Confidence        Confidence               `json:"confidence" yaml:"confidence"`
	ConfidenceReasons []string                 `json:"confidence_reasons,omitempty" yaml:"confidence_reasons,omitempty"`
}

// Estimate returns the estimate for m.
func (p *Projection) Estimate(m model.Metric) (Estimate, bool) {
	for _, e := range p.Estimates {
		if e.Metric == m {
			return e, true
		}
	}
	return Estimate{}, false
}

// Input gathers what the projector reads. Lines are merged season lines in
// ascending order ending with the evaluated season. League may be nil.
type Input struct {
	Lines      []model.SeasonRecord
	Trend      trend.Summary
	Career     trend.CareerProfile
	Regression regression.Result
	Role       model.RoleLabel
	League     *baseline.LeagueBaseline
}

// Project estimates every projected metric for the season after the last line.
func Project(in Input, cfg tuning.Projection) Projection {
	p := Projection{
		TargetSeason: in.Trend.Season + 1,
		AgeBucket:    in.Trend.AgeBucket,
		Role:         in.Role,
		Evidence:     in.Regression.Evidence.State,
		Estimates:    make([]Estimate, 0, len(model.ProjectedMetrics)),
	}
	basis := recent(in.Lines, len(cfg.RecencyWeights))
	p.BasisSeasons = make([]int, len(basis))
	for i := range basis {
		p.BasisSeasons[i] = basis[i].Season
	}

	active := make(map[model.Metric]regression.Tier, len(in.Regression.Checks))
	for _, s := range in.Regression.Signals() {
		active[s.Metric] = s.Tier
	}

	for _, m := range model.ProjectedMetrics {
		p.Estimates = append(p.Estimates, estimate(m, basis, in, active, cfg))
	}
	p.Confidence, p.ConfidenceReasons = grade(in, cfg)
	return p
}

func estimate(m model.Metric, basis []model.SeasonRecord, in Input, active map[model.Metric]regression.Tier, cfg tuning.Projection) Estimate {
	e := Estimate{Metric: m}

	values := make([]float64, len(basis))
	for i := range basis {
		values[i] = basis[i].Value(m)
	}
	e.Components.Base, _ = stats.WeightedMean(values, cfg.RecencyWeights)
	e.Components.Age = cfg.AgeAdjustment(in.Trend.AgeBucket, m)

	career, hasCareer := in.Career.Value(m)
	if tier, ok := active[m]; ok && hasCareer {
		share := cfg.Tier2Reversion
		if tier == regression.Tier1 {
			share = cfg.Tier1Reversion
		}
		e.Components.Regression = -share * (e.Components.Base - career)
	}

	if (m == model.MetricISO || m == model.MetricHRFB) && hasCareer && in.Regression.Evidence.Unsupported() {
		pre := e.Components.Base + e.Components.Age + e.Components.Regression
		if gain := pre - career; gain > 0 {
			e.Components.Sustainability = -cfg.SustainabilityDampening * gain
		}
	}

	raw := e.Components.Base + e.Components.Age + e.Components.Regression + e.Components.Sustainability
	dom := plausible(m, in.League, cfg.DomainExtension)
	e.Point = dom.Clamp(raw)
	e.Clipped = e.Point != raw

	e.Volatility, e.VolatilitySource = volatility(m, in, cfg)
	natural := naturalDomain(m)
	e.Low = natural.Clamp(e.Point - e.Volatility)
	e.High = natural.Clamp(e.Point + e.Volatility)
	return e
}

// plausible is the league 1st-99th percentile range widened by ext of its
// width on each side, within the metric's natural domain.
func plausible(m model.Metric, league *baseline.LeagueBaseline, ext float64) model.Domain {
	natural := naturalDomain(m)
	if league == nil {
		return natural
	}
	s, ok := league.Summary(m)
	if !ok || s.Count == 0 {
		return natural
	}
	width := s.P99 - s.P1
	d := model.Domain{Min: s.P1 - ext*width, Max: s.P99 + ext*width}
	if d.Min < natural.Min {
		d.Min = natural.Min
	}
	if d.Max > natural.Max {
		d.Max = natural.Max
	}
	return d
}

func naturalDomain(m model.Metric) model.Domain {
	if info, ok := model.Info(m); ok {
		return info.Domain
	}
	return model.Domain{Min: -1e9, Max: 1e9}
}

func volatility(m model.Metric, in Input, cfg tuning.Projection) (float64, string) {
	mult := cfg.VolatilityMultiplier(in.Role)
	if in.Trend.SeasonCount() >= cfg.PlayerVolatilitySeasons {
		if mt, ok := in.Trend.Metric(m); ok {
			return mt.Volatility * mult, VolatilityPlayer
		}
	}
	if in.League != nil {
		if s, ok := in.League.Summary(m); ok {
			switch {
			case s.YoYCount > 1:
				return s.YoYStdDev * mult, VolatilityLeague
			case s.Count > 1:
				return s.StdDev * mult, VolatilityLeagueSpread
			}
		}
	}
	return 0, VolatilityNone
}

// grade assigns confidence. Every failed condition lowers it; nothing raises it.
func grade(in Input, cfg tuning.Projection) (Confidence, []string) {
	var reasons []string
	seasons := in.Trend.SeasonCount()

	level := High
	if seasons < cfg.HighConfidenceSeasons {
		reasons = append(reasons, fmt.Sprintf("%d career seasons, %d needed for high confidence", seasons, cfg.HighConfidenceSeasons))
		level = Medium
	}
	if in.Trend.Gaps > 0 {
		reasons = append(reasons, fmt.Sprintf("%d missing seasons in the trailing window", in.Trend.Gaps))
		level = Medium
	}
	if !agrees(in) {
		reasons = append(reasons, fmt.Sprintf("net signal %+d disagrees with %s wRC+ trajectory", in.Regression.NetScore, in.Trend.Trajectory.Direction))
		level = Medium
	}
	if seasons < cfg.MediumConfidenceSeasons {
		level = Low
	}

	if in.Role == model.RoleInsufficientSample {
		reasons = append(reasons, "current season is an insufficient sample")
		level = Low
	}
	if in.League != nil && in.League.Estimated {
		reasons = append(reasons, fmt.Sprintf("league baseline estimated from %d", in.League.SourceSeason))
		level = lower(level)
	}
	return level, reasons
}

// agrees reports whether the net signal and the wRC+ trajectory point the same
// way. A neutral net or a flat trajectory never disagrees.
func agrees(in Input) bool {
	net := stats.Sign(float64(in.Regression.NetScore), 0)
	if net == 0 {
		return true
	}
	switch in.Trend.Trajectory.Direction {
	case trend.DirectionUp:
		return net > 0
	case trend.DirectionDown:
		return net < 0
	default:
		return true
	}
}

func lower(c Confidence) Confidence {
	if c == High {
		return Medium
	}
	return Low
}

// recent returns up to n lines, most recent first.
func recent(lines []model.SeasonRecord, n int) []model.SeasonRecord {
	out := make([]model.SeasonRecord, 0, n)
	for i := len(lines) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, lines[i])
	}
	return out
}
