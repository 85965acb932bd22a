// Package regression flags current-season metrics that sit far enough from a
// player's career baseline to be expected to revert, and nets them into a
// directional recommendation.
package regression

import (
	"fmt"
	"math"

	"github.com/okian/battrend/internal/domain/baseline"
	"github.com/okian/battrend/internal/domain/model"
	"github.com/okian/battrend/internal/domain/stats"
	"github.com/okian/battrend/internal/domain/trend"
	"github.com/okian/battrend/internal/domain/tuning"
)

// tolerance absorbs float error at tier boundaries so |delta| >= threshold
// holds for values that are equal in decimal.
const tolerance = 1e-9

// Tier is a signal's strength.
type Tier string

// Tiers.
const (
	Tier1    Tier = "TIER1"
	Tier2    Tier = "TIER2"
	TierNone Tier = "NONE"
)

// Direction is the lean a signal implies.
type Direction string

// Directions.
const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

// Recommendation nets every active signal.
type Recommendation string

// Recommendations.
const (
	StrongBuy  Recommendation = "STRONG BUY"
	LeanBuy    Recommendation = "LEAN BUY"
	Neutral    Recommendation = "NEUTRAL"
	LeanSell   Recommendation = "LEAN SELL"
	StrongSell Recommendation = "STRONG SELL"
)

// Signal is the check of one tracked metric.
type Signal struct {
	Metric    model.Metric `json:"metric" yaml:"metric"`
	Tier      Tier         `json:"tier" yaml:"tier"`
	Direction Direction    `json:"direction" yaml:"direction"`
	Current   float64      `json:"current" yaml:"current"`
	Career    float64      `json:"career" yaml:"career"`
	// Delta is Current minus Career.
	Delta float64 `json:"delta" yaml:"delta"`
	// LeaguePercentile is the current value's rank in the season baseline.
	LeaguePercentile *float64 `json:"league_percentile,omitempty" yaml:"league_percentile,omitempty"`
	// Suppressed marks a deviation explained by an established skill change.
	Suppressed bool   `json:"suppressed,omitempty" yaml:"suppressed,omitempty"`
	Rationale  string `json:"rationale" yaml:"rationale"`
}

// Active reports whether the signal counts toward the net score.
func (s Signal) Active() bool { return s.Tier != TierNone && !s.Suppressed }

// Result is the outcome of one detection.
type Result struct {
	// Checks holds one entry per tracked metric with a career baseline, in
	// tracked-metric order, including NONE-tier and suppressed ones.
	Checks         []Signal       `json:"checks" yaml:"checks"`
	NetScore       int            `json:"net_score" yaml:"net_score"`
	Recommendation Recommendation `json:"recommendation" yaml:"recommendation"`
	BuySignals     int            `json:"buy_signals" yaml:"buy_signals"`
	SellSignals    int            `json:"sell_signals" yaml:"sell_signals"`
	Evidence       Evidence       `json:"evidence" yaml:"evidence"`
	Note           string         `json:"note,omitempty" yaml:"note,omitempty"`
}

// Signals returns the active signals in tracked-metric order.
func (r *Result) Signals() []Signal {
	out := make([]Signal, 0, len(r.Checks))
	for _, s := range r.Checks {
		if s.Active() {
			out = append(out, s)
		}
	}
	return out
}

// Suppressed returns the signals withheld as skill changes.
func (r *Result) Suppressed() []Signal {
	var out []Signal
	for _, s := range r.Checks {
		if s.Suppressed {
			out = append(out, s)
		}
	}
	return out
}

// Input gathers what detection reads. League may be nil.
type Input struct {
	Current model.SeasonRecord
	Career  trend.CareerProfile
	League  *baseline.LeagueBaseline
	Trend   trend.Summary
}

// Detect checks every tracked metric of in.Current against the career
// baseline. Without enough career PA no signal is raised and the result is
// NEUTRAL with a note.
func Detect(in Input, cfg tuning.Regression) Result {
	res := Result{
		Checks:         make([]Signal, 0, len(model.TrackedMetrics)),
		Recommendation: Neutral,
		Evidence:       Assess(in.Current.Quality, in.Career.Quality, cfg.MinBattedBalls),
	}
	if in.Career.PA < cfg.MinCareerPA {
		res.Note = fmt.Sprintf("career baseline has %d prior PA, %d needed for regression signals", in.Career.PA, cfg.MinCareerPA)
		return res
	}

	for _, m := range model.TrackedMetrics {
		thresholds, ok := cfg.Threshold(m)
		if !ok {
			continue
		}
		career, ok := in.Career.Value(m)
		if !ok {
			continue
		}
		current := in.Current.Value(m)
		s := Signal{
			Metric:  m,
			Current: current,
			Career:  career,
			Delta:   current - career,
		}
		s.Tier = Classify(s.Delta, thresholds)
		s.Direction = Lean(m, s.Delta, res.Evidence)
		if in.League != nil {
			if rank, ok := in.League.PercentileRank(m, current); ok {
				s.LeaguePercentile = &rank
			}
		}
		if s.Tier != TierNone {
			if mt, ok := in.Trend.Metric(m); ok && SkillChange(mt, s.Delta, cfg.SkillOverrideSeasons) {
				s.Suppressed = true
			}
		}
		s.Rationale = rationale(s, res.Evidence)
		res.Checks = append(res.Checks, s)
	}

	for _, s := range res.Checks {
		if !s.Active() {
			continue
		}
		w := cfg.Tier2Weight
		if s.Tier == Tier1 {
			w = cfg.Tier1Weight
		}
		if s.Direction == Buy {
			res.NetScore += w
			res.BuySignals++
		} else {
			res.NetScore -= w
			res.SellSignals++
		}
	}
	res.Recommendation = Recommend(res.NetScore)
	return res
}

// Classify tiers |delta| against t, inclusive at each threshold.
func Classify(delta float64, t tuning.Thresholds) Tier {
	d := math.Abs(delta)
	switch {
	case d >= t.Tier1-tolerance:
		return Tier1
	case d >= t.Tier2-tolerance:
		return Tier2
	default:
		return TierNone
	}
}

// Lean maps a delta to a direction. Luck-driven metrics (BABIP, HR/FB%) lean
// against the deviation. Skill metrics follow their polarity: more walks lean
// buy, more strikeouts lean sell. An ISO gain is read as skill unless present
// batted-ball evidence fails to back it, in which case it leans sell.
func Lean(m model.Metric, delta float64, ev Evidence) Direction {
	up := delta > 0
	switch m {
	case model.MetricBABIP, model.MetricHRFB:
		if up {
			return Sell
		}
		return Buy
	case model.MetricISO:
		if up && ev.Unsupported() {
			return Sell
		}
	}
	higherIsBetter := true
	if info, ok := model.Info(m); ok {
		higherIsBetter = info.HigherIsBetter
	}
	if up == higherIsBetter {
		return Buy
	}
	return Sell
}

// SkillChange reports whether the trend explains a deviation as an
// established skill change: the matching breakout or decline flag is set and
// the metric has moved the same way for at least seasons straight seasons.
func SkillChange(mt trend.MetricTrend, delta float64, seasons int) bool {
	dir := stats.Sign(delta, tolerance)
	switch {
	case dir > 0 && !mt.Breakout, dir < 0 && !mt.Decline, dir == 0:
		return false
	}
	return mt.PriorSeasons >= seasons && mt.Streak*dir >= seasons
}

// Recommend maps a net score to a recommendation.
func Recommend(net int) Recommendation {
	switch {
	case net >= 2:
		return StrongBuy
	case net == 1:
		return LeanBuy
	case net == 0:
		return Neutral
	case net == -1:
		return LeanSell
	default:
		return StrongSell
	}
}

func rationale(s Signal, ev Evidence) string {
	prec := 3
	unit := ""
	if info, ok := model.Info(s.Metric); ok {
		prec = int(info.Precision)
		if info.Domain.Max == 100 {
			unit = "pp"
		}
	}
	text := fmt.Sprintf("%s %.*f is %+.*f%s from career %.*f",
		s.Metric.Label(), prec, s.Current, prec, s.Delta, unit, prec, s.Career)
	if s.LeaguePercentile != nil {
		text += fmt.Sprintf(" (league %.0fth pct, %s)", *s.LeaguePercentile, baseline.RankTier(*s.LeaguePercentile))
	}
	switch {
	case s.Suppressed:
		text += "; sustained multi-season trend, treated as a skill change"
	case s.Tier == TierNone:
	case s.Metric == model.MetricISO && s.Delta > 0 && ev.Unsupported():
		text += "; exit velocity and barrel rate are down, power gain looks unsustainable"
	default:
		text += fmt.Sprintf("; %s %s-lean", s.Tier, s.Direction)
	}
	return text
}
