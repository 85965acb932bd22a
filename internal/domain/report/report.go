// Package report assembles the per-player report: league baseline, role,
// trend, regression signals and projection, computed fresh on every call.
package report

import (
	"github.com/okian/battrend/internal/domain/baseline"
	"github.com/okian/battrend/internal/domain/model"
	"github.com/okian/battrend/internal/domain/projection"
	"github.com/okian/battrend/internal/domain/regression"
	"github.com/okian/battrend/internal/domain/role"
	"github.com/okian/battrend/internal/domain/trend"
)

// LeagueContext identifies the baseline a report was judged against.
type LeagueContext struct {
	Season       int  `json:"season" yaml:"season"`
	SourceSeason int  `json:"source_season" yaml:"source_season"`
	Estimated    bool `json:"estimated" yaml:"estimated"`
	Qualifying   int  `json:"qualifying" yaml:"qualifying"`
}

// PercentileRank places one current-season metric in the league.
type PercentileRank struct {
	Metric model.Metric `json:"metric" yaml:"metric"`
	Value  float64      `json:"value" yaml:"value"`
	Rank   float64      `json:"rank" yaml:"rank"`
	Tier   string       `json:"tier" yaml:"tier"`
}

// Report is everything the engine says about one player-season. Formatters
// only read it.
type Report struct {
	ID       string `json:"id" yaml:"id"`
	PlayerID string `json:"player_id" yaml:"player_id"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Season   int    `json:"season" yaml:"season"`
	Team     string `json:"team" yaml:"team"`
	Age      int    `json:"age,omitempty" yaml:"age,omitempty"`
	PA       int    `json:"pa" yaml:"pa"`
	Games    int    `json:"games" yaml:"games"`

	Role        role.Result         `json:"role" yaml:"role"`
	League      LeagueContext       `json:"league" yaml:"league"`
	Percentiles []PercentileRank    `json:"percentiles" yaml:"percentiles"`
	Trend       trend.Summary       `json:"trend" yaml:"trend"`
	Career      trend.CareerProfile `json:"career" yaml:"career"`

	// Signals are the active regression signals; Checks also carries
	// NONE-tier and suppressed ones.
	Signals        []regression.Signal       `json:"signals" yaml:"signals"`
	Checks         []regression.Signal       `json:"checks" yaml:"checks"`
	NetScore       int                       `json:"net_score" yaml:"net_score"`
	Recommendation regression.Recommendation `json:"recommendation" yaml:"recommendation"`
	Evidence       regression.Evidence       `json:"evidence" yaml:"evidence"`
	Note           string                    `json:"note,omitempty" yaml:"note,omitempty"`

	Projection projection.Projection `json:"projection" yaml:"projection"`
}

// Current returns the current-season value of m as recorded in the trend.
func (r *Report) Current(m model.Metric) (float64, bool) {
	t, ok := r.Trend.Metric(m)
	return t.Current, ok
}

func leagueContext(b *baseline.LeagueBaseline) LeagueContext {
	return LeagueContext{
		Season:       b.Season,
		SourceSeason: b.SourceSeason,
		Estimated:    b.Estimated,
		Qualifying:   b.Qualifying,
	}
}

func percentiles(b *baseline.LeagueBaseline, current *model.SeasonRecord) []PercentileRank {
	out := make([]PercentileRank, 0, len(model.RateMetrics))
	for _, m := range model.RateMetrics {
		v := current.Value(m)
		rank, ok := b.PercentileRank(m, v)
		if !ok {
			continue
		}
		out = append(out, PercentileRank{Metric: m, Value: v, Rank: rank, Tier: baseline.RankTier(rank)})
	}
	return out
}
