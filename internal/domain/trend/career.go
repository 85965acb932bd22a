package trend

import (
	"github.com/okian/battrend/internal/domain/model"
)

// MetricValue pairs a metric with a value.
type MetricValue struct {
	Metric model.Metric `json:"metric" yaml:"metric"`
	Value  float64      `json:"value" yaml:"value"`
}

// CareerProfile is a player's PA-weighted baseline over every season before
// the one being evaluated. It is derived on demand and never stored.
type CareerProfile struct {
	// Seasons lists the prior seasons that contributed.
	Seasons []int         `json:"seasons" yaml:"seasons"`
	PA      int           `json:"pa" yaml:"pa"`
	Rates   []MetricValue `json:"rates" yaml:"rates"`
	// Quality is weighted over prior seasons that carried batted-ball data;
	// nil when none did.
	Quality *model.BattedBallQuality `json:"quality,omitempty" yaml:"quality,omitempty"`
}

// Value returns the career rate for m; ok is false without prior seasons.
func (c *CareerProfile) Value(m model.Metric) (float64, bool) {
	for _, r := range c.Rates {
		if r.Metric == m {
			return r.Value, true
		}
	}
	return 0, false
}

// Career builds the profile from lines strictly before season. Seasons with
// zero PA contribute nothing; when every prior season has zero PA the rates
// are a plain mean.
func Career(lines []model.SeasonRecord, season int) CareerProfile {
	var prior []model.SeasonRecord
	for i := range lines {
		if lines[i].Season < season {
			prior = append(prior, lines[i])
		}
	}
	c := CareerProfile{Seasons: make([]int, 0, len(prior))}
	if len(prior) == 0 {
		return c
	}

	total := 0
	for i := range prior {
		c.Seasons = append(c.Seasons, prior[i].Season)
		total += prior[i].PA
	}
	c.PA = total

	weight := func(r *model.SeasonRecord) float64 {
		if total == 0 {
			return 1
		}
		return float64(r.PA)
	}

	c.Rates = make([]MetricValue, 0, len(model.RateMetrics))
	for _, m := range model.RateMetrics {
		var sum, w float64
		for i := range prior {
			sum += prior[i].Value(m) * weight(&prior[i])
			w += weight(&prior[i])
		}
		c.Rates = append(c.Rates, MetricValue{Metric: m, Value: sum / w})
	}

	var q model.BattedBallQuality
	var qw float64
	for i := range prior {
		p := &prior[i]
		if p.Quality == nil {
			continue
		}
		w := weight(p)
		if w == 0 {
			continue
		}
		q.ExitVelocity += p.Quality.ExitVelocity * w
		q.HardHitPct += p.Quality.HardHitPct * w
		q.BarrelPct += p.Quality.BarrelPct * w
		q.BattedBalls += p.Quality.BattedBalls
		qw += w
	}
	if qw > 0 {
		q.ExitVelocity /= qw
		q.HardHitPct /= qw
		q.BarrelPct /= qw
		c.Quality = &q
	}
	return c
}
