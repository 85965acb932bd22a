// Package tuning holds every threshold, weight and floor the analytics engine
// reads. One Config value is passed through the whole pipeline so a backtest can
// swap any number without touching logic.
package tuning

import (
	"errors"
	"fmt"
	"sort"

	"github.com/okian/battrend/internal/domain/model"
)

// ErrInvalid marks a Config that fails Validate.
var ErrInvalid = errors.New("invalid tuning")

// Config is the engine configuration.
type Config struct {
	Baseline   Baseline   `koanf:"baseline" json:"baseline" yaml:"baseline"`
	Role       Role       `koanf:"role" json:"role" yaml:"role"`
	Trend      Trend      `koanf:"trend" json:"trend" yaml:"trend"`
	Regression Regression `koanf:"regression" json:"regression" yaml:"regression"`
	Projection Projection `koanf:"projection" json:"projection" yaml:"projection"`
}

// Baseline configures league baseline computation.
type Baseline struct {
	// MinQualifyingPA is the PA floor for a player to count toward a baseline.
	MinQualifyingPA int `koanf:"min_qualifying_pa" json:"min_qualifying_pa" yaml:"min_qualifying_pa"`
	// MinSample is the qualifying-player count below which a season is back-filled.
	MinSample int `koanf:"min_sample" json:"min_sample" yaml:"min_sample"`
	// Lookback is how many prior seasons may be searched for a back-fill.
	Lookback int `koanf:"lookback" json:"lookback" yaml:"lookback"`
}

// Role configures the role rule table.
type Role struct {
	// InsufficientPA: seasons below this PA are always insufficient-sample.
	InsufficientPA int `koanf:"insufficient_pa" json:"insufficient_pa" yaml:"insufficient_pa"`
	// DefaultTeamGames is the schedule length when TeamGames has no entry.
	DefaultTeamGames int `koanf:"default_team_games" json:"default_team_games" yaml:"default_team_games"`
	// TeamGames overrides schedule length per season (shortened seasons).
	TeamGames map[int]int `koanf:"team_games" json:"team_games" yaml:"team_games"`
	// EverydayPAPerTeamGame and EverydayGamesShare define an everyday regular.
	EverydayPAPerTeamGame float64 `koanf:"everyday_pa_per_team_game" json:"everyday_pa_per_team_game" yaml:"everyday_pa_per_team_game"`
	EverydayGamesShare    float64 `koanf:"everyday_games_share" json:"everyday_games_share" yaml:"everyday_games_share"`
	// PlatoonPAPerTeamGame is the lower usage bound for a platoon bat.
	PlatoonPAPerTeamGame float64 `koanf:"platoon_pa_per_team_game" json:"platoon_pa_per_team_game" yaml:"platoon_pa_per_team_game"`
	// SpeedSB is the stolen-base floor for a speed specialist.
	SpeedSB int `koanf:"speed_sb" json:"speed_sb" yaml:"speed_sb"`
	// DefensiveGamesShare and DefensivePAPerGame describe late-inning glove usage.
	DefensiveGamesShare float64 `koanf:"defensive_games_share" json:"defensive_games_share" yaml:"defensive_games_share"`
	DefensivePAPerGame  float64 `koanf:"defensive_pa_per_game" json:"defensive_pa_per_game" yaml:"defensive_pa_per_game"`
}

// Trend configures the trend tracker and age buckets.
type Trend struct {
	Window           int     `koanf:"window" json:"window" yaml:"window"`
	BreakoutMultiple float64 `koanf:"breakout_multiple" json:"breakout_multiple" yaml:"breakout_multiple"`
	// MinPriorSeasons required before a breakout or decline can be flagged.
	MinPriorSeasons int `koanf:"min_prior_seasons" json:"min_prior_seasons" yaml:"min_prior_seasons"`
	// Ages at or below which a season falls in each bucket; anything older is decline.
	AscendingMaxAge int `koanf:"ascending_max_age" json:"ascending_max_age" yaml:"ascending_max_age"`
	PrimeMaxAge     int `koanf:"prime_max_age" json:"prime_max_age" yaml:"prime_max_age"`
	LatePrimeMaxAge int `koanf:"late_prime_max_age" json:"late_prime_max_age" yaml:"late_prime_max_age"`
	// FlatSlope is the absolute wRC+ per season below which a trajectory is flat.
	FlatSlope float64 `koanf:"flat_slope" json:"flat_slope" yaml:"flat_slope"`
	// PeakShare of peak wRC+ that still counts as playing at peak.
	PeakShare float64 `koanf:"peak_share" json:"peak_share" yaml:"peak_share"`
	// PeakMinPA is the PA floor for a season to be considered for the career peak.
	PeakMinPA int `koanf:"peak_min_pa" json:"peak_min_pa" yaml:"peak_min_pa"`
}

// Thresholds are the inclusive |delta| floors for each tier.
type Thresholds struct {
	Tier1 float64 `koanf:"tier1" json:"tier1" yaml:"tier1"`
	Tier2 float64 `koanf:"tier2" json:"tier2" yaml:"tier2"`
}

// Regression configures signal detection.
type Regression struct {
	Thresholds map[model.Metric]Thresholds `koanf:"thresholds" json:"thresholds" yaml:"thresholds"`
	// MinCareerPA of prior seasons needed before any signal is emitted.
	MinCareerPA int `koanf:"min_career_pa" json:"min_career_pa" yaml:"min_career_pa"`
	// SkillOverrideSeasons is the prior-season run needed to treat a breakout as skill.
	SkillOverrideSeasons int `koanf:"skill_override_seasons" json:"skill_override_seasons" yaml:"skill_override_seasons"`
	Tier1Weight          int `koanf:"tier1_weight" json:"tier1_weight" yaml:"tier1_weight"`
	Tier2Weight          int `koanf:"tier2_weight" json:"tier2_weight" yaml:"tier2_weight"`
	// MinBattedBalls below which batted-ball quality is known but not usable.
	MinBattedBalls int `koanf:"min_batted_balls" json:"min_batted_balls" yaml:"min_batted_balls"`
}

// Projection configures the next-season projector.
type Projection struct {
	// RecencyWeights from most recent season backwards.
	RecencyWeights []float64 `koanf:"recency_weights" json:"recency_weights" yaml:"recency_weights"`
	// AgeAdjustments are additive deltas per age bucket and metric.
	AgeAdjustments map[model.AgeBucket]map[model.Metric]float64 `koanf:"age_adjustments" json:"age_adjustments" yaml:"age_adjustments"`
	// Tier1Reversion and Tier2Reversion are the shares of the gap to career pulled back per signal tier.
	Tier1Reversion float64 `koanf:"tier1_reversion" json:"tier1_reversion" yaml:"tier1_reversion"`
	Tier2Reversion float64 `koanf:"tier2_reversion" json:"tier2_reversion" yaml:"tier2_reversion"`
	// SustainabilityDampening is the share of an uncorroborated power gain removed.
	SustainabilityDampening float64 `koanf:"sustainability_dampening" json:"sustainability_dampening" yaml:"sustainability_dampening"`
	// DomainExtension widens the league 1st-99th percentile clip range by this share of its width.
	DomainExtension float64 `koanf:"domain_extension" json:"domain_extension" yaml:"domain_extension"`
	// RoleVolatility scales the projection range per role.
	RoleVolatility map[model.RoleLabel]float64 `koanf:"role_volatility" json:"role_volatility" yaml:"role_volatility"`
	// HighConfidenceSeasons and MediumConfidenceSeasons are career-season floors.
	HighConfidenceSeasons   int `koanf:"high_confidence_seasons" json:"high_confidence_seasons" yaml:"high_confidence_seasons"`
	MediumConfidenceSeasons int `koanf:"medium_confidence_seasons" json:"medium_confidence_seasons" yaml:"medium_confidence_seasons"`
	// PlayerVolatilitySeasons is the history length needed to use the player's own volatility.
	PlayerVolatilitySeasons int `koanf:"player_volatility_seasons" json:"player_volatility_seasons" yaml:"player_volatility_seasons"`
}

// Default returns the calibrated defaults.
func Default() Config {
	return Config{
		Baseline: Baseline{
			MinQualifyingPA: 150,
			MinSample:       30,
			Lookback:        5,
		},
		Role: Role{
			InsufficientPA:        50,
			DefaultTeamGames:      162,
			TeamGames:             map[int]int{2020: 60},
			EverydayPAPerTeamGame: 3.0,
			EverydayGamesShare:    0.65,
			PlatoonPAPerTeamGame:  1.5,
			SpeedSB:               20,
			DefensiveGamesShare:   0.40,
			DefensivePAPerGame:    2.0,
		},
		Trend: Trend{
			Window:           3,
			BreakoutMultiple: 1.5,
			MinPriorSeasons:  2,
			AscendingMaxAge:  24,
			PrimeMaxAge:      29,
			LatePrimeMaxAge:  32,
			FlatSlope:        1.0,
			PeakShare:        0.95,
			PeakMinPA:        200,
		},
		Regression: Regression{
			Thresholds: map[model.Metric]Thresholds{
				model.MetricBABIP: {Tier1: 0.040, Tier2: 0.020},
				model.MetricKPct:  {Tier1: 6.0, Tier2: 3.0},
				model.MetricBBPct: {Tier1: 4.0, Tier2: 2.0},
				model.MetricISO:   {Tier1: 0.050, Tier2: 0.025},
				model.MetricHRFB:  {Tier1: 5.0, Tier2: 2.5},
			},
			MinCareerPA:          200,
			SkillOverrideSeasons: 3,
			Tier1Weight:          2,
			Tier2Weight:          1,
			MinBattedBalls:       50,
		},
		Projection: Projection{
			RecencyWeights: []float64{5, 4, 3},
			AgeAdjustments: map[model.AgeBucket]map[model.Metric]float64{
				model.AgeRookie:    {model.MetricISO: 0.010, model.MetricHRFB: 1.0, model.MetricBABIP: 0.002, model.MetricWRCPlus: 3},
				model.AgeAscending: {model.MetricISO: 0.008, model.MetricHRFB: 0.8, model.MetricBABIP: 0.002, model.MetricWRCPlus: 2},
				model.AgePrime:     {},
				model.AgeLatePrime: {model.MetricISO: -0.005, model.MetricHRFB: -0.5, model.MetricBABIP: -0.003, model.MetricWRCPlus: -2},
				model.AgeDecline:   {model.MetricISO: -0.012, model.MetricHRFB: -1.2, model.MetricBABIP: -0.006, model.MetricWRCPlus: -5},
			},
			Tier1Reversion:          0.60,
			Tier2Reversion:          0.30,
			SustainabilityDampening: 0.50,
			DomainExtension:         0.10,
			RoleVolatility: map[model.RoleLabel]float64{
				model.RoleEverydayRegular:     1.0,
				model.RolePowerSpecialist:     1.0,
				model.RoleContactSpecialist:   1.0,
				model.RoleSpeedSpecialist:     1.1,
				model.RolePlatoonBat:          1.15,
				model.RolePartTimePower:       1.25,
				model.RoleDefensiveSpecialist: 1.25,
				model.RoleBenchBat:            1.3,
				model.RoleInsufficientSample:  1.5,
			},
			HighConfidenceSeasons:   4,
			MediumConfidenceSeasons: 2,
			PlayerVolatilitySeasons: 3,
		},
	}
}

// TeamGamesFor returns the schedule length for season.
func (r Role) TeamGamesFor(season int) int {
	if g, ok := r.TeamGames[season]; ok && g > 0 {
		return g
	}
	return r.DefaultTeamGames
}

// Threshold returns the tier thresholds for m.
func (r Regression) Threshold(m model.Metric) (Thresholds, bool) {
	t, ok := r.Thresholds[m]
	return t, ok
}

// AgeAdjustment returns the additive shift for m in bucket.
func (p Projection) AgeAdjustment(bucket model.AgeBucket, m model.Metric) float64 {
	return p.AgeAdjustments[bucket][m]
}

// VolatilityMultiplier returns the range multiplier for role, defaulting to 1.
func (p Projection) VolatilityMultiplier(role model.RoleLabel) float64 {
	if v, ok := p.RoleVolatility[role]; ok && v > 0 {
		return v
	}
	return 1
}

// Validate reports every inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Baseline.MinQualifyingPA < 0 {
		add("baseline.min_qualifying_pa must be >= 0")
	}
	if c.Baseline.MinSample < 1 {
		add("baseline.min_sample must be >= 1")
	}
	if c.Baseline.Lookback < 0 {
		add("baseline.lookback must be >= 0")
	}
	if c.Role.InsufficientPA < 0 {
		add("role.insufficient_pa must be >= 0")
	}
	if c.Role.DefaultTeamGames < 1 {
		add("role.default_team_games must be >= 1")
	}
	if c.Trend.Window < 1 {
		add("trend.window must be >= 1")
	}
	if c.Trend.BreakoutMultiple <= 0 {
		add("trend.breakout_multiple must be > 0")
	}
	if !(c.Trend.AscendingMaxAge < c.Trend.PrimeMaxAge && c.Trend.PrimeMaxAge < c.Trend.LatePrimeMaxAge) {
		add("trend age boundaries must be strictly increasing")
	}

	metrics := make([]string, 0, len(c.Regression.Thresholds))
	for m := range c.Regression.Thresholds {
		metrics = append(metrics, string(m))
	}
	sort.Strings(metrics)
	for _, name := range metrics {
		m := model.Metric(name)
		t := c.Regression.Thresholds[m]
		if !m.Known() {
			add("regression.thresholds: unknown metric %q", name)
			continue
		}
		if t.Tier2 <= 0 || t.Tier1 < t.Tier2 {
			add("regression.thresholds.%s: need 0 < tier2 <= tier1, got tier1=%g tier2=%g", name, t.Tier1, t.Tier2)
		}
	}
	for _, m := range model.TrackedMetrics {
		if _, ok := c.Regression.Thresholds[m]; !ok {
			add("regression.thresholds: missing %s", m)
		}
	}
	if c.Regression.Tier1Weight < c.Regression.Tier2Weight || c.Regression.Tier2Weight < 1 {
		add("regression tier weights must satisfy tier1 >= tier2 >= 1")
	}

	if len(c.Projection.RecencyWeights) == 0 {
		add("projection.recency_weights must not be empty")
	}
	for i, w := range c.Projection.RecencyWeights {
		if w <= 0 {
			add("projection.recency_weights[%d] must be > 0", i)
		}
	}
	for _, r := range []float64{c.Projection.Tier1Reversion, c.Projection.Tier2Reversion, c.Projection.SustainabilityDampening} {
		if r < 0 || r > 1 {
			add("projection reversion and dampening shares must be within [0,1]")
			break
		}
	}
	if c.Projection.DomainExtension < 0 {
		add("projection.domain_extension must be >= 0")
	}
	if c.Projection.MediumConfidenceSeasons > c.Projection.HighConfidenceSeasons {
		add("projection confidence season floors must satisfy medium <= high")
	}
	return errors.Join(errs...)
}
