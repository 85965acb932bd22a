// Package role labels a player-season with its usage role.
//
// Classification is an ordered rule table: rules are evaluated top to bottom
// and the first match wins, so more specific combinations sit above generic
// playing-time rules. The table is exposed through Rules so the evaluation
// order can be inspected and each rule tested on its own.
package role

import (
	"github.com/okian/battrend/internal/domain/baseline"
	"github.com/okian/battrend/internal/domain/model"
	"github.com/okian/battrend/internal/domain/tuning"
)

// Usage is the playing-time profile a season is judged on.
type Usage struct {
	TeamGames     int     `json:"team_games" yaml:"team_games"`
	PAPerTeamGame float64 `json:"pa_per_team_game" yaml:"pa_per_team_game"`
	GamesShare    float64 `json:"games_share" yaml:"games_share"`
	PAPerGame     float64 `json:"pa_per_game" yaml:"pa_per_game"`
}

// Facts is what a rule predicate sees. League is nil when no baseline was
// available; predicates that need it do not match.
type Facts struct {
	Record *model.SeasonRecord
	League *baseline.LeagueBaseline
	Usage  Usage
	Tuning tuning.Role
}

// Rule pairs a predicate with the label it assigns.
type Rule struct {
	Name  string
	Label model.RoleLabel
	Match func(f Facts) bool
}

// Result is a classification outcome.
type Result struct {
	Label model.RoleLabel `json:"label" yaml:"label"`
	// Rule names the table entry that matched.
	Rule  string `json:"rule" yaml:"rule"`
	Usage Usage  `json:"usage" yaml:"usage"`
}

var rules = []Rule{
	{
		Name:  "below-pa-floor",
		Label: model.RoleInsufficientSample,
		Match: func(f Facts) bool { return f.Record.PA < f.Tuning.InsufficientPA },
	},
	{
		Name:  "top-quartile-pa-and-power",
		Label: model.RolePowerSpecialist,
		Match: func(f Facts) bool {
			paP75, ok1 := paPercentile(f, 75)
			isoP75, ok2 := metricPercentile(f, model.MetricISO, 75)
			return ok1 && ok2 && float64(f.Record.PA) >= paP75 && f.Record.ISO > isoP75
		},
	},
	{
		Name:  "limited-pa-with-power",
		Label: model.RolePartTimePower,
		Match: func(f Facts) bool {
			paP50, ok1 := paPercentile(f, 50)
			isoP75, ok2 := metricPercentile(f, model.MetricISO, 75)
			return ok1 && ok2 && float64(f.Record.PA) < paP50 && f.Record.ISO > isoP75
		},
	},
	{
		Name:  "stolen-bases-without-power",
		Label: model.RoleSpeedSpecialist,
		Match: func(f Facts) bool {
			isoP50, ok := metricPercentile(f, model.MetricISO, 50)
			return ok && f.Record.SB >= f.Tuning.SpeedSB && f.Record.ISO < isoP50
		},
	},
	{
		Name:  "low-strikeouts-without-power",
		Label: model.RoleContactSpecialist,
		Match: func(f Facts) bool {
			kP25, ok1 := metricPercentile(f, model.MetricKPct, 25)
			isoP50, ok2 := metricPercentile(f, model.MetricISO, 50)
			return ok1 && ok2 && f.Record.KPct <= kP25 && f.Record.ISO <= isoP50
		},
	},
	{
		Name:  "everyday-usage",
		Label: model.RoleEverydayRegular,
		Match: func(f Facts) bool {
			return f.Usage.PAPerTeamGame >= f.Tuning.EverydayPAPerTeamGame && f.Usage.GamesShare >= f.Tuning.EverydayGamesShare
		},
	},
	{
		Name:  "platoon-usage",
		Label: model.RolePlatoonBat,
		Match: func(f Facts) bool { return f.Usage.PAPerTeamGame >= f.Tuning.PlatoonPAPerTeamGame },
	},
	{
		Name:  "many-games-few-pa",
		Label: model.RoleDefensiveSpecialist,
		Match: func(f Facts) bool {
			return f.Usage.GamesShare >= f.Tuning.DefensiveGamesShare && f.Usage.PAPerGame < f.Tuning.DefensivePAPerGame
		},
	},
	{
		Name:  "fallback",
		Label: model.RoleBenchBat,
		Match: func(Facts) bool { return true },
	},
}

// Rules returns a copy of the default table in evaluation order.
func Rules() []Rule {
	return append([]Rule(nil), rules...)
}

// Classify labels r using the default table.
func Classify(r model.SeasonRecord, league *baseline.LeagueBaseline, cfg tuning.Role) Result {
	return ClassifyWith(rules, r, league, cfg)
}

// ClassifyWith labels r using table. A season below the insufficient-sample
// floor is always labelled insufficient-sample, whatever the table says, and a
// table with no matching rule yields bench-bat.
func ClassifyWith(table []Rule, r model.SeasonRecord, league *baseline.LeagueBaseline, cfg tuning.Role) Result {
	f := Facts{Record: &r, League: league, Usage: UsageOf(r, cfg), Tuning: cfg}
	if r.PA < cfg.InsufficientPA {
		return Result{Label: model.RoleInsufficientSample, Rule: rules[0].Name, Usage: f.Usage}
	}
	for _, rule := range table {
		if rule.Match != nil && rule.Match(f) {
			return Result{Label: rule.Label, Rule: rule.Name, Usage: f.Usage}
		}
	}
	return Result{Label: model.RoleBenchBat, Rule: "fallback", Usage: f.Usage}
}

// UsageOf derives the playing-time profile of r.
func UsageOf(r model.SeasonRecord, cfg tuning.Role) Usage {
	u := Usage{TeamGames: cfg.TeamGamesFor(r.Season)}
	if u.TeamGames > 0 {
		u.PAPerTeamGame = float64(r.PA) / float64(u.TeamGames)
		u.GamesShare = float64(r.Games) / float64(u.TeamGames)
	}
	if r.Games > 0 {
		u.PAPerGame = float64(r.PA) / float64(r.Games)
	}
	return u
}

func paPercentile(f Facts, p float64) (float64, bool) {
	if f.League == nil || f.League.PlateAppearances.Count == 0 {
		return 0, false
	}
	switch p {
	case 50:
		return f.League.PlateAppearances.P50, true
	case 75:
		return f.League.PlateAppearances.P75, true
	}
	return 0, false
}

func metricPercentile(f Facts, m model.Metric, p float64) (float64, bool) {
	if f.League == nil {
		return 0, false
	}
	return f.League.Percentile(m, p)
}
