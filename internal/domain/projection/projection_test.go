package projection_test

import (
	"fmt"
	"testing"

	"github.com/okian/battrend/internal/domain/baseline"
	"github.com/okian/battrend/internal/domain/model"
	"github.com/okian/battrend/internal/domain/projection"
	"github.com/okian/battrend/internal/domain/regression"
	"github.com/okian/battrend/internal/domain/trend"
	"github.com/okian/battrend/internal/domain/tuning"
	. "github.com/smartystreets/goconvey/convey"
)

func line(season, age, pa int) model.SeasonRecord {
	return model.SeasonRecord{
		PlayerID: "p1", Season: season, Team: "TST", Age: age,
		Games: 150, PA: pa, AB: pa - 60, Hits: (pa - 60) / 4,
		AVG: .260, OBP: .330, SLG: .420, WRCPlus: 105, BABIP: .300,
		BBPct: 8, KPct: 20, ISO: .160, GBPct: 43, FBPct: 36, LDPct: 21, HRFB: 12,
	}
}

func project(lines []model.SeasonRecord, role model.RoleLabel, league *baseline.LeagueBaseline) projection.Projection {
	cfg := tuning.Default()
	current := lines[len(lines)-1]
	tr, err := trend.Track(lines, cfg.Trend)
	if err != nil {
		panic(err)
	}
	career := trend.Career(lines, current.Season)
	reg := regression.Detect(regression.Input{Current: current, Career: career, League: league, Trend: tr}, cfg.Regression)
	return projection.Project(projection.Input{
		Lines: lines, Trend: tr, Career: career, Regression: reg, Role: role, League: league,
	}, cfg.Projection)
}

// league has BABIP .280 through .319 across 40 qualifiers.
func league() *baseline.LeagueBaseline {
	records := make([]model.SeasonRecord, 0, 40)
	for i := 0; i < 40; i++ {
		r := line(2023, 27, 550)
		r.PlayerID = fmt.Sprintf("L%02d", i)
		r.BABIP = .280 + .001*float64(i)
		records = append(records, r)
	}
	b, err := baseline.Compute(2023, records, tuning.Default().Baseline)
	if err != nil {
		panic(err)
	}
	return b
}

func TestProjectComponents(t *testing.T) {
	Convey("Given a TIER1 BABIP spike in the latest of three seasons", t, func() {
		lines := []model.SeasonRecord{line(2021, 25, 600), line(2022, 26, 600), line(2023, 27, 600)}
		lines[2].BABIP = .360

		p := project(lines, model.RoleEverydayRegular, nil)
		e, ok := p.Estimate(model.MetricBABIP)
		So(ok, ShouldBeTrue)

		Convey("Then the base is weighted 5/4/3 toward recent seasons", func() {
			So(p.TargetSeason, ShouldEqual, 2024)
			So(p.BasisSeasons, ShouldResemble, []int{2023, 2022, 2021})
			So(e.Components.Base, ShouldAlmostEqual, .325, 1e-9)
		})

		Convey("Then sixty percent of the gap to career is pulled back", func() {
			So(e.Components.Age, ShouldEqual, 0)
			So(e.Components.Regression, ShouldAlmostEqual, -.015, 1e-9)
			So(e.Components.Sustainability, ShouldEqual, 0.0)
			So(e.Point, ShouldAlmostEqual, .310, 1e-9)
		})

		Convey("Then the range is the player's own year-over-year volatility", func() {
			So(e.VolatilitySource, ShouldEqual, projection.VolatilityPlayer)
			So(e.Volatility, ShouldAlmostEqual, .0424264069, 1e-9)
			So(e.Low, ShouldAlmostEqual, .310-.0424264069, 1e-9)
			So(e.High, ShouldAlmostEqual, .310+.0424264069, 1e-9)
		})

		Convey("Then metrics without a signal are not reverted", func() {
			k, _ := p.Estimate(model.MetricKPct)
			So(k.Components.Regression, ShouldEqual, 0.0)
			So(k.Point, ShouldAlmostEqual, 20.0, 1e-9)
		})
	})

	Convey("Given an aging hitter", t, func() {
		lines := []model.SeasonRecord{line(2021, 32, 600), line(2022, 33, 600), line(2023, 34, 600)}
		p := project(lines, model.RoleEverydayRegular, nil)

		Convey("Then power fades while discipline is untouched", func() {
			So(p.AgeBucket, ShouldEqual, model.AgeDecline)
			iso, _ := p.Estimate(model.MetricISO)
			So(iso.Components.Age, ShouldAlmostEqual, -.012, 1e-12)
			So(iso.Point, ShouldAlmostEqual, .148, 1e-9)
			bb, _ := p.Estimate(model.MetricBBPct)
			So(bb.Components.Age, ShouldEqual, 0)
		})
	})

	Convey("Given a base far beyond the league distribution", t, func() {
		lines := []model.SeasonRecord{line(2021, 27, 600), line(2022, 28, 600), line(2023, 29, 600)}
		for i := range lines {
			lines[i].BABIP = .380
		}
		p := project(lines, model.RoleEverydayRegular, league())
		e, _ := p.Estimate(model.MetricBABIP)

		Convey("Then it is clipped to the widened 1st-99th percentile range", func() {
			So(e.Clipped, ShouldBeTrue)
			So(e.Point, ShouldAlmostEqual, .31861+.1*(.31861-.28039), 1e-9)
		})
	})
}

func TestSustainability(t *testing.T) {
	build := func(current *model.BattedBallQuality) projection.Estimate {
		lines := []model.SeasonRecord{line(2021, 27, 600), line(2022, 28, 600), line(2023, 29, 600)}
		lines[0].Quality = &model.BattedBallQuality{ExitVelocity: 90, BarrelPct: 8, BattedBalls: 400}
		lines[1].Quality = &model.BattedBallQuality{ExitVelocity: 90, BarrelPct: 8, BattedBalls: 400}
		lines[2].ISO = .220
		lines[2].Quality = current
		p := project(lines, model.RoleEverydayRegular, nil)
		e, _ := p.Estimate(model.MetricISO)
		return e
	}

	Convey("Given an ISO gain with weaker contact", t, func() {
		e := build(&model.BattedBallQuality{ExitVelocity: 88, BarrelPct: 6, BattedBalls: 400})

		Convey("Then half of the remaining gain is removed", func() {
			So(e.Components.Base, ShouldAlmostEqual, .185, 1e-9)
			So(e.Components.Regression, ShouldAlmostEqual, -.015, 1e-9)
			So(e.Components.Sustainability, ShouldAlmostEqual, -.005, 1e-9)
			So(e.Point, ShouldAlmostEqual, .165, 1e-9)
		})
	})

	Convey("Given the same gain without batted-ball data", t, func() {
		e := build(nil)

		Convey("Then nothing is dampened", func() {
			So(e.Components.Sustainability, ShouldEqual, 0.0)
			So(e.Point, ShouldAlmostEqual, .170, 1e-9)
		})
	})
}

func TestConfidence(t *testing.T) {
	steady := func(n int) []model.SeasonRecord {
		out := make([]model.SeasonRecord, n)
		for i := range out {
			out[i] = line(2024-n+i, 24+i, 600)
		}
		return out
	}

	Convey("Given four steady seasons", t, func() {
		p := project(steady(4), model.RoleEverydayRegular, nil)

		Convey("Then confidence is HIGH with no reasons", func() {
			So(p.Confidence, ShouldEqual, projection.High)
			So(p.ConfidenceReasons, ShouldBeEmpty)
		})
	})

	Convey("Given four seasons on an estimated league baseline", t, func() {
		lg := league()
		lg.Estimated = true
		lg.SourceSeason = 2021
		p := project(steady(4), model.RoleEverydayRegular, lg)

		Convey("Then confidence drops one level", func() {
			So(p.Confidence, ShouldEqual, projection.Medium)
			So(p.ConfidenceReasons, ShouldContain, "league baseline estimated from 2021")
		})
	})

	Convey("Given four seasons with a missed year", t, func() {
		lines := steady(4)
		lines[3].Season = 2025
		p := project(lines, model.RoleEverydayRegular, nil)
		So(p.Confidence, ShouldEqual, projection.Medium)
	})

	Convey("Given a sell signal against a rising wRC+ trajectory", t, func() {
		lines := steady(4)
		for i := range lines {
			lines[i].WRCPlus = 100 + 10*float64(i)
		}
		lines[3].BABIP = .360
		p := project(lines, model.RoleEverydayRegular, nil)

		Convey("Then disagreement keeps confidence at MEDIUM", func() {
			So(p.Confidence, ShouldEqual, projection.Medium)
			So(len(p.ConfidenceReasons), ShouldEqual, 1)
			So(p.ConfidenceReasons[0], ShouldContainSubstring, "disagrees")
		})
	})

	Convey("Given two seasons", t, func() {
		So(project(steady(2), model.RoleEverydayRegular, nil).Confidence, ShouldEqual, projection.Medium)
	})

	Convey("Given a single season under the PA floor", t, func() {
		lines := []model.SeasonRecord{line(2023, 22, 40)}
		p := project(lines, model.RoleInsufficientSample, nil)

		Convey("Then confidence is LOW and the range collapses without volatility data", func() {
			So(p.Confidence, ShouldEqual, projection.Low)
			So(p.AgeBucket, ShouldEqual, model.AgeRookie)
			e, _ := p.Estimate(model.MetricBABIP)
			So(e.VolatilitySource, ShouldEqual, projection.VolatilityNone)
			So(e.Low, ShouldEqual, e.Point)
		})
	})

	Convey("Given a single season with league context", t, func() {
		p := project([]model.SeasonRecord{line(2023, 22, 600)}, model.RoleEverydayRegular, league())
		e, _ := p.Estimate(model.MetricBABIP)

		Convey("Then the range falls back to the league spread", func() {
			So(e.VolatilitySource, ShouldEqual, projection.VolatilityLeagueSpread)
			So(e.Volatility, ShouldBeGreaterThan, 0)
			So(p.Confidence, ShouldEqual, projection.Low)
		})
	})

	Convey("Given a single season with league year-over-year data", t, func() {
		lg := league()
		prior := make([]model.SeasonRecord, 0, 40)
		for i := 0; i < 40; i++ {
			r := line(2022, 26, 550)
			r.PlayerID = fmt.Sprintf("L%02d", i)
			r.BABIP = .280 + .001*float64(i)
			if i%2 == 0 {
				r.BABIP -= .010
			}
			prior = append(prior, r)
		}
		So(lg.YearOverYear(prior, tuning.Default().Baseline), ShouldBeNil)
		s, _ := lg.Summary(model.MetricBABIP)

		p := project([]model.SeasonRecord{line(2023, 22, 600)}, model.RoleEverydayRegular, lg)
		e, _ := p.Estimate(model.MetricBABIP)

		Convey("Then the range uses the league's season-over-season spread", func() {
			So(e.VolatilitySource, ShouldEqual, projection.VolatilityLeague)
			So(e.Volatility, ShouldAlmostEqual, s.YoYStdDev*tuning.Default().Projection.VolatilityMultiplier(model.RoleEverydayRegular), 1e-12)
			So(s.YoYStdDev, ShouldBeLessThan, s.StdDev)
		})
	})
}
