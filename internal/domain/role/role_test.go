package role_test

import (
	"fmt"
	"testing"

	"github.com/okian/battrend/internal/domain/baseline"
	"github.com/okian/battrend/internal/domain/model"
	"github.com/okian/battrend/internal/domain/role"
	"github.com/okian/battrend/internal/domain/tuning"
	. "github.com/smartystreets/goconvey/convey"
)

// testLeague has PA median 495 / p75 592.5, ISO median .1975 / p75 .24625 and K% p25 14.875.
func testLeague() *baseline.LeagueBaseline {
	records := make([]model.SeasonRecord, 0, 40)
	for i := 0; i < 40; i++ {
		pa := 300 + 10*i
		records = append(records, model.SeasonRecord{
			PlayerID: fmt.Sprintf("L%02d", i), Season: 2023, Team: "LGE",
			Games: 140, PA: pa, AB: pa - 40, Hits: (pa - 40) / 4,
			AVG: .250, OBP: .320, SLG: .420, WRCPlus: 100, BABIP: .295,
			BBPct: 8, KPct: 10 + .5*float64(i), ISO: .100 + .005*float64(i),
			GBPct: 44, FBPct: 35, LDPct: 21, HRFB: 11,
		})
	}
	b, err := baseline.Compute(2023, records, tuning.Default().Baseline)
	if err != nil {
		panic(err)
	}
	return b
}

func season(pa, games, sb int, iso, k float64) model.SeasonRecord {
	return model.SeasonRecord{
		PlayerID: "x", Season: 2023, Team: "TST",
		Games: games, PA: pa, SB: sb, ISO: iso, KPct: k,
	}
}

func TestClassify(t *testing.T) {
	cfg := tuning.Default().Role
	league := testLeague()

	Convey("Given a league baseline", t, func() {
		cases := []struct {
			name string
			rec  model.SeasonRecord
			want model.RoleLabel
		}{
			{"a season under the PA floor", season(40, 20, 30, .400, 5), model.RoleInsufficientSample},
			{"heavy usage with top-quartile power", season(650, 155, 2, .300, 25), model.RolePowerSpecialist},
			{"limited usage with top-quartile power", season(300, 90, 0, .260, 28), model.RolePartTimePower},
			{"many steals and little power", season(550, 140, 35, .120, 20), model.RoleSpeedSpecialist},
			{"few strikeouts and little power", season(550, 140, 5, .150, 10), model.RoleContactSpecialist},
			{"everyday usage", season(600, 150, 5, .200, 20), model.RoleEverydayRegular},
			{"platoon usage", season(300, 100, 5, .200, 20), model.RolePlatoonBat},
			{"many games but few trips to the plate", season(150, 90, 5, .200, 20), model.RoleDefensiveSpecialist},
			{"sporadic usage", season(120, 40, 5, .200, 20), model.RoleBenchBat},
		}
		for _, tc := range cases {
			tc := tc
			Convey("When classifying "+tc.name, func() {
				got := role.Classify(tc.rec, league, cfg)
				Convey(fmt.Sprintf("Then the label is %s", tc.want), func() {
					So(got.Label, ShouldEqual, tc.want)
				})
			})
		}
	})

	Convey("Given no league baseline", t, func() {
		got := role.Classify(season(650, 155, 2, .300, 25), nil, cfg)

		Convey("Then league-relative rules are skipped", func() {
			So(got.Label, ShouldEqual, model.RoleEverydayRegular)
			So(got.Rule, ShouldEqual, "everyday-usage")
		})
	})

	Convey("Given a shortened season", t, func() {
		rec := season(200, 55, 0, .180, 20)
		rec.Season = 2020
		got := role.Classify(rec, nil, cfg)

		Convey("Then usage is measured against that season's schedule", func() {
			So(got.Usage.TeamGames, ShouldEqual, 60)
			So(got.Label, ShouldEqual, model.RoleEverydayRegular)
		})
	})

	Convey("Given the same input twice", t, func() {
		rec := season(550, 140, 35, .120, 20)
		So(role.Classify(rec, league, cfg), ShouldResemble, role.Classify(rec, league, cfg))
	})
}

func TestRules(t *testing.T) {
	Convey("Given the default rule table", t, func() {
		table := role.Rules()

		Convey("Then the PA floor is evaluated first and the fallback last", func() {
			So(table[0].Label, ShouldEqual, model.RoleInsufficientSample)
			So(table[len(table)-1].Label, ShouldEqual, model.RoleBenchBat)
		})

		Convey("Then every label in the taxonomy has exactly one rule", func() {
			seen := map[model.RoleLabel]int{}
			for _, r := range table {
				seen[r.Label]++
			}
			for _, l := range model.RoleLabels {
				So(seen[l], ShouldEqual, 1)
			}
		})

		Convey("Then each rule can be exercised on its own", func() {
			cfg := tuning.Default().Role
			f := role.Facts{Record: &model.SeasonRecord{PA: 600, Games: 150, Season: 2023}, Tuning: cfg}
			f.Usage = role.UsageOf(*f.Record, cfg)
			for _, r := range table {
				if r.Name == "everyday-usage" {
					So(r.Match(f), ShouldBeTrue)
				}
				if r.Name == "top-quartile-pa-and-power" {
					So(r.Match(f), ShouldBeFalse)
				}
			}
		})
	})

	Convey("Given a custom table without a floor rule", t, func() {
		cfg := tuning.Default().Role
		table := []role.Rule{{Name: "always-power", Label: model.RolePowerSpecialist, Match: func(role.Facts) bool { return true }}}

		Convey("Then the PA floor still wins", func() {
			So(role.ClassifyWith(table, season(10, 5, 0, .5, 10), nil, cfg).Label, ShouldEqual, model.RoleInsufficientSample)
			So(role.ClassifyWith(table, season(500, 130, 0, .1, 10), nil, cfg).Label, ShouldEqual, model.RolePowerSpecialist)
		})

		Convey("Then an empty table falls back to bench-bat", func() {
			So(role.ClassifyWith(nil, season(500, 130, 0, .1, 10), nil, cfg).Label, ShouldEqual, model.RoleBenchBat)
		})
	})
}
