package baseline_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/okian/battrend/internal/domain/baseline"
	"github.com/okian/battrend/internal/domain/model"
	"github.com/okian/battrend/internal/domain/tuning"
	. "github.com/smartystreets/goconvey/convey"
)

type leagueSource struct {
	seasons map[int][]model.SeasonRecord
	reads   []int
}

func (s *leagueSource) LeagueSeason(_ context.Context, season int) ([]model.SeasonRecord, error) {
	s.reads = append(s.reads, season)
	return s.seasons[season], nil
}

// league returns n qualifying players whose BABIP runs .250, .251, ...
func league(season, n, pa int) []model.SeasonRecord {
	out := make([]model.SeasonRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.SeasonRecord{
			PlayerID: fmt.Sprintf("p%03d", i), Season: season, Team: "AAA",
			Games: 140, PA: pa, AB: pa - 50, Hits: (pa - 50) / 4,
			AVG: .250, OBP: .320, SLG: .400, WRCPlus: 100,
			BABIP: .250 + float64(i)*.001, BBPct: 8, KPct: 15 + float64(i)*.2, ISO: .150,
			GBPct: 44, FBPct: 35, LDPct: 21, HRFB: 10 + float64(i)*.1,
		})
	}
	return out
}

func TestCompute(t *testing.T) {
	Convey("Given a season of five qualifiers and one part-timer", t, func() {
		records := league(2023, 5, 500)
		records = append(records, league(2023, 1, 100)[0])
		records[5].PlayerID = "bench"
		records[5].BABIP = .900

		b, err := baseline.Compute(2023, records, tuning.Default().Baseline)

		Convey("Then only qualifiers count", func() {
			So(err, ShouldBeNil)
			So(b.Qualifying, ShouldEqual, 5)
			So(b.Estimated, ShouldBeFalse)
			So(b.SourceSeason, ShouldEqual, 2023)
		})

		Convey("Then percentiles interpolate linearly between ranks", func() {
			s, ok := b.Summary(model.MetricBABIP)
			So(ok, ShouldBeTrue)
			So(s.Count, ShouldEqual, 5)
			So(s.Mean, ShouldAlmostEqual, .252, 1e-12)
			So(s.P50, ShouldAlmostEqual, .252, 1e-12)
			So(s.P25, ShouldAlmostEqual, .251, 1e-12)
			So(s.P10, ShouldAlmostEqual, .2504, 1e-12)
			So(s.P90, ShouldAlmostEqual, .2536, 1e-12)
			So(s.StdDev, ShouldAlmostEqual, 0.0015811388, 1e-9)
		})

		Convey("Then the percentile rank counts values strictly below", func() {
			rank, ok := b.PercentileRank(model.MetricBABIP, .2515)
			So(ok, ShouldBeTrue)
			So(rank, ShouldEqual, 40.0)
			rank, _ = b.PercentileRank(model.MetricBABIP, .300)
			So(rank, ShouldEqual, 100.0)
			So(baseline.RankTier(rank), ShouldEqual, baseline.TierElite)
		})

		Convey("Then an arbitrary percentile can be read", func() {
			p, ok := b.Percentile(model.MetricBABIP, 100)
			So(ok, ShouldBeTrue)
			So(p, ShouldAlmostEqual, .254, 1e-12)
		})
	})

	Convey("Given a traded player split below the floor on each team", t, func() {
		records := league(2023, 2, 100)
		records[1].PlayerID = records[0].PlayerID
		records[1].Team = "BBB"

		b, err := baseline.Compute(2023, records, tuning.Default().Baseline)

		Convey("Then the merged line qualifies once", func() {
			So(err, ShouldBeNil)
			So(b.Qualifying, ShouldEqual, 1)
			So(b.PlateAppearances.P50, ShouldEqual, 200.0)
		})
	})

	Convey("Given an invalid record", t, func() {
		records := league(2023, 3, 500)
		records[2].KPct = 140

		_, err := baseline.Compute(2023, records, tuning.Default().Baseline)

		Convey("Then computing fails validation", func() {
			So(errors.Is(err, model.ErrInvalidRecord), ShouldBeTrue)
		})
	})
}

func TestRankTier(t *testing.T) {
	Convey("Given percentile ranks at each band edge", t, func() {
		So(baseline.RankTier(90), ShouldEqual, baseline.TierElite)
		So(baseline.RankTier(89.9), ShouldEqual, baseline.TierAboveAverage)
		So(baseline.RankTier(75), ShouldEqual, baseline.TierAboveAverage)
		So(baseline.RankTier(50), ShouldEqual, baseline.TierAverage)
		So(baseline.RankTier(25), ShouldEqual, baseline.TierBelowAverage)
		So(baseline.RankTier(24.9), ShouldEqual, baseline.TierPoor)
	})
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	cfg := tuning.Default().Baseline

	Convey("Given a full season", t, func() {
		src := &leagueSource{seasons: map[int][]model.SeasonRecord{2023: league(2023, 40, 500)}}

		b, err := baseline.Resolve(ctx, src, 2023, cfg)

		Convey("Then it is used directly", func() {
			So(err, ShouldBeNil)
			So(b.Estimated, ShouldBeFalse)
			So(b.SourceSeason, ShouldEqual, 2023)
			So(src.reads, ShouldResemble, []int{2023, 2022})
		})

		Convey("Then no year-over-year spread exists without a prior season", func() {
			s, _ := b.Summary(model.MetricBABIP)
			So(s.YoYCount, ShouldEqual, 0)
			So(s.YoYStdDev, ShouldEqual, 0.0)
		})
	})

	Convey("Given two full seasons where half the league moved", t, func() {
		prior := league(2022, 40, 500)
		current := league(2023, 40, 500)
		for i := range current {
			if i%2 == 0 {
				current[i].BABIP += .020
			}
		}
		current[39].PlayerID = "rookie"
		src := &leagueSource{seasons: map[int][]model.SeasonRecord{2022: prior, 2023: current}}

		b, err := baseline.Resolve(ctx, src, 2023, cfg)

		Convey("Then the spread of season-over-season changes is recorded", func() {
			So(err, ShouldBeNil)
			s, ok := b.Summary(model.MetricBABIP)
			So(ok, ShouldBeTrue)
			So(s.YoYCount, ShouldEqual, 39)
			So(s.YoYStdDev, ShouldAlmostEqual, .010127, 1e-6)
			So(s.YoYStdDev, ShouldBeLessThan, s.StdDev)
		})

		Convey("Then a metric nobody changed has no spread", func() {
			s, _ := b.Summary(model.MetricKPct)
			So(s.YoYCount, ShouldEqual, 39)
			So(s.YoYStdDev, ShouldAlmostEqual, 0, 1e-12)
		})
	})

	Convey("Given a thin season after a thin season after a full one", t, func() {
		src := &leagueSource{seasons: map[int][]model.SeasonRecord{
			2021: league(2021, 35, 500),
			2022: league(2022, 10, 500),
			2023: league(2023, 12, 500),
		}}

		first, err := baseline.Resolve(ctx, src, 2023, cfg)
		second, err2 := baseline.Resolve(ctx, src, 2023, cfg)

		Convey("Then the nearest sufficient season is substituted and marked estimated", func() {
			So(err, ShouldBeNil)
			So(first.Estimated, ShouldBeTrue)
			So(first.Season, ShouldEqual, 2023)
			So(first.SourceSeason, ShouldEqual, 2021)
			So(first.Qualifying, ShouldEqual, 35)
		})

		Convey("Then repeating the fallback lands on the same season", func() {
			So(err2, ShouldBeNil)
			So(second.SourceSeason, ShouldEqual, first.SourceSeason)
			So(second.Metrics, ShouldResemble, first.Metrics)
		})
	})

	Convey("Given no sufficient season within the lookback", t, func() {
		src := &leagueSource{seasons: map[int][]model.SeasonRecord{
			2017: league(2017, 50, 500),
			2020: league(2020, 20, 500),
			2023: league(2023, 5, 500),
		}}

		_, err := baseline.Resolve(ctx, src, 2023, tuning.Baseline{MinQualifyingPA: 150, MinSample: 30, Lookback: 5})

		Convey("Then InsufficientLeagueDataError reports the best candidate", func() {
			So(errors.Is(err, baseline.ErrInsufficientLeagueData), ShouldBeTrue)
			var typed *baseline.InsufficientLeagueDataError
			So(errors.As(err, &typed), ShouldBeTrue)
			So(typed.Best, ShouldEqual, 20)
			So(typed.BestSeason, ShouldEqual, 2020)
			So(src.reads, ShouldHaveLength, 6)
		})
	})

	Convey("Given a nil source", t, func() {
		_, err := baseline.Resolve(ctx, nil, 2023, cfg)
		So(errors.Is(err, baseline.ErrNilSource), ShouldBeTrue)
	})
}
