package trend_test

import (
	"errors"
	"testing"

	"github.com/okian/battrend/internal/domain/model"
	"github.com/okian/battrend/internal/domain/trend"
	"github.com/okian/battrend/internal/domain/tuning"
	. "github.com/smartystreets/goconvey/convey"
)

func seasonLine(season, age, pa int, wrc, iso float64) model.SeasonRecord {
	return model.SeasonRecord{
		PlayerID: "p1", Season: season, Team: "TST", Age: age,
		Games: pa / 4, PA: pa, AB: pa - 50, Hits: (pa - 50) / 4,
		AVG: .260, OBP: .330, SLG: .260 + iso, WRCPlus: wrc, BABIP: .300,
		BBPct: 8, KPct: 20, ISO: iso, GBPct: 43, FBPct: 36, LDPct: 21, HRFB: 12,
	}
}

func TestTrack(t *testing.T) {
	cfg := tuning.Default().Trend

	Convey("Given a steady power climb", t, func() {
		lines := []model.SeasonRecord{
			seasonLine(2020, 25, 600, 100, .150),
			seasonLine(2021, 26, 600, 105, .170),
			seasonLine(2022, 27, 600, 110, .190),
			seasonLine(2023, 28, 600, 130, .240),
		}

		s, err := trend.Track(lines, cfg)
		So(err, ShouldBeNil)
		iso, ok := s.Metric(model.MetricISO)
		So(ok, ShouldBeTrue)

		Convey("Then rolling averages use the last three seasons", func() {
			So(iso.Rolling, ShouldAlmostEqual, (.170+.190+.240)/3, 1e-12)
			So(*iso.PriorRolling, ShouldAlmostEqual, .170, 1e-12)
		})

		Convey("Then the year-over-year delta is against the previous season", func() {
			So(*iso.YoY, ShouldAlmostEqual, .050, 1e-12)
		})

		Convey("Then the jump is a breakout on a three-season rising streak", func() {
			So(iso.Breakout, ShouldBeTrue)
			So(iso.Decline, ShouldBeFalse)
			So(iso.Streak, ShouldEqual, 3)
			So(iso.PriorSeasons, ShouldEqual, 3)
		})

		Convey("Then the wRC+ trajectory is rising and the season is the peak", func() {
			So(s.Trajectory.Direction, ShouldEqual, trend.DirectionUp)
			So(s.Peak, ShouldNotBeNil)
			So(s.Peak.Season, ShouldEqual, 2023)
			So(s.Peak.AtPeak, ShouldBeTrue)
		})

		Convey("Then age and history place the player in the prime bucket", func() {
			So(s.AgeBucket, ShouldEqual, model.AgePrime)
			So(s.SeasonCount(), ShouldEqual, 4)
			So(s.Gaps, ShouldEqual, 0)
		})
	})

	Convey("Given a history with a missed season", t, func() {
		lines := []model.SeasonRecord{
			seasonLine(2019, 31, 550, 120, .200),
			seasonLine(2021, 33, 500, 110, .190),
			seasonLine(2022, 34, 450, 95, .150),
		}

		s, err := trend.Track(lines, cfg)
		So(err, ShouldBeNil)
		iso, _ := s.Metric(model.MetricISO)

		Convey("Then the gap is counted but never interpolated", func() {
			So(s.Gaps, ShouldEqual, 1)
			So(*iso.YoY, ShouldAlmostEqual, -.040, 1e-12)
		})

		Convey("Then the drop is a decline and the player is past peak", func() {
			So(iso.Decline, ShouldBeTrue)
			So(s.Trajectory.Direction, ShouldEqual, trend.DirectionDown)
			So(s.Peak.Season, ShouldEqual, 2019)
			So(s.Peak.AtPeak, ShouldBeFalse)
			So(s.Peak.YearsSincePeak, ShouldEqual, 3)
			So(s.AgeBucket, ShouldEqual, model.AgeDecline)
		})
	})

	Convey("Given a single season", t, func() {
		s, err := trend.Track([]model.SeasonRecord{seasonLine(2023, 0, 40, 80, .100)}, cfg)
		So(err, ShouldBeNil)
		iso, _ := s.Metric(model.MetricISO)

		Convey("Then there is no year-over-year delta and no flag", func() {
			So(iso.YoY, ShouldBeNil)
			So(iso.PriorRolling, ShouldBeNil)
			So(iso.Breakout, ShouldBeFalse)
			So(iso.Rolling, ShouldEqual, .100)
			So(s.AgeBucket, ShouldEqual, model.AgeRookie)
			So(s.Peak, ShouldBeNil)
			So(s.Trajectory.Direction, ShouldEqual, trend.DirectionFlat)
		})
	})

	Convey("Given only one prior season", t, func() {
		s, _ := trend.Track([]model.SeasonRecord{
			seasonLine(2022, 24, 600, 100, .150),
			seasonLine(2023, 25, 600, 140, .300),
		}, cfg)
		iso, _ := s.Metric(model.MetricISO)

		Convey("Then no breakout is flagged", func() {
			So(iso.Breakout, ShouldBeFalse)
		})
	})

	Convey("Given malformed histories", t, func() {
		_, err := trend.Track(nil, cfg)
		So(errors.Is(err, trend.ErrEmptyHistory), ShouldBeTrue)

		_, err = trend.Track([]model.SeasonRecord{seasonLine(2023, 25, 600, 100, .1), seasonLine(2022, 24, 600, 100, .1)}, cfg)
		So(errors.Is(err, trend.ErrUnorderedHistory), ShouldBeTrue)
	})
}

func TestBucket(t *testing.T) {
	cfg := tuning.Default().Trend

	Convey("Given the default age boundaries", t, func() {
		So(trend.Bucket(1, 30, cfg), ShouldEqual, model.AgeRookie)
		So(trend.Bucket(3, 0, cfg), ShouldEqual, model.AgeUnknown)
		So(trend.Bucket(3, 24, cfg), ShouldEqual, model.AgeAscending)
		So(trend.Bucket(3, 25, cfg), ShouldEqual, model.AgePrime)
		So(trend.Bucket(3, 29, cfg), ShouldEqual, model.AgePrime)
		So(trend.Bucket(3, 30, cfg), ShouldEqual, model.AgeLatePrime)
		So(trend.Bucket(3, 32, cfg), ShouldEqual, model.AgeLatePrime)
		So(trend.Bucket(3, 33, cfg), ShouldEqual, model.AgeDecline)
	})
}

func TestCareer(t *testing.T) {
	Convey("Given three seasons of different length", t, func() {
		a := seasonLine(2021, 26, 600, 100, .150)
		a.BABIP = .280
		b := seasonLine(2022, 27, 200, 100, .150)
		b.BABIP = .320
		b.Quality = &model.BattedBallQuality{ExitVelocity: 91, BarrelPct: 9}
		c := seasonLine(2023, 28, 600, 100, .150)
		c.BABIP = .400
		lines := []model.SeasonRecord{a, b, c}

		Convey("When profiling the latest season", func() {
			career := trend.Career(lines, 2023)

			Convey("Then only earlier seasons are weighted by PA", func() {
				v, ok := career.Value(model.MetricBABIP)
				So(ok, ShouldBeTrue)
				So(v, ShouldAlmostEqual, .290, 1e-12)
				So(career.PA, ShouldEqual, 800)
				So(career.Seasons, ShouldResemble, []int{2021, 2022})
			})

			Convey("Then quality comes from the seasons that had it", func() {
				So(career.Quality, ShouldNotBeNil)
				So(career.Quality.ExitVelocity, ShouldAlmostEqual, 91.0, 1e-12)
			})
		})

		Convey("When profiling the first season", func() {
			career := trend.Career(lines, 2021)

			Convey("Then there is no career baseline", func() {
				_, ok := career.Value(model.MetricBABIP)
				So(ok, ShouldBeFalse)
				So(career.PA, ShouldEqual, 0)
				So(career.Quality, ShouldBeNil)
			})
		})
	})
}
