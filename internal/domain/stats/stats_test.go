package stats_test

import (
	"testing"

	"github.com/okian/battrend/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStats(t *testing.T) {
	Convey("Given a small sample", t, func() {
		values := []float64{4, 1, 3, 2, 5}
		sorted := stats.Sorted(values)

		Convey("Then sorting leaves the input alone", func() {
			So(sorted, ShouldResemble, []float64{1, 2, 3, 4, 5})
			So(values[0], ShouldEqual, 4.0)
		})

		Convey("Then mean and sample deviation are computed", func() {
			So(stats.Mean(values), ShouldEqual, 3.0)
			So(stats.Mean(nil), ShouldEqual, 0.0)
			So(stats.SampleStdDev(values), ShouldAlmostEqual, 1.5811388, 1e-6)
			So(stats.SampleStdDev([]float64{7}), ShouldEqual, 0.0)
		})

		Convey("Then percentiles interpolate between ranks", func() {
			So(stats.Percentile(sorted, 50), ShouldEqual, 3.0)
			So(stats.Percentile(sorted, 10), ShouldAlmostEqual, 1.4, 1e-12)
			So(stats.Percentile(sorted, 0), ShouldEqual, 1.0)
			So(stats.Percentile(sorted, 100), ShouldEqual, 5.0)
			So(stats.Percentile(nil, 50), ShouldEqual, 0.0)
			So(stats.Percentile([]float64{1, 2, 3, 4}, 50), ShouldEqual, 2.5)
		})
	})

	Convey("Given points on a line", t, func() {
		xs := []float64{2019, 2020, 2022}
		ys := []float64{10, 12, 16}

		Convey("Then the slope respects gaps in x", func() {
			So(stats.Slope(xs, ys), ShouldAlmostEqual, 2.0, 1e-9)
			So(stats.Slope([]float64{1}, []float64{3}), ShouldEqual, 0.0)
			So(stats.Slope([]float64{1, 1}, []float64{3, 4}), ShouldEqual, 0.0)
			So(stats.Slope([]float64{1, 2}, []float64{3}), ShouldEqual, 0.0)
		})

		Convey("Then a flat series has no slope", func() {
			So(stats.Slope(xs, []float64{7, 7, 7}), ShouldEqual, 0.0)
		})
	})

	Convey("Given weighted values", t, func() {
		m, ok := stats.WeightedMean([]float64{10, 20}, []float64{3, 1})
		So(ok, ShouldBeTrue)
		So(m, ShouldEqual, 12.5)
		_, ok = stats.WeightedMean([]float64{10}, []float64{0})
		So(ok, ShouldBeFalse)

		Convey("Then only the pairs both slices cover count", func() {
			m, ok := stats.WeightedMean([]float64{10, 20, 30}, []float64{1, 1})
			So(ok, ShouldBeTrue)
			So(m, ShouldEqual, 15.0)
			_, ok = stats.WeightedMean(nil, []float64{1})
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given signs near zero", t, func() {
		So(stats.Sign(0.5, 1e-9), ShouldEqual, 1)
		So(stats.Sign(-0.5, 1e-9), ShouldEqual, -1)
		So(stats.Sign(1e-12, 1e-9), ShouldEqual, 0)
	})
}
