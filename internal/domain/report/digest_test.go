package report_test

import (
	"testing"

	"github.com/okian/battrend/internal/domain/model"
	"github.com/okian/battrend/internal/domain/regression"
	"github.com/okian/battrend/internal/domain/report"
	. "github.com/smartystreets/goconvey/convey"
)

func sig(m model.Metric, tier regression.Tier, dir regression.Direction) regression.Signal {
	return regression.Signal{Metric: m, Tier: tier, Direction: dir}
}

func rep(id string, signals ...regression.Signal) *report.Report {
	return &report.Report{PlayerID: id, Season: 2023, Signals: signals}
}

func TestBuildDigest(t *testing.T) {
	Convey("Given reports with assorted signals", t, func() {
		d := report.BuildDigest([]*report.Report{
			rep("e", sig(model.MetricBABIP, regression.Tier1, regression.Sell), sig(model.MetricHRFB, regression.Tier1, regression.Sell), sig(model.MetricISO, regression.Tier2, regression.Sell)),
			rep("a", sig(model.MetricBABIP, regression.Tier1, regression.Buy), sig(model.MetricHRFB, regression.Tier2, regression.Buy)),
			rep("b", sig(model.MetricBABIP, regression.Tier2, regression.Buy)),
			rep("c", sig(model.MetricBABIP, regression.Tier1, regression.Buy), sig(model.MetricKPct, regression.Tier2, regression.Sell)),
			rep("d", sig(model.MetricBBPct, regression.Tier1, regression.Sell)),
			rep("f", sig(model.MetricBABIP, regression.Tier1, regression.Sell), sig(model.MetricHRFB, regression.Tier1, regression.Sell)),
			rep("quiet"),
			rep("a", sig(model.MetricBABIP, regression.Tier1, regression.Sell)),
			nil,
		})

		Convey("Then players land in the first matching category", func() {
			So(d.Players, ShouldEqual, 6)
			So(d.Count(report.CategoryStrongBuy), ShouldEqual, 1)
			So(d.Count(report.CategoryBuy), ShouldEqual, 1)
			So(d.Count(report.CategoryMixed), ShouldEqual, 1)
			So(d.Count(report.CategorySell), ShouldEqual, 1)
			So(d.Count(report.CategoryStrongSell), ShouldEqual, 2)
			So(d.Entries[report.CategoryMixed][0].PlayerID, ShouldEqual, "c")
		})

		Convey("Then duplicate players keep their first report", func() {
			So(d.Entries[report.CategoryStrongBuy][0].PlayerID, ShouldEqual, "a")
			So(d.Entries[report.CategoryStrongBuy][0].NetSignal, ShouldEqual, 2)
		})

		Convey("Then strong sells are ordered most negative first", func() {
			sells := d.Entries[report.CategoryStrongSell]
			So(sells[0].PlayerID, ShouldEqual, "e")
			So(sells[0].NetSignal, ShouldEqual, -3)
			So(sells[1].PlayerID, ShouldEqual, "f")
		})
	})

	Convey("Given suppressed signals only", t, func() {
		s := sig(model.MetricISO, regression.Tier1, regression.Buy)
		s.Suppressed = true
		d := report.BuildDigest([]*report.Report{rep("x", s)})

		Convey("Then the player is left out", func() {
			So(d.Players, ShouldEqual, 0)
		})
	})
}
