package render_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/okian/battrend/internal/adapters/render"
	"github.com/okian/battrend/internal/domain/model"
	"github.com/okian/battrend/internal/domain/projection"
	"github.com/okian/battrend/internal/domain/regression"
	"github.com/okian/battrend/internal/domain/report"
	"github.com/okian/battrend/internal/domain/role"
	"github.com/okian/battrend/internal/domain/trend"
	. "github.com/smartystreets/goconvey/convey"
)

func sample() *report.Report {
	babip := regression.Signal{
		Metric: model.MetricBABIP, Tier: regression.Tier1, Direction: regression.Sell,
		Current: .333, Career: .274, Delta: .059,
		Rationale: "BABIP 0.333 is +0.059 from career 0.274; TIER1 SELL-lean",
	}
	return &report.Report{
		ID: report.ID("p1", 2023), PlayerID: "p1", Name: "Sam Hitter", Season: 2023, Team: "SEA", Age: 27, PA: 600, Games: 150,
		Role:        role.Result{Label: model.RoleEverydayRegular},
		League:      report.LeagueContext{Season: 2023, SourceSeason: 2022, Estimated: true, Qualifying: 41},
		Percentiles: []report.PercentileRank{{Metric: model.MetricBABIP, Value: .333, Rank: 97.5, Tier: "Elite"}},
		Trend: trend.Summary{
			PlayerID: "p1", Season: 2023, Seasons: []int{2021, 2022, 2023}, AgeBucket: model.AgePrime,
			Metrics:    []trend.MetricTrend{{Metric: model.MetricBABIP, Current: .333, Rolling: .294, Streak: 1}},
			Trajectory: trend.Trajectory{Direction: trend.DirectionFlat},
		},
		Signals:        []regression.Signal{babip},
		Checks:         []regression.Signal{babip},
		NetScore:       -2,
		Recommendation: regression.LeanSell,
		Evidence:       regression.Evidence{State: regression.EvidenceAbsent},
		Projection: projection.Projection{
			TargetSeason: 2024,
			Estimates: []projection.Estimate{{
				Metric: model.MetricBABIP, Point: .284, Low: .264, High: .304,
				Components: projection.Components{Base: .299, Regression: -.015},
			}},
			Confidence:        projection.Medium,
			ConfidenceReasons: []string{"league baseline estimated from 2022"},
		},
	}
}

func TestFormatting(t *testing.T) {
	Convey("Given metric values", t, func() {
		So(render.Value(model.MetricBABIP, .2745), ShouldEqual, "0.275")
		So(render.Value(model.MetricKPct, 21.04), ShouldEqual, "21.0")
		So(render.Value(model.MetricWRCPlus, 112.4), ShouldEqual, "112")
		So(render.Delta(model.MetricBABIP, .059), ShouldEqual, "+0.059")
		So(render.Delta(model.MetricISO, -.031), ShouldEqual, "-0.031")
		So(render.Delta(model.MetricBABIP, 0), ShouldEqual, "+0.000")
		So(render.Rank(97.5), ShouldEqual, "98")
	})

	Convey("Given format names", t, func() {
		f, err := render.ParseFormat("YML")
		So(err, ShouldBeNil)
		So(f, ShouldEqual, render.FormatYAML)
		f, err = render.ParseFormat("")
		So(err, ShouldBeNil)
		So(f, ShouldEqual, render.FormatText)
		_, err = render.ParseFormat("xml")
		So(errors.Is(err, render.ErrUnknownFormat), ShouldBeTrue)
		So(render.FormatJSON.ContentType(), ShouldEqual, "application/json")
	})
}

func TestReportText(t *testing.T) {
	Convey("Given a report rendered without color", t, func() {
		out := render.New().ReportText(sample())

		Convey("Then every section is present", func() {
			So(out, ShouldContainSubstring, "Sam Hitter  2023 SEA")
			So(out, ShouldContainSubstring, "League baseline estimated from 2022")
			So(out, ShouldContainSubstring, "TIER1 SELL")
			So(out, ShouldContainSubstring, "Net score -2: LEAN SELL")
			So(out, ShouldContainSubstring, "2024 projection")
			So(out, ShouldContainSubstring, "0.264 - 0.304")
			So(out, ShouldContainSubstring, "Confidence MEDIUM")
		})

		Convey("Then no escape sequences are written", func() {
			So(strings.Contains(out, "\x1b["), ShouldBeFalse)
		})
	})
}

func TestReportStructured(t *testing.T) {
	Convey("Given a report rendered as JSON and YAML", t, func() {
		r := render.New()
		var js, ys bytes.Buffer
		So(r.Report(&js, sample(), render.FormatJSON), ShouldBeNil)
		So(r.Report(&ys, sample(), render.FormatYAML), ShouldBeNil)

		Convey("Then both decode to the same identity", func() {
			var fromJSON, fromYAML map[string]any
			So(json.Unmarshal(js.Bytes(), &fromJSON), ShouldBeNil)
			So(yaml.Unmarshal(ys.Bytes(), &fromYAML), ShouldBeNil)
			So(fromJSON["player_id"], ShouldEqual, "p1")
			So(fromYAML["player_id"], ShouldEqual, "p1")
			So(fromJSON["recommendation"], ShouldEqual, "LEAN SELL")
		})
	})
}

func TestDigestText(t *testing.T) {
	Convey("Given a digest with one strong sell", t, func() {
		rep := sample()
		second := rep.Signals[0]
		second.Metric = model.MetricHRFB
		second.Rationale = "HR/FB% 19.0 is +6.0 from career 13.0; TIER1 SELL-lean"
		rep.Signals = append(rep.Signals, second)
		d := report.BuildDigest([]*report.Report{rep})

		out := render.New().DigestText(d, "2023-10-01")

		Convey("Then the header, summary and entry are written", func() {
			So(out, ShouldContainSubstring, "REGRESSION ALERT DIGEST - 2023-10-01")
			So(out, ShouldContainSubstring, "Strong Sell Signals: 1")
			So(out, ShouldContainSubstring, "Sam Hitter (Net: -2)")
			So(out, ShouldContainSubstring, "HR/FB% 19.0")
		})
	})

	Convey("Given an empty digest", t, func() {
		out := render.New().DigestText(report.BuildDigest(nil), "2023-10-01")
		So(out, ShouldContainSubstring, "No new alerts to report.")
	})

	Convey("Given a digest rendered as JSON", t, func() {
		var buf bytes.Buffer
		err := render.New().Digest(&buf, report.BuildDigest([]*report.Report{sample()}), 2023, "2023-10-01", render.FormatJSON)
		So(err, ShouldBeNil)

		var doc map[string]any
		So(json.Unmarshal(buf.Bytes(), &doc), ShouldBeNil)
		So(doc["players"], ShouldEqual, float64(1))
		counts := doc["counts"].(map[string]any)
		So(counts["sell"], ShouldEqual, float64(1))
	})
}

func TestScanText(t *testing.T) {
	Convey("Given two reports from one scan", t, func() {
		quiet := &report.Report{PlayerID: "p2", Season: 2023, Team: "BOS", PA: 410, Recommendation: regression.Neutral}
		out := render.New().ScanText(2023, []*report.Report{sample(), quiet})

		Convey("Then each player gets a row with its call and signals", func() {
			So(out, ShouldContainSubstring, "SEASON 2023 SCAN: 2 players")
			So(out, ShouldContainSubstring, "Sam Hitter")
			So(out, ShouldContainSubstring, "BABIP TIER1")
			So(out, ShouldContainSubstring, "-2")
		})

		Convey("Then a report without a name falls back to the player id", func() {
			So(out, ShouldContainSubstring, "p2")
			So(out, ShouldContainSubstring, "+0")
		})
	})
}
