package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/okian/battrend/internal/domain/model"
	"github.com/okian/battrend/internal/domain/regression"
	"github.com/okian/battrend/internal/domain/report"
)

// Renderer writes reports and digests.
type Renderer struct {
	color bool
	st    styles
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithColor turns ANSI styling on or off. It is off by default.
func WithColor(on bool) Option {
	return func(r *Renderer) {
		r.color = on
	}
}

// New creates a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{}
	for _, opt := range opts {
		opt(r)
	}
	r.st = newStyles(r.color)
	return r
}

// Report writes rep in format f.
func (r *Renderer) Report(w io.Writer, rep *report.Report, f Format) error {
	if f != FormatText {
		return Structured(w, f, rep)
	}
	_, err := io.WriteString(w, r.ReportText(rep))
	return err
}

// ReportText renders rep for a terminal.
func (r *Renderer) ReportText(rep *report.Report) string {
	var b strings.Builder
	r.header(&b, rep)
	r.percentiles(&b, rep)
	r.trend(&b, rep)
	r.signals(&b, rep)
	r.projection(&b, rep)
	return b.String()
}

func (r *Renderer) header(b *strings.Builder, rep *report.Report) {
	name := rep.Name
	if name == "" {
		name = rep.PlayerID
	}
	fmt.Fprintf(b, "%s\n", r.st.title.Render(fmt.Sprintf("%s  %d %s", name, rep.Season, rep.Team)))

	facts := []string{fmt.Sprintf("id %s", rep.PlayerID), fmt.Sprintf("%d PA", rep.PA), fmt.Sprintf("%d G", rep.Games)}
	if rep.Age > 0 {
		facts = append(facts, fmt.Sprintf("age %d (%s)", rep.Age, rep.Trend.AgeBucket))
	}
	facts = append(facts, "role "+string(rep.Role.Label))
	fmt.Fprintf(b, "%s\n", r.st.muted.Render(strings.Join(facts, " | ")))

	league := fmt.Sprintf("League baseline %d, %d qualifiers", rep.League.Season, rep.League.Qualifying)
	if rep.League.Estimated {
		league = r.st.warn.Render(fmt.Sprintf("League baseline estimated from %d, %d qualifiers", rep.League.SourceSeason, rep.League.Qualifying))
	}
	fmt.Fprintf(b, "%s\n", league)
}

func (r *Renderer) section(b *strings.Builder, title string) {
	fmt.Fprintf(b, "\n%s\n", r.st.section.Render(title))
}

func (r *Renderer) table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	if r.color {
		t = t.BorderStyle(r.st.muted)
	}
	return t.String()
}

func (r *Renderer) percentiles(b *strings.Builder, rep *report.Report) {
	if len(rep.Percentiles) == 0 {
		return
	}
	r.section(b, "League context")
	rows := make([][]string, 0, len(rep.Percentiles))
	for _, p := range rep.Percentiles {
		rows = append(rows, []string{p.Metric.Label(), Value(p.Metric, p.Value), Rank(p.Rank), p.Tier})
	}
	fmt.Fprintf(b, "%s\n", r.table([]string{"Metric", "Value", "Pct", "Tier"}, rows))
}

func (r *Renderer) trend(b *strings.Builder, rep *report.Report) {
	tr := rep.Trend
	r.section(b, fmt.Sprintf("Trend (%d seasons)", tr.SeasonCount()))

	rows := make([][]string, 0, len(tr.Metrics))
	for _, mt := range tr.Metrics {
		yoy := "-"
		if mt.YoY != nil {
			yoy = Delta(mt.Metric, *mt.YoY)
		}
		var flags []string
		if mt.Breakout {
			flags = append(flags, "breakout")
		}
		if mt.Decline {
			flags = append(flags, "decline")
		}
		rows = append(rows, []string{
			mt.Metric.Label(),
			Value(mt.Metric, mt.Current),
			Value(mt.Metric, mt.Rolling),
			yoy,
			strconv.Itoa(mt.Streak),
			strings.Join(flags, ","),
		})
	}
	fmt.Fprintf(b, "%s\n", r.table([]string{"Metric", "Current", "Rolling", "YoY", "Streak", "Flags"}, rows))

	traj := fmt.Sprintf("wRC+ trajectory %s (%s per season)", tr.Trajectory.Direction, Delta(model.MetricWRCPlus, tr.Trajectory.Slope))
	if tr.Peak != nil {
		traj += fmt.Sprintf("; peak %s in %d", Value(model.MetricWRCPlus, tr.Peak.WRCPlus), tr.Peak.Season)
		if tr.Peak.AtPeak {
			traj += " (at peak)"
		}
	}
	if tr.Gaps > 0 {
		traj += fmt.Sprintf("; %d missing seasons", tr.Gaps)
	}
	fmt.Fprintf(b, "%s\n", traj)
}

func (r *Renderer) direction(d regression.Direction, text string) string {
	if d == regression.Buy {
		return r.st.buy.Render(text)
	}
	return r.st.sell.Render(text)
}

func (r *Renderer) recommendation(rec regression.Recommendation) string {
	switch rec {
	case regression.StrongBuy, regression.LeanBuy:
		return r.st.buy.Render(string(rec))
	case regression.StrongSell, regression.LeanSell:
		return r.st.sell.Render(string(rec))
	default:
		return r.st.bold.Render(string(rec))
	}
}

func (r *Renderer) signals(b *strings.Builder, rep *report.Report) {
	r.section(b, "Regression signals")
	if rep.Note != "" {
		fmt.Fprintf(b, "%s\n", r.st.muted.Render(rep.Note))
	}
	if len(rep.Signals) == 0 && rep.Note == "" {
		fmt.Fprintf(b, "%s\n", r.st.muted.Render("No metric is outside its career band."))
	}
	for _, s := range rep.Signals {
		fmt.Fprintf(b, "  %s %s\n", r.direction(s.Direction, fmt.Sprintf("%s %s", s.Tier, s.Direction)), s.Rationale)
	}
	for _, s := range rep.Checks {
		if s.Suppressed {
			fmt.Fprintf(b, "  %s %s\n", r.st.muted.Render("SKILL"), s.Rationale)
		}
	}
	fmt.Fprintf(b, "Net score %+d: %s\n", rep.NetScore, r.recommendation(rep.Recommendation))

	ev := rep.Evidence
	line := fmt.Sprintf("Batted-ball evidence: %s", ev.State)
	if ev.State == regression.EvidencePresent {
		var parts []string
		if ev.ExitVelocityDelta != nil {
			parts = append(parts, "EV "+signed(*ev.ExitVelocityDelta, 1))
		}
		if ev.HardHitDelta != nil {
			parts = append(parts, "hard-hit "+signed(*ev.HardHitDelta, 1))
		}
		if ev.BarrelDelta != nil {
			parts = append(parts, "barrel "+signed(*ev.BarrelDelta, 1))
		}
		if len(parts) > 0 {
			line += " (" + strings.Join(parts, ", ") + ")"
		}
	}
	if ev.Reason != "" {
		line += "; " + ev.Reason
	}
	fmt.Fprintf(b, "%s\n", line)
}

func (r *Renderer) projection(b *strings.Builder, rep *report.Report) {
	p := rep.Projection
	r.section(b, fmt.Sprintf("%d projection", p.TargetSeason))

	rows := make([][]string, 0, len(p.Estimates))
	for _, e := range p.Estimates {
		point := Value(e.Metric, e.Point)
		if e.Clipped {
			point += "*"
		}
		rows = append(rows, []string{
			e.Metric.Label(),
			point,
			Value(e.Metric, e.Low) + " - " + Value(e.Metric, e.High),
			Value(e.Metric, e.Components.Base),
			Delta(e.Metric, e.Components.Age),
			Delta(e.Metric, e.Components.Regression),
			Delta(e.Metric, e.Components.Sustainability),
		})
	}
	fmt.Fprintf(b, "%s\n", r.table([]string{"Metric", "Point", "Range", "Base", "Age", "Regr", "Sust"}, rows))

	conf := fmt.Sprintf("Confidence %s", p.Confidence)
	if len(p.ConfidenceReasons) > 0 {
		conf += ": " + strings.Join(p.ConfidenceReasons, "; ")
	}
	fmt.Fprintf(b, "%s\n", r.st.bold.Render(conf))
}

func signed(v float64, places int32) string {
	d := decimal.NewFromFloat(v).Round(places)
	if d.Sign() >= 0 {
		return "+" + d.StringFixed(places)
	}
	return d.StringFixed(places)
}
