// Package model contains domain models passed between layers.
package model

// Metric names a rate statistic carried on a SeasonRecord.
type Metric string

// Rate metrics.
const (
	MetricAVG     Metric = "avg"
	MetricOBP     Metric = "obp"
	MetricSLG     Metric = "slg"
	MetricWRCPlus Metric = "wrc_plus"
	MetricBABIP   Metric = "babip"
	MetricBBPct   Metric = "bb_pct"
	MetricKPct    Metric = "k_pct"
	MetricISO     Metric = "iso"
	MetricGBPct   Metric = "gb_pct"
	MetricFBPct   Metric = "fb_pct"
	MetricLDPct   Metric = "ld_pct"
	MetricHRFB    Metric = "hr_fb_pct"
)

// Domain is the closed interval a metric's value must fall in.
type Domain struct {
	Min float64
	Max float64
}

// Contains reports whether v lies in [Min, Max].
func (d Domain) Contains(v float64) bool { return v >= d.Min && v <= d.Max }

// Clamp limits v to the domain.
func (d Domain) Clamp(v float64) float64 {
	if v < d.Min {
		return d.Min
	}
	if v > d.Max {
		return d.Max
	}
	return v
}

// MetricInfo describes how a metric is bounded, displayed and read.
type MetricInfo struct {
	Metric Metric
	Label  string
	Domain Domain
	// Precision is the number of decimals used when the metric is displayed.
	Precision int32
	// HigherIsBetter is false for metrics where an increase hurts the hitter (K%).
	HigherIsBetter bool
}

var catalog = map[Metric]MetricInfo{
	MetricAVG:     {Metric: MetricAVG, Label: "AVG", Domain: Domain{0, 1}, Precision: 3, HigherIsBetter: true},
	MetricOBP:     {Metric: MetricOBP, Label: "OBP", Domain: Domain{0, 1}, Precision: 3, HigherIsBetter: true},
	MetricSLG:     {Metric: MetricSLG, Label: "SLG", Domain: Domain{0, 4}, Precision: 3, HigherIsBetter: true},
	MetricWRCPlus: {Metric: MetricWRCPlus, Label: "wRC+", Domain: Domain{-100, 500}, Precision: 0, HigherIsBetter: true},
	MetricBABIP:   {Metric: MetricBABIP, Label: "BABIP", Domain: Domain{0, 1}, Precision: 3, HigherIsBetter: true},
	MetricBBPct:   {Metric: MetricBBPct, Label: "BB%", Domain: Domain{0, 100}, Precision: 1, HigherIsBetter: true},
	MetricKPct:    {Metric: MetricKPct, Label: "K%", Domain: Domain{0, 100}, Precision: 1, HigherIsBetter: false},
	MetricISO:     {Metric: MetricISO, Label: "ISO", Domain: Domain{0, 3}, Precision: 3, HigherIsBetter: true},
	MetricGBPct:   {Metric: MetricGBPct, Label: "GB%", Domain: Domain{0, 100}, Precision: 1, HigherIsBetter: false},
	MetricFBPct:   {Metric: MetricFBPct, Label: "FB%", Domain: Domain{0, 100}, Precision: 1, HigherIsBetter: true},
	MetricLDPct:   {Metric: MetricLDPct, Label: "LD%", Domain: Domain{0, 100}, Precision: 1, HigherIsBetter: true},
	MetricHRFB:    {Metric: MetricHRFB, Label: "HR/FB%", Domain: Domain{0, 100}, Precision: 1, HigherIsBetter: true},
}

// RateMetrics lists every rate metric in the order baselines are reported.
var RateMetrics = []Metric{
	MetricAVG, MetricOBP, MetricSLG, MetricWRCPlus, MetricBABIP, MetricBBPct,
	MetricKPct, MetricISO, MetricGBPct, MetricFBPct, MetricLDPct, MetricHRFB,
}

// TrackedMetrics are the metrics checked for regression signals.
var TrackedMetrics = []Metric{MetricBABIP, MetricKPct, MetricBBPct, MetricISO, MetricHRFB}

// ProjectedMetrics are the metrics trended and projected for the next season.
var ProjectedMetrics = []Metric{MetricBABIP, MetricKPct, MetricBBPct, MetricISO, MetricHRFB, MetricWRCPlus}

// Info returns the catalog entry for m.
func Info(m Metric) (MetricInfo, bool) {
	info, ok := catalog[m]
	return info, ok
}

// Label returns the display label for m, or the raw name when unknown.
func (m Metric) Label() string {
	if info, ok := catalog[m]; ok {
		return info.Label
	}
	return string(m)
}

// Known reports whether m is in the catalog.
func (m Metric) Known() bool {
	_, ok := catalog[m]
	return ok
}
