package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okian/battrend/internal/domain/model"
)

type setter func(r *model.SeasonRecord, v string) error

func text(f func(*model.SeasonRecord) *string) setter {
	return func(r *model.SeasonRecord, v string) error {
		*f(r) = v
		return nil
	}
}

func integer(f func(*model.SeasonRecord) *int) setter {
	return func(r *model.SeasonRecord, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*f(r) = n
		return nil
	}
}

func float(f func(*model.SeasonRecord) *float64) setter {
	return func(r *model.SeasonRecord, v string) error {
		n, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(v, "%")), 64)
		if err != nil {
			return err
		}
		*f(r) = n
		return nil
	}
}

func quality(f func(*model.BattedBallQuality) *float64) setter {
	return func(r *model.SeasonRecord, v string) error {
		n, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(v, "%")), 64)
		if err != nil {
			return err
		}
		if r.Quality == nil {
			r.Quality = &model.BattedBallQuality{}
		}
		*f(r.Quality) = n
		return nil
	}
}

func battedBalls(r *model.SeasonRecord, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	if r.Quality == nil {
		r.Quality = &model.BattedBallQuality{}
	}
	r.Quality.BattedBalls = n
	return nil
}

// columns maps lower-cased CSV headers, in both snake_case and the usual
// stat-site spelling, to record fields.
var columns = map[string]setter{
	"player_id": text(func(r *model.SeasonRecord) *string { return &r.PlayerID }),
	"playerid":  text(func(r *model.SeasonRecord) *string { return &r.PlayerID }),
	"name":      text(func(r *model.SeasonRecord) *string { return &r.Name }),
	"team":      text(func(r *model.SeasonRecord) *string { return &r.Team }),
	"season":    integer(func(r *model.SeasonRecord) *int { return &r.Season }),
	"age":       integer(func(r *model.SeasonRecord) *int { return &r.Age }),
	"games":     integer(func(r *model.SeasonRecord) *int { return &r.Games }),
	"g":         integer(func(r *model.SeasonRecord) *int { return &r.Games }),
	"pa":        integer(func(r *model.SeasonRecord) *int { return &r.PA }),
	"ab":        integer(func(r *model.SeasonRecord) *int { return &r.AB }),
	"hits":      integer(func(r *model.SeasonRecord) *int { return &r.Hits }),
	"h":         integer(func(r *model.SeasonRecord) *int { return &r.Hits }),
	"doubles":   integer(func(r *model.SeasonRecord) *int { return &r.Doubles }),
	"2b":        integer(func(r *model.SeasonRecord) *int { return &r.Doubles }),
	"triples":   integer(func(r *model.SeasonRecord) *int { return &r.Triples }),
	"3b":        integer(func(r *model.SeasonRecord) *int { return &r.Triples }),
	"hr":        integer(func(r *model.SeasonRecord) *int { return &r.HR }),
	"runs":      integer(func(r *model.SeasonRecord) *int { return &r.Runs }),
	"r":         integer(func(r *model.SeasonRecord) *int { return &r.Runs }),
	"rbi":       integer(func(r *model.SeasonRecord) *int { return &r.RBI }),
	"bb":        integer(func(r *model.SeasonRecord) *int { return &r.BB }),
	"so":        integer(func(r *model.SeasonRecord) *int { return &r.SO }),
	"sb":        integer(func(r *model.SeasonRecord) *int { return &r.SB }),
	"cs":        integer(func(r *model.SeasonRecord) *int { return &r.CS }),
	"avg":       float(func(r *model.SeasonRecord) *float64 { return &r.AVG }),
	"obp":       float(func(r *model.SeasonRecord) *float64 { return &r.OBP }),
	"slg":       float(func(r *model.SeasonRecord) *float64 { return &r.SLG }),
	"wrc_plus":  float(func(r *model.SeasonRecord) *float64 { return &r.WRCPlus }),
	"wrc+":      float(func(r *model.SeasonRecord) *float64 { return &r.WRCPlus }),
	"babip":     float(func(r *model.SeasonRecord) *float64 { return &r.BABIP }),
	"bb_pct":    float(func(r *model.SeasonRecord) *float64 { return &r.BBPct }),
	"bb%":       float(func(r *model.SeasonRecord) *float64 { return &r.BBPct }),
	"k_pct":     float(func(r *model.SeasonRecord) *float64 { return &r.KPct }),
	"k%":        float(func(r *model.SeasonRecord) *float64 { return &r.KPct }),
	"iso":       float(func(r *model.SeasonRecord) *float64 { return &r.ISO }),
	"gb_pct":    float(func(r *model.SeasonRecord) *float64 { return &r.GBPct }),
	"gb%":       float(func(r *model.SeasonRecord) *float64 { return &r.GBPct }),
	"fb_pct":    float(func(r *model.SeasonRecord) *float64 { return &r.FBPct }),
	"fb%":       float(func(r *model.SeasonRecord) *float64 { return &r.FBPct }),
	"ld_pct":    float(func(r *model.SeasonRecord) *float64 { return &r.LDPct }),
	"ld%":       float(func(r *model.SeasonRecord) *float64 { return &r.LDPct }),
	"hr_fb_pct": float(func(r *model.SeasonRecord) *float64 { return &r.HRFB }),
	"hr/fb":     float(func(r *model.SeasonRecord) *float64 { return &r.HRFB }),

	"exit_velocity": quality(func(q *model.BattedBallQuality) *float64 { return &q.ExitVelocity }),
	"hard_hit_pct":  quality(func(q *model.BattedBallQuality) *float64 { return &q.HardHitPct }),
	"barrel_pct":    quality(func(q *model.BattedBallQuality) *float64 { return &q.BarrelPct }),
	"batted_balls":  battedBalls,
}

// readCSV decodes a header row and one record per line. Unknown columns are
// ignored and empty cells leave the field at its zero value.
func readCSV(r io.Reader) ([]model.SeasonRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformed, err)
	}
	setters := make([]setter, len(header))
	for i, h := range header {
		setters[i] = columns[strings.ToLower(strings.TrimSpace(h))]
	}

	var out []model.SeasonRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
		}
		var rec model.SeasonRecord
		for i, cell := range row {
			cell = strings.TrimSpace(cell)
			if i >= len(setters) || setters[i] == nil || cell == "" {
				continue
			}
			if err := setters[i](&rec, cell); err != nil {
				return nil, fmt.Errorf("%w: line %d column %q: %v", ErrMalformed, line, header[i], err)
			}
		}
		out = append(out, rec)
	}
}
