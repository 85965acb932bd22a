package model

import (
	"fmt"
	"sort"
	"strings"
)

// SeasonRecord is one player's batting line for one team in one season.
// Records are unique per (PlayerID, Season, Team).
type SeasonRecord struct {
	PlayerID string `json:"player_id" yaml:"player_id" validate:"required"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Season   int    `json:"season" yaml:"season" validate:"min=1871,max=2200"`
	Team     string `json:"team" yaml:"team" validate:"required"`
	// Age is the player's age at season start. Zero means unknown.
	Age int `json:"age,omitempty" yaml:"age,omitempty" validate:"omitempty,min=15,max=60"`

	Games   int `json:"games" yaml:"games" validate:"min=0"`
	PA      int `json:"pa" yaml:"pa" validate:"min=0"`
	AB      int `json:"ab" yaml:"ab" validate:"min=0,ltefield=PA"`
	Hits    int `json:"hits" yaml:"hits" validate:"min=0,ltefield=AB"`
	Doubles int `json:"doubles" yaml:"doubles" validate:"min=0"`
	Triples int `json:"triples" yaml:"triples" validate:"min=0"`
	HR      int `json:"hr" yaml:"hr" validate:"min=0"`
	Runs    int `json:"runs" yaml:"runs" validate:"min=0"`
	RBI     int `json:"rbi" yaml:"rbi" validate:"min=0"`
	BB      int `json:"bb" yaml:"bb" validate:"min=0"`
	SO      int `json:"so" yaml:"so" validate:"min=0"`
	SB      int `json:"sb" yaml:"sb" validate:"min=0"`
	CS      int `json:"cs" yaml:"cs" validate:"min=0"`

	AVG     float64 `json:"avg" yaml:"avg" validate:"min=0,max=1"`
	OBP     float64 `json:"obp" yaml:"obp" validate:"min=0,max=1"`
	SLG     float64 `json:"slg" yaml:"slg" validate:"min=0,max=4"`
	WRCPlus float64 `json:"wrc_plus" yaml:"wrc_plus" validate:"min=-100,max=500"`
	BABIP   float64 `json:"babip" yaml:"babip" validate:"min=0,max=1"`
	BBPct   float64 `json:"bb_pct" yaml:"bb_pct" validate:"min=0,max=100"`
	KPct    float64 `json:"k_pct" yaml:"k_pct" validate:"min=0,max=100"`
	ISO     float64 `json:"iso" yaml:"iso" validate:"min=0,max=3"`
	GBPct   float64 `json:"gb_pct" yaml:"gb_pct" validate:"min=0,max=100"`
	FBPct   float64 `json:"fb_pct" yaml:"fb_pct" validate:"min=0,max=100"`
	LDPct   float64 `json:"ld_pct" yaml:"ld_pct" validate:"min=0,max=100"`
	HRFB    float64 `json:"hr_fb_pct" yaml:"hr_fb_pct" validate:"min=0,max=100"`

	// Quality is optional batted-ball tracking data; nil when the source had none.
	Quality *BattedBallQuality `json:"quality,omitempty" yaml:"quality,omitempty"`
}

// BattedBallQuality carries tracking-derived contact quality for a season.
type BattedBallQuality struct {
	ExitVelocity float64 `json:"exit_velocity" yaml:"exit_velocity" validate:"min=0,max=130"`
	HardHitPct   float64 `json:"hard_hit_pct" yaml:"hard_hit_pct" validate:"min=0,max=100"`
	BarrelPct    float64 `json:"barrel_pct" yaml:"barrel_pct" validate:"min=0,max=100"`
	BattedBalls  int     `json:"batted_balls" yaml:"batted_balls" validate:"min=0"`
}

// Key identifies a record in storage.
func (r *SeasonRecord) Key() string {
	return fmt.Sprintf("%s|%d|%s", r.PlayerID, r.Season, r.Team)
}

// Value returns the record's value for metric m.
func (r *SeasonRecord) Value(m Metric) float64 {
	switch m {
	case MetricAVG:
		return r.AVG
	case MetricOBP:
		return r.OBP
	case MetricSLG:
		return r.SLG
	case MetricWRCPlus:
		return r.WRCPlus
	case MetricBABIP:
		return r.BABIP
	case MetricBBPct:
		return r.BBPct
	case MetricKPct:
		return r.KPct
	case MetricISO:
		return r.ISO
	case MetricGBPct:
		return r.GBPct
	case MetricFBPct:
		return r.FBPct
	case MetricLDPct:
		return r.LDPct
	case MetricHRFB:
		return r.HRFB
	default:
		return 0
	}
}

func (r *SeasonRecord) setValue(m Metric, v float64) {
	switch m {
	case MetricAVG:
		r.AVG = v
	case MetricOBP:
		r.OBP = v
	case MetricSLG:
		r.SLG = v
	case MetricWRCPlus:
		r.WRCPlus = v
	case MetricBABIP:
		r.BABIP = v
	case MetricBBPct:
		r.BBPct = v
	case MetricKPct:
		r.KPct = v
	case MetricISO:
		r.ISO = v
	case MetricGBPct:
		r.GBPct = v
	case MetricFBPct:
		r.FBPct = v
	case MetricLDPct:
		r.LDPct = v
	case MetricHRFB:
		r.HRFB = v
	}
}

// MergeStints folds every team stint of one player-season into a single line.
// Counting stats are summed and rate stats are PA-weighted. When every stint has
// zero PA the rates are a plain mean.
func MergeStints(stints []SeasonRecord) (SeasonRecord, error) {
	if len(stints) == 0 {
		return SeasonRecord{}, fmt.Errorf("%w: no stints to merge", ErrInvalidRecord)
	}
	if len(stints) == 1 {
		return stints[0], nil
	}

	first := stints[0]
	out := SeasonRecord{PlayerID: first.PlayerID, Name: first.Name, Season: first.Season, Age: first.Age}
	teams := make([]string, 0, len(stints))
	totalPA := 0
	for i := range stints {
		s := &stints[i]
		if s.PlayerID != first.PlayerID || s.Season != first.Season {
			return SeasonRecord{}, fmt.Errorf("%w: cannot merge %s into %s", ErrInvalidRecord, s.Key(), first.Key())
		}
		teams = append(teams, s.Team)
		out.Games += s.Games
		out.PA += s.PA
		out.AB += s.AB
		out.Hits += s.Hits
		out.Doubles += s.Doubles
		out.Triples += s.Triples
		out.HR += s.HR
		out.Runs += s.Runs
		out.RBI += s.RBI
		out.BB += s.BB
		out.SO += s.SO
		out.SB += s.SB
		out.CS += s.CS
		totalPA += s.PA
		if out.Age == 0 {
			out.Age = s.Age
		}
		if out.Name == "" {
			out.Name = s.Name
		}
	}
	sort.Strings(teams)
	out.Team = strings.Join(teams, "/")

	for _, m := range RateMetrics {
		var sum, weight float64
		for i := range stints {
			w := float64(stints[i].PA)
			if totalPA == 0 {
				w = 1
			}
			sum += stints[i].Value(m) * w
			weight += w
		}
		out.setValue(m, sum/weight)
	}
	out.Quality = mergeQuality(stints)
	return out, nil
}

func mergeQuality(stints []SeasonRecord) *BattedBallQuality {
	var q BattedBallQuality
	var weight float64
	for i := range stints {
		s := &stints[i]
		if s.Quality == nil {
			continue
		}
		w := float64(s.PA)
		if w == 0 {
			w = 1
		}
		q.ExitVelocity += s.Quality.ExitVelocity * w
		q.HardHitPct += s.Quality.HardHitPct * w
		q.BarrelPct += s.Quality.BarrelPct * w
		q.BattedBalls += s.Quality.BattedBalls
		weight += w
	}
	if weight == 0 {
		return nil
	}
	q.ExitVelocity /= weight
	q.HardHitPct /= weight
	q.BarrelPct /= weight
	return &q
}

// SeasonLines validates records, rejects duplicate (player, season, team) keys,
// and returns one merged line per season in ascending season order.
func SeasonLines(records []SeasonRecord) ([]SeasonRecord, error) {
	bySeason := make(map[int][]SeasonRecord)
	seen := make(map[string]struct{}, len(records))
	for i := range records {
		r := records[i]
		if err := Validate(&r); err != nil {
			return nil, err
		}
		if _, dup := seen[r.Key()]; dup {
			return nil, fmt.Errorf("%w: duplicate record %s", ErrInvalidRecord, r.Key())
		}
		seen[r.Key()] = struct{}{}
		bySeason[r.Season] = append(bySeason[r.Season], r)
	}

	seasons := make([]int, 0, len(bySeason))
	for s := range bySeason {
		seasons = append(seasons, s)
	}
	sort.Ints(seasons)

	lines := make([]SeasonRecord, 0, len(seasons))
	for _, s := range seasons {
		stints := bySeason[s]
		sort.SliceStable(stints, func(i, j int) bool { return stints[i].Team < stints[j].Team })
		line, err := MergeStints(stints)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// PlayerLines groups a league's records by player and merges stints, returning
// one line per player ordered by player id.
func PlayerLines(records []SeasonRecord) ([]SeasonRecord, error) {
	byPlayer := make(map[string][]SeasonRecord)
	for i := range records {
		byPlayer[records[i].PlayerID] = append(byPlayer[records[i].PlayerID], records[i])
	}
	ids := make([]string, 0, len(byPlayer))
	for id := range byPlayer {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]SeasonRecord, 0, len(ids))
	for _, id := range ids {
		lines, err := SeasonLines(byPlayer[id])
		if err != nil {
			return nil, err
		}
		out = append(out, lines...)
	}
	return out, nil
}
