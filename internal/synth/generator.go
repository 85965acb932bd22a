package synth

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/okian/battrend/internal/domain/model"
)

var teams = []string{
	"ARI", "ATL", "BAL", "BOS", "CHC", "CHW", "CIN", "CLE", "COL", "DET",
	"HOU", "KCR", "LAA", "LAD", "MIA", "MIL", "MIN", "NYM", "NYY", "OAK",
	"PHI", "PIT", "SDP", "SEA", "SFG", "STL", "TBR", "TEX", "TOR", "WSN",
}

var (
	firstNames = []string{"Alex", "Ben", "Carlos", "Dan", "Eli", "Felix", "Gus", "Hank", "Ivan", "Jose", "Kyle", "Luis", "Matt", "Nate", "Omar", "Pete"}
	lastNames  = []string{"Abreu", "Baker", "Cruz", "Diaz", "Ellis", "Flores", "Garcia", "Hayes", "Ito", "Jones", "Kim", "Lopez", "Moore", "Nunez", "Ortiz", "Perez"}
)

const (
	luckyEvery   = 7
	unluckyEvery = 11
	tradedEvery  = 13
	benchEvery   = 5

	// BABIP shift planted in the last season of lucky and unlucky players.
	luckShift = 0.065
)

// League is a generated set of season records plus the players whose last
// season was planted with a BABIP swing.
type League struct {
	Records    []model.SeasonRecord
	Lucky      []string
	Unlucky    []string
	LastSeason int
}

// talent is a player's true-talent line. Seasons are noisy draws around it.
type talent struct {
	babip    float64
	kPct     float64
	bbPct    float64
	iso      float64
	hrfb     float64
	fbPct    float64
	ldPct    float64
	speed    float64
	ev       float64
	hardHit  float64
	barrel   float64
	fullTime bool
}

// Generate builds a deterministic league from cfg.Seed. Every player has
// cfg.Seasons seasons ending at cfg.LastSeason; every 7th player's last
// season gets a BABIP spike and every 11th a slump, with contact quality
// held at career norms so the swing reads as luck.
func Generate(cfg Config) (*League, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	league := &League{LastSeason: cfg.LastSeason}
	first := cfg.LastSeason - cfg.Seasons + 1

	for i := 1; i <= cfg.Players; i++ {
		id := fmt.Sprintf("syn%04d", i)
		name := firstNames[r.IntN(len(firstNames))] + " " + lastNames[r.IntN(len(lastNames))]
		t := drawTalent(r, i%benchEvery != 0)
		startAge := 21 + r.IntN(10)
		team := teams[r.IntN(len(teams))]

		var shift float64
		switch {
		case i%luckyEvery == 0:
			shift = luckShift
			league.Lucky = append(league.Lucky, id)
		case i%unluckyEvery == 0:
			shift = -luckShift
			league.Unlucky = append(league.Unlucky, id)
		}

		for season := first; season <= cfg.LastSeason; season++ {
			last := season == cfg.LastSeason
			rec := drawSeason(r, t, id, name, season, startAge+season-first, team)
			if last && shift != 0 {
				rec = withBABIP(rec, t.babip+shift)
			}
			if last && i%tradedEvery == 0 {
				other := teams[(indexOf(team)+1+r.IntN(len(teams)-1))%len(teams)]
				a, b := split(rec, other)
				league.Records = append(league.Records, a, b)
				continue
			}
			league.Records = append(league.Records, rec)
		}
	}
	return league, nil
}

func drawTalent(r *rand.Rand, fullTime bool) talent {
	power := r.Float64()
	return talent{
		babip:    uniform(r, 0.270, 0.320),
		kPct:     uniform(r, 14, 28),
		bbPct:    uniform(r, 5, 13),
		iso:      0.100 + 0.150*power,
		hrfb:     6 + 12*power,
		fbPct:    uniform(r, 30, 42),
		ldPct:    uniform(r, 18, 24),
		speed:    r.Float64(),
		ev:       86 + 6*power,
		hardHit:  30 + 18*power,
		barrel:   4 + 10*power,
		fullTime: fullTime,
	}
}

func drawSeason(r *rand.Rand, t talent, id, name string, season, age int, team string) model.SeasonRecord {
	pa := 480 + r.IntN(220)
	if !t.fullTime {
		pa = 90 + r.IntN(200)
	}
	if season == 2020 {
		pa = pa * 60 / 162
	}
	kPct := clamp(t.kPct+r.NormFloat64()*1.5, 5, 40)
	bbPct := clamp(t.bbPct+r.NormFloat64()*1.0, 2, 20)
	fbPct := clamp(t.fbPct+r.NormFloat64()*2.0, 20, 55)
	ldPct := clamp(t.ldPct+r.NormFloat64()*1.5, 12, 30)
	hrfb := clamp(t.hrfb+r.NormFloat64()*1.2, 1, 30)

	bb := round(float64(pa) * bbPct / 100)
	so := round(float64(pa) * kPct / 100)
	ab := pa - bb - 4
	if so > ab {
		so = ab
	}
	contact := ab - so
	hr := round(float64(contact) * fbPct / 100 * hrfb / 100)

	sb := round(t.speed * t.speed * float64(pa) / 18)
	rec := model.SeasonRecord{
		PlayerID: id,
		Name:     name,
		Season:   season,
		Team:     team,
		Age:      age,
		Games:    min(round(float64(pa)/4.1), 162),
		PA:       pa,
		AB:       ab,
		HR:       hr,
		BB:       bb,
		SO:       so,
		SB:       sb,
		CS:       sb / 4,
		KPct:     roundTo(float64(so)/float64(pa)*100, 1),
		BBPct:    roundTo(float64(bb)/float64(pa)*100, 1),
		FBPct:    roundTo(fbPct, 1),
		LDPct:    roundTo(ldPct, 1),
		GBPct:    roundTo(100-fbPct-ldPct, 1),
		HRFB:     roundTo(hrfb, 1),
		Quality: &model.BattedBallQuality{
			ExitVelocity: roundTo(t.ev+r.NormFloat64()*0.6, 1),
			HardHitPct:   roundTo(clamp(t.hardHit+r.NormFloat64()*2, 0, 100), 1),
			BarrelPct:    roundTo(clamp(t.barrel+r.NormFloat64()*1, 0, 100), 1),
			BattedBalls:  contact,
		},
	}
	rec = withBABIP(rec, t.babip+r.NormFloat64()*0.010)
	iso := clamp(t.iso+r.NormFloat64()*0.012, 0.02, 0.400)
	rec.SLG = roundTo(rec.AVG+iso, 3)
	rec.ISO = roundTo(rec.SLG-rec.AVG, 3)
	rec.Doubles = round(float64(rec.Hits-rec.HR) * 0.22)
	rec.Triples = round(t.speed * float64(rec.Hits-rec.HR) * 0.03)
	rec.Runs = round(float64(rec.Hits+rec.BB) * 0.45)
	rec.RBI = round(float64(rec.Hits)*0.4 + float64(rec.HR)*1.5)
	rec.WRCPlus = wrcPlus(rec.OBP, rec.SLG)
	return rec
}

// withBABIP rebuilds hits and the slash line for the given BABIP.
func withBABIP(rec model.SeasonRecord, babip float64) model.SeasonRecord {
	babip = clamp(babip, 0.150, 0.450)
	inPlay := rec.AB - rec.SO - rec.HR
	if inPlay < 0 {
		inPlay = 0
	}
	rec.Hits = min(rec.HR+round(babip*float64(inPlay)), rec.AB)
	if inPlay > 0 {
		rec.BABIP = roundTo(float64(rec.Hits-rec.HR)/float64(inPlay), 3)
	}
	if rec.AB > 0 {
		rec.AVG = roundTo(float64(rec.Hits)/float64(rec.AB), 3)
	}
	if rec.PA > 0 {
		rec.OBP = roundTo(float64(rec.Hits+rec.BB)/float64(rec.PA), 3)
	}
	if rec.ISO > 0 {
		rec.SLG = roundTo(rec.AVG+rec.ISO, 3)
		rec.WRCPlus = wrcPlus(rec.OBP, rec.SLG)
	}
	return rec
}

// split divides a season into two stints with identical rates.
func split(rec model.SeasonRecord, other string) (model.SeasonRecord, model.SeasonRecord) {
	a, b := rec, rec
	part := func(n int) int { return n * 3 / 5 }
	a.Games, b.Games = part(rec.Games), rec.Games-part(rec.Games)
	a.PA, b.PA = part(rec.PA), rec.PA-part(rec.PA)
	a.AB, b.AB = part(rec.AB), rec.AB-part(rec.AB)
	a.Hits, b.Hits = min(part(rec.Hits), a.AB), min(rec.Hits-part(rec.Hits), b.AB)
	a.Doubles, b.Doubles = part(rec.Doubles), rec.Doubles-part(rec.Doubles)
	a.Triples, b.Triples = part(rec.Triples), rec.Triples-part(rec.Triples)
	a.HR, b.HR = part(rec.HR), rec.HR-part(rec.HR)
	a.Runs, b.Runs = part(rec.Runs), rec.Runs-part(rec.Runs)
	a.RBI, b.RBI = part(rec.RBI), rec.RBI-part(rec.RBI)
	a.BB, b.BB = part(rec.BB), rec.BB-part(rec.BB)
	a.SO, b.SO = part(rec.SO), rec.SO-part(rec.SO)
	a.SB, b.SB = part(rec.SB), rec.SB-part(rec.SB)
	a.CS, b.CS = part(rec.CS), rec.CS-part(rec.CS)
	if rec.Quality != nil {
		qa, qb := *rec.Quality, *rec.Quality
		qa.BattedBalls, qb.BattedBalls = part(rec.Quality.BattedBalls), rec.Quality.BattedBalls-part(rec.Quality.BattedBalls)
		a.Quality, b.Quality = &qa, &qb
	}
	b.Team = other
	return a, b
}

func wrcPlus(obp, slg float64) float64 {
	return math.Round(clamp(100+(obp-0.320)*330+(slg-0.410)*160, -100, 500))
}

func indexOf(team string) int {
	for i, t := range teams {
		if t == team {
			return i
		}
	}
	return 0
}

func uniform(r *rand.Rand, lo, hi float64) float64 { return lo + (hi-lo)*r.Float64() }

func round(v float64) int {
	if v < 0 {
		return 0
	}
	return int(math.Round(v))
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }
