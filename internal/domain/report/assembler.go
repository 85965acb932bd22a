package report

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/okian/battrend/internal/domain/baseline"
	"github.com/okian/battrend/internal/domain/model"
	"github.com/okian/battrend/internal/domain/projection"
	"github.com/okian/battrend/internal/domain/regression"
	"github.com/okian/battrend/internal/domain/role"
	"github.com/okian/battrend/internal/domain/trend"
	"github.com/okian/battrend/internal/domain/tuning"
	"github.com/okian/battrend/pkg/logger"
)

// reportNamespace seeds deterministic report ids.
var reportNamespace = uuid.MustParse("6f1f4c1e-4f6b-5b7e-9a59-2b1d0c7f3a10")

// Reader is the read surface the assembler needs from persistence.
type Reader interface {
	// SeasonHistory returns every record of a player, ascending by season.
	SeasonHistory(ctx context.Context, playerID string) ([]model.SeasonRecord, error)
	baseline.Source
}

// Assembler builds reports. It keeps no state between calls and is safe for
// concurrent use.
type Assembler struct {
	reader Reader
	tuning tuning.Config
	rules  []role.Rule
	log    logger.Logger
}

// New creates an Assembler over reader.
func New(reader Reader, opts ...Option) (*Assembler, error) {
	if reader == nil {
		return nil, ErrNilReader
	}
	a := &Assembler{
		reader: reader,
		tuning: tuning.Default(),
		rules:  role.Rules(),
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.tuning.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Tuning returns the engine configuration in use.
func (a *Assembler) Tuning() tuning.Config { return a.tuning }

// Baseline resolves the league baseline for season.
func (a *Assembler) Baseline(ctx context.Context, season int) (*baseline.LeagueBaseline, error) {
	return baseline.Resolve(ctx, a.reader, season, a.tuning.Baseline)
}

// Assemble builds the report of playerID at season; season 0 means the
// player's latest season.
func (a *Assembler) Assemble(ctx context.Context, playerID string, season int) (*Report, error) {
	return a.AssembleWith(ctx, playerID, season, nil)
}

// AssembleWith is Assemble with a pre-resolved league baseline, used when many
// players of one season are evaluated together. A baseline for a different
// season is ignored and resolved afresh.
func (a *Assembler) AssembleWith(ctx context.Context, playerID string, season int, league *baseline.LeagueBaseline) (*Report, error) {
	records, err := a.reader.SeasonHistory(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("read history of %s: %w", playerID, err)
	}
	if len(records) == 0 {
		return nil, &NoPlayerHistoryError{PlayerID: playerID}
	}
	lines, err := model.SeasonLines(records)
	if err != nil {
		return nil, fmt.Errorf("history of %s: %w", playerID, err)
	}

	idx := len(lines) - 1
	if season != 0 {
		idx = -1
		for i := range lines {
			if lines[i].Season == season {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("%w: player %s season %d", ErrSeasonNotFound, playerID, season)
		}
	}
	history := lines[:idx+1]
	current := history[idx]

	if league == nil || league.Season != current.Season {
		league, err = a.Baseline(ctx, current.Season)
		if err != nil {
			return nil, err
		}
	}

	cfg := a.tuning
	roleRes := role.ClassifyWith(a.rules, current, league, cfg.Role)
	tr, err := trend.Track(history, cfg.Trend)
	if err != nil {
		return nil, err
	}
	career := trend.Career(history, current.Season)
	reg := regression.Detect(regression.Input{
		Current: current,
		Career:  career,
		League:  league,
		Trend:   tr,
	}, cfg.Regression)
	proj := projection.Project(projection.Input{
		Lines:      history,
		Trend:      tr,
		Career:     career,
		Regression: reg,
		Role:       roleRes.Label,
		League:     league,
	}, cfg.Projection)

	r := &Report{
		ID:             ID(playerID, current.Season),
		PlayerID:       current.PlayerID,
		Name:           current.Name,
		Season:         current.Season,
		Team:           current.Team,
		Age:            current.Age,
		PA:             current.PA,
		Games:          current.Games,
		Role:           roleRes,
		League:         leagueContext(league),
		Percentiles:    percentiles(league, &current),
		Trend:          tr,
		Career:         career,
		Signals:        reg.Signals(),
		Checks:         reg.Checks,
		NetScore:       reg.NetScore,
		Recommendation: reg.Recommendation,
		Evidence:       reg.Evidence,
		Note:           reg.Note,
		Projection:     proj,
	}

	a.log.Debug(ctx, "report assembled",
		logger.String("player", playerID),
		logger.Int("season", r.Season),
		logger.String("role", string(r.Role.Label)),
		logger.Int("signals", len(r.Signals)),
		logger.Int("net", r.NetScore),
		logger.String("confidence", string(r.Projection.Confidence)),
		logger.Bool("baseline_estimated", r.League.Estimated),
	)
	return r, nil
}

// ID is the deterministic report id of a player-season.
func ID(playerID string, season int) string {
	return uuid.NewSHA1(reportNamespace, []byte(fmt.Sprintf("%s:%d", playerID, season))).String()
}
