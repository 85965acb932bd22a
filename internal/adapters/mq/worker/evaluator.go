package worker

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/battrend/internal/domain/baseline"
	"github.com/okian/battrend/internal/domain/model"
	"github.com/okian/battrend/internal/domain/report"
	"github.com/okian/battrend/pkg/logger"
	"github.com/okian/battrend/pkg/metrics"
)

// Assembler builds reports; *report.Assembler satisfies it.
type Assembler interface {
	Baseline(ctx context.Context, season int) (*baseline.LeagueBaseline, error)
	AssembleWith(ctx context.Context, playerID string, season int, league *baseline.LeagueBaseline) (*report.Report, error)
}

// Results holds the reports of one scan, in the order players were given, and
// the players that failed.
type Results struct {
	Season   int              `json:"season" yaml:"season"`
	Reports  []*report.Report `json:"reports" yaml:"reports"`
	Failures []report.Failure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// Evaluator assembles reports for many players of one season concurrently.
type Evaluator struct {
	assembler   Assembler
	concurrency int
	logger      logger.Logger
}

// NewEvaluator creates an evaluator over a.
func NewEvaluator(a Assembler, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		assembler:   a,
		concurrency: 4,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate reports on every player in ids for season. The league baseline is
// resolved once and shared. A failing player is recorded in Failures and does
// not stop the scan; a failed baseline or a cancelled ctx does.
func (e *Evaluator) Evaluate(ctx context.Context, season int, ids []string) (Results, error) {
	start := time.Now()
	res := Results{Season: season}

	league, err := e.assembler.Baseline(ctx, season)
	if err != nil {
		metrics.RecordReportFailure(Reason(err))
		return res, err
	}
	if league.Estimated {
		metrics.RecordBaselineFallback()
	}

	reports := make([]*report.Report, len(ids))
	failures := make([]error, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			metrics.UpdateWorkerActiveCount(1)
			defer metrics.UpdateWorkerActiveCount(-1)

			began := time.Now()
			r, err := e.assembler.AssembleWith(gctx, id, season, league)
			metrics.RecordWorkerProcessingLatency(float64(time.Since(began).Milliseconds()))
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failures[i] = err
				return nil
			}
			Observe(r, time.Since(began))
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	for i, r := range reports {
		if r != nil {
			res.Reports = append(res.Reports, r)
			continue
		}
		f := report.Failure{PlayerID: ids[i], Reason: Reason(failures[i]), Err: failures[i]}
		res.Failures = append(res.Failures, f)
		metrics.RecordWorkerError()
		metrics.RecordReportFailure(f.Reason)
		e.logger.Warn(ctx, "player skipped",
			logger.String("player", f.PlayerID),
			logger.String("reason", f.Reason),
			logger.Error(f.Err),
		)
	}

	metrics.RecordBatch(len(ids), time.Since(start))
	e.logger.Info(ctx, "scan complete",
		logger.Int("season", season),
		logger.Int("players", len(ids)),
		logger.Int("reports", len(res.Reports)),
		logger.Int("failures", len(res.Failures)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// Observe records the metrics of an assembled report.
func Observe(r *report.Report, elapsed time.Duration) {
	metrics.RecordReport(string(r.Recommendation), string(r.Projection.Confidence), float64(elapsed.Milliseconds()))
	for _, s := range r.Checks {
		switch {
		case s.Suppressed:
			metrics.RecordSuppressedSignal(string(s.Metric))
		case s.Active():
			metrics.RecordSignal(string(s.Metric), string(s.Tier), string(s.Direction))
		}
	}
}

// Reason maps an assembly error to a short metric label.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, report.ErrNoPlayerHistory):
		return "no_history"
	case errors.Is(err, report.ErrSeasonNotFound):
		return "season_not_found"
	case errors.Is(err, model.ErrInvalidRecord):
		return "invalid_record"
	case errors.Is(err, baseline.ErrInsufficientLeagueData):
		return "insufficient_league_data"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal"
	}
}
