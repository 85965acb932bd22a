package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	worker "github.com/okian/battrend/internal/adapters/mq/worker"
	"github.com/okian/battrend/internal/domain/baseline"
	"github.com/okian/battrend/internal/domain/model"
	"github.com/okian/battrend/internal/domain/report"
	"github.com/smartystreets/goconvey/convey"
)

type fakeAssembler struct {
	baselineErr error
	estimated   bool
	fail        map[string]error
	baselines   atomic.Int32
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeAssembler) Baseline(_ context.Context, season int) (*baseline.LeagueBaseline, error) {
	f.baselines.Add(1)
	if f.baselineErr != nil {
		return nil, f.baselineErr
	}
	return &baseline.LeagueBaseline{Season: season, SourceSeason: season, Estimated: f.estimated}, nil
}

func (f *fakeAssembler) AssembleWith(_ context.Context, id string, season int, league *baseline.LeagueBaseline) (*report.Report, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	if err, ok := f.fail[id]; ok {
		return nil, err
	}
	return &report.Report{PlayerID: id, Season: league.Season}, nil
}

func TestEvaluator(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given players where one has no history", t, func() {
		fa := &fakeAssembler{fail: map[string]error{
			"p3": &report.NoPlayerHistoryError{PlayerID: "p3"},
		}}
		ids := make([]string, 0, 12)
		for i := 1; i <= 12; i++ {
			ids = append(ids, fmt.Sprintf("p%d", i))
		}
		ev := worker.NewEvaluator(fa, worker.WithConcurrency(2))

		res, err := ev.Evaluate(ctx, 2023, ids)

		convey.Convey("Then every other player is reported in input order", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(res.Reports), convey.ShouldEqual, 11)
			convey.So(res.Reports[0].PlayerID, convey.ShouldEqual, "p1")
			convey.So(res.Reports[2].PlayerID, convey.ShouldEqual, "p4")
		})

		convey.Convey("Then the failure carries its reason", func() {
			convey.So(len(res.Failures), convey.ShouldEqual, 1)
			convey.So(res.Failures[0].PlayerID, convey.ShouldEqual, "p3")
			convey.So(res.Failures[0].Reason, convey.ShouldEqual, "no_history")
		})

		convey.Convey("Then the baseline is resolved once and concurrency is bounded", func() {
			convey.So(fa.baselines.Load(), convey.ShouldEqual, 1)
			convey.So(fa.maxInFlight.Load(), convey.ShouldBeLessThanOrEqualTo, 2)
		})
	})

	convey.Convey("Given a season without league data", t, func() {
		fa := &fakeAssembler{baselineErr: baseline.ErrInsufficientLeagueData}
		_, err := worker.NewEvaluator(fa).Evaluate(ctx, 2023, []string{"p1"})

		convey.So(errors.Is(err, baseline.ErrInsufficientLeagueData), convey.ShouldBeTrue)
	})

	convey.Convey("Given a cancelled context", t, func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := worker.NewEvaluator(&fakeAssembler{}).Evaluate(cctx, 2023, []string{"p1", "p2"})

		convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
	})
}

func TestReason(t *testing.T) {
	convey.Convey("Given assembly errors", t, func() {
		convey.So(worker.Reason(nil), convey.ShouldEqual, "")
		convey.So(worker.Reason(report.ErrSeasonNotFound), convey.ShouldEqual, "season_not_found")
		convey.So(worker.Reason(fmt.Errorf("x: %w", model.ErrInvalidRecord)), convey.ShouldEqual, "invalid_record")
		convey.So(worker.Reason(errors.New("other")), convey.ShouldEqual, "internal")
	})
}
