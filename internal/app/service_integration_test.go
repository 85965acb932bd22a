package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/battrend/internal/adapters/mq/queue"
	service "github.com/okian/battrend/internal/app"
	"github.com/okian/battrend/internal/config"
	"github.com/okian/battrend/internal/domain/report"
	. "github.com/smartystreets/goconvey/convey"
)

func waitForRecords(svc *service.Service, n int) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if got, ok := svc.GetStats()["records"].(int); ok && got >= n {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a started service on an in-memory badger store", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		cfg := testConfig()
		cfg.StoreKind = config.StoreBadger
		cfg.RefreshSpec = "@every 1h"
		svc := service.New(cfg, service.WithClock(func() time.Time { return fixedNow }))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When records arrive through the ingest queue", func() {
			b, err := svc.Enqueue(ctx, "integration", fixture())
			So(err, ShouldBeNil)
			So(b.ID, ShouldNotBeEmpty)
			So(waitForRecords(svc, 43), ShouldBeTrue)

			Convey("Then reports are served from the stored history", func() {
				r, err := svc.Report(ctx, "hot", 2023)
				So(err, ShouldBeNil)
				So(r.Career.PA, ShouldEqual, 1200)
				So(r.NetScore, ShouldEqual, -2)
			})

			Convey("Then a refresh builds the digest", func() {
				snap, err := svc.Refresh(ctx)
				So(err, ShouldBeNil)
				So(snap.Digest.Count(report.CategorySell), ShouldEqual, 1)
				So(svc.GetStats()["alerts"], ShouldEqual, 1)
			})
		})

		Convey("When a batch is submitted twice under one idempotency key", func() {
			first, dup1, err := svc.EnqueueOnce(ctx, "k1", "integration", fixture())
			So(err, ShouldBeNil)
			_, dup2, err := svc.EnqueueOnce(ctx, "k1", "integration", fixture())
			So(err, ShouldBeNil)

			Convey("Then only the first is queued", func() {
				So(dup1, ShouldBeFalse)
				So(first.Key, ShouldEqual, "k1")
				So(dup2, ShouldBeTrue)
				So(svc.GetStats()["dedupeKeys"], ShouldEqual, 1)
			})
		})

		Convey("When a keyed batch is refused", func() {
			records := fixture()
			records[0].Team = ""
			_, _, err := svc.EnqueueOnce(ctx, "k2", "integration", records)
			So(err, ShouldNotBeNil)

			Convey("Then the key is released for the retry", func() {
				_, dup, err := svc.EnqueueOnce(ctx, "k2", "integration", fixture())
				So(err, ShouldBeNil)
				So(dup, ShouldBeFalse)
			})
		})

		Convey("When a batch holds an invalid record", func() {
			records := fixture()
			records[5].PA = -1
			_, err := svc.Enqueue(ctx, "integration", records)

			Convey("Then it is rejected before queueing", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, queue.ErrFull), ShouldBeFalse)
			})
		})

		Convey("When the service has stopped", func() {
			So(svc.Stop(ctx), ShouldBeNil)
			_, err := svc.Enqueue(ctx, "late", fixture()[:1])

			Convey("Then new batches are refused", func() {
				So(errors.Is(err, queue.ErrClosed), ShouldBeTrue)
			})
		})
	})
}
