package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/battrend/internal/config"
	"github.com/okian/battrend/internal/domain/tuning"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.StoreKind, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.IngestWorkers, convey.ShouldEqual, 2)
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.RefreshSpec, convey.ShouldEqual, "@every 6h")
			convey.So(cfg.Engine, convey.ShouldResemble, tuning.Default())
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("When the store kind is unknown", func() {
			cfg.StoreKind = "postgres"
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "postgres")
		})

		convey.Convey("When the worker count is zero", func() {
			cfg.WorkerCount = 0
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the refresh schedule does not parse", func() {
			cfg.RefreshSpec = "every now and then"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the refresh schedule is empty", func() {
			cfg.RefreshSpec = ""
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When an engine tunable is broken", func() {
			cfg.Engine.Baseline.MinSample = 0
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(errors.Is(err, tuning.ErrInvalid), convey.ShouldBeTrue)
		})
	})
}
