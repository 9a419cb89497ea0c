package config_test

import (
	"context"
	"testing"

	"github.com/okian/appraise/internal/config"
	"github.com/okian/appraise/internal/domain/criteria"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverMemory)
			convey.So(cfg.CanonicalOrder, convey.ShouldResemble, criteria.DefaultOrder())
			convey.So(cfg.BreakerEnabled, convey.ShouldBeTrue)
			convey.So(cfg.BreakerMaxFailures, convey.ShouldEqual, 5)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
