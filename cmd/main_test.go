package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/appraise/internal/adapters/repository"
	app "github.com/okian/appraise/internal/app"
	"github.com/okian/appraise/internal/config"
	"github.com/okian/appraise/pkg/logger"
)

func sqliteDSN(t *testing.T) string {
	t.Helper()
	return "file:" + filepath.Join(t.TempDir(), "cmd.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func TestOpenStore(t *testing.T) {
	convey.Convey("Given configurations for each driver", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)

		convey.Convey("When the driver is memory with the breaker on", func() {
			st, err := openStore(ctx, cfg, logger.Nop())
			convey.So(err, convey.ShouldBeNil)
			defer st.Close()

			convey.Convey("Then the store is wrapped in a breaker", func() {
				_, ok := st.(*repository.BreakerStore)
				convey.So(ok, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the driver is sqlite without the breaker", func() {
			cfg.StoreDriver = config.DriverSQLite
			cfg.StoreDSN = sqliteDSN(t)
			cfg.BreakerEnabled = false
			st, err := openStore(ctx, cfg, logger.Nop())
			convey.So(err, convey.ShouldBeNil)
			defer st.Close()

			convey.Convey("Then a SQL store is returned", func() {
				_, ok := st.(*repository.SQLStore)
				convey.So(ok, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the driver is unknown", func() {
			cfg.StoreDriver = "mongo"
			_, err := openStore(ctx, cfg, logger.Nop())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestSeedOnStart(t *testing.T) {
	convey.Convey("Given an empty memory store", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		st := repository.NewMemoryStore()

		convey.Convey("When the service starts without a seed file", func() {
			convey.So(seedOnStart(ctx, cfg, st, logger.Nop()), convey.ShouldBeNil)

			convey.Convey("Then the built-in fixture is loaded", func() {
				svc := app.New(app.WithStore(st))
				coded, err := svc.Criteria(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(coded, convey.ShouldHaveLength, 13)
				convey.So(coded[12].Code, convey.ShouldEqual, "C13")

				pool, err := svc.Unevaluated(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(pool, convey.ShouldHaveLength, 4)
			})
		})

		convey.Convey("When the seed file is missing", func() {
			cfg.SeedFile = filepath.Join(t.TempDir(), "absent.yaml")
			convey.So(seedOnStart(ctx, cfg, st, logger.Nop()), convey.ShouldNotBeNil)
		})
	})
}

func TestCommands(t *testing.T) {
	convey.Convey("Given a sqlite store configured through the environment", t, func() {
		t.Setenv("APPRAISE_STORE_DRIVER", "sqlite")
		t.Setenv("APPRAISE_STORE_DSN", sqliteDSN(t))

		run := func(args ...string) (string, error) {
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetArgs(args)
			err := rootCmd.Execute()
			return out.String(), err
		}

		convey.Convey("When seeding and listing codes", func() {
			out, err := run("seed")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "seeded 13 criteria and 4 employees into sqlite store")

			out, err = run("codes")
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the criteria are listed in canonical order", func() {
				convey.So(out, convey.ShouldContainSubstring, "CODE")
				convey.So(out, convey.ShouldContainSubstring, "C1    Kualitas Kerja")
				convey.So(out, convey.ShouldContainSubstring, "C13   Surat Peringatan")
			})
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given a context that expires", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		convey.Convey("Then the updaters return without panicking", func() {
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(func() { startServiceMetricsUpdater(ctx, app.New()) }, convey.ShouldNotPanic)
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}
