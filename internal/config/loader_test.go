package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/appraise/internal/config"
	"github.com/okian/appraise/internal/domain/criteria"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, "memory")
				convey.So(cfg.CanonicalOrder, convey.ShouldResemble, criteria.DefaultOrder())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("APPRAISE_ADDR", ":8080")
			_ = os.Setenv("APPRAISE_STORE_DRIVER", "sqlite")
			_ = os.Setenv("APPRAISE_STORE_DSN", "file:test.db")
			_ = os.Setenv("APPRAISE_BREAKER_MAX_FAILURES", "9")
			_ = os.Setenv("APPRAISE_CANONICAL_ORDER", "Inisiatif,Kualitas Kerja")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, "sqlite")
				convey.So(cfg.StoreDSN, convey.ShouldEqual, "file:test.db")
				convey.So(cfg.BreakerMaxFailures, convey.ShouldEqual, 9)
				convey.So(cfg.CanonicalOrder, convey.ShouldResemble, []string{"Inisiatif", "Kualitas Kerja"})
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
log_level: debug
store_driver: postgres
store_dsn: "postgres://localhost:5432/appraise?sslmode=disable"
breaker_enabled: false
canonical_order:
  - Penghargaan
  - Surat Peringatan
cors_origins:
  - https://hr.example.com
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("APPRAISE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, "postgres")
				convey.So(cfg.BreakerEnabled, convey.ShouldBeFalse)
				convey.So(cfg.CanonicalOrder, convey.ShouldResemble, []string{"Penghargaan", "Surat Peringatan"})
				convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"https://hr.example.com"})
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
store_driver: sqlite
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("APPRAISE_CONFIG", tmpFile)
			_ = os.Setenv("APPRAISE_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, "sqlite")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("APPRAISE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("APPRAISE_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			tmpFile := createTempConfigFile(`addr: ""`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("APPRAISE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown store driver", func() {
			_ = os.Setenv("APPRAISE_STORE_DRIVER", "mongodb")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("APPRAISE_BREAKER_MAX_FAILURES", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"APPRAISE_CONFIG",
		"APPRAISE_ADDR",
		"APPRAISE_LOG_LEVEL",
		"APPRAISE_STORE_DRIVER",
		"APPRAISE_STORE_DSN",
		"APPRAISE_CANONICAL_ORDER",
		"APPRAISE_BREAKER_ENABLED",
		"APPRAISE_BREAKER_MAX_FAILURES",
		"APPRAISE_BREAKER_TIMEOUT_MS",
		"APPRAISE_CORS_ORIGINS",
		"APPRAISE_SEED_FILE",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "appraise-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
