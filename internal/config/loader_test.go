package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/dltscope/internal/config"
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
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.TargetPeriods, convey.ShouldEqual, 100)
				convey.So(cfg.PageWindow, convey.ShouldEqual, 8)
				convey.So(cfg.CategoryLabel, convey.ShouldEqual, "双色球")
				convey.So(cfg.Headless, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("DLT_ADDR", ":8080")
			_ = os.Setenv("DLT_TARGET_PERIODS", "50")
			_ = os.Setenv("DLT_PAGE_WINDOW", "4")
			_ = os.Setenv("DLT_HEADLESS", "false")
			_ = os.Setenv("DLT_REQUESTS_PER_SECOND", "0.5")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.TargetPeriods, convey.ShouldEqual, 50)
				convey.So(cfg.PageWindow, convey.ShouldEqual, 4)
				convey.So(cfg.Headless, convey.ShouldBeFalse)
				convey.So(cfg.RequestsPerSecond, convey.ShouldEqual, 0.5)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
cutoff: "2025-06-01"
draw_pages: 3
expert_strategy: click
step_timeout_ms: 2500
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("DLT_CONFIG", tmpFile)
			_ = os.Setenv("DLT_DRAW_PAGES", "5") // overrides the file
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DrawPages, convey.ShouldEqual, 5)
				convey.So(cfg.ExpertStrategy, convey.ShouldEqual, config.StrategyClick)
				convey.So(cfg.StepTimeout().Milliseconds(), convey.ShouldEqual, 2500)

				cutoff, err := cfg.CutoffDate()
				convey.So(err, convey.ShouldBeNil)
				convey.So(cutoff.Format(config.CutoffLayout), convey.ShouldEqual, "2025-06-01")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("DLT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the cutoff date is malformed", func() {
			_ = os.Setenv("DLT_CUTOFF", "July 1st")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an empty addr", func() {
			tmpFile := createTempConfigFile("addr: \"\"\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("DLT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return validation error for empty addr", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"DLT_CONFIG",
		"DLT_ADDR",
		"DLT_TARGET_PERIODS",
		"DLT_PAGE_WINDOW",
		"DLT_HEADLESS",
		"DLT_REQUESTS_PER_SECOND",
		"DLT_DRAW_PAGES",
		"DLT_CUTOFF",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "dltscope-config-*.yaml")
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
