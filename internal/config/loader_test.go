package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.TopN, convey.ShouldEqual, 2)
				convey.So(cfg.Source.Driver, convey.ShouldEqual, "sqlite")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			clearConfigEnvVars()
			_ = os.Setenv("VEGCOVER_ADDR", ":8080")
			_ = os.Setenv("VEGCOVER_TOP_N", "3")
			_ = os.Setenv("VEGCOVER_STRICT_DUPLICATES", "false")
			_ = os.Setenv("VEGCOVER_SOURCE__DSN", "file:veg.db")
			_ = os.Setenv("VEGCOVER_PROTOCOL__POINTS_PER_UNIT", "100")
			_ = os.Setenv("VEGCOVER_FILTER__EXCLUDED_TAXA", "Litter, Rock")
			_ = os.Setenv("VEGCOVER_OUTPUT__SINKS", "csv")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.TopN, convey.ShouldEqual, 3)
				convey.So(cfg.StrictDuplicates, convey.ShouldBeFalse)
				convey.So(cfg.Source.DSN, convey.ShouldEqual, "file:veg.db")
				convey.So(cfg.Protocol.PointsPerUnit, convey.ShouldEqual, 100)
				convey.So(cfg.Filter.ExcludedTaxa, convey.ShouldResemble, []string{"Litter", "Rock"})
				convey.So(cfg.Output.Sinks, convey.ShouldResemble, []string{"csv"})
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			clearConfigEnvVars()
			yamlContent := `
addr: ":9090"
top_n: 5
source:
  driver: csv
  dsn: ./exports
  columns:
    taxon: Taxon
protocol:
  points_per_unit: 25
  cover_per_hit: 4
filter:
  excluded_units: [NAWMA, EDGE]
output:
  sinks: [xlsx, csv]
  dir: ./out
metrics:
  labels:
    park: PINN
`
			path := createTempConfigFile(t, yamlContent)

			cfg, err := config.Load(ctx, path)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.TopN, convey.ShouldEqual, 5)
				convey.So(cfg.Source.Driver, convey.ShouldEqual, "csv")
				convey.So(cfg.Source.Columns.Taxon, convey.ShouldEqual, "Taxon")
				convey.So(cfg.Source.Columns.HitCount, convey.ShouldEqual, "HitsInQuadrat")
				convey.So(cfg.Protocol.CoverPerHit, convey.ShouldEqual, 4)
				convey.So(cfg.Filter.ExcludedUnits, convey.ShouldResemble, []string{"NAWMA", "EDGE"})
				convey.So(cfg.Output.Sinks, convey.ShouldResemble, []string{"xlsx", "csv"})
				convey.So(cfg.Metrics.Namespace, convey.ShouldEqual, "vegcover")
				convey.So(cfg.Metrics.Labels["park"], convey.ShouldEqual, "PINN")
			})
		})

		convey.Convey("When the file path comes from VEGCOVER_CONFIG and env overrides it", func() {
			clearConfigEnvVars()
			path := createTempConfigFile(t, "addr: \":7000\"\ntop_n: 4\n")
			_ = os.Setenv("VEGCOVER_CONFIG", path)
			_ = os.Setenv("VEGCOVER_TOP_N", "6")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then env wins over the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7000")
				convey.So(cfg.TopN, convey.ShouldEqual, 6)
			})
		})
	})
}

func TestConfigLoaderEdgeCases(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When the file does not exist", func() {
			_, err := config.Load(ctx, filepath.Join(t.TempDir(), "missing.yaml"))

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the YAML is malformed", func() {
			path := createTempConfigFile(t, "addr: [unclosed\n")
			_, err := config.Load(ctx, path)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the loaded values fail validation", func() {
			path := createTempConfigFile(t, "top_n: 0\n")
			_, err := config.Load(ctx, path)

			convey.Convey("Then an invalid config error is returned", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, k := range []string{
		"VEGCOVER_CONFIG",
		"VEGCOVER_ADDR",
		"VEGCOVER_TOP_N",
		"VEGCOVER_STRICT_DUPLICATES",
		"VEGCOVER_SOURCE__DSN",
		"VEGCOVER_PROTOCOL__POINTS_PER_UNIT",
		"VEGCOVER_FILTER__EXCLUDED_TAXA",
		"VEGCOVER_OUTPUT__SINKS",
	} {
		_ = os.Unsetenv(k)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vegcover.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
