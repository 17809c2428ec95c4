package config_test

import (
	"context"
	"errors"
	"testing"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should reproduce the monitoring program defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.TopN, convey.ShouldEqual, 2)
			convey.So(cfg.StrictDuplicates, convey.ShouldBeTrue)
			convey.So(cfg.Protocol.PointsPerUnit, convey.ShouldEqual, 50)
			convey.So(cfg.Filter.ExcludedTaxa, convey.ShouldResemble, []string{"Litter", "Bare Ground", "Lichen"})
			convey.So(cfg.Filter.ExcludedUnits, convey.ShouldResemble, []string{"NAWMA"})
			convey.So(cfg.Source.ObservationTable, convey.ShouldEqual, "tblNAWMADataset")
			convey.So(cfg.Source.EventTable, convey.ShouldEqual, "tblEventsDataset")
			convey.So(cfg.Source.Columns.HitCount, convey.ShouldEqual, "HitsInQuadrat")
			convey.So(cfg.Output.Name, convey.ShouldEqual, "PCM_NAWMA_Vegetation_ClimateVA")
			convey.So(cfg.Output.TablePrefix, convey.ShouldEqual, "NAWMACover")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a valid config", t, func() {
		cfg := config.New(context.Background())

		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }},
			{"zero top_n", func(c *config.Config) { c.TopN = 0 }},
			{"zero history", func(c *config.Config) { c.HistorySize = 0 }},
			{"zero run queue", func(c *config.Config) { c.RunQueue = 0 }},
			{"empty metrics namespace", func(c *config.Config) { c.Metrics.Namespace = "" }},
			{"zero points", func(c *config.Config) { c.Protocol.PointsPerUnit = 0 }},
			{"negative cover per hit", func(c *config.Config) { c.Protocol.CoverPerHit = -1 }},
			{"missing table", func(c *config.Config) { c.Source.EventTable = "" }},
			{"no sinks", func(c *config.Config) { c.Output.Sinks = nil }},
			{"unknown sink", func(c *config.Config) { c.Output.Sinks = []string{"parquet"} }},
			{"unknown driver", func(c *config.Config) { c.Source.Driver = "odbc" }},
			{"sql sink without dsn", func(c *config.Config) { c.Output.Sinks = []string{"sql"} }},
		}

		for _, tc := range cases {
			convey.Convey("When "+tc.name, func() {
				tc.mutate(cfg)
				err := cfg.Validate()

				convey.Convey("Then it is rejected as invalid config", func() {
					convey.So(err, convey.ShouldNotBeNil)
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}

		convey.Convey("When the sql sink is fully configured", func() {
			cfg.Output.Sinks = []string{"sql", "csv"}
			cfg.Output.SQLDriver = "sqlite"
			cfg.Output.SQLDSN = "file:out.db"

			convey.Convey("Then it validates", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})
	})
}
