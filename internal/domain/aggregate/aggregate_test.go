package aggregate_test

import (
	"errors"
	"testing"
	"time"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/aggregate"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/cover"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/failure"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func covered(obs ...model.Observation) []model.CoveredObservation {
	c, err := cover.NewCalculator(cover.Protocol{PointsPerUnit: 50}, 0)
	if err != nil {
		panic(err)
	}
	return c.Apply(obs)
}

func index(events ...model.Event) *model.EventIndex {
	idx, err := model.NewEventIndex(events)
	if err != nil {
		panic(err)
	}
	return idx
}

func find(recs []model.CoverRecord, key model.GroupKey, taxon string) (model.CoverRecord, bool) {
	for _, r := range recs {
		if r.Key == key && r.Taxon == taxon {
			return r, true
		}
	}
	return model.CoverRecord{}, false
}

func TestAggregateEventScale(t *testing.T) {
	Convey("Given the oak and grass observations of one event", t, func() {
		obs := covered(
			model.Observation{EventID: "E1", SamplingUnitID: "A", Taxon: "Oak", HitCount: 10},
			model.Observation{EventID: "E1", SamplingUnitID: "B", Taxon: "Oak", HitCount: 20},
			model.Observation{EventID: "E1", SamplingUnitID: "C", Taxon: "Oak", HitCount: 15},
			model.Observation{EventID: "E1", SamplingUnitID: "A", Taxon: "Grass", HitCount: 5},
		)

		Convey("When aggregated at the event scale without an index", func() {
			recs, err := aggregate.Aggregate(model.ScaleEvent, obs, nil)
			So(err, ShouldBeNil)
			key := model.GroupKey{EventID: "E1"}

			Convey("Then oak averages 30 over three units", func() {
				oak, ok := find(recs, key, "Oak")
				So(ok, ShouldBeTrue)
				So(oak.TotalCover, ShouldEqual, 90)
				So(oak.UnitCount, ShouldEqual, 3)
				So(oak.AverageCover, ShouldEqual, 30)
			})

			Convey("Then grass shares the group denominator", func() {
				grass, ok := find(recs, key, "Grass")
				So(ok, ShouldBeTrue)
				So(grass.TotalCover, ShouldEqual, 10)
				So(grass.UnitCount, ShouldEqual, 3)
				So(grass.AverageCover, ShouldAlmostEqual, 3.3333, 0.0001)
			})

			Convey("Then records are ordered by taxon within the group", func() {
				So(len(recs), ShouldEqual, 2)
				So(recs[0].Taxon, ShouldEqual, "Grass")
				So(recs[1].Taxon, ShouldEqual, "Oak")
				So(recs[0].Scale, ShouldEqual, model.ScaleEvent)
			})
		})

		Convey("When a new taxon is added to an existing unit", func() {
			more := append(append([]model.CoveredObservation{}, obs...),
				covered(model.Observation{EventID: "E1", SamplingUnitID: "B", Taxon: "Sage", HitCount: 1})...)
			recs, err := aggregate.Aggregate(model.ScaleEvent, more, nil)
			So(err, ShouldBeNil)

			Convey("Then the unit count does not change", func() {
				for _, r := range recs {
					So(r.UnitCount, ShouldEqual, 3)
				}
			})
		})
	})
}

func TestAggregateCoarserScales(t *testing.T) {
	Convey("Given two oak events in 2020 and one in 2021", t, func() {
		idx := index(
			model.Event{EventID: "E1", CommunityType: "OAK", StartDate: time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC)},
			model.Event{EventID: "E2", CommunityType: "OAK", StartDate: time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)},
			model.Event{EventID: "E3", CommunityType: "OAK", StartDate: time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)},
			model.Event{EventID: "E4", CommunityType: "GRS", StartDate: time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)},
		)
		obs := covered(
			model.Observation{EventID: "E1", SamplingUnitID: "A", Taxon: "Oak", HitCount: 10},
			model.Observation{EventID: "E1", SamplingUnitID: "B", Taxon: "Oak", HitCount: 10},
			model.Observation{EventID: "E2", SamplingUnitID: "A", Taxon: "Oak", HitCount: 20},
			model.Observation{EventID: "E2", SamplingUnitID: "A", Taxon: "Grass", HitCount: 5},
			model.Observation{EventID: "E3", SamplingUnitID: "A", Taxon: "Oak", HitCount: 30},
			model.Observation{EventID: "E4", SamplingUnitID: "A", Taxon: "Grass", HitCount: 25},
		)

		Convey("When aggregated by monitoring cycle", func() {
			recs, err := aggregate.Aggregate(model.ScaleMonitoringCycle, obs, idx)
			So(err, ShouldBeNil)

			Convey("Then units with the same letter in different events are distinct", func() {
				oak, ok := find(recs, model.GroupKey{CommunityType: "OAK", Year: 2020}, "Oak")
				So(ok, ShouldBeTrue)
				So(oak.UnitCount, ShouldEqual, 3)
				So(oak.TotalCover, ShouldEqual, 80)
				So(oak.AverageCover, ShouldAlmostEqual, 26.6667, 0.0001)
			})

			Convey("Then every taxon of a group shares one denominator", func() {
				grass, ok := find(recs, model.GroupKey{CommunityType: "OAK", Year: 2020}, "Grass")
				So(ok, ShouldBeTrue)
				So(grass.UnitCount, ShouldEqual, 3)
			})

			Convey("Then groups are ordered by community then year", func() {
				So(recs[0].Key, ShouldResemble, model.GroupKey{CommunityType: "GRS", Year: 2020})
				So(recs[len(recs)-1].Key, ShouldResemble, model.GroupKey{CommunityType: "OAK", Year: 2021})
			})
		})

		Convey("When aggregated by community", func() {
			recs, err := aggregate.Aggregate(model.ScaleCommunity, obs, idx)
			So(err, ShouldBeNil)

			Convey("Then the year is dropped from the key", func() {
				oak, ok := find(recs, model.GroupKey{CommunityType: "OAK"}, "Oak")
				So(ok, ShouldBeTrue)
				So(oak.UnitCount, ShouldEqual, 4)
				So(oak.TotalCover, ShouldEqual, 140)
				So(oak.AverageCover, ShouldEqual, 35)
				So(len(recs), ShouldEqual, 3)
			})
		})

		Convey("When an observation references an unknown event", func() {
			bad := append(append([]model.CoveredObservation{}, obs...),
				covered(model.Observation{EventID: "E99", SamplingUnitID: "A", Taxon: "Oak", HitCount: 1})...)
			_, err := aggregate.Aggregate(model.ScaleCommunity, bad, idx)

			Convey("Then a join mismatch names the row", func() {
				So(errors.Is(err, failure.ErrJoinMismatch), ShouldBeTrue)
				So(errors.Is(err, aggregate.ErrUnknownEvent), ShouldBeTrue)
				var fe *failure.Error
				So(errors.As(err, &fe), ShouldBeTrue)
				So(fe.Row, ShouldEqual, 7)
				So(fe.Op, ShouldEqual, "aggregate.community")
			})
		})

		Convey("When a coarser scale has no index", func() {
			_, err := aggregate.Aggregate(model.ScaleMonitoringCycle, obs, nil)

			Convey("Then it fails as a join mismatch", func() {
				So(errors.Is(err, failure.ErrJoinMismatch), ShouldBeTrue)
			})
		})
	})
}

func TestEmptyGroups(t *testing.T) {
	Convey("Given an event whose only rows are litter", t, func() {
		unfiltered := []model.Observation{
			{EventID: "E1", SamplingUnitID: "A", Taxon: "Oak", HitCount: 3},
			{EventID: "E2", SamplingUnitID: "A", Taxon: "Litter", HitCount: 40},
		}
		recs, err := aggregate.Aggregate(model.ScaleEvent, covered(unfiltered[0]), nil)
		So(err, ShouldBeNil)

		Convey("Then the event is reported as an empty group", func() {
			empty := aggregate.EmptyGroups(model.ScaleEvent, unfiltered, recs, nil)
			So(empty, ShouldResemble, []model.GroupKey{{EventID: "E2"}})
		})

		Convey("Then Keys lists both groups in order", func() {
			So(aggregate.Keys(model.ScaleEvent, unfiltered, nil), ShouldResemble,
				[]model.GroupKey{{EventID: "E1"}, {EventID: "E2"}})
		})
	})
}

func TestAggregateThirtyPointProtocol(t *testing.T) {
	Convey("Given two taxa with seven hits each under a 30 point protocol", t, func() {
		c, err := cover.NewCalculator(cover.Protocol{PointsPerUnit: 30}, 0)
		So(err, ShouldBeNil)
		rows := []model.Observation{
			{EventID: "E1", SamplingUnitID: "A", Taxon: "Achillea", HitCount: 1},
			{EventID: "E1", SamplingUnitID: "B", Taxon: "Achillea", HitCount: 6},
			{EventID: "E1", SamplingUnitID: "A", Taxon: "Aster", HitCount: 5},
			{EventID: "E1", SamplingUnitID: "C", Taxon: "Aster", HitCount: 2},
		}
		reversed := []model.Observation{rows[3], rows[2], rows[1], rows[0]}

		Convey("When aggregated in either row order", func() {
			key := model.GroupKey{EventID: "E1"}
			for _, in := range [][]model.Observation{rows, reversed} {
				recs, err := aggregate.Aggregate(model.ScaleEvent, c.Apply(in), nil)
				So(err, ShouldBeNil)
				achillea, _ := find(recs, key, "Achillea")
				aster, _ := find(recs, key, "Aster")

				So(achillea.TotalHits, ShouldEqual, 7)
				So(aster.TotalHits, ShouldEqual, 7)
				So(achillea.TotalCover, ShouldEqual, aster.TotalCover)
				So(achillea.AverageCover, ShouldEqual, aster.AverageCover)
				So(achillea.TotalCover, ShouldAlmostEqual, 23.3333, 0.0001)
			}
		})
	})
}
