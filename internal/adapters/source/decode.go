package source

import (
	"fmt"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/failure"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/model"
)

const (
	opObservations = "source.observations"
	opEvents       = "source.events"
)

func decodeObservation(pos positions, row []any, n int) (model.Observation, error) {
	v, _ := pos.get(row, obsHits)
	hits, err := asInt(v)
	if err != nil {
		return model.Observation{}, badCell(opObservations, "hit count", n, err)
	}
	id, _ := pos.get(row, obsEventID)
	unit, _ := pos.get(row, obsUnit)
	taxon, _ := pos.get(row, obsTaxon)
	return model.Observation{
		EventID:        asString(id),
		SamplingUnitID: asString(unit),
		Taxon:          asString(taxon),
		HitCount:       hits,
	}, nil
}

func decodeEvent(pos positions, row []any, n int) (model.Event, error) {
	v, _ := pos.get(row, evtStart)
	start, err := asTime(v)
	if err != nil {
		return model.Event{}, badCell(opEvents, "start date", n, err)
	}
	e := model.Event{StartDate: start}
	e.EventID = str(pos, row, evtID)
	e.SiteID = str(pos, row, evtSite)
	e.CommunityType = str(pos, row, evtCommunity)
	e.UnitCode = str(pos, row, evtUnitCode)
	e.SiteName = str(pos, row, evtSiteName)
	e.CommunityDescription = str(pos, row, evtDescription)

	if v, ok := pos.get(row, evtLatitude); ok {
		if e.Latitude, err = asFloat(v); err != nil {
			return model.Event{}, badCell(opEvents, "latitude", n, err)
		}
	}
	if v, ok := pos.get(row, evtLongitude); ok {
		if e.Longitude, err = asFloat(v); err != nil {
			return model.Event{}, badCell(opEvents, "longitude", n, err)
		}
	}
	return e, nil
}

func str(pos positions, row []any, f field) string {
	v, _ := pos.get(row, f)
	return asString(v)
}

func badCell(op, what string, row int, err error) error {
	return failure.WrapKind(op, failure.ErrInvalidData, fmt.Errorf("%s: %w", what, err)).WithRow(row)
}
