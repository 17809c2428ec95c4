package source

import (
	"fmt"
	"strings"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/config"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/failure"
)

type field int

const (
	obsEventID field = iota
	obsUnit
	obsTaxon
	obsHits

	evtID
	evtSite
	evtStart
	evtCommunity
	evtUnitCode
	evtSiteName
	evtDescription
	evtLatitude
	evtLongitude
)

type fieldSpec struct {
	field    field
	column   string
	required bool
}

// ColumnMap names the columns each logical field is read from.
type ColumnMap struct {
	observations []fieldSpec
	events       []fieldSpec
}

// NewColumnMap builds the column contract from configuration.
func NewColumnMap(c config.Columns) ColumnMap {
	return ColumnMap{
		observations: []fieldSpec{
			{obsEventID, c.ObservationEventID, true},
			{obsUnit, c.SamplingUnitID, true},
			{obsTaxon, c.Taxon, true},
			{obsHits, c.HitCount, true},
		},
		events: []fieldSpec{
			{evtID, c.EventID, true},
			{evtSite, c.SiteID, true},
			{evtStart, c.StartDate, true},
			{evtCommunity, c.CommunityType, true},
			{evtUnitCode, c.UnitCode, false},
			{evtSiteName, c.SiteName, false},
			{evtDescription, c.CommunityDescription, false},
			{evtLatitude, c.Latitude, false},
			{evtLongitude, c.Longitude, false},
		},
	}
}

// positions maps each field to its index in header; absent optional fields
// are left out. Header names match case-insensitively.
type positions map[field]int

func resolve(op, tableName string, specs []fieldSpec, header []string) (positions, error) {
	pos := make(positions, len(specs))
	for _, s := range specs {
		i := indexOf(header, s.column)
		if i < 0 {
			if s.required {
				return nil, failure.WrapKind(op, failure.ErrConfiguration,
					fmt.Errorf("table %s: %w %q", tableName, ErrMissingColumn, s.column))
			}
			continue
		}
		pos[s.field] = i
	}
	return pos, nil
}

func indexOf(header []string, name string) int {
	if name == "" {
		return -1
	}
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func (p positions) get(row []any, f field) (any, bool) {
	i, ok := p[f]
	if !ok || i >= len(row) {
		return nil, false
	}
	return row[i], true
}
