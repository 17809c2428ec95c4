// Package model contains domain models passed between pipeline stages.
package model

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Sentinel errors raised while building the event index.
var (
	ErrDuplicateEvent = errors.New("duplicate event id")
	ErrEmptyEventID   = errors.New("empty event id")
)

// Event is one monitoring site visit.
type Event struct {
	EventID              string
	SiteID               string // LocationID in the monitoring database
	SiteName             string
	UnitCode             string // park unit, e.g. "PINN"
	CommunityType        string // VegCode
	CommunityDescription string
	StartDate            time.Time
	Latitude             float64
	Longitude            float64
}

// Year is derived from StartDate and never stored on its own.
func (e Event) Year() int { return e.StartDate.Year() }

// EventIndex is a read-only lookup of events keyed by EventID.
type EventIndex struct {
	byID         map[string]Event
	descriptions map[string]string
}

// NewEventIndex indexes events and rejects empty or repeated EventIDs.
func NewEventIndex(events []Event) (*EventIndex, error) {
	idx := &EventIndex{
		byID:         make(map[string]Event, len(events)),
		descriptions: make(map[string]string),
	}
	descOwner := make(map[string]string)
	for i, e := range events {
		if e.EventID == "" {
			return nil, fmt.Errorf("event row %d: %w", i+1, ErrEmptyEventID)
		}
		if _, ok := idx.byID[e.EventID]; ok {
			return nil, fmt.Errorf("event row %d: %w: %s", i+1, ErrDuplicateEvent, e.EventID)
		}
		idx.byID[e.EventID] = e

		// the description of a community comes from its lowest EventID
		if e.CommunityDescription == "" {
			continue
		}
		if owner, ok := descOwner[e.CommunityType]; !ok || e.EventID < owner {
			descOwner[e.CommunityType] = e.EventID
			idx.descriptions[e.CommunityType] = e.CommunityDescription
		}
	}
	return idx, nil
}

// Lookup returns the event with the given id.
func (x *EventIndex) Lookup(eventID string) (Event, bool) {
	e, ok := x.byID[eventID]
	return e, ok
}

// CommunityDescription returns the description recorded for a community code.
func (x *EventIndex) CommunityDescription(code string) string {
	return x.descriptions[code]
}

// Len reports the number of indexed events.
func (x *EventIndex) Len() int { return len(x.byID) }

// IDs returns every EventID in ascending order.
func (x *EventIndex) IDs() []string {
	ids := make([]string, 0, len(x.byID))
	for id := range x.byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
