package model

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// Scale selects one of the three nested aggregation levels.
type Scale int

const (
	ScaleEvent Scale = iota
	ScaleMonitoringCycle
	ScaleCommunity
)

// Scales lists every scale in output order.
var Scales = []Scale{ScaleEvent, ScaleMonitoringCycle, ScaleCommunity} //nolint:gochecknoglobals // fixed enumeration

func (s Scale) String() string {
	switch s {
	case ScaleEvent:
		return "event"
	case ScaleMonitoringCycle:
		return "monitoring_cycle"
	case ScaleCommunity:
		return "community"
	default:
		return "scale(" + strconv.Itoa(int(s)) + ")"
	}
}

// ParseScale accepts the names produced by String plus a few short forms.
func ParseScale(s string) (Scale, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "event":
		return ScaleEvent, nil
	case "monitoring_cycle", "moncycle", "cycle":
		return ScaleMonitoringCycle, nil
	case "community":
		return ScaleCommunity, nil
	default:
		return 0, fmt.Errorf("unknown scale %q", s)
	}
}

// GroupKey is the aggregation key. Only the fields used by a scale are set:
// EventID for ScaleEvent, CommunityType and Year for ScaleMonitoringCycle,
// CommunityType for ScaleCommunity.
type GroupKey struct {
	EventID       string `json:"event_id,omitempty"`
	CommunityType string `json:"community_type,omitempty"`
	Year          int    `json:"year,omitempty"`
}

// KeyFor builds the group key of an event at the given scale.
func KeyFor(s Scale, e Event) GroupKey {
	switch s {
	case ScaleMonitoringCycle:
		return GroupKey{CommunityType: e.CommunityType, Year: e.Year()}
	case ScaleCommunity:
		return GroupKey{CommunityType: e.CommunityType}
	default:
		return GroupKey{EventID: e.EventID}
	}
}

// Compare orders keys by EventID, then CommunityType, then Year.
func (k GroupKey) Compare(o GroupKey) int {
	if c := cmp.Compare(k.EventID, o.EventID); c != 0 {
		return c
	}
	if c := cmp.Compare(k.CommunityType, o.CommunityType); c != 0 {
		return c
	}
	return cmp.Compare(k.Year, o.Year)
}

func (k GroupKey) String() string {
	switch {
	case k.EventID != "":
		return "event=" + k.EventID
	case k.Year != 0:
		return fmt.Sprintf("community=%s year=%d", k.CommunityType, k.Year)
	default:
		return "community=" + k.CommunityType
	}
}

// CoverRecord is the cover of one taxon within one group at one scale.
// TotalHits is the exact integer behind TotalCover and orders records within
// a group the same way AverageCover does.
type CoverRecord struct {
	Scale        Scale
	Key          GroupKey
	Taxon        string
	TotalHits    int
	TotalCover   float64
	UnitCount    int
	AverageCover float64
}

// RankedRecord is a CoverRecord with its dense rank inside the group (1 is highest).
type RankedRecord struct {
	CoverRecord
	Rank int
}

// EventCoverRecord is an event scale record joined with its event attributes.
type EventCoverRecord struct {
	RankedRecord
	Event Event
}
