package app

import (
	"strconv"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/model"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/table"
)

var numberWords = []string{ //nolint:gochecknoglobals // lookup
	"Zero", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine", "Ten",
}

// numberWord spells small n the way the published sheet names do ("Two").
func numberWord(n int) string {
	if n >= 0 && n < len(numberWords) {
		return numberWords[n]
	}
	return strconv.Itoa(n)
}

var (
	eventColumns = []table.Column{ //nolint:gochecknoglobals // fixed layout
		{Name: "UnitCode", Kind: table.String},
		{Name: "EventID", Kind: table.String},
		{Name: "Year", Kind: table.Int},
		{Name: "StartDate", Kind: table.Date},
		{Name: "LocationID", Kind: table.String},
		{Name: "LocName", Kind: table.String},
		{Name: "Latitude", Kind: table.Float},
		{Name: "Longitude", Kind: table.Float},
		{Name: "VegCode", Kind: table.String},
		{Name: "VegDescription", Kind: table.String},
		{Name: "Species", Kind: table.String},
		{Name: "TotalCover", Kind: table.Float},
		{Name: "PlotCount", Kind: table.Int},
		{Name: "AverageCover", Kind: table.Float},
		{Name: "Rank", Kind: table.Int},
	}
	cycleColumns = []table.Column{ //nolint:gochecknoglobals // fixed layout
		{Name: "VegCode", Kind: table.String},
		{Name: "VegDescription", Kind: table.String},
		{Name: "Year", Kind: table.Int},
		{Name: "Species", Kind: table.String},
		{Name: "MonitoringCycleTotalCover", Kind: table.Float},
		{Name: "MonitoringCyclePlotCount", Kind: table.Int},
		{Name: "MonitoringCycleAverageCover", Kind: table.Float},
		{Name: "Rank", Kind: table.Int},
	}
	communityColumns = []table.Column{ //nolint:gochecknoglobals // fixed layout
		{Name: "VegCode", Kind: table.String},
		{Name: "VegDescription", Kind: table.String},
		{Name: "Species", Kind: table.String},
		{Name: "CommunityTotalCover", Kind: table.Float},
		{Name: "CommunityPlotCount", Kind: table.Int},
		{Name: "CommunityAverageCover", Kind: table.Float},
		{Name: "Rank", Kind: table.Int},
	}
)

type tableBuilder struct {
	prefix string
	topN   int
	index  *model.EventIndex
}

func newTableBuilder(prefix string, topN int, index *model.EventIndex) tableBuilder {
	return tableBuilder{prefix: prefix, topN: topN, index: index}
}

func (b tableBuilder) name(s string) string { return b.prefix + s }

func (b tableBuilder) top() string { return "Top" + numberWord(b.topN) }

func (b tableBuilder) eventAllName() string     { return b.name("EventALL") }
func (b tableBuilder) eventTopName() string     { return b.name("Event" + b.top()) }
func (b tableBuilder) cycleAllName() string     { return b.name("MonCycleAll") }
func (b tableBuilder) cycleTopName() string     { return b.name("MonCycle" + b.top()) }
func (b tableBuilder) communityAllName() string { return b.name("Community") }
func (b tableBuilder) communityTopName() string { return b.name("Community" + b.top()) }

// TableNames returns the six result table names for a prefix and limit, in output order.
func TableNames(prefix string, topN int) []string {
	b := newTableBuilder(prefix, topN, nil)
	return []string{
		b.eventAllName(), b.eventTopName(),
		b.cycleAllName(), b.cycleTopName(),
		b.communityAllName(), b.communityTopName(),
	}
}

func (b tableBuilder) eventTable(name string, recs []model.EventCoverRecord) table.Table {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		e := r.Event
		rows[i] = []any{
			e.UnitCode, e.EventID, e.Year(), e.StartDate, e.SiteID, e.SiteName,
			e.Latitude, e.Longitude, e.CommunityType, e.CommunityDescription,
			r.Taxon, r.TotalCover, r.UnitCount, r.AverageCover, r.Rank,
		}
	}
	return table.Table{Name: name, Columns: eventColumns, Rows: rows}
}

func (b tableBuilder) cycleTable(name string, recs []model.RankedRecord) table.Table {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = []any{
			r.Key.CommunityType, b.index.CommunityDescription(r.Key.CommunityType), r.Key.Year,
			r.Taxon, r.TotalCover, r.UnitCount, r.AverageCover, r.Rank,
		}
	}
	return table.Table{Name: name, Columns: cycleColumns, Rows: rows}
}

func (b tableBuilder) communityTable(name string, recs []model.RankedRecord) table.Table {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = []any{
			r.Key.CommunityType, b.index.CommunityDescription(r.Key.CommunityType),
			r.Taxon, r.TotalCover, r.UnitCount, r.AverageCover, r.Rank,
		}
	}
	return table.Table{Name: name, Columns: communityColumns, Rows: rows}
}
