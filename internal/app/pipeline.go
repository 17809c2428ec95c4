package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/aggregate"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/cover"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/dedupe"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/enrich"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/failure"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/filter"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/model"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/ranking"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/report"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/table"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/pkg/metrics"
)

// Params are the run inputs that are not data.
type Params struct {
	ExcludedTaxa     []string
	ExcludedUnits    []string
	Protocol         cover.Protocol
	CoverPerHit      float64 // 0 derives from Protocol
	TopN             int
	StrictDuplicates bool
	TablePrefix      string
	WriteRunReport   bool
}

// DefaultParams mirrors the monitoring program defaults.
func DefaultParams() Params {
	return Params{
		ExcludedTaxa:     []string{"Litter", "Bare Ground", "Lichen"},
		ExcludedUnits:    []string{"NAWMA"},
		Protocol:         cover.Protocol{PointsPerUnit: 50},
		TopN:             2,
		StrictDuplicates: true,
		TablePrefix:      "NAWMACover",
	}
}

// Result is the output of one run: the tables in their fixed order and the report.
type Result struct {
	Tables []table.Table
	Report report.Report
}

// Table returns the table with the given name.
func (r *Result) Table(name string) (table.Table, bool) {
	for _, t := range r.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return table.Table{}, false
}

type scaleOutput struct {
	all   []model.RankedRecord
	top   []model.RankedRecord
	empty []model.GroupKey

	// event scale only
	allEvents []model.EventCoverRecord
	topEvents []model.EventCoverRecord
}

// Compute runs the whole pipeline over in-memory inputs. It has no side
// effects besides metrics, and identical inputs give identical tables.
func Compute(ctx context.Context, obs []model.Observation, events []model.Event, p Params) (*Result, error) {
	rep := report.Report{
		RunID:        uuid.NewString(),
		StartedAt:    time.Now().UTC(),
		Observations: len(obs),
		Events:       len(events),
		TopN:         p.TopN,
		EmptyGroups:  make(map[string][]model.GroupKey),
		TableRows:    make(map[string]int),
	}

	if p.TopN < 1 {
		return nil, failure.WrapKind("params", failure.ErrConfiguration, fmt.Errorf("%w: %d", ranking.ErrInvalidLimit, p.TopN))
	}
	calc, err := cover.NewCalculator(p.Protocol, p.CoverPerHit)
	if err != nil {
		return nil, failure.WrapKind("params", failure.ErrConfiguration, err)
	}
	rep.CoverPerHit = calc.CoverPerHit()

	start := time.Now()
	index, err := model.NewEventIndex(events)
	if err != nil {
		return nil, failure.WrapKind("index.events", failure.ErrInvalidData, err)
	}

	for i, o := range obs {
		if o.HitCount < 0 {
			return nil, failure.WrapKind("validate.observations", failure.ErrInvalidData,
				fmt.Errorf("negative hit count %d for %s/%s/%s", o.HitCount, o.EventID, o.SamplingUnitID, o.Taxon)).WithRow(i + 1)
		}
	}
	dups := dedupe.Scan(obs)
	rep.Duplicates = len(dups)
	if len(dups) > 0 && p.StrictDuplicates {
		d := dups[0]
		return nil, failure.WrapKind("validate.observations", failure.ErrInvalidData,
			fmt.Errorf("duplicate observation %s/%s/%s", d.Key.EventID, d.Key.SamplingUnitID, d.Key.Taxon)).WithRow(d.Row)
	}
	metrics.AddObservations(metrics.OutcomeDuplicate, len(dups))
	metrics.RecordStageLatency("validate", time.Since(start))

	start = time.Now()
	matched, unmatched := enrich.Partition(obs, index)
	rep.JoinLoss = enrich.Loss(unmatched)
	metrics.AddObservations(metrics.OutcomeUnmatchedEvent, len(unmatched))

	f := filter.New(filter.WithExcludedTaxa(p.ExcludedTaxa...), filter.WithExcludedUnits(p.ExcludedUnits...))
	filtered, stats := f.Apply(matched)
	rep.Filter = stats
	metrics.AddObservations(metrics.OutcomeExcludedUnit, stats.ExcludedUnit)
	metrics.AddObservations(metrics.OutcomeExcludedTaxon, stats.ExcludedTaxon)
	metrics.AddObservations(metrics.OutcomeRetained, stats.Retained)

	covered := calc.Apply(filtered)
	metrics.RecordStageLatency("prepare", time.Since(start))

	outputs := make([]scaleOutput, len(model.Scales))
	g, gctx := errgroup.WithContext(ctx)
	for i, scale := range model.Scales {
		i, scale := i, scale
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := runScale(scale, covered, matched, index, p.TopN)
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	start = time.Now()
	b := newTableBuilder(p.TablePrefix, p.TopN, index)
	tables := []table.Table{
		b.eventTable(b.eventAllName(), outputs[0].allEvents),
		b.eventTable(b.eventTopName(), outputs[0].topEvents),
		b.cycleTable(b.cycleAllName(), outputs[1].all),
		b.cycleTable(b.cycleTopName(), outputs[1].top),
		b.communityTable(b.communityAllName(), outputs[2].all),
		b.communityTable(b.communityTopName(), outputs[2].top),
	}
	for i, scale := range model.Scales {
		if len(outputs[i].empty) > 0 {
			rep.EmptyGroups[scale.String()] = outputs[i].empty
		}
		metrics.UpdateCoverRecords(scale.String(), len(outputs[i].all))
		metrics.UpdateEmptyGroups(scale.String(), len(outputs[i].empty))
	}
	for _, t := range tables {
		rep.TableRows[t.Name] = len(t.Rows)
	}
	rep.Duration = time.Since(rep.StartedAt)
	if p.WriteRunReport {
		tables = append(tables, rep.Table(b.name("RunReport")))
	}
	metrics.RecordStageLatency("tables", time.Since(start))

	return &Result{Tables: tables, Report: rep}, nil
}

// runScale aggregates, ranks and selects the top n of one scale.
func runScale(scale model.Scale, covered []model.CoveredObservation, matched []model.Observation, index *model.EventIndex, n int) (scaleOutput, error) {
	start := time.Now()
	defer func() { metrics.RecordStageLatency("aggregate."+scale.String(), time.Since(start)) }()

	idx := index
	if scale == model.ScaleEvent {
		idx = nil // joined after aggregation
	}
	recs, err := aggregate.Aggregate(scale, covered, idx)
	if err != nil {
		return scaleOutput{}, err
	}
	top, err := ranking.TopN(recs, n)
	if err != nil {
		return scaleOutput{}, failure.WrapKind("rank."+scale.String(), failure.ErrConfiguration, err)
	}
	out := scaleOutput{
		all:   ranking.Rank(recs),
		top:   top,
		empty: aggregate.EmptyGroups(scale, matched, recs, index),
	}
	if scale != model.ScaleEvent {
		return out, nil
	}
	if out.allEvents, err = enrich.Events(out.all, index); err != nil {
		return scaleOutput{}, err
	}
	if out.topEvents, err = enrich.Events(out.top, index); err != nil {
		return scaleOutput{}, err
	}
	return out, nil
}
