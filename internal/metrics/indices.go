package metrics

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"accidentscli/pkg/contracts/domain"
)

// SeverityIndex scores one record: (severe + 2*fatal) / (light + severe +
// fatal + 1) * 100. Missing counts are zero.
func SeverityIndex(rec domain.AccidentRecord) float64 {
	light := float64(rec.LightOrZero())
	severe := float64(rec.SevereOrZero())
	fatal := float64(rec.FatalOrZero())
	return (severe + fatal*2) / (light + severe + fatal + 1) * 100
}

// SeveritySummary describes the severity index over every record of one year
func SeveritySummary(year int, part *domain.Dataset) domain.SeveritySummary {
	summary := domain.SeveritySummary{Year: year}
	if part.Len() == 0 {
		return summary
	}

	values := make([]float64, part.Len())
	for i, rec := range part.Records {
		values[i] = SeverityIndex(rec)
	}
	sorted := sortedCopy(values)

	summary.Count = len(values)
	summary.Mean = stat.Mean(values, nil)
	if len(values) > 1 {
		summary.StdDev = stat.StdDev(values, nil)
	}
	summary.Min = floats.Min(values)
	summary.Max = floats.Max(values)
	summary.Q1 = quantile(sorted, 0.25)
	summary.Median = quantile(sorted, 0.5)
	summary.Q3 = quantile(sorted, 0.75)
	return summary
}

// SeveritySummaries returns one severity summary per year, years ascending
func (e *Engine) SeveritySummaries(ds *domain.Dataset) []domain.SeveritySummary {
	years, parts := e.yearParts(ds)
	var out []domain.SeveritySummary
	for _, year := range years {
		out = append(out, SeveritySummary(year, parts[year]))
	}
	return out
}

// highwayAggregate accumulates the sums of one highway in first-seen order
type highwayAggregate struct {
	order []string
	rows  map[string]*domain.HighwayRisk
}

func (e *Engine) aggregateHighways(ds *domain.Dataset) *highwayAggregate {
	agg := &highwayAggregate{rows: make(map[string]*domain.HighwayRisk)}
	for _, rec := range ds.Records {
		key, ok := e.highwayKey(rec)
		if !ok {
			continue
		}
		row, seen := agg.rows[key]
		if !seen {
			row = &domain.HighwayRisk{Highway: rec.Highway.String, Label: key}
			agg.rows[key] = row
			agg.order = append(agg.order, key)
		}
		row.Accidents++
		row.SevereSum += rec.SevereOrZero()
		row.FatalSum += rec.FatalOrZero()
		if rec.TotalVictims.Valid {
			row.VictimsSum += rec.TotalVictims.Int64
		}
	}
	return agg
}

// HighwayRisk ranks highways by danger index: accidents + 5*severe +
// 20*fatal, highest first. At most TopDangerous rows are returned.
func (e *Engine) HighwayRisk(ds *domain.Dataset) []domain.HighwayRisk {
	agg := e.aggregateHighways(ds)
	out := make([]domain.HighwayRisk, 0, len(agg.order))
	for _, key := range agg.order {
		row := *agg.rows[key]
		row.DangerIndex = int64(row.Accidents) + row.SevereSum*5 + row.FatalSum*20
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DangerIndex > out[j].DangerIndex
	})
	return truncate(out, e.opts.TopDangerous)
}

// MortalityByHighway returns fatal/accidents*100 for highways with at least
// MortalityMinAccidents accidents, highest rate first. Highways under the
// threshold are absent.
func (e *Engine) MortalityByHighway(ds *domain.Dataset) []domain.MortalityRow {
	agg := e.aggregateHighways(ds)
	var out []domain.MortalityRow
	for _, key := range agg.order {
		row := agg.rows[key]
		if row.Accidents < e.opts.MortalityMinAccidents {
			continue
		}
		out = append(out, domain.MortalityRow{
			Highway:       row.Highway,
			Label:         row.Label,
			Accidents:     row.Accidents,
			FatalSum:      row.FatalSum,
			MortalityRate: float64(row.FatalSum) / float64(row.Accidents) * 100,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MortalityRate > out[j].MortalityRate
	})
	return truncate(out, e.opts.TopMortality)
}

func truncate[T any](rows []T, n int) []T {
	if n > 0 && len(rows) > n {
		return rows[:n]
	}
	return rows
}
