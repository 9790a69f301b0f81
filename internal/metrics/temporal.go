package metrics

import (
	"strconv"
	"time"

	"accidentscli/pkg/contracts/domain"
)

// Months and weekdays are taken from the record-open date. Records without
// one are left out of every table in this file.

var weekdayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// MonthlyCounts returns twelve rows per year, zero filled, with accident
// count, total victims and fatal victims per calendar month.
func (e *Engine) MonthlyCounts(ds *domain.Dataset) []domain.MonthlyRow {
	years, parts := e.yearParts(ds)
	var out []domain.MonthlyRow
	for _, year := range years {
		var rows [12]domain.MonthlyRow
		for m := range rows {
			rows[m] = domain.MonthlyRow{Year: year, Month: m + 1}
		}
		for _, rec := range parts[year].Records {
			if !rec.OpenedAt.Valid {
				continue
			}
			row := &rows[rec.OpenedAt.Time.Month()-1]
			row.Accidents++
			row.Fatal += rec.FatalOrZero()
			if rec.TotalVictims.Valid {
				row.Victims += rec.TotalVictims.Int64
			}
		}
		out = append(out, rows[:]...)
	}
	return out
}

// MonthOverMonth compares the monthly accident counts of each pair of
// consecutive years. A configured year without records still takes part
// with zero counts. A month with no accidents in the earlier year has a
// rate of 0.
func (e *Engine) MonthOverMonth(ds *domain.Dataset) []domain.MonthlyVariation {
	years, _ := e.yearParts(ds)
	counts := make(map[int][12]int, len(years))
	for _, row := range e.MonthlyCounts(ds) {
		c := counts[row.Year]
		c[row.Month-1] = row.Accidents
		counts[row.Year] = c
	}

	var out []domain.MonthlyVariation
	for i := 1; i < len(years); i++ {
		from, to := years[i-1], years[i]
		v := domain.MonthlyVariation{FromYear: from, ToYear: to}
		for m := 0; m < 12; m++ {
			a, b := counts[from][m], counts[to][m]
			v.Months[m] = domain.MonthDelta{
				Month:     m + 1,
				FromCount: a,
				ToCount:   b,
				RatePct:   variationPct(float64(a), float64(b)),
			}
		}
		out = append(out, v)
	}
	return out
}

// Weekday counts accidents per weekday and year, Monday first
func (e *Engine) Weekday(ds *domain.Dataset) []domain.WeekdayRow {
	years, parts := e.yearParts(ds)
	var out []domain.WeekdayRow
	for _, year := range years {
		counts := make(map[time.Weekday]int, 7)
		for _, rec := range parts[year].Records {
			if rec.OpenedAt.Valid {
				counts[rec.OpenedAt.Time.Weekday()]++
			}
		}
		for _, d := range weekdayOrder {
			out = append(out, domain.WeekdayRow{Year: year, Weekday: d.String(), Accidents: counts[d]})
		}
	}
	return out
}

// HighwayMonthHeatmap counts accidents of the HeatmapHighways busiest
// highways, overall, per month. One table per year.
func (e *Engine) HighwayMonthHeatmap(ds *domain.Dataset) []domain.CrossTab {
	highways := e.highwayTally(ds).top(e.opts.HeatmapHighways, func(k string) string { return k })

	index := make(map[string]int, len(highways))
	rowKeys := make([]string, len(highways))
	rowLabels := make([]string, len(highways))
	for i, h := range highways {
		index[h.Label] = i
		rowKeys[i] = h.Key
		rowLabels[i] = h.Label
	}
	colKeys := make([]string, 12)
	for m := range colKeys {
		colKeys[m] = strconv.Itoa(m + 1)
	}

	years, parts := e.yearParts(ds)
	var out []domain.CrossTab
	for _, year := range years {
		tab := domain.CrossTab{
			Year:      year,
			RowKeys:   rowKeys,
			RowLabels: rowLabels,
			ColKeys:   colKeys,
			Counts:    zeroCounts(len(highways), 12),
		}
		for _, rec := range parts[year].Records {
			if !rec.OpenedAt.Valid {
				continue
			}
			key, ok := e.highwayKey(rec)
			if !ok {
				continue
			}
			if i, ok := index[key]; ok {
				tab.Counts[i][rec.OpenedAt.Time.Month()-1]++
			}
		}
		out = append(out, tab)
	}
	return out
}

func zeroCounts(rows, cols int) [][]int {
	counts := make([][]int, rows)
	for i := range counts {
		counts[i] = make([]int, cols)
	}
	return counts
}
