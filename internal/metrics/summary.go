package metrics

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat"

	"accidentscli/pkg/contracts/domain"
)

// YearSummary returns the headline figures of one year. Mean and median
// victims are over records that report a total.
func YearSummary(year int, part *domain.Dataset) domain.YearSummary {
	s := domain.YearSummary{Year: year, Accidents: part.Len()}

	var victims []float64
	for _, rec := range part.Records {
		s.Light += rec.LightOrZero()
		s.Severe += rec.SevereOrZero()
		s.Fatal += rec.FatalOrZero()
		if rec.TotalVictims.Valid {
			s.TotalVictims += rec.TotalVictims.Int64
			victims = append(victims, float64(rec.TotalVictims.Int64))
		}
	}
	if len(victims) > 0 {
		s.MeanVictims = stat.Mean(victims, nil)
		s.MedianVictims = quantile(sortedCopy(victims), 0.5)
	}
	s.MortalityRate = ratePct(float64(s.Fatal), float64(s.Accidents))
	return s
}

// YearSummaries returns one summary per year, ascending
func (e *Engine) YearSummaries(ds *domain.Dataset) []domain.YearSummary {
	years, parts := e.yearParts(ds)
	var out []domain.YearSummary
	for _, year := range years {
		out = append(out, YearSummary(year, parts[year]))
	}
	return out
}

// YearComparisons returns the percent variation of each summary figure
// between consecutive years. A figure that was 0 in the earlier year has a
// variation of 0.
func YearComparisons(summaries []domain.YearSummary) []domain.YearComparison {
	var out []domain.YearComparison
	for i := 1; i < len(summaries); i++ {
		a, b := summaries[i-1], summaries[i]
		out = append(out, domain.YearComparison{
			FromYear:     a.Year,
			ToYear:       b.Year,
			Accidents:    variationPct(float64(a.Accidents), float64(b.Accidents)),
			Light:        variationPct(float64(a.Light), float64(b.Light)),
			Severe:       variationPct(float64(a.Severe), float64(b.Severe)),
			Fatal:        variationPct(float64(a.Fatal), float64(b.Fatal)),
			TotalVictims: variationPct(float64(a.TotalVictims), float64(b.TotalVictims)),
		})
	}
	return out
}

// Direction vocabulary families
const (
	DirectionRouteRelative = "route-relative"
	DirectionCardinal      = "cardinal"
	DirectionMixed         = "mixed"
	DirectionUnknown       = "unknown"
)

var cardinalWords = []string{"norte", "sul", "leste", "oeste"}

// directionFamily classifies one direction label. Labels that are neither
// route-relative nor cardinal return "".
func directionFamily(label string) string {
	l := strings.ToLower(label)
	if strings.Contains(l, "crescente") {
		return DirectionRouteRelative
	}
	for _, w := range cardinalWords {
		if strings.Contains(l, w) {
			return DirectionCardinal
		}
	}
	return ""
}

// DirectionByYear counts direction labels per year and names the vocabulary
// family each year uses. Labels are never mapped between families; when
// years use different families the table carries a caveat.
func (e *Engine) DirectionByYear(ds *domain.Dataset) domain.DirectionTable {
	years, parts := e.yearParts(ds)
	table := domain.DirectionTable{
		Years:    years,
		Counts:   make(map[int][]domain.CountRow),
		Families: make(map[int]string),
	}

	var known []string
	for _, year := range table.Years {
		t := textTally(parts[year], direction)
		table.Counts[year] = t.top(0, nil)

		found := make(map[string]bool)
		for _, label := range t.keys {
			if f := directionFamily(label); f != "" {
				found[f] = true
			}
		}
		family := DirectionUnknown
		switch {
		case found[DirectionRouteRelative] && found[DirectionCardinal]:
			family = DirectionMixed
		case found[DirectionRouteRelative]:
			family = DirectionRouteRelative
		case found[DirectionCardinal]:
			family = DirectionCardinal
		}
		table.Families[year] = family
		if family != DirectionUnknown {
			known = append(known, fmt.Sprintf("%d: %s", year, family))
		}
	}

	distinct := make(map[string]bool)
	for _, year := range table.Years {
		if f := table.Families[year]; f != DirectionUnknown {
			distinct[f] = true
		}
	}
	if len(distinct) > 1 {
		table.Caveat = fmt.Sprintf("direction vocabulary changes across years (%s); categories are not comparable between families",
			strings.Join(known, ", "))
	}
	return table
}

// MissingValues reports, for every dataset column except the year, how many
// records have no value.
func (e *Engine) MissingValues(ds *domain.Dataset) []domain.MissingValueRow {
	var out []domain.MissingValueRow
	for _, col := range ds.Columns {
		if col == domain.ColYear {
			continue
		}
		missing := 0
		for _, rec := range ds.Records {
			if _, ok := rec.Text(col); !ok {
				missing++
			}
		}
		out = append(out, domain.MissingValueRow{
			Column:  col,
			Missing: missing,
			Share:   ratePct(float64(missing), float64(ds.Len())),
		})
	}
	return out
}
