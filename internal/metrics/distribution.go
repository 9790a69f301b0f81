package metrics

import (
	"math"
	"strconv"

	"accidentscli/pkg/contracts/domain"
)

// Percentiles computes the configured total-victims percentiles of one year.
// Records without a total-victims value are excluded; with no observations
// every value is 0.
func (e *Engine) Percentiles(year int, part *domain.Dataset) domain.PercentileTable {
	table := domain.PercentileTable{
		Year:        year,
		Percentiles: append([]float64(nil), e.opts.Percentiles...),
		Values:      make([]float64, len(e.opts.Percentiles)),
	}

	var victims []float64
	for _, rec := range part.Records {
		if rec.TotalVictims.Valid {
			victims = append(victims, float64(rec.TotalVictims.Int64))
		}
	}
	table.Observations = len(victims)
	if len(victims) == 0 {
		return table
	}

	sorted := sortedCopy(victims)
	for i, p := range e.opts.Percentiles {
		table.Values[i] = quantile(sorted, p/100)
	}
	return table
}

// PercentileTables returns the percentile table of every year, ascending
func (e *Engine) PercentileTables(ds *domain.Dataset) []domain.PercentileTable {
	years, parts := e.yearParts(ds)
	var out []domain.PercentileTable
	for _, year := range years {
		out = append(out, e.Percentiles(year, parts[year]))
	}
	return out
}

type kmBand struct {
	lower, upper float64
	label        string
}

// kmBands returns the right-closed bands (0,w], (w,2w], ... up to KmBandMax
func (e *Engine) kmBands() []kmBand {
	w, limit := e.opts.KmBandWidth, e.opts.KmBandMax
	if w <= 0 || limit <= 0 {
		return nil
	}
	n := int(math.Ceil(limit/w - 1e-9))
	bands := make([]kmBand, n)
	for i := range bands {
		lower := float64(i) * w
		upper := math.Min(float64(i+1)*w, limit)
		bands[i] = kmBand{
			lower: lower,
			upper: upper,
			label: strconv.FormatFloat(lower, 'f', -1, 64) + "-" + strconv.FormatFloat(upper, 'f', -1, 64),
		}
	}
	return bands
}

// KmBands counts accidents per kilometre band and year. Markers at 0, above
// KmBandMax or missing fall outside every band and are not counted.
func (e *Engine) KmBands(ds *domain.Dataset) []domain.KmBandRow {
	bands := e.kmBands()
	if len(bands) == 0 {
		return nil
	}

	years, parts := e.yearParts(ds)
	var out []domain.KmBandRow
	for _, year := range years {
		counts := make([]int, len(bands))
		for _, rec := range parts[year].Records {
			if !rec.Km.Valid {
				continue
			}
			if i := bandIndex(bands, rec.Km.Float64); i >= 0 {
				counts[i]++
			}
		}
		for i, b := range bands {
			out = append(out, domain.KmBandRow{
				Year:      year,
				Band:      b.label,
				Lower:     b.lower,
				Upper:     b.upper,
				Accidents: counts[i],
			})
		}
	}
	return out
}

func bandIndex(bands []kmBand, km float64) int {
	for i, b := range bands {
		if km > b.lower && km <= b.upper {
			return i
		}
	}
	return -1
}
