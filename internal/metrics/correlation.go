package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"accidentscli/pkg/contracts/domain"
)

// CorrelationVariables are the columns of the correlation matrix, in order
var CorrelationVariables = []string{
	domain.ColKm, domain.ColLight, domain.ColSevere, domain.ColFatal, domain.ColTotalVictims,
}

// correlationRow returns the five variables of rec, or false when any of
// them is missing.
func correlationRow(rec domain.AccidentRecord) ([]float64, bool) {
	if !rec.Km.Valid || !rec.Light.Valid || !rec.Severe.Valid || !rec.Fatal.Valid || !rec.TotalVictims.Valid {
		return nil, false
	}
	return []float64{
		rec.Km.Float64,
		float64(rec.Light.Int64),
		float64(rec.Severe.Int64),
		float64(rec.Fatal.Int64),
		float64(rec.TotalVictims.Int64),
	}, true
}

// Correlation computes the Pearson matrix of CorrelationVariables over the
// records where all five are present. The diagonal is exactly 1. A pair
// involving a constant variable, or a slice with fewer than two complete
// records, has coefficient 0.
func (e *Engine) Correlation(ds *domain.Dataset) domain.CorrelationMatrix {
	k := len(CorrelationVariables)
	var data []float64
	n := 0
	for _, rec := range ds.Records {
		row, ok := correlationRow(rec)
		if !ok {
			continue
		}
		data = append(data, row...)
		n++
	}

	out := domain.CorrelationMatrix{
		Variables:    append([]string(nil), CorrelationVariables...),
		Values:       make([][]float64, k),
		Observations: n,
	}
	for i := range out.Values {
		out.Values[i] = make([]float64, k)
		out.Values[i][i] = 1
	}
	if n < 2 {
		return out
	}

	corr := mat.NewSymDense(k, nil)
	stat.CorrelationMatrix(corr, mat.NewDense(n, k, data), nil)

	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			v := corr.At(i, j)
			if math.IsNaN(v) {
				v = 0
			}
			out.Values[i][j] = v
			out.Values[j][i] = v
		}
	}
	return out
}

// CorrelationStrength labels a coefficient by magnitude
func CorrelationStrength(r float64) string {
	switch a := math.Abs(r); {
	case a > 0.5:
		return "strong"
	case a > 0.3:
		return "moderate"
	default:
		return "weak"
	}
}

// CorrelationWithTotal ranks the other variables by their coefficient with
// total victims, highest first.
func CorrelationWithTotal(m domain.CorrelationMatrix) []domain.CorrelationRank {
	var out []domain.CorrelationRank
	for _, v := range m.Variables {
		if v == domain.ColTotalVictims {
			continue
		}
		r, ok := m.At(v, domain.ColTotalVictims)
		if !ok {
			continue
		}
		out = append(out, domain.CorrelationRank{Variable: v, Coefficient: r, Strength: CorrelationStrength(r)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Coefficient > out[j].Coefficient
	})
	return out
}
