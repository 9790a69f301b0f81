package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accidentscli/pkg/contracts/domain"
)

func TestYearSummaries(t *testing.T) {
	noTotal := victims(2023, 1, 0, 0)
	noTotal.TotalVictims.Valid = false

	ds := dataset(
		victims(2023, 1, 0, 0),
		victims(2023, 2, 1, 1),
		noTotal,
		victims(2024, 0, 0, 0),
	)

	summaries := newTestEngine(nil).YearSummaries(ds)
	require.Len(t, summaries, 2)

	s := summaries[0]
	assert.Equal(t, 2023, s.Year)
	assert.Equal(t, 3, s.Accidents)
	assert.Equal(t, int64(4), s.Light)
	assert.Equal(t, int64(1), s.Severe)
	assert.Equal(t, int64(1), s.Fatal)
	// Total victims is kept as reported, not recomputed from the counts
	assert.Equal(t, int64(5), s.TotalVictims)
	assert.InDelta(t, 2.5, s.MeanVictims, 1e-9)
	assert.InDelta(t, 2.5, s.MedianVictims, 1e-9)
	assert.InDelta(t, 100.0/3, s.MortalityRate, 1e-9)

	assert.Equal(t, domain.YearSummary{Year: 2024, Accidents: 1}, summaries[1])
}

func TestYearComparisons(t *testing.T) {
	summaries := []domain.YearSummary{
		{Year: 2023, Accidents: 100, Light: 50, Severe: 0, Fatal: 10, TotalVictims: 80},
		{Year: 2024, Accidents: 120, Light: 25, Severe: 4, Fatal: 10, TotalVictims: 60},
		{Year: 2025, Accidents: 60, Light: 25, Severe: 2, Fatal: 0, TotalVictims: 30},
	}

	got := YearComparisons(summaries)
	require.Len(t, got, 2)
	assert.Equal(t, domain.YearComparison{
		FromYear: 2023, ToYear: 2024,
		Accidents: 20, Light: -50, Severe: 0, Fatal: 0, TotalVictims: -25,
	}, got[0])
	assert.Equal(t, domain.YearComparison{
		FromYear: 2024, ToYear: 2025,
		Accidents: -50, Light: 0, Severe: -50, Fatal: -100, TotalVictims: -50,
	}, got[1])

	assert.Empty(t, YearComparisons(summaries[:1]))
}

func withDirection(year int, label string) domain.AccidentRecord {
	return domain.AccidentRecord{SourceYear: year, Direction: str(label)}
}

func TestDirectionByYear(t *testing.T) {
	ds := dataset(
		withDirection(2023, "Crescente"),
		withDirection(2023, "Decrescente"),
		withDirection(2023, "Crescente"),
		withDirection(2024, "Decrescente"),
		withDirection(2025, "Norte"),
		withDirection(2025, "Sul"),
		withDirection(2025, "Leste"),
		withDirection(2025, "Norte"),
	)

	table := newTestEngine(nil).DirectionByYear(ds)
	assert.Equal(t, []int{2023, 2024, 2025}, table.Years)
	assert.Equal(t, map[int]string{
		2023: DirectionRouteRelative,
		2024: DirectionRouteRelative,
		2025: DirectionCardinal,
	}, table.Families)
	assert.Contains(t, table.Caveat, "2025: cardinal")

	require.Len(t, table.Counts[2023], 2)
	assert.Equal(t, "Crescente", table.Counts[2023][0].Key)
	assert.Equal(t, 2, table.Counts[2023][0].Count)

	// Cardinal labels are never folded into route-relative ones
	for _, row := range table.Counts[2025] {
		assert.NotContains(t, []string{"Crescente", "Decrescente"}, row.Key)
	}
	assert.Len(t, table.Counts[2025], 3)

	t.Run("single family has no caveat", func(t *testing.T) {
		table := newTestEngine(nil).DirectionByYear(dataset(withDirection(2023, "Crescente"), withDirection(2024, "Decrescente")))
		assert.Empty(t, table.Caveat)
	})

	t.Run("unrecognized labels", func(t *testing.T) {
		table := newTestEngine(nil).DirectionByYear(dataset(withDirection(2023, "Ambos"), domain.AccidentRecord{SourceYear: 2024}))
		assert.Equal(t, DirectionUnknown, table.Families[2023])
		assert.Equal(t, DirectionUnknown, table.Families[2024])
		assert.Empty(t, table.Counts[2024])
		assert.Empty(t, table.Caveat)
	})

	t.Run("mixed year", func(t *testing.T) {
		table := newTestEngine(nil).DirectionByYear(dataset(withDirection(2025, "Crescente"), withDirection(2025, "Norte")))
		assert.Equal(t, DirectionMixed, table.Families[2025])
	})
}

func TestMissingValues(t *testing.T) {
	a := victims(2023, 1, 0, 0)
	a.Highway = str("55")
	b := domain.AccidentRecord{SourceYear: 2024}

	ds := domain.NewDataset([]string{domain.ColHighway, domain.ColLight, "UBA", domain.ColYear}, []domain.AccidentRecord{a, b})
	rows := newTestEngine(nil).MissingValues(ds)

	assert.Equal(t, []domain.MissingValueRow{
		{Column: domain.ColHighway, Missing: 1, Share: 50},
		{Column: domain.ColLight, Missing: 1, Share: 50},
		{Column: "UBA", Missing: 2, Share: 100},
	}, rows)
}
