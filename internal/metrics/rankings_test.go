package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accidentscli/pkg/contracts/domain"
)

func withOccurrence(year int, occurrence string) domain.AccidentRecord {
	return domain.AccidentRecord{SourceYear: year, Occurrence: str(occurrence)}
}

func withType(year int, accident string, r domain.AccidentRecord) domain.AccidentRecord {
	r.SourceYear = year
	r.AccidentType = str(accident)
	return r
}

func TestTopHighways(t *testing.T) {
	var records []domain.AccidentRecord
	records = append(records, repeat(2, onHighway("8", victims(2023, 0, 0, 0)))...)
	records = append(records, repeat(3, onHighway("55", victims(2023, 0, 0, 0)))...)
	records = append(records, repeat(2, onHighway("101", victims(2024, 0, 0, 0)))...)
	records = append(records, onHighway("55.0", victims(2024, 0, 0, 0)))
	records = append(records, victims(2024, 0, 0, 0))

	rows := newTestEngine(nil).TopHighways(dataset(records...))
	require.Len(t, rows, 3)
	assert.Equal(t, domain.CountRow{Key: "55", Label: "SP-055", Count: 4, Share: 50}, rows[0])
	// Ties keep first-seen order
	assert.Equal(t, "SP-008", rows[1].Label)
	assert.Equal(t, "SP-101", rows[2].Label)
	assert.Equal(t, 25.0, rows[2].Share)

	e := newTestEngine(func(o *Options) { o.TopHighways = 2 })
	assert.Len(t, e.TopHighways(dataset(records...)), 2)
}

func TestTopAccidentTypes(t *testing.T) {
	ds := dataset(
		withType(2023, "Colisão", domain.AccidentRecord{}),
		withType(2023, "Choque", domain.AccidentRecord{}),
		withType(2023, " Colisão ", domain.AccidentRecord{}),
		withType(2023, "Capotamento", domain.AccidentRecord{}),
		domain.AccidentRecord{SourceYear: 2023, AccidentType: str("  ")},
	)

	rows := newTestEngine(func(o *Options) { o.TopAccidentTypes = 2 }).TopAccidentTypes(ds)
	require.Len(t, rows, 2)
	assert.Equal(t, "Colisão", rows[0].Key)
	assert.Equal(t, 2, rows[0].Count)
	assert.Equal(t, "Choque", rows[1].Key)
	assert.Empty(t, rows[1].Label)
}

func TestTopOccurrencesAreTitleCased(t *testing.T) {
	ds := dataset(
		withOccurrence(2023, "Colisão Traseira"),
		withOccurrence(2023, "Atropelamento"),
		withOccurrence(2024, "Colisão Traseira"),
		withOccurrence(2025, "COLISÃO TRASEIRA"),
		withOccurrence(2025, "ATROPELAMENTO"),
		withOccurrence(2025, "CHOQUE"),
	)

	e := newTestEngine(nil)
	rows := e.TopOccurrences(ds)
	require.Len(t, rows, 3)
	assert.Equal(t, "Colisão Traseira", rows[0].Key)
	assert.Equal(t, 3, rows[0].Count)
	assert.Equal(t, "Atropelamento", rows[1].Key)
	assert.Equal(t, 2, rows[1].Count)
	assert.Equal(t, "Choque", rows[2].Key)

	tab := e.OccurrenceByYear(ds)
	assert.Equal(t, []string{"2023", "2024", "2025"}, tab.ColKeys)
	assert.Equal(t, []string{"Colisão Traseira", "Atropelamento", "Choque"}, tab.RowKeys)
	assert.Equal(t, [][]int{{1, 1, 1}, {1, 0, 1}, {0, 0, 1}}, tab.Counts)
}

func TestRegional(t *testing.T) {
	north := victims(2023, 1, 1, 0)
	north.Regional = str("DR-01")
	south := victims(2023, 0, 0, 2)
	south.Regional = str("DR-02")
	later := victims(2024, 0, 0, 0)
	later.Regional = str("DR-02")

	ds := dataset(north, south, south, later, victims(2023, 5, 5, 5))
	rows := newTestEngine(nil).Regional(ds)
	require.Len(t, rows, 3)

	assert.Equal(t, domain.RegionalRow{Year: 2023, Regional: "DR-02", Accidents: 2, Victims: 4, Fatal: 4}, rows[0])
	assert.Equal(t, domain.RegionalRow{Year: 2023, Regional: "DR-01", Accidents: 1, Victims: 2, Severe: 1}, rows[1])
	assert.Equal(t, domain.RegionalRow{Year: 2024, Regional: "DR-02", Accidents: 1}, rows[2])
}

func TestHighwayTypeCrossTab(t *testing.T) {
	ds := dataset(
		withType(2023, "Colisão", onHighway("55", domain.AccidentRecord{})),
		withType(2023, "Colisão", onHighway("55", domain.AccidentRecord{})),
		withType(2023, "Choque", onHighway("55", domain.AccidentRecord{})),
		withType(2024, "Choque", onHighway("101", domain.AccidentRecord{})),
		withType(2024, "Tombamento", onHighway("330", domain.AccidentRecord{})),
		onHighway("101", domain.AccidentRecord{SourceYear: 2024}),
	)

	tab := newTestEngine(func(o *Options) { o.CrossTabSize = 2 }).HighwayTypeCrossTab(ds)
	assert.Equal(t, []string{"55", "101"}, tab.RowKeys)
	assert.Equal(t, []string{"SP-055", "SP-101"}, tab.RowLabels)
	assert.Equal(t, []string{"Colisão", "Choque"}, tab.ColKeys)
	assert.Equal(t, [][]int{{2, 1}, {0, 1}}, tab.Counts)
}

func TestGravity(t *testing.T) {
	tests := []struct {
		name string
		rec  domain.AccidentRecord
		want string
	}{
		{"fatal wins", victims(2023, 3, 2, 1), GravityFatal},
		{"severe", victims(2023, 3, 2, 0), GravitySevere},
		{"light", victims(2023, 3, 0, 0), GravityLight},
		{"none", victims(2023, 0, 0, 0), GravityNone},
		{"missing counts", domain.AccidentRecord{}, GravityNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Gravity(tt.rec))
		})
	}
}

func TestTypeSeverity(t *testing.T) {
	ds := dataset(
		withType(2023, "Colisão", victims(0, 1, 0, 0)),
		withType(2023, "Colisão", victims(0, 0, 0, 1)),
		withType(2023, "Colisão", victims(0, 0, 0, 0)),
		withType(2024, "Colisão", victims(0, 0, 2, 0)),
		withType(2024, "Choque", victims(0, 0, 0, 0)),
		withType(2024, "Raro", victims(0, 0, 0, 0)),
	)

	rows := newTestEngine(func(o *Options) { o.TypeSeverityTypes = 2 }).TypeSeverity(ds)
	require.Len(t, rows, 4)
	assert.Equal(t, domain.TypeSeverityRow{Year: 2023, AccidentType: "Colisão", NoVictims: 1, Light: 1, Fatal: 1}, rows[0])
	assert.Equal(t, domain.TypeSeverityRow{Year: 2023, AccidentType: "Choque"}, rows[1])
	assert.Equal(t, domain.TypeSeverityRow{Year: 2024, AccidentType: "Colisão", Severe: 1}, rows[2])
	assert.Equal(t, domain.TypeSeverityRow{Year: 2024, AccidentType: "Choque", NoVictims: 1}, rows[3])
}

func TestTypeMeanVictims(t *testing.T) {
	unknown := withType(2023, "Sem total", domain.AccidentRecord{})
	ds := dataset(
		withType(2023, "Colisão", victims(0, 1, 0, 0)),
		withType(2023, "Colisão", victims(0, 2, 1, 0)),
		withType(2023, "Colisão", domain.AccidentRecord{}),
		withType(2023, "Atropelamento", victims(0, 0, 1, 1)),
		unknown,
		withType(2024, "Choque", victims(0, 1, 0, 0)),
	)

	rows := newTestEngine(nil).TypeMeanVictims(ds)
	require.Len(t, rows, 3)
	assert.Equal(t, domain.TypeMeanVictimsRow{Year: 2023, AccidentType: "Colisão", Accidents: 3, MeanVictims: 2}, rows[0])
	assert.Equal(t, domain.TypeMeanVictimsRow{Year: 2023, AccidentType: "Atropelamento", Accidents: 1, MeanVictims: 2}, rows[1])
	assert.Equal(t, 2024, rows[2].Year)

	limited := newTestEngine(func(o *Options) { o.TypeMeanTypes = 1 }).TypeMeanVictims(ds)
	require.Len(t, limited, 2)
	assert.Equal(t, "Colisão", limited[0].AccidentType)
}
