package metrics

import (
	"sort"
	"strconv"
	"strings"

	"accidentscli/pkg/contracts/domain"
)

// highwayKey groups records by display label so "55" and "55.0" count as
// the same highway.
func (e *Engine) highwayKey(rec domain.AccidentRecord) (string, bool) {
	if !rec.Highway.Valid {
		return "", false
	}
	label := HighwayLabel(e.opts.HighwayPrefix, rec.Highway.String)
	return label, label != ""
}

func (e *Engine) highwayTally(ds *domain.Dataset) *tally {
	t := newTally()
	for _, rec := range ds.Records {
		if key, ok := e.highwayKey(rec); ok {
			t.add(key, rec.Highway.String)
		}
	}
	return t
}

func textTally(ds *domain.Dataset, value func(domain.AccidentRecord) (string, bool)) *tally {
	t := newTally()
	for _, rec := range ds.Records {
		if v, ok := value(rec); ok {
			t.add(v, v)
		}
	}
	return t
}

func accidentType(rec domain.AccidentRecord) (string, bool) {
	v := strings.TrimSpace(rec.AccidentType.String)
	return v, rec.AccidentType.Valid && v != ""
}

func regional(rec domain.AccidentRecord) (string, bool) {
	v := strings.TrimSpace(rec.Regional.String)
	return v, rec.Regional.Valid && v != ""
}

func direction(rec domain.AccidentRecord) (string, bool) {
	v := strings.TrimSpace(rec.Direction.String)
	return v, rec.Direction.Valid && v != ""
}

// occurrenceFunc title-cases occurrence labels with a caser private to the
// caller.
func occurrenceFunc() func(domain.AccidentRecord) (string, bool) {
	caser := newTitleCaser()
	return func(rec domain.AccidentRecord) (string, bool) {
		v := strings.TrimSpace(rec.Occurrence.String)
		if !rec.Occurrence.Valid || v == "" {
			return "", false
		}
		return titleCase(caser, v), true
	}
}

// TopHighways returns the TopHighways highways with most accidents
func (e *Engine) TopHighways(ds *domain.Dataset) []domain.CountRow {
	return e.highwayTally(ds).top(e.opts.TopHighways, func(k string) string { return k })
}

// TopAccidentTypes returns the TopAccidentTypes most frequent accident types
func (e *Engine) TopAccidentTypes(ds *domain.Dataset) []domain.CountRow {
	return textTally(ds, accidentType).top(e.opts.TopAccidentTypes, nil)
}

// TopOccurrences returns the TopOccurrences most frequent occurrence types
// after title-casing.
func (e *Engine) TopOccurrences(ds *domain.Dataset) []domain.CountRow {
	return textTally(ds, occurrenceFunc()).top(e.opts.TopOccurrences, nil)
}

// OccurrenceByYear counts the overall top occurrence types in each year.
// Rows are occurrence types, columns are years; a type absent from a year
// counts 0.
func (e *Engine) OccurrenceByYear(ds *domain.Dataset) domain.CrossTab {
	top := e.TopOccurrences(ds)
	years, _ := e.yearParts(ds)

	tab := domain.CrossTab{
		RowKeys:   make([]string, len(top)),
		RowLabels: make([]string, len(top)),
		ColKeys:   make([]string, len(years)),
		Counts:    zeroCounts(len(top), len(years)),
	}
	row := make(map[string]int, len(top))
	for i, r := range top {
		tab.RowKeys[i] = r.Key
		tab.RowLabels[i] = r.Key
		row[r.Key] = i
	}
	col := make(map[int]int, len(years))
	for j, y := range years {
		tab.ColKeys[j] = strconv.Itoa(y)
		col[y] = j
	}

	occurrence := occurrenceFunc()
	for _, rec := range ds.Records {
		v, ok := occurrence(rec)
		if !ok {
			continue
		}
		i, ok := row[v]
		if !ok {
			continue
		}
		if j, ok := col[rec.SourceYear]; ok {
			tab.Counts[i][j]++
		}
	}
	return tab
}

// Regional aggregates each region per year, busiest region first
func (e *Engine) Regional(ds *domain.Dataset) []domain.RegionalRow {
	years, parts := e.yearParts(ds)
	var out []domain.RegionalRow
	for _, year := range years {
		var order []string
		rows := make(map[string]*domain.RegionalRow)
		for _, rec := range parts[year].Records {
			name, ok := regional(rec)
			if !ok {
				continue
			}
			row, seen := rows[name]
			if !seen {
				row = &domain.RegionalRow{Year: year, Regional: name}
				rows[name] = row
				order = append(order, name)
			}
			row.Accidents++
			row.Fatal += rec.FatalOrZero()
			row.Severe += rec.SevereOrZero()
			if rec.TotalVictims.Valid {
				row.Victims += rec.TotalVictims.Int64
			}
		}

		yearRows := make([]domain.RegionalRow, 0, len(order))
		for _, name := range order {
			yearRows = append(yearRows, *rows[name])
		}
		sort.SliceStable(yearRows, func(i, j int) bool {
			return yearRows[i].Accidents > yearRows[j].Accidents
		})
		out = append(out, yearRows...)
	}
	return out
}

// HighwayTypeCrossTab counts accidents of the CrossTabSize busiest highways
// by the CrossTabSize most frequent accident types.
func (e *Engine) HighwayTypeCrossTab(ds *domain.Dataset) domain.CrossTab {
	highways := e.highwayTally(ds).top(e.opts.CrossTabSize, func(k string) string { return k })
	types := textTally(ds, accidentType).top(e.opts.CrossTabSize, nil)

	tab := domain.CrossTab{
		RowKeys:   make([]string, len(highways)),
		RowLabels: make([]string, len(highways)),
		ColKeys:   make([]string, len(types)),
		Counts:    zeroCounts(len(highways), len(types)),
	}
	row := make(map[string]int, len(highways))
	for i, h := range highways {
		tab.RowKeys[i] = h.Key
		tab.RowLabels[i] = h.Label
		row[h.Label] = i
	}
	col := make(map[string]int, len(types))
	for j, t := range types {
		tab.ColKeys[j] = t.Key
		col[t.Key] = j
	}

	for _, rec := range ds.Records {
		h, ok := e.highwayKey(rec)
		if !ok {
			continue
		}
		t, ok := accidentType(rec)
		if !ok {
			continue
		}
		i, okRow := row[h]
		j, okCol := col[t]
		if okRow && okCol {
			tab.Counts[i][j]++
		}
	}
	return tab
}

// Gravity categories, from the worst victim count present
const (
	GravityNone   = "no_victims"
	GravityLight  = "light"
	GravitySevere = "severe"
	GravityFatal  = "fatal"
)

// Gravity classifies a record by its worst victim category
func Gravity(rec domain.AccidentRecord) string {
	switch {
	case rec.FatalOrZero() > 0:
		return GravityFatal
	case rec.SevereOrZero() > 0:
		return GravitySevere
	case rec.LightOrZero() > 0:
		return GravityLight
	default:
		return GravityNone
	}
}

// TypeSeverity counts, for the TypeSeverityTypes most frequent accident
// types overall, accidents per gravity category and year.
func (e *Engine) TypeSeverity(ds *domain.Dataset) []domain.TypeSeverityRow {
	types := textTally(ds, accidentType).top(e.opts.TypeSeverityTypes, nil)
	years, parts := e.yearParts(ds)

	var out []domain.TypeSeverityRow
	for _, year := range years {
		rows := make([]domain.TypeSeverityRow, len(types))
		index := make(map[string]int, len(types))
		for i, t := range types {
			rows[i] = domain.TypeSeverityRow{Year: year, AccidentType: t.Key}
			index[t.Key] = i
		}
		for _, rec := range parts[year].Records {
			t, ok := accidentType(rec)
			if !ok {
				continue
			}
			i, ok := index[t]
			if !ok {
				continue
			}
			switch Gravity(rec) {
			case GravityFatal:
				rows[i].Fatal++
			case GravitySevere:
				rows[i].Severe++
			case GravityLight:
				rows[i].Light++
			default:
				rows[i].NoVictims++
			}
		}
		out = append(out, rows...)
	}
	return out
}

// TypeMeanVictims returns, per year, the TypeMeanTypes accident types with
// the highest mean total victims. Records without a total are left out of
// the mean; a type with no totals at all is left out of the table.
func (e *Engine) TypeMeanVictims(ds *domain.Dataset) []domain.TypeMeanVictimsRow {
	years, parts := e.yearParts(ds)
	var out []domain.TypeMeanVictimsRow
	for _, year := range years {
		var order []string
		sums := make(map[string]int64)
		counts := make(map[string]int)
		accidents := make(map[string]int)
		for _, rec := range parts[year].Records {
			t, ok := accidentType(rec)
			if !ok {
				continue
			}
			if _, seen := accidents[t]; !seen {
				order = append(order, t)
			}
			accidents[t]++
			if rec.TotalVictims.Valid {
				sums[t] += rec.TotalVictims.Int64
				counts[t]++
			}
		}

		var rows []domain.TypeMeanVictimsRow
		for _, t := range order {
			if counts[t] == 0 {
				continue
			}
			rows = append(rows, domain.TypeMeanVictimsRow{
				Year:         year,
				AccidentType: t,
				Accidents:    accidents[t],
				MeanVictims:  float64(sums[t]) / float64(counts[t]),
			})
		}
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].MeanVictims > rows[j].MeanVictims
		})
		out = append(out, truncate(rows, e.opts.TypeMeanTypes)...)
	}
	return out
}
