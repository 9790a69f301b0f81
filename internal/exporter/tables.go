package exporter

import (
	"context"
	"log/slog"
	"strconv"

	"accidentscli/internal/config"
	apperrors "accidentscli/internal/errors"
	"accidentscli/internal/infrastructure"
	"accidentscli/internal/metrics"
	"accidentscli/pkg/contracts/domain"
)

// Table is one metric table in row form
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// TableExporter writes the metric catalog as one CSV per table plus a JSON
// bundle of the whole report.
type TableExporter struct {
	paths     *config.Paths
	csv       *CSVWriter
	logger    *slog.Logger
	telemetry *infrastructure.OTelProviders
}

// NewTableExporter creates a table exporter. telemetry may be nil.
func NewTableExporter(paths *config.Paths, writer *CSVWriter, logger *slog.Logger, telemetry *infrastructure.OTelProviders) *TableExporter {
	if writer == nil {
		writer = NewCSVWriter(paths, nil)
	}
	return &TableExporter{
		paths:     paths,
		csv:       writer,
		logger:    infrastructure.WithComponent(logger, "table-exporter"),
		telemetry: telemetry,
	}
}

// ExportTables writes every table of report under the tables directory and
// returns the number of files written.
func (e *TableExporter) ExportTables(ctx context.Context, report *metrics.Report) (int, error) {
	ctx, end := e.telemetry.StartStage(ctx, "export_tables")

	written := 0
	for _, table := range ReportTables(report) {
		path := e.paths.GetTablePath(table.Name)
		if err := e.csv.WriteSimpleCSV(path, table.Headers, table.Rows); err != nil {
			err = apperrors.ExportFailed(path, err)
			end(err)
			return written, err
		}
		written++
		e.logger.DebugContext(ctx, "Metric table written",
			slog.String("table", table.Name),
			slog.Int("rows", len(table.Rows)))
	}

	e.telemetry.Counters().RecordTables(ctx, written)
	end(nil)
	e.logger.InfoContext(ctx, "Metric tables written",
		slog.Int("tables", written),
		slog.String("dir", e.paths.TablesDir))
	return written, nil
}

// ExportBundle writes the full report as indented JSON
func (e *TableExporter) ExportBundle(ctx context.Context, report *metrics.Report, path string) error {
	if err := writeJSON(e.csv.files, path, report); err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "Report bundle written", slog.String("path", path))
	return nil
}

// ReportTables flattens report into its CSV tables, in a fixed order
func ReportTables(r *metrics.Report) []Table {
	tables := []Table{
		yearSummaryTable(r.YearSummaries),
		yearComparisonTable(r.YearComparisons),
		countTable("top_highways", r.TopHighways),
		countByYearTable("top_highways_by_year", r.Years, r.TopHighwaysByYear),
		countTable("top_accident_types", r.TopAccidentTypes),
		countByYearTable("top_accident_types_by_year", r.Years, r.TopAccidentTypesByYear),
		countTable("top_occurrences", r.TopOccurrences),
		crossTable("occurrence_by_year", "occurrence", r.OccurrenceByYear),
		highwayRiskTable(r.HighwayRisk),
		mortalityTable(r.Mortality),
		percentileTable(r.Percentiles),
		severityTable(r.Severity),
		monthlyTable(r.Monthly),
		monthOverMonthTable(r.MonthOverMonth),
		weekdayTable(r.Weekday),
		kmBandTable(r.KmBands),
		regionalTable(r.Regional),
		correlationTable(r.Correlation),
		correlationRankTable(r.CorrelationWithTotal),
		directionTable(r.Direction),
		crossTable("highway_type", "highway", r.HighwayType),
		heatmapTable(r.HighwayMonth),
		typeSeverityTable(r.TypeSeverity),
		typeMeanTable(r.TypeMeanVictims),
		missingTable(r.MissingValues),
	}
	return tables
}

func itoa(i int) string { return strconv.Itoa(i) }

func yearSummaryTable(rows []domain.YearSummary) Table {
	t := Table{
		Name:    "year_summaries",
		Headers: []string{"year", "accidents", "light", "severe", "fatal", "total_victims", "mean_victims", "median_victims", "mortality_rate_pct"},
	}
	for _, s := range rows {
		t.Rows = append(t.Rows, []string{
			itoa(s.Year), itoa(s.Accidents), formatInt(s.Light), formatInt(s.Severe), formatInt(s.Fatal),
			formatInt(s.TotalVictims), formatFloat(s.MeanVictims), formatExact(s.MedianVictims), formatFloat(s.MortalityRate),
		})
	}
	return t
}

func yearComparisonTable(rows []domain.YearComparison) Table {
	t := Table{
		Name:    "year_comparisons",
		Headers: []string{"from_year", "to_year", "accidents_pct", "light_pct", "severe_pct", "fatal_pct", "total_victims_pct"},
	}
	for _, c := range rows {
		t.Rows = append(t.Rows, []string{
			itoa(c.FromYear), itoa(c.ToYear), formatFloat(c.Accidents), formatFloat(c.Light),
			formatFloat(c.Severe), formatFloat(c.Fatal), formatFloat(c.TotalVictims),
		})
	}
	return t
}

func countTable(name string, rows []domain.CountRow) Table {
	t := Table{Name: name, Headers: []string{"rank", "key", "label", "count", "share_pct"}}
	for i, r := range rows {
		t.Rows = append(t.Rows, []string{itoa(i + 1), r.Key, r.Label, itoa(r.Count), formatFloat(r.Share)})
	}
	return t
}

func countByYearTable(name string, years []int, byYear map[int][]domain.CountRow) Table {
	t := Table{Name: name, Headers: []string{"year", "rank", "key", "label", "count", "share_pct"}}
	for _, y := range years {
		for i, r := range byYear[y] {
			t.Rows = append(t.Rows, []string{itoa(y), itoa(i + 1), r.Key, r.Label, itoa(r.Count), formatFloat(r.Share)})
		}
	}
	return t
}

// crossTable writes a two-key table in long form, one row per cell
func crossTable(name, rowHeader string, tab domain.CrossTab) Table {
	t := Table{Name: name, Headers: []string{rowHeader, "label", "column", "count"}}
	for i, key := range tab.RowKeys {
		label := ""
		if i < len(tab.RowLabels) {
			label = tab.RowLabels[i]
		}
		for j, col := range tab.ColKeys {
			t.Rows = append(t.Rows, []string{key, label, col, itoa(tab.Counts[i][j])})
		}
	}
	return t
}

func heatmapTable(tabs []domain.CrossTab) Table {
	t := Table{Name: "highway_month", Headers: []string{"year", "highway", "label", "month", "count"}}
	for _, tab := range tabs {
		for i, key := range tab.RowKeys {
			for j, col := range tab.ColKeys {
				t.Rows = append(t.Rows, []string{itoa(tab.Year), key, tab.RowLabels[i], col, itoa(tab.Counts[i][j])})
			}
		}
	}
	return t
}

func highwayRiskTable(rows []domain.HighwayRisk) Table {
	t := Table{
		Name:    "highway_risk",
		Headers: []string{"rank", "highway", "label", "accidents", "severe", "fatal", "total_victims", "danger_index"},
	}
	for i, r := range rows {
		t.Rows = append(t.Rows, []string{
			itoa(i + 1), r.Highway, r.Label, itoa(r.Accidents), formatInt(r.SevereSum),
			formatInt(r.FatalSum), formatInt(r.VictimsSum), formatInt(r.DangerIndex),
		})
	}
	return t
}

func mortalityTable(rows []domain.MortalityRow) Table {
	t := Table{Name: "mortality", Headers: []string{"rank", "highway", "label", "accidents", "fatal", "mortality_rate_pct"}}
	for i, r := range rows {
		t.Rows = append(t.Rows, []string{
			itoa(i + 1), r.Highway, r.Label, itoa(r.Accidents), formatInt(r.FatalSum), formatFloat(r.MortalityRate),
		})
	}
	return t
}

func percentileTable(tables []domain.PercentileTable) Table {
	t := Table{Name: "percentiles", Headers: []string{"year", "percentile", "total_victims", "observations"}}
	for _, p := range tables {
		for i, q := range p.Percentiles {
			t.Rows = append(t.Rows, []string{itoa(p.Year), "P" + formatExact(q), formatExact(p.Values[i]), itoa(p.Observations)})
		}
	}
	return t
}

func severityTable(rows []domain.SeveritySummary) Table {
	t := Table{
		Name:    "severity_index",
		Headers: []string{"year", "count", "mean", "std_dev", "min", "q1", "median", "q3", "max"},
	}
	for _, s := range rows {
		t.Rows = append(t.Rows, []string{
			itoa(s.Year), itoa(s.Count), formatFloat(s.Mean), formatFloat(s.StdDev), formatFloat(s.Min),
			formatFloat(s.Q1), formatFloat(s.Median), formatFloat(s.Q3), formatFloat(s.Max),
		})
	}
	return t
}

func monthlyTable(rows []domain.MonthlyRow) Table {
	t := Table{Name: "monthly", Headers: []string{"year", "month", "accidents", "total_victims", "fatal"}}
	for _, m := range rows {
		t.Rows = append(t.Rows, []string{itoa(m.Year), itoa(m.Month), itoa(m.Accidents), formatInt(m.Victims), formatInt(m.Fatal)})
	}
	return t
}

func monthOverMonthTable(rows []domain.MonthlyVariation) Table {
	t := Table{Name: "month_over_month", Headers: []string{"from_year", "to_year", "month", "from_count", "to_count", "rate_pct"}}
	for _, v := range rows {
		for _, m := range v.Months {
			t.Rows = append(t.Rows, []string{
				itoa(v.FromYear), itoa(v.ToYear), itoa(m.Month), itoa(m.FromCount), itoa(m.ToCount), formatFloat(m.RatePct),
			})
		}
	}
	return t
}

func weekdayTable(rows []domain.WeekdayRow) Table {
	t := Table{Name: "weekday", Headers: []string{"year", "weekday", "accidents"}}
	for _, w := range rows {
		t.Rows = append(t.Rows, []string{itoa(w.Year), w.Weekday, itoa(w.Accidents)})
	}
	return t
}

func kmBandTable(rows []domain.KmBandRow) Table {
	t := Table{Name: "km_bands", Headers: []string{"year", "band", "lower", "upper", "accidents"}}
	for _, b := range rows {
		t.Rows = append(t.Rows, []string{itoa(b.Year), b.Band, formatExact(b.Lower), formatExact(b.Upper), itoa(b.Accidents)})
	}
	return t
}

func regionalTable(rows []domain.RegionalRow) Table {
	t := Table{Name: "regional", Headers: []string{"year", "regional", "accidents", "total_victims", "fatal", "severe"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			itoa(r.Year), r.Regional, itoa(r.Accidents), formatInt(r.Victims), formatInt(r.Fatal), formatInt(r.Severe),
		})
	}
	return t
}

func correlationTable(m domain.CorrelationMatrix) Table {
	t := Table{Name: "correlation", Headers: append([]string{"variable"}, m.Variables...)}
	for i, v := range m.Variables {
		row := []string{v}
		for _, c := range m.Values[i] {
			row = append(row, formatExact(c))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func correlationRankTable(rows []domain.CorrelationRank) Table {
	t := Table{Name: "correlation_with_total", Headers: []string{"variable", "coefficient", "strength"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Variable, formatExact(r.Coefficient), r.Strength})
	}
	return t
}

func directionTable(d domain.DirectionTable) Table {
	t := Table{Name: "direction", Headers: []string{"year", "family", "direction", "count", "share_pct", "caveat"}}
	for _, y := range d.Years {
		for _, r := range d.Counts[y] {
			t.Rows = append(t.Rows, []string{itoa(y), d.Families[y], r.Key, itoa(r.Count), formatFloat(r.Share), d.Caveat})
		}
	}
	return t
}

func typeSeverityTable(rows []domain.TypeSeverityRow) Table {
	t := Table{
		Name:    "type_severity",
		Headers: []string{"year", "accident_type", metrics.GravityNone, metrics.GravityLight, metrics.GravitySevere, metrics.GravityFatal},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			itoa(r.Year), r.AccidentType, itoa(r.NoVictims), itoa(r.Light), itoa(r.Severe), itoa(r.Fatal),
		})
	}
	return t
}

func typeMeanTable(rows []domain.TypeMeanVictimsRow) Table {
	t := Table{Name: "type_mean_victims", Headers: []string{"year", "accident_type", "accidents", "mean_victims"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{itoa(r.Year), r.AccidentType, itoa(r.Accidents), formatFloat(r.MeanVictims)})
	}
	return t
}

func missingTable(rows []domain.MissingValueRow) Table {
	t := Table{Name: "missing_values", Headers: []string{"column", "missing", "share_pct"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Column, itoa(r.Missing), formatFloat(r.Share)})
	}
	return t
}
