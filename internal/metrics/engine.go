package metrics

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"accidentscli/internal/infrastructure"
	"accidentscli/pkg/contracts/domain"
)

// Engine computes the metric catalog. It holds only options and may be
// shared between goroutines.
type Engine struct {
	opts      Options
	logger    *slog.Logger
	telemetry *infrastructure.OTelProviders
	now       func() time.Time
}

// NewEngine creates an engine. telemetry may be nil.
func NewEngine(opts Options, logger *slog.Logger, telemetry *infrastructure.OTelProviders) *Engine {
	return &Engine{
		opts:      opts,
		logger:    infrastructure.WithComponent(logger, "metrics"),
		telemetry: telemetry,
		now:       time.Now,
	}
}

// Options returns the options the engine was built with
func (e *Engine) Options() Options {
	return e.opts
}

// Report is the full metric catalog of one dataset slice
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Years       []int     `json:"years"`
	Records     int       `json:"records"`
	Palette     []string  `json:"palette,omitempty"`

	YearSummaries   []domain.YearSummary    `json:"year_summaries"`
	YearComparisons []domain.YearComparison `json:"year_comparisons"`

	TopHighways            []domain.CountRow         `json:"top_highways"`
	TopHighwaysByYear      map[int][]domain.CountRow `json:"top_highways_by_year"`
	TopAccidentTypes       []domain.CountRow         `json:"top_accident_types"`
	TopAccidentTypesByYear map[int][]domain.CountRow `json:"top_accident_types_by_year"`
	TopOccurrences         []domain.CountRow         `json:"top_occurrences"`
	OccurrenceByYear       domain.CrossTab           `json:"occurrence_by_year"`

	HighwayRisk []domain.HighwayRisk  `json:"highway_risk"`
	Mortality   []domain.MortalityRow `json:"mortality"`

	Percentiles    []domain.PercentileTable  `json:"percentiles"`
	Severity       []domain.SeveritySummary  `json:"severity"`
	Monthly        []domain.MonthlyRow       `json:"monthly"`
	MonthOverMonth []domain.MonthlyVariation `json:"month_over_month"`
	Weekday        []domain.WeekdayRow       `json:"weekday"`
	KmBands        []domain.KmBandRow        `json:"km_bands"`
	Regional       []domain.RegionalRow      `json:"regional"`

	Correlation          domain.CorrelationMatrix `json:"correlation"`
	CorrelationWithTotal []domain.CorrelationRank `json:"correlation_with_total"`

	Direction       domain.DirectionTable       `json:"direction"`
	HighwayType     domain.CrossTab             `json:"highway_type"`
	HighwayMonth    []domain.CrossTab           `json:"highway_month"`
	TypeSeverity    []domain.TypeSeverityRow    `json:"type_severity"`
	TypeMeanVictims []domain.TypeMeanVictimsRow `json:"type_mean_victims"`
	MissingValues   []domain.MissingValueRow    `json:"missing_values"`
}

// yearParts splits ds by source year. With configured years the year list
// is that sequence, ascending and deduplicated, and a year without records
// gets an empty part so it keeps its place in every per-year table.
func (e *Engine) yearParts(ds *domain.Dataset) ([]int, map[int]*domain.Dataset) {
	parts := ds.ByYear()
	if len(e.opts.Years) == 0 {
		return ds.SortedYears(), parts
	}

	years := make([]int, 0, len(e.opts.Years))
	for _, y := range e.opts.Years {
		if !slices.Contains(years, y) {
			years = append(years, y)
		}
	}
	slices.Sort(years)
	for _, y := range years {
		if parts[y] == nil {
			parts[y] = domain.NewDataset(ds.Columns, nil)
		}
	}
	return years, parts
}

// yearTables are the tables computed from a single year's records
type yearTables struct {
	summary     domain.YearSummary
	percentiles domain.PercentileTable
	severity    domain.SeveritySummary
	topHighways []domain.CountRow
	topTypes    []domain.CountRow
}

// Run computes the whole catalog for the configured years (all years when
// none are configured). Tables built from one year only are computed in
// parallel; the dataset is read-only throughout.
func (e *Engine) Run(ctx context.Context, ds *domain.Dataset) (*Report, error) {
	start := time.Now()
	ctx, end := e.telemetry.StartStage(ctx, "metrics", attribute.Int("records", ds.Len()))

	ds = ds.FilterYears(e.opts.Years...)
	years, parts := e.yearParts(ds)

	perYear := make([]yearTables, len(years))
	g, gctx := errgroup.WithContext(ctx)
	for i, year := range years {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			part := parts[year]
			perYear[i] = yearTables{
				summary:     YearSummary(year, part),
				percentiles: e.Percentiles(year, part),
				severity:    SeveritySummary(year, part),
				topHighways: e.TopHighways(part),
				topTypes:    e.TopAccidentTypes(part),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		end(err)
		return nil, err
	}

	report := &Report{
		GeneratedAt:            e.now(),
		Years:                  years,
		Records:                ds.Len(),
		Palette:                e.opts.Palette,
		TopHighwaysByYear:      make(map[int][]domain.CountRow, len(years)),
		TopAccidentTypesByYear: make(map[int][]domain.CountRow, len(years)),
	}
	for i, year := range years {
		t := perYear[i]
		report.YearSummaries = append(report.YearSummaries, t.summary)
		report.Percentiles = append(report.Percentiles, t.percentiles)
		report.Severity = append(report.Severity, t.severity)
		report.TopHighwaysByYear[year] = t.topHighways
		report.TopAccidentTypesByYear[year] = t.topTypes
	}
	report.YearComparisons = YearComparisons(report.YearSummaries)

	report.TopHighways = e.TopHighways(ds)
	report.TopAccidentTypes = e.TopAccidentTypes(ds)
	report.TopOccurrences = e.TopOccurrences(ds)
	report.OccurrenceByYear = e.OccurrenceByYear(ds)
	report.HighwayRisk = e.HighwayRisk(ds)
	report.Mortality = e.MortalityByHighway(ds)
	report.Monthly = e.MonthlyCounts(ds)
	report.MonthOverMonth = e.MonthOverMonth(ds)
	report.Weekday = e.Weekday(ds)
	report.KmBands = e.KmBands(ds)
	report.Regional = e.Regional(ds)
	report.Correlation = e.Correlation(ds)
	report.CorrelationWithTotal = CorrelationWithTotal(report.Correlation)
	report.Direction = e.DirectionByYear(ds)
	report.HighwayType = e.HighwayTypeCrossTab(ds)
	report.HighwayMonth = e.HighwayMonthHeatmap(ds)
	report.TypeSeverity = e.TypeSeverity(ds)
	report.TypeMeanVictims = e.TypeMeanVictims(ds)
	report.MissingValues = e.MissingValues(ds)

	end(nil)

	if report.Direction.Caveat != "" {
		e.logger.WarnContext(ctx, "Direction vocabulary differs across years",
			slog.Any("families", report.Direction.Families))
	}
	e.logger.InfoContext(ctx, "Metrics computed",
		slog.Any("years", years),
		slog.Int("records", report.Records),
		slog.Int("correlation_observations", report.Correlation.Observations),
		slog.Duration("duration", time.Since(start)))

	return report, nil
}
