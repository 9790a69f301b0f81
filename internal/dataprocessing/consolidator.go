package dataprocessing

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"accidentscli/internal/config"
	"accidentscli/internal/files"
	"accidentscli/internal/infrastructure"
	"accidentscli/pkg/contracts/domain"
)

// Consolidator turns yearly raw tables into one dataset with a single,
// alias-resolved column set.
type Consolidator struct {
	canonical []string
	aliases   map[int]map[string]string
	logger    *slog.Logger
	telemetry *infrastructure.OTelProviders
	now       func() time.Time
}

// NewConsolidator creates a consolidator from the schema section of cfg.
// telemetry may be nil.
func NewConsolidator(cfg *config.Config, logger *slog.Logger, telemetry *infrastructure.OTelProviders) *Consolidator {
	canonical := append([]string(nil), cfg.Schema.Canonical...)
	if !containsExact(canonical, domain.ColYear) {
		canonical = append(canonical, domain.ColYear)
	}
	return &Consolidator{
		canonical: canonical,
		aliases:   cfg.AliasTable(),
		logger:    infrastructure.WithComponent(logger, "consolidator"),
		telemetry: telemetry,
		now:       time.Now,
	}
}

// LoadSources loads every source concurrently and returns the tables in the
// order of sources. The first failure cancels the remaining loads.
func (c *Consolidator) LoadSources(ctx context.Context, sources []files.Source) ([]*domain.RawTable, error) {
	ctx, end := c.telemetry.StartStage(ctx, "load_sources", attribute.Int("sources", len(sources)))

	tables := make([]*domain.RawTable, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			table, err := LoadWorkbook(gctx, src.Year, src.File.Path, src.Sheet)
			if err != nil {
				return err
			}
			tables[i] = table
			return nil
		})
	}

	err := g.Wait()
	end(err)
	if err != nil {
		c.logger.ErrorContext(ctx, "Source loading failed", slog.String("error", err.Error()))
		return nil, err
	}
	return tables, nil
}

// Run loads the sources and consolidates them
func (c *Consolidator) Run(ctx context.Context, sources []files.Source) (*domain.Dataset, *domain.ConsolidationStats, error) {
	tables, err := c.LoadSources(ctx, sources)
	if err != nil {
		return nil, nil, err
	}
	ds, stats := c.Consolidate(ctx, tables)
	return ds, stats, nil
}

// yearPlan maps the columns of one raw table onto the unified column list
type yearPlan struct {
	table   *domain.RawTable
	columns []string // unified column name per raw column, "" when dropped
	present map[string]bool
}

// Consolidate reconciles and concatenates tables in the given order. Every
// table ends up with the union of all columns: canonical columns first in
// canonical order, then columns outside the canonical set in first-seen
// order. Columns a year lacks are null for all of its records.
func (c *Consolidator) Consolidate(ctx context.Context, tables []*domain.RawTable) (*domain.Dataset, *domain.ConsolidationStats) {
	ctx, end := c.telemetry.StartStage(ctx, "consolidate", attribute.Int("tables", len(tables)))
	defer end(nil)

	stats := &domain.ConsolidationStats{
		RowsPerYear:      make(map[int]int),
		FilledColumns:    make(map[int][]string),
		RenamedColumns:   make(map[int]map[string]string),
		CoercionFailures: make(map[string]int),
		GeneratedAt:      c.now(),
	}

	plans := make([]yearPlan, len(tables))
	canonicalSet := make(map[string]bool, len(c.canonical))
	for _, col := range c.canonical {
		canonicalSet[col] = true
	}
	var extensions []string
	seenExtension := make(map[string]bool)

	for i, table := range tables {
		plan := yearPlan{
			table:   table,
			columns: make([]string, len(table.Header)),
			present: make(map[string]bool, len(table.Header)),
		}
		aliases := c.aliases[table.Year]

		for j, raw := range table.Header {
			name := raw
			if to, ok := aliases[raw]; ok {
				name = to
				if stats.RenamedColumns[table.Year] == nil {
					stats.RenamedColumns[table.Year] = make(map[string]string)
				}
				stats.RenamedColumns[table.Year][raw] = to
			}

			if name == domain.ColYear {
				// The year always comes from configuration
				c.logger.DebugContext(ctx, "Ignoring year column from source",
					slog.Int("year", table.Year), slog.String("column", raw))
				continue
			}
			if plan.present[name] {
				c.logger.WarnContext(ctx, "Duplicate column after alias resolution, keeping first",
					slog.Int("year", table.Year), slog.String("column", name), slog.String("raw", raw))
				continue
			}

			plan.columns[j] = name
			plan.present[name] = true
			if !canonicalSet[name] && !seenExtension[name] {
				seenExtension[name] = true
				extensions = append(extensions, name)
			}
		}
		plans[i] = plan
	}

	columns := make([]string, 0, len(c.canonical)+len(extensions))
	columns = append(columns, c.canonical...)
	columns = append(columns, extensions...)

	var records []domain.AccidentRecord
	for _, plan := range plans {
		year := plan.table.Year

		var filled []string
		for _, col := range columns {
			if col != domain.ColYear && !plan.present[col] {
				filled = append(filled, col)
			}
		}
		if len(filled) > 0 {
			stats.FilledColumns[year] = filled
		}

		failures := make(map[string]int)
		for _, row := range plan.table.Rows {
			rec := domain.AccidentRecord{SourceYear: year}
			for _, col := range filled {
				if domain.KindOf(col) == domain.KindText {
					SetField(&rec, col, "")
				}
			}
			for j, col := range plan.columns {
				if col == "" {
					continue
				}
				if !SetField(&rec, col, row[j]) {
					failures[col]++
				}
			}
			records = append(records, rec)
		}

		stats.RowsPerYear[year] += len(plan.table.Rows)
		coerced := 0
		for _, col := range sortedKeys(failures) {
			n := failures[col]
			coerced += n
			stats.CoercionFailures[col] += n
			c.logger.WarnContext(ctx, "Values coerced to null",
				slog.Int("year", year),
				slog.String("column", col),
				slog.Int("count", n))
		}
		c.telemetry.Counters().RecordSource(ctx, year, len(plan.table.Rows), coerced)

		c.logger.InfoContext(ctx, "Year consolidated",
			slog.Int("year", year),
			slog.String("sheet", plan.table.Sheet),
			slog.Int("records", len(plan.table.Rows)),
			slog.Any("filled_columns", filled),
			slog.Int("coercion_failures", coerced))
	}

	ds := domain.NewDataset(columns, records)
	c.logger.InfoContext(ctx, "Consolidation complete",
		slog.Int("records", ds.Len()),
		slog.Int("columns", len(columns)),
		slog.Any("extension_columns", extensions))

	return ds, stats
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
