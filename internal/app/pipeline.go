package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"accidentscli/internal/dataprocessing"
	apperrors "accidentscli/internal/errors"
	"accidentscli/internal/exporter"
	"accidentscli/internal/files"
	"accidentscli/internal/metrics"
	"accidentscli/internal/store"
	"accidentscli/internal/validation"
	"accidentscli/pkg/contracts/domain"
)

// ConsolidateResult is the outcome of a consolidation run
type ConsolidateResult struct {
	Dataset    *domain.Dataset
	Stats      *domain.ConsolidationStats
	OutputPath string
	Stored     bool
}

// Consolidate loads the selected yearly workbooks and writes the
// consolidated dataset. Any source failure aborts the run before an output
// is written.
func (a *Application) Consolidate(ctx context.Context) (*ConsolidateResult, error) {
	logger := a.Logger
	sources := a.Config.SelectedSources()

	validator := validation.NewFileValidator(logger)
	discovery := files.NewDiscovery(a.Paths.DataDir)
	if err := validator.ValidateInputDirectory(a.Paths.DataDir); err == nil {
		extra, err := discovery.UnconfiguredWorkbooks(a.Paths.DataDir, a.Config.Sources)
		if err != nil {
			logger.DebugContext(ctx, "Data directory scan skipped", slog.String("error", err.Error()))
		}
		for _, f := range extra {
			logger.WarnContext(ctx, "Workbook has no configured source", slog.String("file", f.Path))
		}
	}

	resolved, err := discovery.ResolveSources(sources)
	if err != nil {
		return nil, err
	}
	if err := validator.ValidateSources(resolved); err != nil {
		return nil, err
	}
	outDir := filepath.Dir(a.Paths.ConsolidatedCSV)
	if err := validator.ValidateOutputDirectory(outDir); err != nil {
		return nil, apperrors.ExportFailed(outDir, err)
	}

	consolidator := dataprocessing.NewConsolidator(a.Config, logger, a.OTelProviders)
	ds, stats, err := consolidator.Run(ctx, resolved)
	if err != nil {
		return nil, err
	}

	datasets := exporter.NewDatasetExporter(a.Files, logger)
	if err := datasets.ExportDataset(ctx, ds, a.Paths.ConsolidatedCSV); err != nil {
		return nil, err
	}
	if err := datasets.ExportStats(ctx, stats, a.Paths.StatsJSON); err != nil {
		return nil, err
	}

	result := &ConsolidateResult{Dataset: ds, Stats: stats, OutputPath: a.Paths.ConsolidatedCSV}

	if path := a.Config.Store.SQLitePath; path != "" {
		if !filepath.IsAbs(path) {
			path = a.Paths.GetDataPath(path)
		}
		if err := a.saveToStore(ctx, ds, path); err != nil {
			return nil, err
		}
		result.Stored = true
	}

	logger.InfoContext(ctx, "Consolidation finished",
		slog.String("output", result.OutputPath),
		slog.Int("records", ds.Len()),
		slog.Any("rows_per_year", stats.RowsPerYear),
		slog.Int("coercion_failures", stats.TotalCoercionFailures()))
	return result, nil
}

func (a *Application) saveToStore(ctx context.Context, ds *domain.Dataset, path string) error {
	s, err := store.Open(path, a.Config.Store.Table, a.Logger, a.OTelProviders)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Save(ctx, ds)
}

// ReportResult is the outcome of a report run
type ReportResult struct {
	Report *metrics.Report
	Tables int
	Bundle string
}

// Report computes the metric catalog from the consolidated CSV and writes
// the table files and the JSON bundle.
func (a *Application) Report(ctx context.Context) (*ReportResult, error) {
	input := a.Paths.ConsolidatedCSV
	validator := validation.NewFileValidator(a.Logger)
	if err := validator.ValidateCSVFile(input); err != nil {
		return nil, fmt.Errorf("consolidated dataset unavailable, run consolidate first: %w", err)
	}
	if err := validator.ValidateOutputDirectory(a.Paths.TablesDir); err != nil {
		return nil, apperrors.ExportFailed(a.Paths.TablesDir, err)
	}

	ds, _, err := dataprocessing.ReadConsolidatedCSV(ctx, input)
	if err != nil {
		return nil, err
	}
	a.Logger.InfoContext(ctx, "Consolidated dataset loaded",
		slog.String("path", input),
		slog.Int("records", ds.Len()),
		slog.Any("years", ds.SortedYears()))
	var missing []string
	for _, col := range a.Config.Schema.Canonical {
		if !ds.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		a.Logger.WarnContext(ctx, "Consolidated dataset lacks canonical columns, their metrics will be empty",
			slog.Any("columns", missing))
	}

	opts := metrics.OptionsFromConfig(a.Config.Metrics)
	if len(a.Config.Years) > 0 || len(opts.Years) == 0 {
		// The configured year sequence keeps years that produced no records
		opts.Years = opts.Years[:0]
		for _, src := range a.Config.SelectedSources() {
			opts.Years = append(opts.Years, src.Year)
		}
	}
	report, err := metrics.NewEngine(opts, a.Logger, a.OTelProviders).Run(ctx, ds)
	if err != nil {
		return nil, err
	}

	tables := exporter.NewTableExporter(a.Paths, exporter.NewCSVWriter(a.Paths, a.Files), a.Logger, a.OTelProviders)
	n, err := tables.ExportTables(ctx, report)
	if err != nil {
		return nil, err
	}
	if err := tables.ExportBundle(ctx, report, a.Paths.ReportBundle); err != nil {
		return nil, err
	}

	return &ReportResult{Report: report, Tables: n, Bundle: a.Paths.ReportBundle}, nil
}
