package exporter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	apperrors "accidentscli/internal/errors"
	"accidentscli/internal/files"
	"accidentscli/internal/infrastructure"
	"accidentscli/pkg/contracts/domain"
)

// DatasetExporter writes the consolidated dataset and its statistics
type DatasetExporter struct {
	files  *files.Manager
	logger *slog.Logger
}

// NewDatasetExporter creates a dataset exporter
func NewDatasetExporter(manager *files.Manager, logger *slog.Logger) *DatasetExporter {
	if manager == nil {
		manager = files.NewManager(logger)
	}
	return &DatasetExporter{
		files:  manager,
		logger: infrastructure.WithComponent(logger, "dataset-exporter"),
	}
}

// ExportDataset writes ds as a UTF-8 CSV with BOM. The header is the dataset
// column list, missing values are empty cells and dates use the
// "2006-01-02 15:04:05" layout. An existing file is only replaced once the
// whole dataset has been written.
func (e *DatasetExporter) ExportDataset(ctx context.Context, ds *domain.Dataset, path string) error {
	err := e.files.WriteAtomic(path, func(w io.Writer) error {
		return WriteDataset(w, ds)
	})
	if err != nil {
		return apperrors.ExportFailed(path, err)
	}

	size, _ := e.files.GetFileSize(path)
	e.logger.InfoContext(ctx, "Consolidated dataset written",
		slog.String("path", path),
		slog.Int("records", ds.Len()),
		slog.Int("columns", len(ds.Columns)),
		slog.Int64("bytes", size))
	return nil
}

// WriteDataset streams ds to w in the consolidated CSV format
func WriteDataset(w io.Writer, ds *domain.Dataset) error {
	sw, err := NewStreamWriter(w, ds.Columns, true)
	if err != nil {
		return err
	}
	for _, rec := range ds.Records {
		if err := sw.WriteRecord(ds.Row(rec)); err != nil {
			return err
		}
	}
	return sw.Flush()
}

// ExportStats writes the consolidation statistics as indented JSON
func (e *DatasetExporter) ExportStats(ctx context.Context, stats *domain.ConsolidationStats, path string) error {
	if err := writeJSON(e.files, path, stats); err != nil {
		return err
	}
	e.logger.DebugContext(ctx, "Consolidation statistics written", slog.String("path", path))
	return nil
}

func writeJSON(manager *files.Manager, path string, v any) error {
	err := manager.WriteAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
	if err != nil {
		return apperrors.ExportFailed(path, err)
	}
	return nil
}
