// Package exporter writes pipeline outputs to disk.
//
// CSVWriter is the core CSV writer: headers, a streaming record writer and a
// UTF-8 BOM so spreadsheet applications detect the encoding. Every file is
// replaced atomically through files.Manager.
//
// DatasetExporter writes the consolidated dataset and the consolidation
// statistics. TableExporter flattens a metrics.Report into one CSV per table
// and writes the whole report as a JSON bundle for chart rendering.
//
// Example usage:
//
//	exp := exporter.NewDatasetExporter(files.NewManager(logger), logger)
//	if err := exp.ExportDataset(ctx, ds, paths.ConsolidatedCSV); err != nil {
//		return err
//	}
//
//	tables := exporter.NewTableExporter(paths, nil, logger, telemetry)
//	n, err := tables.ExportTables(ctx, report)
package exporter
