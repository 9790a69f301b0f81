// Package dataprocessing loads the yearly accident workbooks and merges them
// into one dataset with a single column set.
//
// # Components
//
//	- LoadWorkbook reads one sheet with excelize and keeps raw cell values
//	- Consolidator resolves column aliases per year, fills missing columns
//	  with nulls and concatenates the years in ascending order
//	- SetField and the Parse helpers coerce text cells into typed values,
//	  turning anything unparsable into null instead of failing the run
//	- ReadConsolidated loads a previously exported dataset for reporting
//
// # Usage
//
//	c := dataprocessing.NewConsolidator(cfg, logger, telemetry)
//	ds, stats, err := c.Run(ctx, sources)
//
// Loading a missing file or sheet fails with the pipeline error codes from
// the errors package so callers can tell which year was at fault.
package dataprocessing
