// Package files provides file system discovery and output utilities for the
// accident tools.
//
// Discovery resolves the configured yearly workbooks against the data
// directory and reports workbooks that carry a year nobody configured.
//
// Manager writes output files atomically: content goes to a temporary file
// in the destination directory and is renamed into place only once it is
// complete, so a failed run never leaves a truncated CSV behind.
//
//	discovery := files.NewDiscovery(paths.DataDir)
//	sources, err := discovery.ResolveSources(cfg.SelectedSources())
//
//	manager := files.NewManager(logger)
//	err = manager.WriteAtomic(paths.ConsolidatedCSV, func(w io.Writer) error {
//	    return writeRows(w)
//	})
package files
