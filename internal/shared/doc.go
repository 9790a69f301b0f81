// Package shared holds helpers used by tests across packages.
//
// The testutil subpackage provides a buffered slog handler so tests can
// assert on emitted log records:
//
//	logger, logs := testutil.NewTestLogger(t)
//	consolidator := dataprocessing.NewConsolidator(cfg, logger, nil)
//	...
//	testutil.AssertLogContains(t, logs, slog.LevelWarn, "Values coerced to null")
package shared
