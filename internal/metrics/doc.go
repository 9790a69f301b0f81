// Package metrics derives the report tables of the accident pipeline from a
// consolidated dataset.
//
// Every table is a pure function of the dataset slice it is given: the
// engine keeps no state between calls and never mutates the dataset. Missing
// values are excluded from an aggregate rather than read as zero, except for
// the light, severe and fatal victim counts which feed the arithmetic
// indices and are summed with missing as zero.
//
// Main entry points:
//   - Engine.Run computes the whole catalog into a Report
//   - SeverityIndex scores a single record
//   - HighwayLabel is the highway display normalization shared by several
//     tables
package metrics
