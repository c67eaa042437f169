// Package dataview models the tabular query results a donut chart is built from.
//
// # Overview
//
// A [Result] has up to two grouping dimensions and any number of measure
// columns:
//
//   - Category: the axis whose members become slices ("North", "South", ...).
//   - Series: an optional grouping of measure columns ("2023", "2024").
//   - Measures: numeric columns, each optionally carrying highlight values
//     aligned cell by cell with its regular values.
//
// # Validation
//
// Two kinds of problems are told apart:
//
//   - Shape problems (a measure with the wrong number of cells, an unknown
//     series reference) are errors from [Result.CheckShape].
//   - Bad numbers (NaN, infinities, magnitudes beyond [MaxMagnitude]) are
//     warnings from [Validate]; [Sanitize] replaces them by 0 so the chart
//     still renders.
//
// # Formats
//
// Datasets are read from JSON ([ReadJSON]) or TOML ([ReadTOML]); [Import]
// picks the decoder from the file extension.
package dataview
