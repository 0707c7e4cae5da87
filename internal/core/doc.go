// Package core provides the table operations behind the file tools.
//
// Everything here works on in-memory [table.Table] values and knows nothing
// about HTTP, sessions or file formats, so it can be driven by the web
// handlers, tests or a CLI alike.
//
// # Operations
//
//   - [Validate] checks that a set of tables shares one column set.
//   - [Append] concatenates tables with matching column sets.
//   - [Aggregate] groups a table by key columns and summarizes the rest.
//   - [Reconcile] splits two tables into matched and unmatched rows by key.
//
// Aggregations are described by an ordered list of [Aggregation] values. Use
// [Uniform] to apply one [AggFunc] to several columns:
//
//	out, err := core.Aggregate(t, []string{"Region"},
//	    core.Uniform(core.AggSum, "Amount", "Units"), false)
//
// # Error Handling
//
// Operations return wrapped sentinel errors ([ErrSchemaMismatch],
// [ErrUnknownColumn], [ErrNoGroupingColumns], [ErrEmptyInput], ...). Match
// them with errors.Is. [MapError] turns any of them into a [UserMessage]
// with a support code:
//
//   - SCH001: column sets differ
//   - COL001-COL003: unknown, duplicate or non-numeric columns
//   - GRP001: no grouping columns
//   - INP001: nothing to operate on
//   - REC001: no common columns to reconcile on
//   - FILE001-FILE005: file errors (size, encoding, format)
//   - UPL001, UPL002, RATE001: request limits
//   - REQ001, RES001: invalid forms and missing session results
package core
