// Package microdata loads household survey extracts into typed records for
// the ranking pipeline.
//
// Extracts arrive either as CSV or as Excel workbooks (the upstream survey
// distributions ship .xlsx files); Load dispatches on the file extension.
// Both loaders locate the required columns by header name, tolerate extra
// columns and arbitrary column order, and skip malformed rows rather than
// failing the whole file. An empty or missing income cell becomes NaN, which
// the ranking package treats as missing.
package microdata
