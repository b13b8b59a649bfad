// Package exporter writes the pipeline's output tables as CSV files.
//
// Tables land in the configured data directory. Writes go through a
// temporary file renamed into place, so a failed run never leaves a
// truncated table behind. An optional UTF-8 BOM prefix keeps the files
// friendly to Excel.
package exporter
