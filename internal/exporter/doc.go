// Package exporter re-exports calculated tables as spreadsheet snapshots:
// the industry trend series and the full per-company history, as CSV (with
// a UTF-8 BOM so Excel renders the Chinese company names correctly) or as
// XLSX workbooks.
package exporter
