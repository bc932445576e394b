// Package dataprocessing implements the core pipeline of the digital
// transformation index service: consolidating multi-sheet keyword-frequency
// workbooks into one table, deriving the bounded transformation index, and
// summarizing per-company and industry-wide views.
//
// The pipeline is strictly one-way:
//
//	workbook -> Loader -> ConsolidatedTable -> Calculator -> scored table
//	                                                          |
//	                                  Summarizer (series, trend, report)
//
// The Loader tolerates schema drift across sheets: column names are resolved
// through a fixed-priority alias list covering both the Chinese source
// vocabulary and English equivalents, missing numeric columns default to
// zero, and a sheet is only dropped when it lacks both identifying columns
// (stock code and company name). Failures surface as an empty LoadResult
// with a cause and per-sheet warnings, never as a fault.
//
// The Calculator is pure and total: given a well-formed table it always
// produces indices in [0, 100] rounded to two decimals, with explicit
// zero-fill branches for degenerate groups. Two interchangeable policies
// exist; see Policy.
package dataprocessing
