package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"dtxcli/internal/dataprocessing"
	"dtxcli/pkg/contracts/domain"
)

// Format selects the snapshot file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Valid reports whether f names a supported format.
func (f Format) Valid() bool {
	return f == FormatCSV || f == FormatXLSX
}

// SnapshotExporter writes re-exportable tabular snapshots of the calculated
// data into the configured export directory.
type SnapshotExporter struct {
	logger *slog.Logger
	csv    *CSVWriter
	dir    string
}

// NewSnapshotExporter creates an exporter writing into dir.
func NewSnapshotExporter(logger *slog.Logger, dir string) *SnapshotExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotExporter{
		logger: logger.With(slog.String("component", "snapshot_exporter")),
		csv:    NewCSVWriter(logger),
		dir:    dir,
	}
}

var historyHeaders = []string{
	"StockCode", "CompanyName", "Year",
	"ArtificialIntelligence", "BigData", "CloudComputing", "Blockchain", "DigitalTechnologyUsage",
	"TransformationIndex",
}

var trendHeaders = []string{"Year", "AverageIndex"}

// ExportHistory writes the full per-company history snapshot and returns the
// generated file path.
func (e *SnapshotExporter) ExportHistory(series *dataprocessing.CompanySeries, format Format) (string, error) {
	rows := make([][]string, 0, len(series.Records))
	for _, r := range series.Records {
		rows = append(rows, historyRow(r))
	}

	name := fmt.Sprintf("history_%s_%s", series.StockCode, snapshotID())
	return e.write(name, format, historyHeaders, rows)
}

// ExportTrend writes the industry trend series snapshot and returns the
// generated file path.
func (e *SnapshotExporter) ExportTrend(points []dataprocessing.YearPoint, format Format) (string, error) {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{p.Label(), formatFloat(p.Index)})
	}

	name := "trend_" + snapshotID()
	return e.write(name, format, trendHeaders, rows)
}

func (e *SnapshotExporter) write(name string, format Format, headers []string, rows [][]string) (string, error) {
	if !format.Valid() {
		return "", fmt.Errorf("unsupported snapshot format: %s", format)
	}

	path := filepath.Join(e.dir, name+"."+string(format))
	var err error
	switch format {
	case FormatXLSX:
		err = e.writeXLSX(path, headers, rows)
	default:
		err = e.csv.WriteCSV(path, headers, rows)
	}
	if err != nil {
		return "", err
	}

	e.logger.Info("snapshot exported",
		slog.String("path", path),
		slog.Int("rows", len(rows)))
	return path, nil
}

// writeXLSX writes one sheet named "data" with a header row. The stream
// writer keeps memory flat even for the full-table history of large
// workbooks.
func (e *SnapshotExporter) writeXLSX(path string, headers []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "data"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	writeRow := func(rowNum int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(values))
		for i, v := range values {
			row[i] = v
		}
		return sw.SetRow(cell, row)
	}

	if err := writeRow(1, headers); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}
	for i, row := range rows {
		if err := writeRow(i+2, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush stream writer: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func historyRow(r domain.CompanyYearRecord) []string {
	row := []string{r.StockCode, r.CompanyName, r.Period().Label()}
	for _, c := range domain.KeywordCategories {
		row = append(row, formatInt(r.Frequencies[c]))
	}
	return append(row, formatFloat(r.TransformationIndex))
}

// snapshotID yields a short unique suffix so repeated exports never clobber
// each other.
func snapshotID() string {
	return uuid.NewString()[:8]
}
