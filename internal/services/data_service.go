// Package services composes the core pipeline behind the HTTP transport:
// workbook discovery, consolidation, index calculation and the derived
// lookup/report/export operations.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"dtxcli/internal/config"
	"dtxcli/internal/dataprocessing"
	"dtxcli/internal/exporter"
	"dtxcli/internal/files"
	"dtxcli/pkg/contracts/domain"
)

// ErrNoData signals that no workbook could be found or that consolidation
// yielded zero rows. The transport maps this to the user-facing "no data"
// message; it is never a fault.
var ErrNoData = errors.New("no workbook data available")

// ErrCompanyNotFound re-exports the summarizer sentinel so handlers only
// depend on the service package.
var ErrCompanyNotFound = dataprocessing.ErrCompanyNotFound

// Dataset is one fully loaded and scored dataset.
type Dataset struct {
	Table    *domain.ConsolidatedTable
	Warnings []dataprocessing.SheetWarning
	Source   string
	LoadedAt time.Time
}

// DataService owns the load-compute-lookup lifecycle. Loads are memoized per
// workbook path and modification time: reloading an unchanged workbook
// returns the identical cached dataset, so repeated loads are safe and
// byte-identical.
type DataService struct {
	logger     *slog.Logger
	discovery  *files.Discovery
	loader     *dataprocessing.Loader
	calculator *dataprocessing.Calculator
	summarizer *dataprocessing.Summarizer
	exporter   *exporter.SnapshotExporter

	mu        sync.Mutex
	cached    *Dataset
	cachedKey string
}

// NewDataService wires a data service from configuration.
func NewDataService(cfg *config.Config, logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataService{
		logger:     logger.With(slog.String("component", "data_service")),
		discovery:  files.NewDiscovery(logger, cfg.Data.WorkbookFile, cfg.Data.Dirs),
		loader:     dataprocessing.NewLoader(logger, dataprocessing.SheetPolicy(cfg.Data.SheetPolicy)),
		calculator: dataprocessing.NewCalculator(dataprocessing.Policy(cfg.Data.IndexPolicy)),
		summarizer: dataprocessing.NewSummarizer(logger),
		exporter:   exporter.NewSnapshotExporter(logger, cfg.Data.ExportDir),
	}
}

// Dataset returns the current dataset, loading it on first use. The cache
// key is the workbook path plus modification time, so an updated workbook is
// picked up on the next call without restarting the process.
func (s *DataService) Dataset(ctx context.Context) (*Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	source, ok := s.discovery.Resolve()
	if !ok {
		return nil, fmt.Errorf("%w: no workbook found in candidate directories", ErrNoData)
	}

	key := fmt.Sprintf("%s@%d", source.Path, source.ModTime.UnixNano())
	if s.cached != nil && s.cachedKey == key {
		return s.cached, nil
	}

	dataset, err := s.load(ctx, source.Path)
	if err != nil {
		return nil, err
	}
	s.cached = dataset
	s.cachedKey = key
	return dataset, nil
}

func (s *DataService) load(ctx context.Context, path string) (*Dataset, error) {
	s.logger.InfoContext(ctx, "loading workbook",
		slog.String("path", path),
		slog.String("policy", string(s.calculator.Policy())))

	result, err := s.loader.LoadFile(path)
	if err != nil {
		// An unopenable workbook is reported like a missing one; the
		// caller shows a friendly message and stops.
		s.logger.WarnContext(ctx, "workbook unreadable",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrNoData, err)
	}
	if result.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrNoData, result.EmptyCause)
	}

	dataset := &Dataset{
		Table:    s.calculator.Calculate(result.Table),
		Warnings: result.Warnings,
		Source:   path,
		LoadedAt: time.Now(),
	}

	s.logger.InfoContext(ctx, "dataset loaded",
		slog.Int("records", len(dataset.Table.Records)),
		slog.Int("companies", len(dataset.Table.StockCodes)),
		slog.Int("years", len(dataset.Table.Years)),
		slog.Int("warnings", len(dataset.Warnings)))

	return dataset, nil
}

// Table returns the full calculated table for tabular display and
// client-side filtering.
func (s *DataService) Table(ctx context.Context) (*domain.ConsolidatedTable, error) {
	dataset, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return dataset.Table, nil
}

// CompanyRef is one entry of the company listing.
type CompanyRef struct {
	StockCode   string `json:"stock_code"`
	CompanyName string `json:"company_name"`
}

// ListCompanies returns every known company, ordered by stock code.
func (s *DataService) ListCompanies(ctx context.Context) ([]CompanyRef, error) {
	dataset, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}

	refs := make([]CompanyRef, 0, len(dataset.Table.StockCodes))
	for _, code := range dataset.Table.StockCodes {
		refs = append(refs, CompanyRef{StockCode: code, CompanyName: dataset.Table.NameByCode[code]})
	}
	return refs, nil
}

// Search returns the companies whose code or name matches the query. An
// empty result is not an error.
func (s *DataService) Search(ctx context.Context, query string) ([]CompanyRef, error) {
	dataset, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}

	refs := []CompanyRef{}
	for _, code := range dataset.Table.MatchCompanies(query) {
		refs = append(refs, CompanyRef{StockCode: code, CompanyName: dataset.Table.NameByCode[code]})
	}
	return refs, nil
}

// CompanyHistory returns a company's ordered-by-year series.
func (s *DataService) CompanyHistory(ctx context.Context, code string) (*dataprocessing.CompanySeries, error) {
	dataset, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return s.summarizer.Series(dataset.Table, dataprocessing.NormalizeStockCode(code))
}

// IndustryTrend returns the per-year average index across all companies.
func (s *DataService) IndustryTrend(ctx context.Context) ([]dataprocessing.YearPoint, error) {
	dataset, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return s.summarizer.YearlyAverages(dataset.Table), nil
}

// Report generates the canonical textual report for one company.
func (s *DataService) Report(ctx context.Context, code string) (*dataprocessing.Report, error) {
	dataset, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return s.summarizer.GenerateReport(dataset.Table, dataprocessing.NormalizeStockCode(code))
}

// ExportHistory writes a company-history snapshot and returns its path.
func (s *DataService) ExportHistory(ctx context.Context, code string, format exporter.Format) (string, error) {
	series, err := s.CompanyHistory(ctx, code)
	if err != nil {
		return "", err
	}
	return s.exporter.ExportHistory(series, format)
}

// ExportTrend writes an industry-trend snapshot and returns its path.
func (s *DataService) ExportTrend(ctx context.Context, format exporter.Format) (string, error) {
	trend, err := s.IndustryTrend(ctx)
	if err != nil {
		return "", err
	}
	return s.exporter.ExportTrend(trend, format)
}

// Invalidate drops the memoized dataset so the next call reloads from disk.
func (s *DataService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
	s.cachedKey = ""
}

// Stat is a small helper for health reporting: it verifies the resolved
// workbook still exists and returns its path.
func (s *DataService) Stat() (string, bool) {
	source, ok := s.discovery.Resolve()
	if !ok {
		return "", false
	}
	if _, err := os.Stat(source.Path); err != nil {
		return source.Path, false
	}
	return source.Path, true
}
