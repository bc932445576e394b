package http

import (
	"context"

	"dtxcli/internal/dataprocessing"
	"dtxcli/internal/exporter"
	"dtxcli/internal/services"
	"dtxcli/pkg/contracts/domain"
)

// DataServiceInterface is the contract the data handler depends on. Tests
// substitute a mock; production wires *services.DataService.
type DataServiceInterface interface {
	Table(ctx context.Context) (*domain.ConsolidatedTable, error)
	ListCompanies(ctx context.Context) ([]services.CompanyRef, error)
	Search(ctx context.Context, query string) ([]services.CompanyRef, error)
	CompanyHistory(ctx context.Context, code string) (*dataprocessing.CompanySeries, error)
	IndustryTrend(ctx context.Context) ([]dataprocessing.YearPoint, error)
	Report(ctx context.Context, code string) (*dataprocessing.Report, error)
	ExportHistory(ctx context.Context, code string, format exporter.Format) (string, error)
	ExportTrend(ctx context.Context, format exporter.Format) (string, error)
}
