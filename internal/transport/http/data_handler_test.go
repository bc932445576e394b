package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dtxcli/internal/dataprocessing"
	apierrors "dtxcli/internal/errors"
	"dtxcli/internal/exporter"
	"dtxcli/internal/services"
	"dtxcli/pkg/contracts/domain"
)

// fakeDataService implements DataServiceInterface with function fields so
// each test swaps in just the behavior it needs.
type fakeDataService struct {
	table          func(ctx context.Context) (*domain.ConsolidatedTable, error)
	listCompanies  func(ctx context.Context) ([]services.CompanyRef, error)
	search         func(ctx context.Context, query string) ([]services.CompanyRef, error)
	companyHistory func(ctx context.Context, code string) (*dataprocessing.CompanySeries, error)
	industryTrend  func(ctx context.Context) ([]dataprocessing.YearPoint, error)
	report         func(ctx context.Context, code string) (*dataprocessing.Report, error)
	exportHistory  func(ctx context.Context, code string, format exporter.Format) (string, error)
	exportTrend    func(ctx context.Context, format exporter.Format) (string, error)
}

func (f *fakeDataService) Table(ctx context.Context) (*domain.ConsolidatedTable, error) {
	return f.table(ctx)
}
func (f *fakeDataService) ListCompanies(ctx context.Context) ([]services.CompanyRef, error) {
	return f.listCompanies(ctx)
}
func (f *fakeDataService) Search(ctx context.Context, query string) ([]services.CompanyRef, error) {
	return f.search(ctx, query)
}
func (f *fakeDataService) CompanyHistory(ctx context.Context, code string) (*dataprocessing.CompanySeries, error) {
	return f.companyHistory(ctx, code)
}
func (f *fakeDataService) IndustryTrend(ctx context.Context) ([]dataprocessing.YearPoint, error) {
	return f.industryTrend(ctx)
}
func (f *fakeDataService) Report(ctx context.Context, code string) (*dataprocessing.Report, error) {
	return f.report(ctx, code)
}
func (f *fakeDataService) ExportHistory(ctx context.Context, code string, format exporter.Format) (string, error) {
	return f.exportHistory(ctx, code, format)
}
func (f *fakeDataService) ExportTrend(ctx context.Context, format exporter.Format) (string, error) {
	return f.exportTrend(ctx, format)
}

func newTestRouter(svc DataServiceInterface) chi.Router {
	handler := NewDataHandler(svc, nil, apierrors.NewErrorHandler(nil))
	r := chi.NewRouter()
	r.Mount("/api/data", handler.Routes())
	return r
}

func TestGetTable(t *testing.T) {
	svc := &fakeDataService{
		table: func(ctx context.Context) (*domain.ConsolidatedTable, error) {
			table := &domain.ConsolidatedTable{Records: []domain.CompanyYearRecord{{
				StockCode:           "000001",
				CompanyName:         "Alpha Corp",
				Year:                2020,
				TransformationIndex: 100,
			}}}
			table.Reindex()
			return table, nil
		},
	}

	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data/table", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
	assert.Contains(t, rec.Body.String(), "Alpha Corp")
}

func TestGetCompanies(t *testing.T) {
	svc := &fakeDataService{
		listCompanies: func(ctx context.Context) ([]services.CompanyRef, error) {
			return []services.CompanyRef{
				{StockCode: "000001", CompanyName: "Alpha Corp"},
				{StockCode: "000002", CompanyName: "Beta Ltd"},
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data/companies", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "000001")
	assert.Contains(t, rec.Body.String(), `"count":2`)
}

func TestGetCompanies_SearchNoMatch(t *testing.T) {
	svc := &fakeDataService{
		search: func(ctx context.Context, query string) ([]services.CompanyRef, error) {
			assert.Equal(t, "zeta", query)
			return []services.CompanyRef{}, nil
		},
	}

	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data/companies?q=zeta", nil))

	// No match is a success with an empty result set, never an error.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":0`)
}

func TestGetCompanyHistory(t *testing.T) {
	svc := &fakeDataService{
		companyHistory: func(ctx context.Context, code string) (*dataprocessing.CompanySeries, error) {
			assert.Equal(t, "000001", code)
			return &dataprocessing.CompanySeries{
				StockCode:   "000001",
				CompanyName: "Alpha Corp",
				Points:      []dataprocessing.YearPoint{{Year: 2020, Index: 100}},
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data/company/000001/history", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Alpha Corp")
}

func TestGetCompanyHistory_NotFound(t *testing.T) {
	svc := &fakeDataService{
		companyHistory: func(ctx context.Context, code string) (*dataprocessing.CompanySeries, error) {
			return nil, fmt.Errorf("%w: %s", dataprocessing.ErrCompanyNotFound, code)
		},
	}

	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data/company/999999/history", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "COMPANY_NOT_FOUND")
}

func TestGetTrend_NoData(t *testing.T) {
	svc := &fakeDataService{
		industryTrend: func(ctx context.Context) ([]dataprocessing.YearPoint, error) {
			return nil, fmt.Errorf("%w: no sheets matched the selection policy", services.ErrNoData)
		},
	}

	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data/trend", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NO_DATA")
}

func TestGetCompanyReport(t *testing.T) {
	svc := &fakeDataService{
		report: func(ctx context.Context, code string) (*dataprocessing.Report, error) {
			return &dataprocessing.Report{StockCode: code, Trend: "up", Text: "Digital Transformation Report"}, nil
		},
	}

	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data/company/000001/report", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Digital Transformation Report")
}

func TestExportTrend_InvalidFormat(t *testing.T) {
	svc := &fakeDataService{}

	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data/export/trend?format=pdf", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
}

func TestExportTrend_ServesAttachment(t *testing.T) {
	snapshot := filepath.Join(t.TempDir(), "trend_abc123.csv")
	require.NoError(t, os.WriteFile(snapshot, []byte("Year,AverageIndex\n2020,50.00\n"), 0o644))

	svc := &fakeDataService{
		exportTrend: func(ctx context.Context, format exporter.Format) (string, error) {
			assert.Equal(t, exporter.FormatCSV, format)
			return snapshot, nil
		},
	}

	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data/export/trend", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "trend_abc123.csv")
	assert.Contains(t, rec.Body.String(), "2020,50.00")
}

func TestHealthHandler(t *testing.T) {
	r := chi.NewRouter()
	r.Mount("/healthz", NewHealthHandler(stubSource{path: "data/index.xlsx", ok: true}).Routes())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"workbook_present":true`)
}

type stubSource struct {
	path string
	ok   bool
}

func (s stubSource) Stat() (string, bool) { return s.path, s.ok }
