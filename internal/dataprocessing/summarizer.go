package dataprocessing

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"dtxcli/pkg/contracts/domain"
)

// ErrCompanyNotFound signals a lookup for a stock code absent from the
// consolidated table. This is a user-facing "no match", not a fault.
var ErrCompanyNotFound = errors.New("company not found")

// Summarizer is the single source of truth for the per-company and
// industry-wide views derived from a calculated table.
type Summarizer struct {
	logger *slog.Logger
}

// NewSummarizer creates a summarizer.
func NewSummarizer(logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{logger: logger.With(slog.String("component", "summarizer"))}
}

// YearPoint is one point of a per-period series. Tag is set instead of Year
// for periods resolved from a non-numeric sheet name.
type YearPoint struct {
	Year  int     `json:"year,omitempty"`
	Tag   string  `json:"tag,omitempty"`
	Index float64 `json:"index"`
}

// Label renders the point's period for display and export.
func (p YearPoint) Label() string {
	return domain.Period{Year: p.Year, Tag: p.Tag}.Label()
}

// CompanySeries is a company's full ordered-by-year history: index values
// plus raw frequency counts, as the chart and table views consume it.
type CompanySeries struct {
	StockCode   string                     `json:"stock_code"`
	CompanyName string                     `json:"company_name"`
	Points      []YearPoint                `json:"points"`
	Records     []domain.CompanyYearRecord `json:"records"`
}

// Series returns the ordered-by-year history for one stock code.
func (s *Summarizer) Series(table *domain.ConsolidatedTable, code string) (*CompanySeries, error) {
	records := table.RecordsByCode(code)
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrCompanyNotFound, code)
	}

	series := &CompanySeries{
		StockCode:   code,
		CompanyName: table.NameByCode[code],
		Records:     records,
	}
	for _, r := range records {
		series.Points = append(series.Points, YearPoint{Year: r.Year, Tag: r.YearTag, Index: r.TransformationIndex})
	}
	return series, nil
}

// YearlyAverages returns the average transformation index per period across
// all companies, ordered by period, for the industry-wide trend view.
// Tag-only periods stay separate groups rather than collapsing into one.
func (s *Summarizer) YearlyAverages(table *domain.ConsolidatedTable) []YearPoint {
	if table.Empty() {
		return nil
	}

	byPeriod := make(map[domain.Period][]float64)
	for _, r := range table.Records {
		byPeriod[r.Period()] = append(byPeriod[r.Period()], r.TransformationIndex)
	}

	points := make([]YearPoint, 0, len(byPeriod))
	for period, values := range byPeriod {
		mean, err := stats.Mean(values)
		if err != nil {
			continue
		}
		rounded, _ := stats.Round(mean, 2)
		points = append(points, YearPoint{Year: period.Year, Tag: period.Tag, Index: rounded})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Year != points[j].Year {
			return points[i].Year < points[j].Year
		}
		return points[i].Tag < points[j].Tag
	})
	return points
}

// Report summarizes a company's full record set: data coverage, peak,
// average and latest index, trend since the first available year, and the
// average frequency per keyword category.
type Report struct {
	StockCode    string  `json:"stock_code"`
	CompanyName  string  `json:"company_name"`
	FirstYear    int     `json:"first_year"`
	LastYear     int     `json:"last_year"`
	YearsCovered int     `json:"years_covered"`
	MaxIndex     float64 `json:"max_index"`
	MaxYear      int     `json:"max_year"`
	AvgIndex     float64 `json:"avg_index"`
	LatestIndex  float64 `json:"latest_index"`
	LatestYear   int     `json:"latest_year"`

	// Trend is "up", "down" or "flat"; ChangePercent is the percentage
	// change of the index since the first available year, zero when the
	// first year's index is zero.
	Trend         string  `json:"trend"`
	ChangePercent float64 `json:"change_percent"`

	AvgFrequencies map[domain.KeywordCategory]float64 `json:"avg_frequencies"`

	Text string `json:"text"`
}

// GenerateReport builds the canonical textual report for one stock code.
func (s *Summarizer) GenerateReport(table *domain.ConsolidatedTable, code string) (*Report, error) {
	series, err := s.Series(table, code)
	if err != nil {
		return nil, err
	}
	records := series.Records

	report := &Report{
		StockCode:      code,
		CompanyName:    series.CompanyName,
		FirstYear:      records[0].Year,
		LastYear:       records[len(records)-1].Year,
		YearsCovered:   len(records),
		LatestIndex:    records[len(records)-1].TransformationIndex,
		LatestYear:     records[len(records)-1].Year,
		AvgFrequencies: make(map[domain.KeywordCategory]float64, len(domain.KeywordCategories)),
	}

	indices := make([]float64, len(records))
	for i, r := range records {
		indices[i] = r.TransformationIndex
		if i == 0 || r.TransformationIndex > report.MaxIndex {
			report.MaxIndex = r.TransformationIndex
			report.MaxYear = r.Year
		}
	}

	if mean, err := stats.Mean(indices); err == nil {
		report.AvgIndex, _ = stats.Round(mean, 2)
	}

	first, latest := indices[0], report.LatestIndex
	switch {
	case latest > first:
		report.Trend = "up"
	case latest < first:
		report.Trend = "down"
	default:
		report.Trend = "flat"
	}
	if first != 0 {
		change, _ := stats.Round((latest-first)/first*100, 2)
		report.ChangePercent = change
	}

	for _, c := range domain.KeywordCategories {
		values := make([]float64, len(records))
		for i, r := range records {
			values[i] = float64(r.Frequencies[c])
		}
		if mean, err := stats.Mean(values); err == nil {
			report.AvgFrequencies[c], _ = stats.Round(mean, 2)
		}
	}

	report.Text = s.renderReport(report)

	s.logger.Info("report generated",
		slog.String("stock_code", code),
		slog.Int("years_covered", report.YearsCovered))

	return report, nil
}

var categoryLabels = map[domain.KeywordCategory]string{
	domain.CategoryArtificialIntelligence: "artificial intelligence",
	domain.CategoryBigData:                "big data",
	domain.CategoryCloudComputing:         "cloud computing",
	domain.CategoryBlockchain:             "blockchain",
	domain.CategoryDigitalTechnology:      "digital technology usage",
}

var trendLabels = map[string]string{
	"up":   "rising",
	"down": "declining",
	"flat": "flat",
}

func (s *Summarizer) renderReport(r *Report) string {
	var b strings.Builder

	name := r.CompanyName
	if name == "" {
		name = r.StockCode
	}

	fmt.Fprintf(&b, "Digital Transformation Report: %s (%s)\n", name, r.StockCode)
	fmt.Fprintf(&b, "Data coverage: %d-%d (%d years)\n", r.FirstYear, r.LastYear, r.YearsCovered)
	fmt.Fprintf(&b, "Peak index: %.2f in %d\n", r.MaxIndex, r.MaxYear)
	fmt.Fprintf(&b, "Average index: %.2f\n", r.AvgIndex)
	fmt.Fprintf(&b, "Latest index: %.2f (%d)\n", r.LatestIndex, r.LatestYear)
	fmt.Fprintf(&b, "Trend since %d: %s (%+.2f%%)\n", r.FirstYear, trendLabels[r.Trend], r.ChangePercent)
	b.WriteString("Average keyword frequency per category:\n")
	for _, c := range domain.KeywordCategories {
		fmt.Fprintf(&b, "  - %s: %.2f\n", categoryLabels[c], r.AvgFrequencies[c])
	}

	return b.String()
}
