package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dtxcli/pkg/contracts/domain"
)

func scoredRecord(code, name string, year int, index float64, ai int64) domain.CompanyYearRecord {
	return domain.CompanyYearRecord{
		StockCode:           code,
		CompanyName:         name,
		Year:                year,
		Frequencies:         map[domain.KeywordCategory]int64{domain.CategoryArtificialIntelligence: ai},
		TransformationIndex: index,
	}
}

func scoredTable(records ...domain.CompanyYearRecord) *domain.ConsolidatedTable {
	table := &domain.ConsolidatedTable{Records: records}
	table.Reindex()
	return table
}

func TestSeries_OrderedByYear(t *testing.T) {
	table := scoredTable(
		scoredRecord("000001", "Alpha Corp", 2022, 80, 8),
		scoredRecord("000001", "Alpha Corp", 2020, 40, 4),
		scoredRecord("000002", "Beta Ltd", 2020, 10, 1),
	)

	series, err := NewSummarizer(nil).Series(table, "000001")
	require.NoError(t, err)

	assert.Equal(t, "Alpha Corp", series.CompanyName)
	require.Len(t, series.Points, 2)
	assert.Equal(t, YearPoint{Year: 2020, Index: 40}, series.Points[0])
	assert.Equal(t, YearPoint{Year: 2022, Index: 80}, series.Points[1])
}

func TestSeries_UnknownCode(t *testing.T) {
	table := scoredTable(scoredRecord("000001", "Alpha Corp", 2020, 40, 4))

	_, err := NewSummarizer(nil).Series(table, "999999")
	assert.ErrorIs(t, err, ErrCompanyNotFound)
}

func TestYearlyAverages(t *testing.T) {
	table := scoredTable(
		scoredRecord("000001", "Alpha Corp", 2020, 100, 10),
		scoredRecord("000002", "Beta Ltd", 2020, 0, 0),
		scoredRecord("000001", "Alpha Corp", 2021, 100, 5),
		scoredRecord("000002", "Beta Ltd", 2021, 5, 1),
	)

	points := NewSummarizer(nil).YearlyAverages(table)
	require.Len(t, points, 2)
	assert.Equal(t, YearPoint{Year: 2020, Index: 50}, points[0])
	assert.Equal(t, YearPoint{Year: 2021, Index: 52.5}, points[1])
}

func TestYearlyAverages_TagPeriodsStaySeparate(t *testing.T) {
	first := scoredRecord("000001", "Alpha Corp", 0, 100, 10)
	first.YearTag = "first-half"
	second := scoredRecord("000002", "Beta Ltd", 0, 40, 4)
	second.YearTag = "second-half"
	table := scoredTable(first, second)

	points := NewSummarizer(nil).YearlyAverages(table)

	require.Len(t, points, 2)
	assert.Equal(t, YearPoint{Tag: "first-half", Index: 100}, points[0])
	assert.Equal(t, YearPoint{Tag: "second-half", Index: 40}, points[1])
	assert.Equal(t, "first-half", points[0].Label())
}

func TestYearlyAverages_EmptyTable(t *testing.T) {
	assert.Nil(t, NewSummarizer(nil).YearlyAverages(&domain.ConsolidatedTable{}))
}

func TestGenerateReport(t *testing.T) {
	table := scoredTable(
		scoredRecord("000001", "Alpha Corp", 2020, 40, 4),
		scoredRecord("000001", "Alpha Corp", 2021, 90, 9),
		scoredRecord("000001", "Alpha Corp", 2022, 60, 6),
	)

	report, err := NewSummarizer(nil).GenerateReport(table, "000001")
	require.NoError(t, err)

	assert.Equal(t, 2020, report.FirstYear)
	assert.Equal(t, 2022, report.LastYear)
	assert.Equal(t, 3, report.YearsCovered)
	assert.Equal(t, 90.0, report.MaxIndex)
	assert.Equal(t, 2021, report.MaxYear)
	assert.InDelta(t, 63.33, report.AvgIndex, 0.01)
	assert.Equal(t, 60.0, report.LatestIndex)
	assert.Equal(t, 2022, report.LatestYear)
	assert.Equal(t, "up", report.Trend)
	assert.Equal(t, 50.0, report.ChangePercent, "(60-40)/40 = +50%")
	assert.InDelta(t, 6.33, report.AvgFrequencies[domain.CategoryArtificialIntelligence], 0.01)

	assert.Contains(t, report.Text, "Alpha Corp (000001)")
	assert.Contains(t, report.Text, "Data coverage: 2020-2022 (3 years)")
	assert.Contains(t, report.Text, "Peak index: 90.00 in 2021")
	assert.Contains(t, report.Text, "Trend since 2020: rising (+50.00%)")
	assert.Contains(t, report.Text, "artificial intelligence: 6.33")
}

func TestGenerateReport_ZeroFirstYear(t *testing.T) {
	table := scoredTable(
		scoredRecord("000001", "Alpha Corp", 2020, 0, 0),
		scoredRecord("000001", "Alpha Corp", 2021, 30, 3),
	)

	report, err := NewSummarizer(nil).GenerateReport(table, "000001")
	require.NoError(t, err)

	// Percentage change is undefined against a zero baseline.
	assert.Equal(t, "up", report.Trend)
	assert.Equal(t, 0.0, report.ChangePercent)
}

func TestGenerateReport_SingleYearIsFlat(t *testing.T) {
	table := scoredTable(scoredRecord("000001", "Alpha Corp", 2020, 70, 7))

	report, err := NewSummarizer(nil).GenerateReport(table, "000001")
	require.NoError(t, err)

	assert.Equal(t, "flat", report.Trend)
	assert.Equal(t, 70.0, report.LatestIndex)
	assert.Equal(t, report.FirstYear, report.LastYear)
}
