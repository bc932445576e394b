package domain

import (
	"sort"
	"strconv"
	"strings"
)

// KeywordCategory identifies one tracked digital-technology keyword group.
type KeywordCategory string

const (
	CategoryArtificialIntelligence KeywordCategory = "artificial_intelligence"
	CategoryBigData                KeywordCategory = "big_data"
	CategoryCloudComputing         KeywordCategory = "cloud_computing"
	CategoryBlockchain             KeywordCategory = "blockchain"
	CategoryDigitalTechnology      KeywordCategory = "digital_technology_usage"
)

// KeywordCategories is the canonical category order used for tabular output.
var KeywordCategories = []KeywordCategory{
	CategoryArtificialIntelligence,
	CategoryBigData,
	CategoryCloudComputing,
	CategoryBlockchain,
	CategoryDigitalTechnology,
}

// StockCodeWidth is the canonical width of a zero-padded stock code.
const StockCodeWidth = 6

// Period identifies one reporting period: a numeric year, or the literal
// sheet tag when no year could be resolved. Records from distinct tag-only
// sheets form distinct periods; they are never merged into one group.
type Period struct {
	Year int    `json:"year,omitempty"`
	Tag  string `json:"tag,omitempty"`
}

// Label renders the period for display and export.
func (p Period) Label() string {
	if p.Tag != "" {
		return p.Tag
	}
	return strconv.Itoa(p.Year)
}

func (p Period) less(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Tag < other.Tag
}

// CompanyYearRecord is one row of the consolidated table: a single
// company's keyword-frequency counts and derived index for one year.
type CompanyYearRecord struct {
	StockCode   string                    `json:"stock_code"`
	CompanyName string                    `json:"company_name"`
	Year        int                       `json:"year"`
	YearTag     string                    `json:"year_tag,omitempty"` // literal sheet tag when no numeric year could be resolved
	Frequencies map[KeywordCategory]int64 `json:"frequencies"`

	// SourceIndex is an optional precomputed composite index carried from
	// the workbook. Only the global min-max policy reads it.
	SourceIndex    float64 `json:"source_index,omitempty"`
	HasSourceIndex bool    `json:"has_source_index,omitempty"`

	// TransformationIndex is the derived score in [0, 100], rounded to
	// two decimals. Always recomputed by the calculator, never trusted
	// from storage.
	TransformationIndex float64 `json:"transformation_index"`
}

// Period returns the record's reporting period. The loader sets exactly one
// of Year and YearTag.
func (r CompanyYearRecord) Period() Period {
	return Period{Year: r.Year, Tag: r.YearTag}
}

// FrequencyTotal returns the sum of all keyword-frequency counts.
func (r CompanyYearRecord) FrequencyTotal() int64 {
	var total int64
	for _, c := range KeywordCategories {
		total += r.Frequencies[c]
	}
	return total
}

// Clone returns a deep copy of the record, including the frequency map.
func (r CompanyYearRecord) Clone() CompanyYearRecord {
	out := r
	out.Frequencies = make(map[KeywordCategory]int64, len(r.Frequencies))
	for k, v := range r.Frequencies {
		out.Frequencies[k] = v
	}
	return out
}

// ConsolidatedTable holds every company-year record that survived schema
// filtering, plus the derived lookup indexes the presentation layer needs.
type ConsolidatedTable struct {
	Records []CompanyYearRecord `json:"records"`

	// Derived indexes, rebuilt by Reindex. Years holds the numeric years;
	// Periods additionally covers tag-only sheets.
	StockCodes   []string          `json:"stock_codes"`
	CompanyNames []string          `json:"company_names"`
	Years        []int             `json:"years"`
	Periods      []Period          `json:"periods"`
	NameByCode   map[string]string `json:"name_by_code"`
}

// Empty reports whether the table holds no records.
func (t *ConsolidatedTable) Empty() bool {
	return t == nil || len(t.Records) == 0
}

// Clone returns a deep copy of the table. The calculator uses this to keep
// its transform pure.
func (t *ConsolidatedTable) Clone() *ConsolidatedTable {
	if t == nil {
		return nil
	}
	out := &ConsolidatedTable{Records: make([]CompanyYearRecord, len(t.Records))}
	for i, r := range t.Records {
		out.Records[i] = r.Clone()
	}
	out.Reindex()
	return out
}

// Reindex rebuilds the sorted distinct stock codes, company names and years,
// and the stock-code to company-name lookup. For each code the company name
// of its first occurrence in table order wins.
func (t *ConsolidatedTable) Reindex() {
	codes := make(map[string]bool)
	names := make(map[string]bool)
	years := make(map[int]bool)
	periods := make(map[Period]bool)
	t.NameByCode = make(map[string]string)

	for _, r := range t.Records {
		codes[r.StockCode] = true
		if r.CompanyName != "" {
			names[r.CompanyName] = true
		}
		if r.Year != 0 {
			years[r.Year] = true
		}
		periods[r.Period()] = true
		if _, seen := t.NameByCode[r.StockCode]; !seen {
			t.NameByCode[r.StockCode] = r.CompanyName
		}
	}

	t.StockCodes = sortedStrings(codes)
	t.CompanyNames = sortedStrings(names)
	t.Years = t.Years[:0]
	for y := range years {
		t.Years = append(t.Years, y)
	}
	sort.Ints(t.Years)
	t.Periods = t.Periods[:0]
	for p := range periods {
		t.Periods = append(t.Periods, p)
	}
	sort.Slice(t.Periods, func(i, j int) bool { return t.Periods[i].less(t.Periods[j]) })
}

// RecordsByCode returns the records for one stock code ordered by period:
// numeric years ascending, tag-only periods by tag.
func (t *ConsolidatedTable) RecordsByCode(code string) []CompanyYearRecord {
	var out []CompanyYearRecord
	for _, r := range t.Records {
		if r.StockCode == code {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Period().less(out[j].Period()) })
	return out
}

// MatchCompanies returns the stock codes whose code or company name contains
// the query, case-insensitively. An empty query matches nothing.
func (t *ConsolidatedTable) MatchCompanies(query string) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	var out []string
	for _, code := range t.StockCodes {
		if strings.Contains(strings.ToLower(code), query) ||
			strings.Contains(strings.ToLower(t.NameByCode[code]), query) {
			out = append(out, code)
		}
	}
	return out
}

func sortedStrings(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
