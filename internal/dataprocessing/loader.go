package dataprocessing

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"dtxcli/pkg/contracts/domain"
)

// SheetPolicy selects which workbook sheets the loader consolidates.
type SheetPolicy string

const (
	// SheetPolicyYearOnly keeps only sheets whose name is composed entirely
	// of digits and interprets the name as the year.
	SheetPolicyYearOnly SheetPolicy = "year-sheets"
	// SheetPolicyAll keeps every sheet and recovers the year from the sheet
	// name, a year column, or falls back to the sheet name as a literal tag.
	SheetPolicyAll SheetPolicy = "all-sheets"
)

// Column keys used by the alias resolver.
const (
	colCode        = "code"
	colName        = "name"
	colYear        = "year"
	colSourceIndex = "source_index"
)

// columnAliases maps a column key to its accepted header spellings, in
// priority order. The source workbooks drifted between Chinese and English
// headers across revisions, so both vocabularies are resolved.
var columnAliases = []struct {
	key     string
	aliases []string
}{
	{colCode, []string{"股票代码", "证券代码", "stock code", "stockcode", "symbol"}},
	{colName, []string{"企业名称", "公司名称", "证券简称", "company name", "company"}},
	{colYear, []string{"年份", "年度", "year"}},
	{string(domain.CategoryArtificialIntelligence), []string{"人工智能", "artificial intelligence", "ai"}},
	{string(domain.CategoryBigData), []string{"大数据", "big data", "bigdata"}},
	{string(domain.CategoryCloudComputing), []string{"云计算", "cloud computing", "cloud"}},
	{string(domain.CategoryBlockchain), []string{"区块链", "blockchain"}},
	{string(domain.CategoryDigitalTechnology), []string{"数字技术应用", "数字技术运用", "digital technology usage", "digital technology"}},
	{colSourceIndex, []string{"数字化转型综合指数", "数字化转型指数", "composite index", "transformation index"}},
}

// maxHeaderScanRows bounds how deep the loader searches for a header row.
const maxHeaderScanRows = 10

// SheetWarning records a non-fatal problem with one sheet.
type SheetWarning struct {
	Sheet  string `json:"sheet"`
	Reason string `json:"reason"`
}

// LoadResult is the outcome of consolidating one workbook. A workbook that
// yields no usable rows is not an error: the table is empty and EmptyCause
// names why, so the presentation layer can show a friendly message.
type LoadResult struct {
	Table      *domain.ConsolidatedTable `json:"table"`
	Warnings   []SheetWarning            `json:"warnings,omitempty"`
	EmptyCause string                    `json:"empty_cause,omitempty"`
}

// Empty reports whether no rows survived consolidation.
func (r *LoadResult) Empty() bool {
	return r == nil || r.Table.Empty()
}

// Loader consolidates multi-sheet keyword-frequency workbooks into one table.
type Loader struct {
	logger *slog.Logger
	policy SheetPolicy
}

// NewLoader creates a loader with the given sheet-selection policy.
func NewLoader(logger *slog.Logger, policy SheetPolicy) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == "" {
		policy = SheetPolicyYearOnly
	}
	return &Loader{
		logger: logger.With(slog.String("component", "loader")),
		policy: policy,
	}
}

// LoadFile opens a workbook from disk and consolidates it.
func (l *Loader) LoadFile(path string) (*LoadResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()
	return l.Consolidate(f), nil
}

// Consolidate reads every selected sheet of the workbook, normalizes each
// sheet's schema and concatenates the surviving rows into one table.
func (l *Loader) Consolidate(f *excelize.File) *LoadResult {
	result := &LoadResult{Table: &domain.ConsolidatedTable{}}

	var selected int
	for _, sheet := range f.GetSheetList() {
		year, tag, ok := l.resolveSheetYear(sheet)
		if !ok {
			l.logger.Debug("sheet not selected", slog.String("sheet", sheet))
			continue
		}
		selected++

		rows, err := f.GetRows(sheet)
		if err != nil {
			l.warn(result, sheet, fmt.Sprintf("unreadable sheet: %v", err))
			continue
		}

		records, warn := l.consolidateSheet(sheet, rows, year, tag)
		if warn != "" {
			l.warn(result, sheet, warn)
			continue
		}
		if len(records) == 0 {
			// The sheet passed selection and the header gate but every row
			// was dropped during normalization; surface that, per the
			// partial-sheet-failure contract.
			l.warn(result, sheet, "no usable rows after normalization")
			continue
		}
		result.Table.Records = append(result.Table.Records, records...)

		l.logger.Info("sheet consolidated",
			slog.String("sheet", sheet),
			slog.Int("year", year),
			slog.Int("rows", len(records)))
	}

	if selected == 0 {
		result.EmptyCause = "no sheets matched the selection policy"
		return result
	}
	if len(result.Table.Records) == 0 {
		result.EmptyCause = "no rows survived consolidation"
		return result
	}

	result.Table.Reindex()
	return result
}

// resolveSheetYear decides whether a sheet is selected and which year it
// carries. A digit-only sheet name always resolves to that year. Under the
// all-sheets policy a non-digit name is still selected: the year may come
// from a year column per row, otherwise the name becomes a literal tag.
func (l *Loader) resolveSheetYear(sheet string) (year int, tag string, ok bool) {
	name := strings.TrimSpace(sheet)
	if isDigits(name) {
		y, err := strconv.Atoi(name)
		if err == nil {
			return y, "", true
		}
	}
	if l.policy == SheetPolicyAll {
		return 0, name, true
	}
	return 0, "", false
}

// consolidateSheet turns one sheet's rows into records. It returns a warning
// reason instead of records when the sheet lacks both identifying columns.
func (l *Loader) consolidateSheet(sheet string, rows [][]string, year int, tag string) ([]domain.CompanyYearRecord, string) {
	headerRow, columns := findHeader(rows)
	if headerRow < 0 {
		return nil, "no header row with identifying columns (stock code, company name)"
	}

	_, hasCode := columns[colCode]
	_, hasName := columns[colName]
	if !hasCode && !hasName {
		return nil, "sheet lacks both stock code and company name columns"
	}

	var records []domain.CompanyYearRecord
	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]

		cell := func(key string) string {
			if idx, exists := columns[key]; exists && idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}
		count := func(key string) int64 {
			return parseCount(cell(key))
		}

		record := domain.CompanyYearRecord{
			StockCode:   NormalizeStockCode(cell(colCode)),
			CompanyName: cell(colName),
			Year:        year,
			YearTag:     tag,
			Frequencies: make(map[domain.KeywordCategory]int64, len(domain.KeywordCategories)),
		}
		for _, c := range domain.KeywordCategories {
			record.Frequencies[c] = count(string(c))
		}
		if raw := cell(colSourceIndex); raw != "" {
			if v, err := strconv.ParseFloat(stripThousands(raw), 64); err == nil {
				record.SourceIndex = v
				record.HasSourceIndex = true
			}
		}

		// Per-row year column overrides a missing sheet year.
		if record.Year == 0 {
			if y, err := strconv.Atoi(cell(colYear)); err == nil && y > 0 {
				record.Year = y
				record.YearTag = ""
			}
		}

		if emptyRecord(record) {
			continue
		}
		if record.StockCode == "" {
			// Identity is keyed on the stock code; a row that lost its
			// code cannot be grouped across years.
			l.logger.Debug("row dropped: no stock code",
				slog.String("sheet", sheet),
				slog.Int("row", i),
				slog.String("company", record.CompanyName))
			continue
		}

		records = append(records, record)
	}

	return records, ""
}

func (l *Loader) warn(result *LoadResult, sheet, reason string) {
	l.logger.Warn("sheet dropped",
		slog.String("sheet", sheet),
		slog.String("reason", reason))
	result.Warnings = append(result.Warnings, SheetWarning{Sheet: sheet, Reason: reason})
}

// findHeader scans the first rows of a sheet for the header row and maps
// column positions by alias. The first row that resolves an identifying
// column wins.
func findHeader(rows [][]string) (int, map[string]int) {
	limit := len(rows)
	if limit > maxHeaderScanRows {
		limit = maxHeaderScanRows
	}

	for i := 0; i < limit; i++ {
		columns := mapColumns(rows[i])
		if _, ok := columns[colCode]; ok {
			return i, columns
		}
		if _, ok := columns[colName]; ok {
			return i, columns
		}
	}
	return -1, nil
}

// mapColumns resolves header cells to column keys. Aliases are tried in
// priority order and the first matching header for a key wins, so a sheet
// carrying both 股票代码 and a stray "code" note keeps the canonical column.
func mapColumns(header []string) map[string]int {
	columns := make(map[string]int)
	for _, entry := range columnAliases {
		for _, alias := range entry.aliases {
			idx, found := findColumn(header, alias)
			if found {
				columns[entry.key] = idx
				break
			}
		}
	}
	return columns
}

func findColumn(header []string, alias string) (int, bool) {
	// Short aliases like "ai" only match a header cell exactly; longer ones
	// tolerate decorated headers ("stock code (6-digit)").
	exactOnly := len(alias) < 4
	for j, cell := range header {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		if normalized == "" {
			continue
		}
		if normalized == alias {
			return j, true
		}
		if !exactOnly && strings.Contains(normalized, alias) {
			return j, true
		}
	}
	return 0, false
}

// NormalizeStockCode renders a raw stock-code cell in canonical form:
// numeric-coercion artifacts like a trailing ".0" are stripped and the code
// is left-padded with zeros to six characters so leading zeros survive.
func NormalizeStockCode(raw string) string {
	code := strings.TrimSpace(raw)
	if code == "" {
		return ""
	}
	if dot := strings.Index(code, "."); dot >= 0 && isDigits(code[:dot]) {
		frac := code[dot+1:]
		if frac == "" || strings.Trim(frac, "0") == "" {
			code = code[:dot]
		}
	}
	if len(code) < domain.StockCodeWidth {
		code = strings.Repeat("0", domain.StockCodeWidth-len(code)) + code
	}
	return code
}

// parseCount parses a keyword-frequency cell. Missing or malformed cells
// default to 0; fractional artifacts from numeric coercion are truncated.
func parseCount(raw string) int64 {
	raw = stripThousands(strings.TrimSpace(raw))
	if raw == "" {
		return 0
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if v < 0 {
			return 0
		}
		return v
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
		return int64(v)
	}
	return 0
}

func stripThousands(s string) string {
	return strings.ReplaceAll(s, ",", "")
}

// emptyRecord reports whether a record is entirely empty/default after
// normalization and should be dropped.
func emptyRecord(r domain.CompanyYearRecord) bool {
	if r.StockCode != "" || r.CompanyName != "" {
		return false
	}
	if r.HasSourceIndex {
		return false
	}
	return r.FrequencyTotal() == 0
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
