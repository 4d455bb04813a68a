package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned for uploads that are neither .csv nor .xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file format: must be .csv or .xlsx")

	// ErrNoHeaderRow is returned when no row names at least a description and
	// a quantity, rate or amount column.
	ErrNoHeaderRow = errors.New("no BOQ header row found")

	// ErrNoItems is returned when the sheet holds no importable line items.
	ErrNoItems = errors.New("file contains no valid line items")
)

// ValidationError represents a single field-level error on one row.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ImportResult is returned after parsing an uploaded BOQ sheet.
type ImportResult struct {
	TotalRows int               `json:"total_rows"`
	ValidRows int               `json:"valid_rows"`
	ErrorRows int               `json:"error_rows"`
	Errors    []ValidationError `json:"errors"`
	Items     []LineItem        `json:"-"`
	FileName  string            `json:"-"`
}

// importColumn is the LineItem field a sheet column maps to.
type importColumn string

const (
	colID             importColumn = "id"
	colDescription    importColumn = "description"
	colSpecifications importColumn = "specifications"
	colMaterials      importColumn = "materials"
	colUnit           importColumn = "unit"
	colQuantity       importColumn = "quantity"
	colRate           importColumn = "rate"
	colAmount         importColumn = "amount"
)

var headerAliases = map[string]importColumn{
	"#":              colID,
	"s.no":           colID,
	"s.no.":          colID,
	"sno":            colID,
	"sr.no":          colID,
	"id":             colID,
	"description":    colDescription,
	"item":           colDescription,
	"specifications": colSpecifications,
	"specification":  colSpecifications,
	"materials":      colMaterials,
	"material":       colMaterials,
	"unit":           colUnit,
	"uom":            colUnit,
	"qty":            colQuantity,
	"quantity":       colQuantity,
	"rate":           colRate,
	"amount":         colAmount,
}

// ImportLedgerFile parses a CSV or XLSX BOQ sheet into line items, in file
// order with ids renumbered 1..n. The header row may be preceded by title
// rows, as in the sheets produced by GenerateExcel; data ends at the first
// blank row after the header.
func ImportLedgerFile(r io.Reader, fileName string) (*ImportResult, error) {
	var rows [][]string
	var err error

	lowerName := strings.ToLower(fileName)
	switch {
	case strings.HasSuffix(lowerName, ".csv"):
		rows, err = parseCSV(r)
	case strings.HasSuffix(lowerName, ".xlsx"):
		rows, err = parseExcel(r)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	headerIdx, columns := findHeaderRow(rows)
	if headerIdx < 0 {
		return nil, ErrNoHeaderRow
	}

	result := &ImportResult{FileName: fileName}
	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			break
		}
		result.TotalRows++
		rowNum := i + 1

		item, rowErrors := parseImportRow(rowNum, row, columns)
		if len(rowErrors) > 0 {
			result.Errors = append(result.Errors, rowErrors...)
			result.ErrorRows++
			continue
		}
		item.ID = len(result.Items) + 1
		result.Items = append(result.Items, item)
	}
	result.ValidRows = len(result.Items)

	if len(result.Items) == 0 {
		return result, ErrNoItems
	}
	return result, nil
}

// parseCSV reads a CSV file and returns all rows.
func parseCSV(file io.Reader) ([][]string, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(allRows) < 2 {
		return nil, fmt.Errorf("file must contain a header row and at least one data row")
	}
	return allRows, nil
}

// parseExcel reads an xlsx file and returns all rows of the first sheet.
func parseExcel(file io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	// Raw values: the money columns carry a display format.
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("file must contain a header row and at least one data row")
	}
	return rows, nil
}

// findHeaderRow returns the index of the first row that maps a description
// column plus at least one numeric column, and the per-column mapping.
func findHeaderRow(rows [][]string) (int, []importColumn) {
	for i, row := range rows {
		columns := mapHeadersToColumns(row)
		seen := make(map[importColumn]bool, len(columns))
		for _, c := range columns {
			seen[c] = true
		}
		if seen[colDescription] && (seen[colQuantity] || seen[colRate] || seen[colAmount]) {
			return i, columns
		}
	}
	return -1, nil
}

// mapHeadersToColumns maps column headers to line item fields. Unrecognized
// columns map to "".
func mapHeadersToColumns(headers []string) []importColumn {
	mapped := make([]importColumn, len(headers))
	for i, h := range headers {
		norm := strings.ToLower(strings.TrimSpace(h))
		norm = strings.TrimSuffix(norm, " *")
		norm = strings.TrimSpace(strings.Trim(norm, "()"))
		if c, ok := headerAliases[norm]; ok {
			mapped[i] = c
		}
	}
	return mapped
}

func parseImportRow(rowNum int, row []string, columns []importColumn) (LineItem, []ValidationError) {
	values := make(map[importColumn]string, len(columns))
	for i, c := range columns {
		if c == "" || i >= len(row) {
			continue
		}
		values[c] = cleanImportCell(row[i])
	}

	var errs []ValidationError
	item := LineItem{
		Description:    values[colDescription],
		Specifications: values[colSpecifications],
		Materials:      values[colMaterials],
		Unit:           values[colUnit],
	}
	if item.Description == "" {
		errs = append(errs, ValidationError{Row: rowNum, Field: "Description", Message: "Description is required"})
	}

	number := func(c importColumn, label string) (float64, bool) {
		s := values[c]
		if s == "" {
			return 0, false
		}
		v, ok := parseLeadingFloat(s)
		if !ok || v < 0 {
			errs = append(errs, ValidationError{Row: rowNum, Field: label, Message: fmt.Sprintf("%s must be a non-negative number", label)})
			return 0, false
		}
		return v, true
	}
	qty, hasQty := number(colQuantity, "Qty")
	rate, hasRate := number(colRate, "Rate")
	amount, hasAmount := number(colAmount, "Amount")

	switch {
	case hasQty || hasRate:
		item.Quantity = qty
		item.Rate = rate
	case hasAmount:
		// Lump sum rows often carry only an amount.
		item.Quantity = 1
		item.Rate = amount
	}
	item.Amount = CalcAmount(item.Quantity, item.Rate)
	return item, errs
}

// cleanImportCell trims the cell and drops the quote prefix added by
// sanitizeExcelCell on export.
func cleanImportCell(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 1 && s[0] == '\'' && strings.ContainsRune("=+-@|", rune(s[1])) {
		s = s[1:]
	}
	return s
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
