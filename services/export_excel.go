package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// excelHeaders are also the column names recognized by the ledger import.
var excelHeaders = []string{"S.No", "Description", "Specifications", "Materials", "Unit", "Qty", "Rate", "Amount"}

// Indian digit grouping, e.g. 10,00,000.00.
const indianNumFmt = "[>=10000000]##\\,##\\,##\\,##0.00;[>=100000]##\\,##\\,##0.00;##,##0.00"

// GenerateExcel creates an Excel file from the given ExportData and returns
// the file contents as a byte slice.
func GenerateExcel(data ExportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "BOQ"
	if data.ReferenceNumber != "" {
		sheetName = data.ReferenceNumber
	}
	if len(sheetName) > 31 {
		sheetName = sheetName[:31]
	}

	// Rename default sheet.
	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	// Column references (A through H).
	columns := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	lastCol := columns[len(columns)-1]

	widths := []float64{6, 40, 40, 32, 10, 10, 14, 16}
	for i, col := range columns {
		if err := f.SetColWidth(sheetName, col, col, widths[i]); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	// ── Styles ──────────────────────────────────────────────────────────

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
	})
	if err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}

	subtitleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 11},
	})
	if err != nil {
		return nil, fmt.Errorf("create subtitle style: %w", err)
	}

	// Column header style: bold on the sand accent used by the PDF.
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#F1D49B"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	itemStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 10},
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create item style: %w", err)
	}

	numFmt := indianNumFmt
	moneyStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Size: 10},
		Alignment:    &excelize.Alignment{Vertical: "top"},
		Border:       thinBorders(),
		CustomNumFmt: &numFmt,
	})
	if err != nil {
		return nil, fmt.Errorf("create money style: %w", err)
	}

	summaryLabelStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return nil, fmt.Errorf("create summary label style: %w", err)
	}

	summaryValueStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true, Size: 11},
		CustomNumFmt: &numFmt,
	})
	if err != nil {
		return nil, fmt.Errorf("create summary value style: %w", err)
	}

	// ── Header Rows ─────────────────────────────────────────────────────

	if err := f.MergeCell(sheetName, "A1", lastCol+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheetName, "A1", sanitizeExcelCell(data.Title))
	f.SetCellStyle(sheetName, "A1", lastCol+"1", titleStyle)

	if data.ReferenceNumber != "" {
		if err := f.MergeCell(sheetName, "A2", lastCol+"2"); err != nil {
			return nil, fmt.Errorf("merge ref: %w", err)
		}
		f.SetCellValue(sheetName, "A2", "Ref: "+data.ReferenceNumber)
		f.SetCellStyle(sheetName, "A2", lastCol+"2", subtitleStyle)
	}

	// Project information, two columns from row 3.
	left, right := data.InfoLines()
	row := 3
	for i := 0; i < len(left) || i < len(right); i++ {
		r := fmt.Sprintf("%d", row)
		if i < len(left) {
			f.SetCellValue(sheetName, "A"+r, sanitizeExcelCell(left[i]))
		}
		if i < len(right) {
			f.SetCellValue(sheetName, "D"+r, sanitizeExcelCell(right[i]))
		}
		f.SetCellStyle(sheetName, "A"+r, lastCol+r, subtitleStyle)
		row++
	}
	row++

	// ── Column Headers ──────────────────────────────────────────────────

	headerRow := fmt.Sprintf("%d", row)
	for i, h := range excelHeaders {
		f.SetCellValue(sheetName, columns[i]+headerRow, h)
	}
	f.SetCellStyle(sheetName, "A"+headerRow, lastCol+headerRow, headerStyle)
	row++

	// ── Data Rows ───────────────────────────────────────────────────────

	for _, it := range data.Items {
		rowStr := fmt.Sprintf("%d", row)

		f.SetCellValue(sheetName, "A"+rowStr, it.ID)
		f.SetCellValue(sheetName, "B"+rowStr, sanitizeExcelCell(it.Description))
		f.SetCellValue(sheetName, "C"+rowStr, sanitizeExcelCell(it.Specifications))
		f.SetCellValue(sheetName, "D"+rowStr, sanitizeExcelCell(it.Materials))
		f.SetCellValue(sheetName, "E"+rowStr, sanitizeExcelCell(it.Unit))
		f.SetCellValue(sheetName, "F"+rowStr, it.Quantity)
		f.SetCellValue(sheetName, "G"+rowStr, it.Rate)
		f.SetCellValue(sheetName, "H"+rowStr, it.Amount)

		f.SetCellStyle(sheetName, "A"+rowStr, "F"+rowStr, itemStyle)
		f.SetCellStyle(sheetName, "G"+rowStr, "H"+rowStr, moneyStyle)
		row++
	}

	// ── Summary Rows ────────────────────────────────────────────────────

	row++
	summary := []struct {
		label string
		value float64
	}{
		{"Subtotal:", data.Summary.Subtotal},
		{fmt.Sprintf("GST (%.0f%%):", GSTRate*100), data.Summary.Tax},
		{"Grand Total:", data.Summary.GrandTotal},
	}
	for _, s := range summary {
		r := fmt.Sprintf("%d", row)
		f.SetCellValue(sheetName, "G"+r, s.label)
		f.SetCellStyle(sheetName, "G"+r, "G"+r, summaryLabelStyle)
		f.SetCellValue(sheetName, "H"+r, s.value)
		f.SetCellStyle(sheetName, "H"+r, "H"+r, summaryValueStyle)
		row++
	}
	if data.Summary.ContingencyNote != "" {
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), data.Summary.ContingencyNote)
		row++
	}

	// ── Notes ───────────────────────────────────────────────────────────

	row++
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Notes")
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), summaryLabelStyle)
	row++
	for _, note := range DisclaimerNotes {
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), "• "+note)
		row++
	}

	// ── Write to buffer ─────────────────────────────────────────────────

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}

	return buf.Bytes(), nil
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote. Excel interprets cells starting with =, +, -,
// @, \t or \r as formulas, which can be abused for code execution or data theft.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns a slice of excelize.Border for thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1, // thin
		}
	}
	return borders
}
