package services

import (
	"fmt"
	"strconv"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/page"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// BrandName appears in the header band and as the page watermark.
const BrandName = "CHOICEDGE"

const gridSize = 20

var (
	accentColor = &props.Color{Red: 241, Green: 212, Blue: 155}
	mutedColor  = &props.Color{Red: 110, Green: 110, Blue: 110}
	ruleColor   = &props.Color{Red: 150, Green: 150, Blue: 150}
)

// Line-item table columns on a 20-unit grid.
var tableColumns = []struct {
	title string
	size  int
	align align.Type
}{
	{"S.No", 1, align.Center},
	{"Description", 4, align.Left},
	{"Specifications", 4, align.Left},
	{"Materials", 3, align.Left},
	{"Unit", 2, align.Center},
	{"Qty", 2, align.Right},
	{"Rate", 2, align.Right},
	{"Amount", 2, align.Right},
}

// GeneratePDF creates the BOQ document using maroto/v2 and stamps the brand
// watermark on every page. It returns the raw PDF bytes or an error.
func GeneratePDF(data ExportData) ([]byte, error) {
	raw, err := renderPDF(data)
	if err != nil {
		return nil, err
	}
	return StampWatermark(raw, BrandName)
}

// renderPDF lays out the document without the watermark.
func renderPDF(data ExportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithMaxGridSize(gridSize).
		WithLeftMargin(15).
		WithTopMargin(10).
		WithRightMargin(15).
		WithBottomMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   mutedColor,
		}).
		Build()

	m := maroto.New(cfg)

	if err := m.RegisterHeader(headerRows(data)...); err != nil {
		return nil, fmt.Errorf("failed to register header: %w", err)
	}
	if err := m.RegisterFooter(footerRows(data)...); err != nil {
		return nil, fmt.Errorf("failed to register footer: %w", err)
	}

	addTitle(m, data)
	addProjectInfo(m, data)
	addTableHeader(m)
	for _, it := range data.Items {
		addTableRow(m, it)
	}
	addKeptTogether(m, summaryRows(data.Summary))
	addKeptTogether(m, notesRows())

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

// headerRows is the band repeated at the top of every page.
func headerRows(data ExportData) []core.Row {
	ref := ""
	if data.ReferenceNumber != "" {
		ref = "Ref: " + data.ReferenceNumber
	}
	return []core.Row{
		row.New(12).Add(
			col.New(10).Add(
				text.New(BrandName, props.Text{
					Size:  14,
					Style: fontstyle.Bold,
					Align: align.Left,
					Top:   3,
					Left:  2,
				}),
			),
			col.New(10).Add(
				text.New(ref, props.Text{
					Size:  8,
					Align: align.Right,
					Top:   4.5,
					Right: 2,
				}),
			),
		).WithStyle(&props.Cell{BackgroundColor: accentColor}),
		row.New(4),
	}
}

// footerRows is the band repeated at the bottom of every page. Page numbers
// are drawn by the page-number pattern in the config.
func footerRows(data ExportData) []core.Row {
	return []core.Row{
		row.New(6).Add(
			col.New(gridSize).Add(
				text.New(fmt.Sprintf("%s | Generated on %s", data.Title, data.CreatedDate), props.Text{
					Size:  7,
					Align: align.Left,
					Color: mutedColor,
				}),
			),
		),
	}
}

func addTitle(m core.Maroto, data ExportData) {
	m.AddRows(
		row.New(10).Add(
			col.New(gridSize).Add(
				text.New(data.Title, props.Text{
					Size:  18,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
	)
}

// addProjectInfo adds the two-column project information block.
func addProjectInfo(m core.Maroto, data ExportData) {
	heading := props.Text{Size: 12, Style: fontstyle.Bold, Align: align.Left}
	m.AddRows(
		row.New(7).Add(
			col.New(10).Add(text.New("Project Information", heading)),
			col.New(10).Add(text.New("Project Details", heading)),
		),
	)

	left, right := data.InfoLines()
	n := len(left)
	if len(right) > n {
		n = len(right)
	}
	body := props.Text{Size: 10, Align: align.Left}
	for i := 0; i < n; i++ {
		var l, r string
		if i < len(left) {
			l = left[i]
		}
		if i < len(right) {
			r = right[i]
		}
		m.AddRows(
			row.New(5).Add(
				col.New(10).Add(text.New(l, body)),
				col.New(10).Add(text.New(r, body)),
			),
		)
	}
	m.AddRows(row.New(5))
}

// addTableHeader adds the column header row for the BOQ table.
func addTableHeader(m core.Maroto) {
	headerCell := props.Cell{BackgroundColor: accentColor}
	cols := make([]core.Col, 0, len(tableColumns))
	for _, c := range tableColumns {
		cols = append(cols, col.New(c.size).Add(
			text.New(c.title, props.Text{
				Size:  8,
				Style: fontstyle.Bold,
				Align: c.align,
				Top:   1.5,
				Left:  1,
				Right: 1,
			}),
		).WithStyle(&headerCell))
	}
	m.AddRows(row.New(7).Add(cols...))
}

// addTableRow adds one line item. The row grows to fit wrapped text.
func addTableRow(m core.Maroto, it LineItem) {
	values := []string{
		strconv.Itoa(it.ID),
		it.Description,
		it.Specifications,
		it.Materials,
		it.Unit,
		FormatQuantity(it.Quantity),
		FormatGrouped(it.Rate),
		FormatGrouped(it.Amount),
	}

	var cellStyle *props.Cell
	if it.IsContingency() {
		cellStyle = &props.Cell{BackgroundColor: &props.Color{Red: 248, Green: 244, Blue: 234}}
	}

	cols := make([]core.Col, 0, len(values))
	for i, v := range values {
		c := col.New(tableColumns[i].size).Add(
			text.New(v, props.Text{
				Size:  8,
				Align: tableColumns[i].align,
				Top:   1.5,
				Left:  1,
				Right: 1,
			}),
		)
		if cellStyle != nil {
			c = c.WithStyle(cellStyle)
		}
		cols = append(cols, c)
	}
	m.AddRows(row.New().Add(cols...))
}

// keptBlock is a group of fixed-height rows that must not be split.
type keptBlock struct {
	rows   []core.Row
	height float64
}

func (b *keptBlock) add(height float64, cols ...core.Col) {
	b.rows = append(b.rows, row.New(height).Add(cols...))
	b.height += height
}

// addKeptTogether adds the block on the current page when it fits,
// otherwise on a fresh page.
func addKeptTogether(m core.Maroto, b keptBlock) {
	if m.FitlnCurrentPage(b.height) {
		m.AddRows(b.rows...)
		return
	}
	m.AddPages(page.New().Add(b.rows...))
}

// summaryRows builds the cost summary: subtotal, GST, a rule, grand total.
func summaryRows(s CostSummary) keptBlock {
	var b keptBlock
	heading := props.Text{Size: 12, Style: fontstyle.Bold, Align: align.Left}
	label := props.Text{Size: 10, Align: align.Left}
	value := props.Text{Size: 10, Align: align.Right}

	b.add(6)
	b.add(7, col.New(gridSize).Add(text.New("Cost Summary", heading)))
	b.add(5,
		col.New(14).Add(text.New("Subtotal:", label)),
		col.New(6).Add(text.New(FormatGrouped(s.Subtotal), value)),
	)
	if s.ContingencyNote != "" {
		b.add(5, col.New(gridSize).Add(text.New(s.ContingencyNote, props.Text{
			Size:  8,
			Align: align.Left,
			Color: mutedColor,
		})))
	}
	b.add(5,
		col.New(14).Add(text.New(fmt.Sprintf("GST (%.0f%%):", GSTRate*100), label)),
		col.New(6).Add(text.New(FormatGrouped(s.Tax), value)),
	)
	b.add(3, col.New(gridSize).Add(line.New(props.Line{Color: ruleColor, Thickness: 0.3})))

	label.Style = fontstyle.Bold
	value.Style = fontstyle.Bold
	b.add(6,
		col.New(14).Add(text.New("Grand Total:", label)),
		col.New(6).Add(text.New(FormatGrouped(s.GrandTotal), value)),
	)
	return b
}

func notesRows() keptBlock {
	var b keptBlock
	b.add(6)
	b.add(7, col.New(gridSize).Add(text.New("Notes", props.Text{
		Size:  12,
		Style: fontstyle.Bold,
		Align: align.Left,
	})))
	for _, note := range DisclaimerNotes {
		b.add(5, col.New(gridSize).Add(text.New("• "+note, props.Text{
			Size:  9,
			Align: align.Left,
			Left:  5,
		})))
	}
	return b
}
