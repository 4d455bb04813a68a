package services

import (
	"regexp"
	"strings"
	"time"
)

// DisclaimerNotes are printed under the cost summary of every exported BOQ.
var DisclaimerNotes = []string{
	"This BOQ is an estimate based on the provided information.",
	"Actual costs may vary based on site conditions and material availability.",
	"Taxes and permits are included in the final cost.",
	"The rates are based on current market prices and may be subject to change.",
	"Detailed specifications and materials are subject to client approval.",
}

// ExportData holds all data needed for export.
type ExportData struct {
	Title           string
	ReferenceNumber string
	CreatedDate     string
	ProjectType     ProjectType
	Category        CategorySelection
	Details         ProjectDetails
	Items           []LineItem
	Summary         CostSummary
}

// NewExportData assembles export data for a ledger's committed items.
func NewExportData(ref string, pt ProjectType, sel CategorySelection, d ProjectDetails, items []LineItem, generated time.Time) ExportData {
	if generated.IsZero() {
		generated = time.Now()
	}
	return ExportData{
		Title:           "Bill of Quantities",
		ReferenceNumber: ref,
		CreatedDate:     generated.Format("02 Jan 2006"),
		ProjectType:     pt,
		Category:        sel,
		Details:         d,
		Items:           append([]LineItem(nil), items...),
		Summary:         Summarize(items),
	}
}

// InfoLines returns the two columns of the project information block.
func (d ExportData) InfoLines() (left, right []string) {
	left = []string{
		"Client Name: " + orNA(d.Details.Text("clientName")),
		"Project Name: " + orNA(d.Details.Text("projectName")),
		"Location: " + orNA(d.Details.Text("location")),
		"Date: " + d.CreatedDate,
	}

	category := d.Category.Category.Label()
	if d.Category.Category == CategoryCustom && d.Category.CustomRate > 0 {
		category += " (" + FormatGrouped(d.Category.CustomRate) + " per sq.ft)"
	}
	area := "N/A"
	if a := d.Details.CarpetArea(); a > 0 {
		area = FormatQuantity(a) + " sq.ft"
	}
	right = []string{
		"Project Type: " + orNA(d.ProjectType.Label()),
		"Category: " + category,
		"Total Carpet Area: " + area,
	}
	if d.ProjectType == ProjectHospitality {
		right = append(right, "Number of Rooms: "+orNA(d.Details.Text("numberOfRooms")))
	}
	return left, right
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Filename returns the download name, e.g. "BOQ_Acme_Homes.pdf".
func (d ExportData) Filename(ext string) string {
	name := strings.Trim(unsafeFilenameChars.ReplaceAllString(d.Details.Text("clientName"), "_"), "_")
	if name == "" {
		name = "Details"
	}
	return "BOQ_" + name + ext
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
