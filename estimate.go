package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"boqwizard/services"
)

type estimateOptions struct {
	projectType string
	category    string
	customRate  float64
	carpetArea  float64
	rooms       int
	floors      int
	client      string
	project     string
	location    string
	reference   string
	out         string
}

// newEstimateCommand prices a project from flags and prints the BOQ or
// writes it as a PDF or Excel document, without starting the server.
func newEstimateCommand() *cobra.Command {
	opts := &estimateOptions{}
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Price a project and print or export its Bill of Quantities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEstimate(cmd.OutOrStdout(), opts, time.Now())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.projectType, "type", "residential", "project type: residential, commercial, industrial or hospitality")
	f.StringVar(&opts.category, "category", "standard", "pricing category: standard, premium, luxury or custom")
	f.Float64Var(&opts.customRate, "custom-rate", 0, "rate per sq.ft shown for custom costing")
	f.Float64Var(&opts.carpetArea, "carpet-area", 0, "carpet area in sq.ft")
	f.IntVar(&opts.rooms, "rooms", 0, "number of rooms (hospitality)")
	f.IntVar(&opts.floors, "floors", 0, "number of floors (commercial)")
	f.StringVar(&opts.client, "client", "", "client name")
	f.StringVar(&opts.project, "project", "", "project name")
	f.StringVar(&opts.location, "location", "", "project location")
	f.StringVar(&opts.reference, "ref", "", "reference number printed on the document")
	f.StringVarP(&opts.out, "out", "o", "", "write the BOQ to a .pdf or .xlsx file instead of printing it")
	_ = cmd.MarkFlagRequired("carpet-area")
	return cmd
}

func (o *estimateOptions) details() services.ProjectDetails {
	d := services.ProjectDetails{
		"projectType": o.projectType,
		"carpetArea":  o.carpetArea,
		"area":        o.carpetArea,
	}
	if o.client != "" {
		d["clientName"] = o.client
	}
	if o.project != "" {
		d["projectName"] = o.project
	}
	if o.location != "" {
		d["location"] = o.location
	}
	if o.rooms > 0 {
		d["numberOfRooms"] = o.rooms
	}
	if o.floors > 0 {
		d["numberOfFloors"] = o.floors
	}
	return d
}

func runEstimate(w io.Writer, o *estimateOptions, now time.Time) error {
	pt := services.ParseProjectType(o.projectType)
	if !pt.Known() {
		return fmt.Errorf("unknown project type %q", o.projectType)
	}
	sel := services.CategorySelection{Category: services.ParseCategory(o.category), CustomRate: o.customRate}
	if errs := services.ValidateCategory(sel); len(errs) > 0 {
		return fmt.Errorf("invalid category: %v", errs)
	}

	details := o.details()
	items, _ := services.Generate(pt, sel.Category, details)
	ledger := services.NewLedger(items)
	data := services.NewExportData(o.reference, pt, sel, details, ledger.Items(), now)

	if o.out == "" {
		return printEstimate(w, data)
	}

	var content []byte
	var err error
	switch strings.ToLower(filepath.Ext(o.out)) {
	case ".pdf":
		content, err = services.GeneratePDF(data)
	case ".xlsx":
		content, err = services.GenerateExcel(data)
	default:
		return fmt.Errorf("unsupported output %q: use .pdf or .xlsx", o.out)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(o.out, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", o.out, err)
	}
	fmt.Fprintf(w, "Wrote %s (%d items, grand total %s)\n", o.out, len(data.Items), services.FormatINR(data.Summary.GrandTotal))
	return nil
}

func printEstimate(w io.Writer, data services.ExportData) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "S.No\tDescription\tUnit\tQty\tRate\tAmount")
	for _, it := range data.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", it.ID, it.Description, it.Unit,
			services.FormatQuantity(it.Quantity), services.FormatGrouped(it.Rate), services.FormatGrouped(it.Amount))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := data.Summary
	fmt.Fprintf(w, "\nSubtotal:     %s\n", services.FormatINR(s.Subtotal))
	if s.ContingencyNote != "" {
		fmt.Fprintf(w, "              %s\n", s.ContingencyNote)
	}
	fmt.Fprintf(w, "GST (%.0f%%):    %s\n", services.GSTRate*100, services.FormatINR(s.Tax))
	fmt.Fprintf(w, "Grand Total:  %s\n", services.FormatINR(s.GrandTotal))
	return nil
}
