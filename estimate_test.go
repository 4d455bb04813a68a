package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var estimateNow = time.Date(2025, time.June, 14, 0, 0, 0, 0, time.UTC)

func TestRunEstimate_Print(t *testing.T) {
	var out bytes.Buffer
	opts := &estimateOptions{projectType: "Residential", category: "premium", carpetArea: 1000, client: "Asha Mehta"}
	if err := runEstimate(&out, opts, estimateNow); err != nil {
		t.Fatalf("runEstimate() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"S.No",
		"Contingency (5%)",
		"47,420.10",
		"Includes contingency of 47,420.10 (5% of 9,48,402.00)",
		"Grand Total:  ₹11,75,070.08",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRunEstimate_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts estimateOptions
		want string
	}{
		{"unknown type", estimateOptions{projectType: "warehouse", category: "standard", carpetArea: 100}, "unknown project type"},
		{"custom without rate", estimateOptions{projectType: "residential", category: "custom", carpetArea: 100}, "invalid category"},
		{"unsupported output", estimateOptions{projectType: "residential", category: "standard", carpetArea: 100, out: "boq.docx"}, "unsupported output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runEstimate(&bytes.Buffer{}, &tt.opts, estimateNow)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("runEstimate() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestRunEstimate_WritesDocuments(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		file   string
		prefix string
	}{
		{"boq.pdf", "%PDF-"},
		{"boq.XLSX", "PK"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			var out bytes.Buffer
			opts := &estimateOptions{projectType: "hospitality", category: "luxury", carpetArea: 5000, rooms: 20, reference: "BOQ-25-26-007", out: path}
			if err := runEstimate(&out, opts, estimateNow); err != nil {
				t.Fatalf("runEstimate() error = %v", err)
			}
			b, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read output: %v", err)
			}
			if !bytes.HasPrefix(b, []byte(tt.prefix)) {
				t.Errorf("%s does not start with %q", tt.file, tt.prefix)
			}
			if !strings.Contains(out.String(), "Wrote "+path) {
				t.Errorf("unexpected output %q", out.String())
			}
		})
	}
}
