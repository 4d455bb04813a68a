package services

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// watermarkDesc renders the mark large, diagonal and at 10% opacity,
// centered on the page.
const watermarkDesc = "fontname:Helvetica, points:48, rotation:45, opacity:0.1, scalefactor:0.5 rel, fillcolor:#B08D3C"

func init() {
	// pdfcpu would otherwise create a config dir under the user's home.
	api.DisableConfigDir()
}

// StampWatermark draws a semi-transparent text mark behind the content of
// every page of pdf.
func StampWatermark(pdf []byte, mark string) ([]byte, error) {
	if mark == "" {
		return pdf, nil
	}
	wm, err := api.TextWatermark(mark, watermarkDesc, false, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("build watermark: %w", err)
	}

	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(pdf), &out, nil, wm, model.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("stamp watermark: %w", err)
	}
	return out.Bytes(), nil
}
