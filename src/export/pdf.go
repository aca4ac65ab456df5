// Package export writes the result screen's history to a PDF: one page per
// exchange with the captured region, the query and the answer.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"learning-persona/src/markdown"
	"learning-persona/src/screenshot"
	"learning-persona/src/viewer"
)

// ErrEmptyHistory is returned when there is nothing to export.
var ErrEmptyHistory = errors.New("no exchanges to export")

const (
	pageWidth  = 210.0
	margin     = 15.0
	maxImageMM = 90.0
)

// WritePDF renders entries to w.
func WritePDF(w io.Writer, title string, entries []viewer.Entry) error {
	if len(entries) == 0 {
		return ErrEmptyHistory
	}
	p := gofpdf.New("P", "mm", "A4", "")
	p.SetMargins(margin, margin, margin)
	p.SetAutoPageBreak(true, margin)
	p.SetTitle(title, true)
	tr := p.UnicodeTranslatorFromDescriptor("")

	for i, e := range entries {
		p.AddPage()
		p.SetFont("Helvetica", "B", 14)
		heading := fmt.Sprintf("%d. %s", i+1, orDefault(e.Query, "(no query)"))
		p.MultiCell(0, 7, tr(heading), "", "L", false)
		p.SetFont("Helvetica", "", 9)
		p.SetTextColor(110, 110, 110)
		p.CellFormat(0, 5, tr(fmt.Sprintf("%s, page %d", title, e.Page)), "", 1, "L", false, 0, "")
		p.SetTextColor(0, 0, 0)
		p.Ln(3)

		if err := placeImage(p, e); err != nil {
			return fmt.Errorf("entry %d: %w", i+1, err)
		}

		p.SetFont("Helvetica", "", 11)
		answer := markdown.PlainText(e.Answer)
		if e.Failed {
			p.SetTextColor(180, 0, 0)
		}
		p.MultiCell(0, 5.5, tr(answer), "", "L", false)
		p.SetTextColor(0, 0, 0)
	}
	if err := p.Error(); err != nil {
		return fmt.Errorf("failed to build pdf: %w", err)
	}
	return p.Output(w)
}

func placeImage(p *gofpdf.Fpdf, e viewer.Entry) error {
	if e.Image == "" {
		return nil
	}
	mime, data, err := screenshot.ParseDataURI(e.Image)
	if err != nil {
		return err
	}
	imageType := ""
	switch mime {
	case "image/png":
		imageType = "PNG"
	case "image/jpeg":
		imageType = "JPG"
	default:
		return fmt.Errorf("unsupported image type %s", mime)
	}
	name := "capture-" + e.ID
	info := p.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: imageType}, bytes.NewReader(data))
	if p.Err() {
		return p.Error()
	}
	w, h := info.Width(), info.Height()
	maxW := pageWidth - 2*margin
	scale := 1.0
	if w > maxW {
		scale = maxW / w
	}
	if h*scale > maxImageMM {
		scale = maxImageMM / h
	}
	p.ImageOptions(name, margin, p.GetY(), w*scale, h*scale, true, gofpdf.ImageOptions{ImageType: imageType}, 0, "")
	p.Ln(4)
	return nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
