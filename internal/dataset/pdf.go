package dataset

import (
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/hyperifyio/readinglist/internal/record"
)

// digestExcerptRunes bounds the text shown per record in a PDF digest.
const digestExcerptRunes = 600

// WriteDigestPDF renders a human-readable digest: one heading per major
// topic, then each record's title line, a clickable URL and an excerpt of
// its extracted text. It is a reading aid, not a lossless sink.
func WriteDigestPDF(path string, records []*record.Record) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; translate instead of emitting mojibake.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Reading list", true)
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	topic := "\x00"
	for _, r := range records {
		if t := record.Value(r.MajorTopic); t != topic {
			topic = t
			heading := t
			if heading == "" {
				heading = "Unassigned"
			}
			pdf.Ln(4)
			pdf.SetFont("Helvetica", "B", 14)
			pdf.CellFormat(0, 8, tr(heading), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 11)
		}

		pdf.SetFont("Helvetica", "B", 11)
		pdf.MultiCell(0, 5, tr(headline(r)), "", "L", false)
		pdf.SetFont("Helvetica", "", 11)
		if r.URL != "" {
			pdf.SetTextColor(0, 0, 180)
			pdf.WriteLinkString(5, tr(r.URL), r.URL)
			pdf.SetTextColor(0, 0, 0)
			pdf.Ln(6)
		}
		if ex := excerpt(r); ex != "" {
			pdf.SetFont("Helvetica", "", 9)
			pdf.MultiCell(0, 4, tr(ex), "", "L", false)
			pdf.SetFont("Helvetica", "", 11)
		}
		pdf.Ln(3)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("pdf write: %w", err)
	}
	return nil
}

// headline is "Title, Author (Date). Source" with missing parts dropped.
// Records that never parsed fall back to the raw composite string.
func headline(r *record.Record) string {
	if r.Title == nil && r.Author == nil && r.Source == nil {
		return r.RawContent
	}
	var parts []string
	if r.Title != nil {
		parts = append(parts, *r.Title)
	}
	if r.Author != nil {
		parts = append(parts, *r.Author)
	}
	s := strings.Join(parts, ", ")
	if r.Date != nil {
		s += " (" + *r.Date + ")"
	}
	if r.Source != nil {
		s += ". " + *r.Source
	}
	return strings.TrimSpace(s)
}

func excerpt(r *record.Record) string {
	if r.Text == nil {
		return ""
	}
	rs := []rune(*r.Text)
	if len(rs) <= digestExcerptRunes {
		return *r.Text
	}
	return string(rs[:digestExcerptRunes]) + "..."
}
