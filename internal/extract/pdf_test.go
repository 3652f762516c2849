package extract

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog"

	"github.com/hyperifyio/readinglist/internal/fetch"
)

// buildPDF renders each page's lines with a core font, one line per cell.
func buildPDF(t *testing.T, pages ...[]string) []byte {
	t.Helper()
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetCompression(false)
	doc.SetFont("Helvetica", "", 12)
	for _, lines := range pages {
		doc.AddPage()
		for _, line := range lines {
			doc.CellFormat(0, 10, line, "", 1, "L", false, 0, "")
		}
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("render pdf: %v", err)
	}
	return buf.Bytes()
}

func TestPDF_JoinsHyphenatedLineBreak(t *testing.T) {
	data := buildPDF(t,
		[]string{"Pilots help us consoli-", "date the evidence."},
		[]string{"Second page text."},
	)
	p := &PDF{Repairs: DefaultRepairs(), Log: zerolog.Nop()}
	text, err := p.ExtractBytes(context.Background(), data)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(text, "consolidate") {
		t.Fatalf("expected joined word, got %q", text)
	}
	if strings.Contains(text, "consoli-") || strings.Contains(text, "\n") {
		t.Fatalf("hyphen or newline left in %q", text)
	}
	if !strings.Contains(text, "Second page text.") {
		t.Fatalf("second page missing: %q", text)
	}
	if strings.Index(text, "evidence") > strings.Index(text, "Second page") {
		t.Fatalf("pages out of order: %q", text)
	}
}

func TestPDF_HyphenAcrossPages(t *testing.T) {
	data := buildPDF(t, []string{"We must consoli-"}, []string{"date the gains."})
	p := &PDF{Log: zerolog.Nop()}
	text, err := p.ExtractBytes(context.Background(), data)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if text != "We must consolidate the gains." {
		t.Fatalf("text = %q", text)
	}
}

func TestPDF_AppliesRepairs(t *testing.T) {
	data := buildPDF(t, []string{"T here is a floor."})
	p := &PDF{Repairs: DefaultRepairs(), Log: zerolog.Nop()}
	text, err := p.ExtractBytes(context.Background(), data)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if text != "There is a floor." {
		t.Fatalf("text = %q", text)
	}
}

func TestPDF_EmptyAndGarbage(t *testing.T) {
	p := &PDF{Log: zerolog.Nop()}
	if _, err := p.ExtractBytes(context.Background(), nil); err != ErrEmptyPDF {
		t.Fatalf("expected ErrEmptyPDF, got %v", err)
	}
	if _, err := p.ExtractBytes(context.Background(), []byte("not a pdf at all")); err == nil {
		t.Fatalf("expected error for garbage input")
	}
	strict := &PDF{Strict: true, Log: zerolog.Nop()}
	if _, err := strict.ExtractBytes(context.Background(), []byte("%PDF-1.4 junk")); err == nil {
		t.Fatalf("expected strict validation error")
	}
}

func TestPDF_ExtractFollowsRedirect(t *testing.T) {
	data := buildPDF(t, []string{"Mirror copy."})
	var paywalled int32
	mux := http.NewServeMux()
	mux.HandleFunc("/paywalled.pdf", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&paywalled, 1)
		w.WriteHeader(http.StatusPaymentRequired)
	})
	mux.HandleFunc("/mirror.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(data)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := &PDF{
		Fetcher:   &fetch.Client{PerRequestTimeout: 2 * time.Second},
		Redirects: Redirects{srv.URL + "/paywalled.pdf": srv.URL + "/mirror.pdf"},
		Log:       zerolog.Nop(),
	}
	text, err := p.Extract(context.Background(), srv.URL+"/paywalled.pdf")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if text != "Mirror copy." {
		t.Fatalf("text = %q", text)
	}
	if atomic.LoadInt32(&paywalled) != 0 {
		t.Fatalf("paywalled url should not be fetched")
	}
}

func TestRenderRow_InsertsGapSpace(t *testing.T) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetCompression(false)
	doc.SetFont("Helvetica", "", 12)
	doc.AddPage()
	doc.CellFormat(40, 10, "Left", "", 0, "L", false, 0, "")
	doc.CellFormat(40, 10, "Right", "", 1, "L", false, 0, "")
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatal(err)
	}
	text, err := (&PDF{Log: zerolog.Nop()}).ExtractBytes(context.Background(), buf.Bytes())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if text != "Left Right" {
		t.Fatalf("text = %q", text)
	}
}

func TestPDFClean(t *testing.T) {
	p := &PDF{Repairs: DefaultRepairs()}
	in := "T here are pilots-\nin Kenya\nand\x0c2 Finland\x0c   end\n"
	if got := p.clean(in); got != "There are pilotsin Kenya and Finland  end" {
		t.Fatalf("clean = %q", got)
	}
}
