package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/hyperifyio/readinglist/internal/normalize"
)

// ErrEmptyPDF is returned for a zero-length document.
var ErrEmptyPDF = errors.New("empty pdf")

// decodeArtifacts are what a non-breaking space turns into when a page
// break form feed is decoded next to it.
var decodeArtifacts = []string{"\x0c2", "\x0c"}

var disableConfigDir sync.Once

// PDF extracts text from PDF documents with a layout-aware reconstruction:
// glyphs are grouped into rows by baseline, rows are read top to bottom and
// glyphs left to right. Vertical text is not detected; every text object on
// the page is included.
type PDF struct {
	Fetcher   Fetcher
	Redirects Redirects
	Repairs   Repairs
	// Strict makes a structural validation failure fatal. Otherwise it is
	// logged and text extraction is still attempted.
	Strict bool
	Log    zerolog.Logger
}

// Extract resolves url through the redirect table, fetches it and extracts
// its text.
func (p *PDF) Extract(ctx context.Context, url string) (string, error) {
	if p.Fetcher == nil {
		return "", errors.New("pdf: fetcher not configured")
	}
	target := p.Redirects.Resolve(url)
	if target != url {
		p.Log.Info().Str("url", url).Str("redirect", target).Msg("using redirected pdf url")
	}
	resp, err := p.Fetcher.Get(ctx, target)
	if err != nil {
		return "", err
	}
	return p.ExtractBytes(ctx, resp.Body)
}

// ExtractBytes extracts text from an in-memory PDF.
func (p *PDF) ExtractBytes(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyPDF
	}
	pages, err := p.validate(data)
	if err != nil {
		if p.Strict {
			return "", err
		}
		p.Log.Debug().Err(err).Msg("pdf validation failed; extracting anyway")
	}
	raw, err := layoutText(ctx, data)
	if err != nil {
		return "", err
	}
	p.Log.Debug().Int("pages", pages).Int("chars", len(raw)).Msg("pdf extracted")
	return p.clean(raw), nil
}

func (p *PDF) clean(raw string) string {
	s := strings.ReplaceAll(raw, "-\n", "")
	s = strings.ReplaceAll(s, "\n", " ")
	s = p.Repairs.Apply(s)
	s = norm.NFKC.String(s)
	for _, a := range decodeArtifacts {
		s = strings.ReplaceAll(s, a, "")
	}
	return strings.TrimSpace(normalize.Text(s))
}

func (p *PDF) validate(data []byte) (int, error) {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("pdfcpu validate: %w", err)
	}
	return pctx.PageCount, nil
}

type row struct {
	y      float64
	glyphs []pdf.Text
}

// layoutText returns one line per text row, pages in document order.
func layoutText(ctx context.Context, data []byte) (out string, err error) {
	// The reader panics on some malformed objects.
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("read pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, rw := range groupRows(page.Content().Text) {
			b.WriteString(renderRow(rw.glyphs))
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

// groupRows clusters glyphs whose baselines are within a fraction of the
// font size, then orders rows top to bottom.
func groupRows(glyphs []pdf.Text) []*row {
	var rows []*row
	for _, g := range glyphs {
		tol := math.Max(1, g.FontSize*0.3)
		var target *row
		for _, r := range rows {
			if math.Abs(r.y-g.Y) <= tol {
				target = r
				break
			}
		}
		if target == nil {
			target = &row{y: g.Y}
			rows = append(rows, target)
		}
		target.glyphs = append(target.glyphs, g)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })
	for _, r := range rows {
		sort.SliceStable(r.glyphs, func(i, j int) bool { return r.glyphs[i].X < r.glyphs[j].X })
	}
	return rows
}

// renderRow joins glyphs, inserting a space where the horizontal gap
// between two glyphs exceeds a fifth of the font size.
func renderRow(glyphs []pdf.Text) string {
	var b strings.Builder
	for i, g := range glyphs {
		if i > 0 {
			prev := glyphs[i-1]
			gap := g.X - (prev.X + prev.W)
			if gap > math.Max(prev.FontSize, 1)*0.2 && !strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(g.S, " ") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.S)
	}
	return b.String()
}
