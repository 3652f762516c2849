package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/hyperifyio/readinglist/internal/normalize"
)

// invisibleElems are containers whose direct text children never render.
var invisibleElems = map[string]bool{
	"style":  true,
	"script": true,
	"head":   true,
	"title":  true,
}

// HTML extracts the visible text of web pages.
type HTML struct {
	Fetcher Fetcher
	Log     zerolog.Logger
}

// Extract fetches url and returns its visible text.
func (h *HTML) Extract(ctx context.Context, url string) (string, error) {
	if h.Fetcher == nil {
		return "", errors.New("html: fetcher not configured")
	}
	resp, err := h.Fetcher.Get(ctx, url)
	if err != nil {
		return "", err
	}
	doc, err := VisibleText(bytes.NewReader(resp.Body), resp.ContentType)
	if err != nil {
		return "", err
	}
	h.Log.Debug().Str("url", url).Str("title", doc.Title).Int("chars", len(doc.Text)).Msg("html extracted")
	return doc.Text, nil
}

// VisibleText parses markup from r and keeps every text node whose
// immediate parent is not an invisible element, joined by single spaces and
// normalized. contentType may be empty; it only hints the charset.
func VisibleText(r io.Reader, contentType string) (Document, error) {
	utf8r, err := charset.NewReader(r, contentType)
	if err != nil {
		return Document{}, fmt.Errorf("decode charset: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(utf8r)
	if err != nil {
		return Document{}, fmt.Errorf("parse html: %w", err)
	}

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if n.Parent == nil || n.Parent.Type != html.ElementNode || !invisibleElems[strings.ToLower(n.Parent.Data)] {
				parts = append(parts, n.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}

	return Document{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Text:  strings.TrimSpace(normalize.Text(strings.Join(parts, " "))),
	}, nil
}
