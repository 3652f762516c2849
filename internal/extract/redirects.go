package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Redirects maps paywalled document URLs to accessible mirrors.
type Redirects map[string]string

// Resolve returns the mirror for url, or url itself.
func (r Redirects) Resolve(url string) string {
	if to, ok := r[url]; ok && strings.TrimSpace(to) != "" {
		return to
	}
	return url
}

// LoadRedirects reads a redirect table. Three JSON shapes are accepted: a
// list of {"old_url", "new_url"} objects, the column-oriented form
// {"old_url": {"0": ...}, "new_url": {"0": ...}}, and a flat old→new map.
// A missing file yields an empty table.
func LoadRedirects(path string) (Redirects, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Redirects{}, nil
		}
		return nil, err
	}
	return ParseRedirects(b)
}

// ParseRedirects decodes any of the shapes LoadRedirects accepts.
func ParseRedirects(b []byte) (Redirects, error) {
	out := Redirects{}

	var rows []struct {
		Old string `json:"old_url"`
		New string `json:"new_url"`
	}
	if err := json.Unmarshal(b, &rows); err == nil {
		for _, r := range rows {
			if r.Old != "" {
				out[r.Old] = r.New
			}
		}
		return out, nil
	}

	var cols struct {
		Old map[string]string `json:"old_url"`
		New map[string]string `json:"new_url"`
	}
	if err := json.Unmarshal(b, &cols); err == nil && cols.Old != nil {
		for k, old := range cols.Old {
			if nu, ok := cols.New[k]; ok && old != "" {
				out[old] = nu
			}
		}
		return out, nil
	}

	var flat map[string]string
	if err := json.Unmarshal(b, &flat); err != nil {
		return nil, fmt.Errorf("parse redirects: %w", err)
	}
	for k, v := range flat {
		out[k] = v
	}
	return out, nil
}
