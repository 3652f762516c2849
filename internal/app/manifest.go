package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/hyperifyio/readinglist/internal/dispatch"
	"github.com/hyperifyio/readinglist/internal/record"
)

// manifestEntry records the digest of one extracted text.
type manifestEntry struct {
	Index  int    `json:"index"`
	ID     string `json:"id"`
	URL    string `json:"url"`
	SHA256 string `json:"sha256"`
	Chars  int    `json:"chars"`
}

type passSummary struct {
	ContentType record.ContentType `json:"content_type"`
	Stats       dispatch.Stats     `json:"stats"`
}

// manifestMeta captures run details that help compare reruns.
type manifestMeta struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Version     string        `json:"version"`
	Input       string        `json:"input"`
	Output      string        `json:"output"`
	Records     int           `json:"records"`
	Corrected   int           `json:"corrected"`
	Unmatched   []string      `json:"unmatched_corrections,omitempty"`
	Passes      []passSummary `json:"passes"`
}

func computeSHA256Hex(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// buildManifestEntries lists every record whose text was set, including
// deliberately empty ones.
func buildManifestEntries(records []*record.Record) []manifestEntry {
	out := make([]manifestEntry, 0, len(records))
	for _, r := range records {
		if r.Text == nil {
			continue
		}
		out = append(out, manifestEntry{
			Index:  r.Index,
			ID:     r.ID,
			URL:    r.URL,
			SHA256: computeSHA256Hex(*r.Text),
			Chars:  len([]rune(*r.Text)),
		})
	}
	return out
}

func marshalManifestJSON(meta manifestMeta, entries []manifestEntry) ([]byte, error) {
	payload := struct {
		Meta  manifestMeta    `json:"meta"`
		Texts []manifestEntry `json:"texts"`
	}{Meta: meta, Texts: entries}
	return json.MarshalIndent(payload, "", "  ")
}

// deriveManifestSidecarPath returns a sidecar JSON path next to the output.
func deriveManifestSidecarPath(outputPath string) string {
	return outputPath + ".manifest.json"
}
