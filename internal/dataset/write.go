package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hyperifyio/readinglist/internal/record"
)

// Columns is the header of every output sink, in order.
var Columns = []string{
	"index", "id", "raw_content", "url",
	"source", "author", "title", "misc", "date", "major_topic",
	"content_type", "text",
}

// DefaultOutputPath names the artifact of a run started at now.
func DefaultOutputPath(dir string, now time.Time) string {
	return filepath.Join(dir, "download_text_"+now.Format("2006-01-02")+".tsv")
}

// Save writes records to path in the format its extension selects: .tsv
// (also used for unknown extensions), .csv, .xlsx, .sqlite or .db, or a
// .pdf digest.
func Save(ctx context.Context, path string, records []*record.Record) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return WriteXLSX(path, records)
	case ".sqlite", ".db":
		return WriteSQLite(ctx, path, records)
	case ".pdf":
		return WriteDigestPDF(path, records)
	case ".csv":
		return writeFile(path, records, ',')
	default:
		return writeFile(path, records, '\t')
	}
}

func writeFile(path string, records []*record.Record, comma rune) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := WriteDelimited(f, records, comma); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// WriteDelimited writes a header row then one row per record. Null fields
// are written as empty cells.
func WriteDelimited(w io.Writer, records []*record.Record, comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(fields(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func fields(r *record.Record) []string {
	return []string{
		strconv.Itoa(r.Index),
		r.ID,
		r.RawContent,
		r.URL,
		record.Value(r.Source),
		record.Value(r.Author),
		record.Value(r.Title),
		record.Value(r.Misc),
		record.Value(r.Date),
		record.Value(r.MajorTopic),
		string(r.ContentType),
		record.Value(r.Text),
	}
}
