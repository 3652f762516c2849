package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/hyperifyio/readinglist/internal/record"
)

const createReadings = `CREATE TABLE readings (
	idx          INTEGER PRIMARY KEY,
	id           TEXT NOT NULL,
	raw_content  TEXT NOT NULL,
	url          TEXT NOT NULL,
	source       TEXT,
	author       TEXT,
	title        TEXT,
	misc         TEXT,
	date         TEXT,
	major_topic  TEXT,
	content_type TEXT NOT NULL,
	text         TEXT
)`

// WriteSQLite replaces the database at path with a single readings table.
// Null fields stay NULL, so "never fetched" and "fetched but empty" remain
// distinguishable.
func WriteSQLite(ctx context.Context, path string, records []*record.Record) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, createReadings); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO readings
		(idx, id, raw_content, url, source, author, title, misc, date, major_topic, content_type, text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.Index, r.ID, r.RawContent, r.URL,
			nullable(r.Source), nullable(r.Author), nullable(r.Title), nullable(r.Misc),
			nullable(r.Date), nullable(r.MajorTopic), string(r.ContentType), nullable(r.Text),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert row %d: %w", r.Index, err)
		}
	}
	return tx.Commit()
}

func nullable(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
