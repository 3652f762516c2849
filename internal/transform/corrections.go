package transform

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/readinglist/internal/record"
)

// ErrCorrections is wrapped by correction table failures.
var ErrCorrections = errors.New("invalid corrections")

// CorrectionsVersion is the schema version written by Pin.
const CorrectionsVersion = 1

// Swap names a field exchange. The destination (always title) takes the
// source field's value and the source field becomes null.
type Swap string

const (
	SwapTitleAuthor Swap = "title_author"
	SwapTitleSource Swap = "title_source"
)

// Correction fixes one record whose structural parse is known to be wrong.
type Correction struct {
	ID    string  `yaml:"id" json:"id"`
	Swap  Swap    `yaml:"swap,omitempty" json:"swap,omitempty"`
	Date  *string `yaml:"date,omitempty" json:"date,omitempty"`
	Title *string `yaml:"title,omitempty" json:"title,omitempty"`
	// Row is the load-order index the entry was pinned from, kept for
	// readers of the file. It is never used for matching.
	Row *int `yaml:"row,omitempty" json:"row,omitempty"`
}

// Corrections is a versioned correction map keyed by record ID.
type Corrections struct {
	Version int          `yaml:"version" json:"version"`
	Entries []Correction `yaml:"entries" json:"entries"`
}

// Validate checks the version and that every entry names a record and does
// something.
func (c Corrections) Validate() error {
	if len(c.Entries) == 0 {
		return nil
	}
	if c.Version != CorrectionsVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrCorrections, c.Version)
	}
	for i, e := range c.Entries {
		if strings.TrimSpace(e.ID) == "" {
			return fmt.Errorf("%w: entry %d has no id", ErrCorrections, i)
		}
		switch e.Swap {
		case "", SwapTitleAuthor, SwapTitleSource:
		default:
			return fmt.Errorf("%w: entry %d has unknown swap %q", ErrCorrections, i, e.Swap)
		}
		if e.Swap == "" && e.Date == nil && e.Title == nil {
			return fmt.Errorf("%w: entry %d (%s) changes nothing", ErrCorrections, i, e.ID)
		}
	}
	return nil
}

func (c Corrections) byID() map[string][]Correction {
	m := make(map[string][]Correction, len(c.Entries))
	for _, e := range c.Entries {
		m[e.ID] = append(m[e.ID], e)
	}
	return m
}

// apply runs swaps before overrides so an override always has the last word.
func (e Correction) apply(r *record.Record) {
	switch e.Swap {
	case SwapTitleAuthor:
		r.Title, r.Author = r.Author, nil
	case SwapTitleSource:
		r.Title, r.Source = r.Source, nil
	}
}

func (e Correction) override(r *record.Record) {
	if e.Date != nil {
		r.Date = record.Str(*e.Date)
	}
	if e.Title != nil {
		r.Title = record.Str(*e.Title)
	}
}

// LegacyOverride replaces the date and title of one row.
type LegacyOverride struct {
	Row   int    `yaml:"row" json:"row"`
	Date  string `yaml:"date" json:"date"`
	Title string `yaml:"title" json:"title"`
}

// LegacyCorrections is the positional fix-up table of the original dataset.
// Row indices are only meaningful against the unreordered load order, so the
// table is converted to ID-keyed Corrections with Pin before use.
type LegacyCorrections struct {
	TitleAuthor []int            `yaml:"titleAuthor" json:"titleAuthor"`
	TitleSource []int            `yaml:"titleSource" json:"titleSource"`
	Overrides   []LegacyOverride `yaml:"overrides" json:"overrides"`
}

// Empty reports whether the table has no entries.
func (l LegacyCorrections) Empty() bool {
	return len(l.TitleAuthor) == 0 && len(l.TitleSource) == 0 && len(l.Overrides) == 0
}

// DefaultLegacyCorrections are the fix-ups for the economic security
// reading list as published.
func DefaultLegacyCorrections() LegacyCorrections {
	return LegacyCorrections{
		TitleAuthor: []int{7, 8, 15, 20, 23, 25, 27, 57, 60, 90, 129, 130, 66},
		TitleSource: []int{0, 1, 2, 3, 4, 5, 6, 31, 81, 95},
		Overrides: []LegacyOverride{{
			Row:   32,
			Date:  "Jan, 2005",
			Title: "A Failure to Communicate: What (If Anything) Can we Learn from the Negative Income Tax Experiments?",
		}},
	}
}

// Pin binds each positional entry to the ID of the record loaded at that
// row. It fails if a row is outside the loaded table.
func (l LegacyCorrections) Pin(records []*record.Record) (Corrections, error) {
	byIndex := make(map[int]*record.Record, len(records))
	for _, r := range records {
		byIndex[r.Index] = r
	}
	out := Corrections{Version: CorrectionsVersion}
	lookup := func(row int) (string, error) {
		r, ok := byIndex[row]
		if !ok {
			return "", fmt.Errorf("%w: row %d not in table of %d records", ErrCorrections, row, len(records))
		}
		return r.ID, nil
	}
	add := func(rows []int, s Swap) error {
		for _, row := range rows {
			id, err := lookup(row)
			if err != nil {
				return err
			}
			row := row
			out.Entries = append(out.Entries, Correction{ID: id, Swap: s, Row: &row})
		}
		return nil
	}
	if err := add(l.TitleAuthor, SwapTitleAuthor); err != nil {
		return Corrections{}, err
	}
	if err := add(l.TitleSource, SwapTitleSource); err != nil {
		return Corrections{}, err
	}
	for _, o := range l.Overrides {
		id, err := lookup(o.Row)
		if err != nil {
			return Corrections{}, err
		}
		row := o.Row
		out.Entries = append(out.Entries, Correction{ID: id, Date: record.Str(o.Date), Title: record.Str(o.Title), Row: &row})
	}
	return out, nil
}

// LoadCorrections reads an ID-keyed correction file (YAML or JSON).
func LoadCorrections(path string) (Corrections, error) {
	var c Corrections
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if filepath.Ext(path) == ".json" {
		err = json.Unmarshal(b, &c)
	} else {
		err = yaml.Unmarshal(b, &c)
	}
	if err != nil {
		return c, fmt.Errorf("parse corrections: %w", err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// MarshalFile renders corrections as YAML for versioning next to the dataset.
func (c Corrections) MarshalFile() ([]byte, error) {
	return yaml.Marshal(c)
}
