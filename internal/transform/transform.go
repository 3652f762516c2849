// Package transform derives typed columns from the reading list's composite
// field, assigns topic segments, applies corrections and classifies content.
package transform

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hyperifyio/readinglist/internal/record"
)

// fieldSep separates source, author, title and misc in RawContent.
const fieldSep = "//"

// reParen matches one innermost parenthesized group.
var reParen = regexp.MustCompile(`\(([^()]*)\)`)

// Report summarizes a Transform run.
type Report struct {
	Corrected int
	// UnmatchedCorrections lists correction IDs no record carries.
	UnmatchedCorrections []string
	// DuplicateIDs lists IDs shared by more than one record.
	DuplicateIDs []string
}

// Transform re-derives every field of every record from RawContent and URL.
// It validates the topic table against the record count first; the table
// and correction map are fatal configuration errors. Running it twice yields
// the same result.
func Transform(records []*record.Record, topics Topics, corrections Corrections) (Report, error) {
	var rep Report
	if err := checkIndexes(records); err != nil {
		return rep, err
	}
	if err := topics.Validate(len(records)); err != nil {
		return rep, err
	}
	if err := corrections.Validate(); err != nil {
		return rep, err
	}

	fixes := corrections.byID()
	seen := make(map[string]int, len(records))
	for _, r := range records {
		seen[r.ID]++

		if strings.TrimSpace(r.URL) == "None" {
			r.URL = ""
		}
		r.URL = strings.TrimSpace(r.URL)

		r.Source, r.Author, r.Title, r.Misc = Split(r.RawContent)
		r.Date, r.Author, r.Title = ExtractDate(r.Author, r.Title)

		if topic, ok := topics.Lookup(r.Index); ok {
			r.MajorTopic = record.Str(topic)
		}

		if fs := fixes[r.ID]; len(fs) > 0 {
			for _, f := range fs {
				f.apply(r)
			}
			for _, f := range fs {
				f.override(r)
			}
			rep.Corrected++
		}

		r.ContentType = Classify(r.URL)
		r.Text = nil
	}

	for id := range fixes {
		if seen[id] == 0 {
			rep.UnmatchedCorrections = append(rep.UnmatchedCorrections, id)
		}
	}
	for id, n := range seen {
		if n > 1 {
			rep.DuplicateIDs = append(rep.DuplicateIDs, id)
		}
	}
	sort.Strings(rep.UnmatchedCorrections)
	sort.Strings(rep.DuplicateIDs)
	return rep, nil
}

// checkIndexes requires load-order indexes to be a permutation of [0, n).
func checkIndexes(records []*record.Record) error {
	seen := make([]bool, len(records))
	for _, r := range records {
		if r == nil {
			return fmt.Errorf("%w: nil record", ErrTopics)
		}
		if r.Index < 0 || r.Index >= len(records) || seen[r.Index] {
			return fmt.Errorf("%w: record index %d is not a unique row in [0,%d)", ErrTopics, r.Index, len(records))
		}
		seen[r.Index] = true
	}
	return nil
}

// Split breaks a composite string into source, author, title and misc.
// Without any separator every field is nil. Anything after the third
// separator stays in misc.
func Split(raw string) (source, author, title, misc *string) {
	if !strings.Contains(raw, fieldSep) {
		return nil, nil, nil, nil
	}
	segs := strings.SplitN(raw, fieldSep, 4)
	out := make([]*string, 4)
	for i, s := range segs {
		out[i] = nonEmpty(s)
	}
	return out[0], out[1], out[2], out[3]
}

// ExtractDate takes the first parenthesized group of author, else of
// title, as the date, then strips every parenthesized group from both,
// nested ones included.
func ExtractDate(author, title *string) (date, cleanAuthor, cleanTitle *string) {
	date = firstGroup(author)
	if date == nil {
		date = firstGroup(title)
	}
	return date, stripGroups(author), stripGroups(title)
}

func firstGroup(p *string) *string {
	if p == nil {
		return nil
	}
	m := reParen.FindStringSubmatch(*p)
	if m == nil {
		return nil
	}
	return nonEmpty(m[1])
}

func stripGroups(p *string) *string {
	if p == nil {
		return nil
	}
	s := *p
	for reParen.MatchString(s) {
		s = reParen.ReplaceAllString(s, "")
	}
	return nonEmpty(s)
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
