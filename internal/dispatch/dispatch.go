// Package dispatch runs extraction over a transformed table, choosing a
// strategy per record and isolating every failure to its record.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hyperifyio/readinglist/internal/extract"
	"github.com/hyperifyio/readinglist/internal/fetch"
	"github.com/hyperifyio/readinglist/internal/record"
)

// ErrNotTransformed is returned when the table lacks derived columns.
var ErrNotTransformed = errors.New("records not transformed")

// DefaultDelay is the politeness pause between fetches.
const DefaultDelay = time.Second

// previewRunes bounds the text preview in progress logs.
const previewRunes = 50

// Options selects which records a pass touches.
type Options struct {
	ContentType   record.ContentType
	ExcludeTopics []string
	ExcludeHosts  []string
	// AuthHosts are URL substrings that need the authenticated strategy.
	AuthHosts []string
	// UseAuth enables the authenticated strategy. When false those records
	// get empty text.
	UseAuth bool
}

// Stats counts the outcome of one pass.
type Stats struct {
	Total     int // records of the requested content type
	Eligible  int
	Extracted int
	Empty     int // auth-gated records given empty text
	Timeouts  int
	Failures  int
}

// Dispatcher routes records to extractors.
type Dispatcher struct {
	HTML extract.Extractor
	PDF  extract.Extractor
	// Auth is optional; without it auth-gated records get empty text.
	Auth extract.Extractor
	// Delay between fetches. Zero means DefaultDelay; negative disables.
	Delay time.Duration
	Log   zerolog.Logger

	throttle *Throttle
}

// ExtractAll fills Text for every eligible record of opts.ContentType, in
// table order, one at a time. Per-record errors are logged and leave Text
// unset. Only a missing transform or a cancelled context stops the pass.
func (d *Dispatcher) ExtractAll(ctx context.Context, records []*record.Record, opts Options) (Stats, error) {
	var st Stats
	for _, r := range records {
		if !r.ContentType.Valid() {
			return st, fmt.Errorf("%w: record %d has content type %q", ErrNotTransformed, r.Index, r.ContentType)
		}
		if r.ContentType == opts.ContentType {
			st.Total++
		}
	}
	if d.throttle == nil {
		delay := d.Delay
		if delay == 0 {
			delay = DefaultDelay
		}
		d.throttle = &Throttle{Delay: delay}
	}
	excluded := make(map[string]bool, len(opts.ExcludeTopics))
	for _, t := range opts.ExcludeTopics {
		excluded[t] = true
	}

	count := 0
	for _, r := range records {
		if r.ContentType != opts.ContentType {
			continue
		}
		if r.URL == "" || excluded[record.Value(r.MajorTopic)] || containsAny(r.URL, opts.ExcludeHosts) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return st, err
		}
		count++
		st.Eligible++

		strategy := Select(r, opts.AuthHosts)
		log := d.Log.With().Int("row", r.Index).Str("url", r.URL).Str("strategy", strategy.String()).Logger()
		log.Info().Str("progress", fmt.Sprintf("%d/%d", count, st.Total)).Msg("extracting")

		var ex extract.Extractor
		switch strategy {
		case None:
			continue
		case HTML:
			ex = d.HTML
		case PDF:
			ex = d.PDF
		case Authenticated:
			if !opts.UseAuth || d.Auth == nil {
				log.Info().Msg("login required, authenticated extraction disabled")
				r.Text = record.Str("")
				st.Empty++
				continue
			}
			ex = d.Auth
		}
		if ex == nil {
			log.Warn().Msg("no extractor configured")
			st.Failures++
			continue
		}

		if err := d.throttle.Wait(ctx); err != nil {
			return st, err
		}
		text, err := ex.Extract(ctx, r.URL)
		d.throttle.Done()
		if err != nil {
			if ctx.Err() != nil {
				return st, ctx.Err()
			}
			if fetch.IsTimeout(err) {
				st.Timeouts++
				log.Warn().Err(err).Msg("timeout")
			} else {
				st.Failures++
				log.Warn().Err(err).Msg("extraction failed")
			}
			continue
		}
		r.Text = record.Str(text)
		st.Extracted++
		log.Info().Str("progress", fmt.Sprintf("%d/%d", count, st.Total)).Str("preview", preview(text)).Msg("extracted")
	}
	return st, nil
}

func preview(s string) string {
	rs := []rune(s)
	if len(rs) <= previewRunes {
		return s
	}
	return string(rs[:previewRunes])
}
