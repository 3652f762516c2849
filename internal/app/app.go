// Package app wires loading, transformation, extraction and output into the
// commands the CLI exposes.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hyperifyio/readinglist/internal/browser"
	"github.com/hyperifyio/readinglist/internal/cache"
	"github.com/hyperifyio/readinglist/internal/dataset"
	"github.com/hyperifyio/readinglist/internal/dispatch"
	"github.com/hyperifyio/readinglist/internal/extract"
	"github.com/hyperifyio/readinglist/internal/fetch"
	"github.com/hyperifyio/readinglist/internal/record"
	"github.com/hyperifyio/readinglist/internal/transform"
)

type App struct {
	cfg        Config
	log        zerolog.Logger
	dispatcher *dispatch.Dispatcher
	auth       *browser.Authenticated
	now        func() time.Time
}

// New validates cfg and builds the extraction stack. Nothing touches the
// network until Run.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, log: log, now: time.Now}

	var docs *cache.Documents
	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err != nil {
				log.Warn().Err(err).Msg("cache purge failed")
			} else if n > 0 {
				log.Info().Int("removed", n).Msg("purged stale cache entries")
			}
		}
		docs = &cache.Documents{Dir: cfg.CacheDir}
	}

	redirects := extract.Redirects{}
	if cfg.RedirectsPath != "" {
		r, err := extract.LoadRedirects(cfg.RedirectsPath)
		if err != nil {
			return nil, fmt.Errorf("load redirects: %w", err)
		}
		redirects = r
	}

	htmlClient := &fetch.Client{
		HTTPClient:        newHTTPClient(true),
		UserAgent:         cfg.UserAgent,
		PerRequestTimeout: cfg.HTMLTimeout,
		Cache:             docs,
		CacheMaxAge:       cfg.CacheMaxAge,
		Log:               log.With().Str("component", "fetch").Str("type", "html").Logger(),
	}
	pdfClient := &fetch.Client{
		HTTPClient:        newHTTPClient(cfg.PDFVerifyTLS),
		UserAgent:         cfg.UserAgent,
		PerRequestTimeout: cfg.PDFTimeout,
		Cache:             docs,
		CacheMaxAge:       cfg.CacheMaxAge,
		Log:               log.With().Str("component", "fetch").Str("type", "pdf").Logger(),
	}

	d := &dispatch.Dispatcher{
		HTML: &extract.HTML{Fetcher: htmlClient, Log: log.With().Str("component", "html").Logger()},
		PDF: &extract.PDF{
			Fetcher:   pdfClient,
			Redirects: redirects,
			Repairs:   cfg.Repairs,
			Strict:    cfg.PDFStrict,
			Log:       log.With().Str("component", "pdf").Logger(),
		},
		Delay: cfg.Delay,
		Log:   log.With().Str("component", "dispatch").Logger(),
	}
	if d.Delay == 0 {
		d.Delay = -1
	}
	if cfg.UseAuth {
		a.auth = &browser.Authenticated{
			Credentials: browser.Credentials{User: cfg.AuthUser, Password: cfg.AuthPassword},
			RemoteURL:   cfg.BrowserURL,
			Timeout:     cfg.HTMLTimeout,
			Log:         log.With().Str("component", "browser").Logger(),
		}
		d.Auth = a.auth
	}
	a.dispatcher = d
	return a, nil
}

// Close releases the browser if one was started.
func (a *App) Close() {
	if a.auth != nil {
		if err := a.auth.Close(); err != nil {
			a.log.Warn().Err(err).Msg("browser close")
		}
	}
}

// Load reads the dataset named by the configuration.
func (a *App) Load() ([]*record.Record, error) {
	recs, err := dataset.LoadFile(a.cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", a.cfg.InputPath, err)
	}
	a.log.Info().Int("records", len(recs)).Str("input", a.cfg.InputPath).Msg("dataset loaded")
	return recs, nil
}

// Prepare runs the transformer with the configured tables.
func (a *App) Prepare(records []*record.Record) (transform.Report, error) {
	topics := a.cfg.Topics
	if len(topics) == 0 {
		topics = transform.DefaultTopics()
	}
	corr, err := a.corrections(records)
	if err != nil {
		return transform.Report{}, err
	}
	rep, err := transform.Transform(records, topics, corr)
	if err != nil {
		return rep, err
	}
	for _, id := range rep.UnmatchedCorrections {
		a.log.Warn().Str("id", id).Msg("correction matches no record")
	}
	for _, id := range rep.DuplicateIDs {
		a.log.Warn().Str("id", id).Msg("record id is not unique")
	}
	a.log.Info().Int("records", len(records)).Int("corrected", rep.Corrected).Msg("transformed")
	return rep, nil
}

func (a *App) corrections(records []*record.Record) (transform.Corrections, error) {
	if a.cfg.CorrectionsPath != "" {
		return transform.LoadCorrections(a.cfg.CorrectionsPath)
	}
	legacy := a.legacy()
	if legacy.Empty() {
		return transform.Corrections{}, nil
	}
	return legacy.Pin(records)
}

// legacy returns the configured positional table; the built-in one only
// applies alongside the built-in topic table.
func (a *App) legacy() transform.LegacyCorrections {
	if a.cfg.LegacyCorrections != nil {
		return *a.cfg.LegacyCorrections
	}
	if len(a.cfg.Topics) == 0 {
		return transform.DefaultLegacyCorrections()
	}
	return transform.LegacyCorrections{}
}

// OutputPath is where this run writes its table.
func (a *App) OutputPath() string {
	if strings.TrimSpace(a.cfg.OutputPath) != "" {
		return a.cfg.OutputPath
	}
	return dataset.DefaultOutputPath(a.cfg.OutputDir, a.now())
}

// Run loads, transforms, extracts one pass per configured content type and
// writes the table plus a manifest sidecar.
func (a *App) Run(ctx context.Context) error {
	records, err := a.Load()
	if err != nil {
		return err
	}
	rep, err := a.Prepare(records)
	if err != nil {
		return err
	}

	var passes []passSummary
	for _, ct := range a.cfg.ContentTypes {
		a.log.Info().Str("content_type", string(ct)).Msg("starting extraction pass")
		st, err := a.dispatcher.ExtractAll(ctx, records, dispatch.Options{
			ContentType:   ct,
			ExcludeTopics: a.cfg.ExcludeTopics,
			ExcludeHosts:  a.cfg.ExcludeHosts,
			AuthHosts:     a.cfg.AuthHosts,
			UseAuth:       a.cfg.UseAuth,
		})
		passes = append(passes, passSummary{ContentType: ct, Stats: st})
		if err != nil {
			return fmt.Errorf("extract %s: %w", ct, err)
		}
		a.log.Info().Str("content_type", string(ct)).Int("total", st.Total).Int("extracted", st.Extracted).
			Int("timeouts", st.Timeouts).Int("failures", st.Failures).Msg("extraction pass done")
	}

	out := a.OutputPath()
	if err := dataset.Save(ctx, out, records); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	meta := manifestMeta{
		GeneratedAt: a.now().UTC(),
		Version:     BuildVersion,
		Input:       a.cfg.InputPath,
		Output:      out,
		Records:     len(records),
		Corrected:   rep.Corrected,
		Unmatched:   rep.UnmatchedCorrections,
		Passes:      passes,
	}
	b, err := marshalManifestJSON(meta, buildManifestEntries(records))
	if err != nil {
		return err
	}
	if err := os.WriteFile(deriveManifestSidecarPath(out), b, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	a.log.Info().Str("out", out).Msg("wrote output")
	return nil
}

// Transform writes the transformed table without fetching anything.
func (a *App) Transform(ctx context.Context) error {
	records, err := a.Load()
	if err != nil {
		return err
	}
	if _, err := a.Prepare(records); err != nil {
		return err
	}
	out := a.OutputPath()
	if err := dataset.Save(ctx, out, records); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	a.log.Info().Str("out", out).Msg("wrote output")
	return nil
}

// WriteIDs lists index, id and raw content per record, or with pin set
// emits the legacy positional corrections bound to IDs as a corrections
// file.
func (a *App) WriteIDs(w io.Writer, pin bool) error {
	records, err := a.Load()
	if err != nil {
		return err
	}
	if pin {
		legacy := a.legacy()
		if legacy.Empty() {
			legacy = transform.DefaultLegacyCorrections()
		}
		c, err := legacy.Pin(records)
		if err != nil {
			return err
		}
		b, err := c.MarshalFile()
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	}
	for _, r := range records {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\n", r.Index, r.ID, r.RawContent); err != nil {
			return err
		}
	}
	return nil
}
