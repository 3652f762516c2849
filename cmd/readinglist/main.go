package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/readinglist/internal/app"
	"github.com/hyperifyio/readinglist/internal/record"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(os.Stderr).ExecuteContext(ctx); err != nil {
		log := newLogger(os.Stderr, false)
		log.Error().Err(err).Msg("readinglist failed")
		stop()
		os.Exit(1)
	}
}

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()
}

// options are the raw flag values; only flags the user changed override
// the file and env layers.
type options struct {
	configPath string
	envFiles   []string

	input       string
	output      string
	outputDir   string
	corrections string
	verbose     bool

	cacheDir    string
	cacheMaxAge time.Duration
	cacheClear  bool

	types         []string
	excludeTopics []string
	excludeHosts  []string
	delay         time.Duration
	userAgent     string
	htmlTimeout   time.Duration
	pdfTimeout    time.Duration
	pdfVerifyTLS  bool
	pdfStrict     bool
	redirects     string
	useAuth       bool
	authHosts     []string
	browserURL    string

	pin bool
}

func newRootCmd(logOut io.Writer) *cobra.Command {
	return newRootCmdWith(logOut, &options{})
}

func newRootCmdWith(logOut io.Writer, opts *options) *cobra.Command {
	defaults := app.Defaults()

	root := &cobra.Command{
		Use:   "readinglist",
		Short: "Normalize a reading list and extract the text of every reference",
		Long: `readinglist loads a reading-list dataset, splits each composite entry into
source, author, title and date, assigns topics and corrections, then fetches
each referenced web page or PDF and stores its visible text.`,
		Version:       app.BuildVersion + " (" + app.BuildCommit + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "YAML or JSON config file")
	pf.StringSliceVar(&opts.envFiles, "env", []string{".env"}, "Dotenv files loaded before reading READINGLIST_* variables")
	pf.StringVar(&opts.input, "input", "", "Dataset JSON (row or column oriented)")
	pf.StringVar(&opts.output, "output", "", "Output file; extension selects .tsv, .csv, .xlsx, .sqlite or .db")
	pf.StringVar(&opts.outputDir, "output.dir", defaults.OutputDir, "Directory for the default download_text_<date>.tsv output")
	pf.StringVar(&opts.corrections, "corrections", "", "ID-keyed corrections file (see `readinglist ids --pin`)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Transform the dataset, extract text and write the table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, opts, logOut)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Run(cmd.Context())
		},
	}
	f := runCmd.Flags()
	f.StringVar(&opts.cacheDir, "cache.dir", defaults.CacheDir, "Document cache directory (empty disables)")
	f.DurationVar(&opts.cacheMaxAge, "cache.maxAge", 0, "Serve cached documents younger than this and purge older ones; 0 always revalidates")
	f.BoolVar(&opts.cacheClear, "cache.clear", false, "Clear the cache directory before the run")
	f.StringSliceVar(&opts.types, "types", []string{"html", "pdf"}, "Content types to extract, in pass order")
	f.StringSliceVar(&opts.excludeTopics, "exclude.topics", nil, "Major topics to skip")
	f.StringSliceVar(&opts.excludeHosts, "exclude.hosts", nil, "URL substrings to skip")
	f.DurationVar(&opts.delay, "delay", defaults.Delay, "Minimum pause between fetches")
	f.StringVar(&opts.userAgent, "user-agent", defaults.UserAgent, "User-Agent sent on every request")
	f.DurationVar(&opts.htmlTimeout, "html.timeout", defaults.HTMLTimeout, "Per-request timeout for web pages")
	f.DurationVar(&opts.pdfTimeout, "pdf.timeout", defaults.PDFTimeout, "Per-request timeout for PDFs")
	f.BoolVar(&opts.pdfVerifyTLS, "pdf.verifyTLS", false, "Verify TLS certificates of PDF hosts")
	f.BoolVar(&opts.pdfStrict, "pdf.strict", false, "Treat PDF validation failures as extraction errors")
	f.StringVar(&opts.redirects, "redirects", "", "JSON table of PDF URL redirects")
	f.BoolVar(&opts.useAuth, "auth", false, "Log in with a headless browser for auth hosts (READINGLIST_AUTH_USER/READINGLIST_AUTH_PASSWORD)")
	f.StringSliceVar(&opts.authHosts, "auth.hosts", defaults.AuthHosts, "URL substrings that require a login")
	f.StringVar(&opts.browserURL, "browser.url", "", "DevTools URL of a running Chrome; empty launches one")

	transformCmd := &cobra.Command{
		Use:   "transform",
		Short: "Transform the dataset and write the table without fetching",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, opts, logOut)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Transform(cmd.Context())
		},
	}

	idsCmd := &cobra.Command{
		Use:   "ids",
		Short: "List record ids, or pin the positional corrections to ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, opts, logOut)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.WriteIDs(cmd.OutOrStdout(), opts.pin)
		},
	}
	idsCmd.Flags().BoolVar(&opts.pin, "pin", false, "Emit the legacy corrections keyed by record id as YAML")

	root.AddCommand(runCmd, transformCmd, idsCmd)
	return root
}

func newApp(cmd *cobra.Command, opts *options, logOut io.Writer) (*app.App, error) {
	cfg, err := buildConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	log := newLogger(logOut, cfg.Verbose)
	return app.New(cmd.Context(), cfg, log)
}

// buildConfig layers defaults, the config file, dotenv files, READINGLIST_*
// variables and finally the flags the user set explicitly.
func buildConfig(cmd *cobra.Command, opts *options) (app.Config, error) {
	cfg := app.Defaults()
	if opts.configPath != "" {
		fc, err := app.LoadConfigFile(opts.configPath)
		if err != nil {
			return cfg, fmt.Errorf("config %s: %w", opts.configPath, err)
		}
		if err := app.ApplyFileConfig(&cfg, fc); err != nil {
			return cfg, err
		}
	}
	if err := app.LoadEnvFiles(opts.envFiles...); err != nil {
		return cfg, fmt.Errorf("env files: %w", err)
	}
	if err := app.ApplyEnvOverrides(&cfg); err != nil {
		return cfg, fmt.Errorf("env: %w", err)
	}

	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}
	if changed("input") {
		cfg.InputPath = opts.input
	}
	if changed("output") {
		cfg.OutputPath = opts.output
	}
	if changed("output.dir") {
		cfg.OutputDir = opts.outputDir
	}
	if changed("corrections") {
		cfg.CorrectionsPath = opts.corrections
	}
	if changed("verbose") {
		cfg.Verbose = opts.verbose
	}
	if changed("cache.dir") {
		cfg.CacheDir = opts.cacheDir
	}
	if changed("cache.maxAge") {
		cfg.CacheMaxAge = opts.cacheMaxAge
	}
	if changed("cache.clear") {
		cfg.CacheClear = opts.cacheClear
	}
	if changed("types") {
		cfg.ContentTypes = cfg.ContentTypes[:0]
		for _, t := range opts.types {
			cfg.ContentTypes = append(cfg.ContentTypes, record.ContentType(strings.ToLower(strings.TrimSpace(t))))
		}
	}
	if changed("exclude.topics") {
		cfg.ExcludeTopics = opts.excludeTopics
	}
	if changed("exclude.hosts") {
		cfg.ExcludeHosts = opts.excludeHosts
	}
	if changed("delay") {
		cfg.Delay = opts.delay
	}
	if changed("user-agent") {
		cfg.UserAgent = opts.userAgent
	}
	if changed("html.timeout") {
		cfg.HTMLTimeout = opts.htmlTimeout
	}
	if changed("pdf.timeout") {
		cfg.PDFTimeout = opts.pdfTimeout
	}
	if changed("pdf.verifyTLS") {
		cfg.PDFVerifyTLS = opts.pdfVerifyTLS
	}
	if changed("pdf.strict") {
		cfg.PDFStrict = opts.pdfStrict
	}
	if changed("redirects") {
		cfg.RedirectsPath = opts.redirects
	}
	if changed("auth") {
		cfg.UseAuth = opts.useAuth
	}
	if changed("auth.hosts") {
		cfg.AuthHosts = opts.authHosts
	}
	if changed("browser.url") {
		cfg.BrowserURL = opts.browserURL
	}
	return cfg, nil
}
