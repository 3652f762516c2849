package app

import (
	"time"

	"github.com/hyperifyio/readinglist/internal/extract"
	"github.com/hyperifyio/readinglist/internal/record"
	"github.com/hyperifyio/readinglist/internal/transform"
)

// DefaultUserAgent identifies the client on every request.
const DefaultUserAgent = "readinglist/1.0 (+https://github.com/hyperifyio/readinglist)"

// Config holds runtime configuration for the application.
type Config struct {
	InputPath string
	// OutputPath wins over OutputDir when set.
	OutputPath string
	OutputDir  string

	// Tables. Nil Topics selects the built-in reading list table, and with
	// it the built-in legacy corrections unless CorrectionsPath is set.
	Topics            transform.Topics
	LegacyCorrections *transform.LegacyCorrections
	CorrectionsPath   string

	// Extraction
	ContentTypes  []record.ContentType
	ExcludeTopics []string
	ExcludeHosts  []string
	Delay         time.Duration
	UserAgent     string
	HTMLTimeout   time.Duration
	PDFTimeout    time.Duration
	PDFVerifyTLS  bool
	PDFStrict     bool
	RedirectsPath string
	Repairs       extract.Repairs

	// Authenticated strategy
	UseAuth      bool
	AuthHosts    []string
	AuthUser     string
	AuthPassword string
	BrowserURL   string

	// Cache
	CacheDir    string
	CacheMaxAge time.Duration
	CacheClear  bool

	Verbose bool
}

// Defaults returns the configuration used when nothing else is given.
func Defaults() Config {
	return Config{
		OutputDir:    ".",
		ContentTypes: []record.ContentType{record.HTML, record.PDF},
		Delay:        time.Second,
		UserAgent:    DefaultUserAgent,
		HTMLTimeout:  60 * time.Second,
		PDFTimeout:   360 * time.Second,
		Repairs:      extract.DefaultRepairs(),
		AuthHosts:    []string{"wsj.com"},
		CacheDir:     ".readinglist-cache",
	}
}
