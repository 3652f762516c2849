package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/readinglist/internal/extract"
	"github.com/hyperifyio/readinglist/internal/record"
	"github.com/hyperifyio/readinglist/internal/transform"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
	Input     string `yaml:"input" json:"input"`
	Output    string `yaml:"output" json:"output"`
	OutputDir string `yaml:"outputDir" json:"outputDir"`

	Topics            []transform.TopicRange       `yaml:"topics" json:"topics"`
	TopicUppers       []transform.TopicUpper       `yaml:"topicUppers" json:"topicUppers"`
	Corrections       string                       `yaml:"corrections" json:"corrections"`
	LegacyCorrections *transform.LegacyCorrections `yaml:"legacyCorrections" json:"legacyCorrections"`

	Extract struct {
		ContentTypes  []string         `yaml:"contentTypes" json:"contentTypes"`
		ExcludeTopics []string         `yaml:"excludeTopics" json:"excludeTopics"`
		ExcludeHosts  []string         `yaml:"excludeHosts" json:"excludeHosts"`
		Delay         time.Duration    `yaml:"delay" json:"delay"`
		UserAgent     string           `yaml:"userAgent" json:"userAgent"`
		HTMLTimeout   time.Duration    `yaml:"htmlTimeout" json:"htmlTimeout"`
		PDFTimeout    time.Duration    `yaml:"pdfTimeout" json:"pdfTimeout"`
		PDFVerifyTLS  *bool            `yaml:"pdfVerifyTLS" json:"pdfVerifyTLS"`
		PDFStrict     bool             `yaml:"pdfStrict" json:"pdfStrict"`
		Redirects     string           `yaml:"redirects" json:"redirects"`
		Repairs       []extract.Repair `yaml:"repairs" json:"repairs"`
	} `yaml:"extract" json:"extract"`

	Auth struct {
		Enable     *bool    `yaml:"enable" json:"enable"`
		Hosts      []string `yaml:"hosts" json:"hosts"`
		User       string   `yaml:"user" json:"user"`
		Password   string   `yaml:"password" json:"password"`
		BrowserURL string   `yaml:"browserURL" json:"browserURL"`
	} `yaml:"auth" json:"auth"`

	Cache struct {
		Dir    string        `yaml:"dir" json:"dir"`
		MaxAge time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear  bool          `yaml:"clear" json:"clear"`
	} `yaml:"cache" json:"cache"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig. Durations are only
// understood in YAML ("90s"); JSON takes nanoseconds.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays every value the file sets onto cfg. It runs
// before env and flags, so later layers win.
func ApplyFileConfig(cfg *Config, fc FileConfig) error {
	if cfg == nil {
		return nil
	}
	setStr := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	setDur := func(dst *time.Duration, v time.Duration) {
		if v != 0 {
			*dst = v
		}
	}
	setList := func(dst *[]string, v []string) {
		if len(v) > 0 {
			*dst = append([]string{}, v...)
		}
	}

	setStr(&cfg.InputPath, fc.Input)
	setStr(&cfg.OutputPath, fc.Output)
	setStr(&cfg.OutputDir, fc.OutputDir)

	switch {
	case len(fc.Topics) > 0 && len(fc.TopicUppers) > 0:
		return errors.New("config: set either topics or topicUppers, not both")
	case len(fc.Topics) > 0:
		cfg.Topics = append(transform.Topics{}, fc.Topics...)
	case len(fc.TopicUppers) > 0:
		cfg.Topics = transform.FromUppers(fc.TopicUppers)
	}
	setStr(&cfg.CorrectionsPath, fc.Corrections)
	if fc.LegacyCorrections != nil {
		lc := *fc.LegacyCorrections
		cfg.LegacyCorrections = &lc
	}

	if len(fc.Extract.ContentTypes) > 0 {
		cts, err := parseContentTypes(fc.Extract.ContentTypes)
		if err != nil {
			return err
		}
		cfg.ContentTypes = cts
	}
	setList(&cfg.ExcludeTopics, fc.Extract.ExcludeTopics)
	setList(&cfg.ExcludeHosts, fc.Extract.ExcludeHosts)
	setDur(&cfg.Delay, fc.Extract.Delay)
	setStr(&cfg.UserAgent, fc.Extract.UserAgent)
	setDur(&cfg.HTMLTimeout, fc.Extract.HTMLTimeout)
	setDur(&cfg.PDFTimeout, fc.Extract.PDFTimeout)
	if fc.Extract.PDFVerifyTLS != nil {
		cfg.PDFVerifyTLS = *fc.Extract.PDFVerifyTLS
	}
	if fc.Extract.PDFStrict {
		cfg.PDFStrict = true
	}
	setStr(&cfg.RedirectsPath, fc.Extract.Redirects)
	if len(fc.Extract.Repairs) > 0 {
		cfg.Repairs = append(extract.Repairs{}, fc.Extract.Repairs...)
	}

	if fc.Auth.Enable != nil {
		cfg.UseAuth = *fc.Auth.Enable
	}
	setList(&cfg.AuthHosts, fc.Auth.Hosts)
	setStr(&cfg.AuthUser, fc.Auth.User)
	setStr(&cfg.AuthPassword, fc.Auth.Password)
	setStr(&cfg.BrowserURL, fc.Auth.BrowserURL)

	setStr(&cfg.CacheDir, fc.Cache.Dir)
	setDur(&cfg.CacheMaxAge, fc.Cache.MaxAge)
	if fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if fc.Verbose {
		cfg.Verbose = true
	}
	return nil
}

// ValidateConfig performs minimal validation for required settings.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.InputPath) == "" {
		return errors.New("config: input path is required")
	}
	if strings.TrimSpace(cfg.OutputPath) == "" && strings.TrimSpace(cfg.OutputDir) == "" {
		return errors.New("config: output path or output dir is required")
	}
	if cfg.Delay < 0 || cfg.HTMLTimeout < 0 || cfg.PDFTimeout < 0 || cfg.CacheMaxAge < 0 {
		return errors.New("config: negative durations are not allowed")
	}
	for _, ct := range cfg.ContentTypes {
		if !ct.Valid() {
			return fmt.Errorf("config: unknown content type %q", ct)
		}
	}
	if cfg.CorrectionsPath != "" && cfg.LegacyCorrections != nil && !cfg.LegacyCorrections.Empty() {
		return errors.New("config: set either corrections or legacyCorrections, not both")
	}
	return nil
}

func parseContentTypes(list []string) ([]record.ContentType, error) {
	out := make([]record.ContentType, 0, len(list))
	for _, s := range list {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		ct := record.ContentType(s)
		if !ct.Valid() {
			return nil, fmt.Errorf("config: unknown content type %q", s)
		}
		out = append(out, ct)
	}
	return out, nil
}
