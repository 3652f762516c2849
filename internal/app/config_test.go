package app

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/hyperifyio/readinglist/internal/record"
	"github.com/hyperifyio/readinglist/internal/transform"
)

const sampleYAML = `
input: readings.json
outputDir: out
topicUppers:
  - {topic: Books, upper: 2}
  - {topic: Videos, upper: 3}
extract:
  contentTypes: [pdf]
  excludeTopics: [Videos]
  delay: 250ms
  pdfTimeout: 2m
  pdfVerifyTLS: true
  repairs:
    - {from: "T here", to: "There"}
auth:
  enable: true
  hosts: [wsj.com, ft.com]
cache:
  dir: /tmp/rl-cache
  maxAge: 24h
`

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestApplyFileConfig_YAML(t *testing.T) {
	fc, err := LoadConfigFile(writeConfig(t, "cfg.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := Defaults()
	if err := ApplyFileConfig(&cfg, fc); err != nil {
		t.Fatal(err)
	}
	if cfg.InputPath != "readings.json" || cfg.OutputDir != "out" {
		t.Fatalf("paths: %+v", cfg)
	}
	want := transform.Topics{{Start: 0, End: 2, Topic: "Books"}, {Start: 2, End: 3, Topic: "Videos"}}
	if !reflect.DeepEqual(cfg.Topics, want) {
		t.Fatalf("topics = %+v", cfg.Topics)
	}
	if !reflect.DeepEqual(cfg.ContentTypes, []record.ContentType{record.PDF}) {
		t.Fatalf("content types = %v", cfg.ContentTypes)
	}
	if cfg.Delay != 250*time.Millisecond || cfg.PDFTimeout != 2*time.Minute || cfg.HTMLTimeout != 60*time.Second {
		t.Fatalf("durations: delay=%v pdf=%v html=%v", cfg.Delay, cfg.PDFTimeout, cfg.HTMLTimeout)
	}
	if !cfg.PDFVerifyTLS || !cfg.UseAuth || len(cfg.AuthHosts) != 2 || len(cfg.Repairs) != 1 {
		t.Fatalf("flags: %+v", cfg)
	}
	if cfg.CacheDir != "/tmp/rl-cache" || cfg.CacheMaxAge != 24*time.Hour {
		t.Fatalf("cache: %q %v", cfg.CacheDir, cfg.CacheMaxAge)
	}
}

func TestApplyFileConfig_RejectsBothTopicForms(t *testing.T) {
	fc := FileConfig{
		Topics:      []transform.TopicRange{{Start: 0, End: 1, Topic: "a"}},
		TopicUppers: []transform.TopicUpper{{Topic: "a", Upper: 1}},
	}
	cfg := Defaults()
	if err := ApplyFileConfig(&cfg, fc); err == nil {
		t.Fatalf("expected error")
	}
}

func TestApplyFileConfig_JSON(t *testing.T) {
	fc, err := LoadConfigFile(writeConfig(t, "cfg.json", `{"input": "in.json", "extract": {"contentTypes": ["html"]}, "auth": {"enable": false}}`))
	if err != nil {
		t.Fatal(err)
	}
	cfg := Defaults()
	cfg.UseAuth = true
	if err := ApplyFileConfig(&cfg, fc); err != nil {
		t.Fatal(err)
	}
	if cfg.InputPath != "in.json" || cfg.UseAuth || len(cfg.ContentTypes) != 1 {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("READINGLIST_INPUT", "env.json")
	t.Setenv("READINGLIST_EXCLUDE_HOSTS", "a.com, b.com ,")
	t.Setenv("READINGLIST_CONTENT_TYPES", "html")
	t.Setenv("READINGLIST_DELAY", "2s")
	t.Setenv("READINGLIST_USE_AUTH", "off")
	t.Setenv("READINGLIST_AUTH_USER", "reader")
	t.Setenv("READINGLIST_AUTH_PASSWORD", " pass ")

	fc, err := LoadConfigFile(writeConfig(t, "cfg.yaml", sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	cfg := Defaults()
	if err := ApplyFileConfig(&cfg, fc); err != nil {
		t.Fatal(err)
	}
	if err := ApplyEnvOverrides(&cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.InputPath != "env.json" {
		t.Fatalf("env should override file input, got %q", cfg.InputPath)
	}
	if !reflect.DeepEqual(cfg.ExcludeHosts, []string{"a.com", "b.com"}) {
		t.Fatalf("exclude hosts = %q", cfg.ExcludeHosts)
	}
	if !reflect.DeepEqual(cfg.ContentTypes, []record.ContentType{record.HTML}) || cfg.Delay != 2*time.Second {
		t.Fatalf("types=%v delay=%v", cfg.ContentTypes, cfg.Delay)
	}
	if cfg.UseAuth || cfg.AuthUser != "reader" || cfg.AuthPassword != " pass " {
		t.Fatalf("auth: %v %q %q", cfg.UseAuth, cfg.AuthUser, cfg.AuthPassword)
	}
	// Untouched by env.
	if cfg.OutputDir != "out" {
		t.Fatalf("output dir = %q", cfg.OutputDir)
	}
}

func TestApplyEnvOverrides_Errors(t *testing.T) {
	t.Setenv("READINGLIST_DELAY", "soon")
	cfg := Defaults()
	if err := ApplyEnvOverrides(&cfg); err == nil {
		t.Fatalf("expected duration error")
	}
	t.Setenv("READINGLIST_DELAY", "")
	t.Setenv("READINGLIST_CONTENT_TYPES", "html,ebook")
	if err := ApplyEnvOverrides(&cfg); err == nil {
		t.Fatalf("expected content type error")
	}
}

func TestValidateConfig(t *testing.T) {
	ok := Defaults()
	ok.InputPath = "in.json"
	if err := ValidateConfig(ok); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	cases := map[string]func(*Config){
		"no input":       func(c *Config) { c.InputPath = " " },
		"no output":      func(c *Config) { c.OutputDir = ""; c.OutputPath = "" },
		"negative delay": func(c *Config) { c.Delay = -time.Second },
		"bad type":       func(c *Config) { c.ContentTypes = []record.ContentType{"ebook"} },
		"both corrections": func(c *Config) {
			c.CorrectionsPath = "c.yaml"
			c.LegacyCorrections = &transform.LegacyCorrections{TitleAuthor: []int{1}}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := ok
			mutate(&c)
			if err := ValidateConfig(c); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
