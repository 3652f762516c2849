package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const dataset = `{"raw_content": {"0": "Book // Author (2001) // Title", "1": "Talk // Speaker // Video (2010)"},
 "url": {"0": "None", "1": "https://www.youtube.com/watch?v=1"}}`

const config = `
topics:
  - {start: 0, end: 1, topic: Books}
  - {start: 1, end: 2, topic: Videos}
extract:
  delay: 3s
`

func setup(t *testing.T) (dir, in, cfg string) {
	t.Helper()
	dir = t.TempDir()
	in = filepath.Join(dir, "readings.json")
	cfg = filepath.Join(dir, "readinglist.yaml")
	if err := os.WriteFile(in, []byte(dataset), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg, []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir, in, cfg
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(io.Discard)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTransformCommand_WritesTable(t *testing.T) {
	dir, in, cfg := setup(t)
	out := filepath.Join(dir, "out.tsv")
	if _, err := execute(t, "transform", "--config", cfg, "--input", in, "--output", out); err != nil {
		t.Fatalf("transform: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), b)
	}
	if !strings.Contains(lines[1], "\tBooks\thtml\t") || !strings.Contains(lines[2], "\tVideos\tvideo\t") {
		t.Fatalf("unexpected rows:\n%s", b)
	}
}

func TestIDsCommand(t *testing.T) {
	_, in, cfg := setup(t)
	out, err := execute(t, "ids", "--config", cfg, "--input", in)
	if err != nil {
		t.Fatalf("ids: %v", err)
	}
	if !strings.HasPrefix(out, "0\t") || strings.Count(out, "\n") != 2 {
		t.Fatalf("ids output:\n%s", out)
	}
}

func TestIDsPin_DefaultTableNeedsFullDataset(t *testing.T) {
	_, in, cfg := setup(t)
	if _, err := execute(t, "ids", "--config", cfg, "--input", in, "--pin"); err == nil {
		t.Fatalf("pinning the built-in table against a two-row dataset should fail")
	}
}

func TestBuildConfig_Precedence(t *testing.T) {
	_, in, cfg := setup(t)
	t.Setenv("READINGLIST_INPUT", "from-env.json")
	t.Setenv("READINGLIST_HTML_TIMEOUT", "5s")

	opts := &options{}
	root := newRootCmdWith(io.Discard, opts)
	runCmd, _, err := root.Find([]string{"run"})
	if err != nil {
		t.Fatal(err)
	}
	if err := runCmd.ParseFlags([]string{"--config", cfg, "--input", in, "--pdf.timeout", "7s"}); err != nil {
		t.Fatal(err)
	}
	c, err := buildConfig(runCmd, opts)
	if err != nil {
		t.Fatal(err)
	}
	if c.InputPath != in {
		t.Fatalf("flag should win over env: %q", c.InputPath)
	}
	if c.HTMLTimeout != 5*time.Second || c.PDFTimeout != 7*time.Second {
		t.Fatalf("timeouts html=%v pdf=%v", c.HTMLTimeout, c.PDFTimeout)
	}
	if c.Delay != 3*time.Second {
		t.Fatalf("file delay lost: %v", c.Delay)
	}
	if len(c.Topics) != 2 {
		t.Fatalf("file topics lost: %+v", c.Topics)
	}
}

func TestRunCommand_MissingInputFails(t *testing.T) {
	t.Setenv("READINGLIST_INPUT", "")
	if _, err := execute(t, "run", "--output", filepath.Join(t.TempDir(), "x.tsv")); err == nil {
		t.Fatalf("expected error without input")
	}
}
