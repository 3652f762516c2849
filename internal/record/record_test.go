package record

import "testing"

func TestNewID_StableAndTrimmed(t *testing.T) {
	a := NewID("Source // Author (2017) // Title")
	b := NewID("  Source // Author (2017) // Title\n")
	if a != b {
		t.Fatalf("expected surrounding whitespace to be ignored: %s vs %s", a, b)
	}
	if c := NewID("Other // Row"); c == a {
		t.Fatalf("different content produced same id %s", c)
	}
}

func TestNew_ExplicitIDWins(t *testing.T) {
	r := New(3, "row-3", "raw", "https://x.org")
	if r.ID != "row-3" {
		t.Fatalf("id = %q, want row-3", r.ID)
	}
	if r.Index != 3 || r.Text != nil || r.ContentType != "" {
		t.Fatalf("unexpected initial state: %+v", r)
	}
	if d := New(0, "", "raw", ""); d.ID != NewID("raw") {
		t.Fatalf("derived id mismatch: %s", d.ID)
	}
}

func TestContentTypeValid(t *testing.T) {
	for _, ct := range []ContentType{HTML, PDF, Audio, Video} {
		if !ct.Valid() {
			t.Fatalf("%s should be valid", ct)
		}
	}
	if ContentType("").Valid() || ContentType("epub").Valid() {
		t.Fatalf("unexpected valid content type")
	}
}
