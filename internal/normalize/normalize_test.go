package normalize

import "testing"

func TestText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"two spaces kept", "a  b", "a  b"},
		{"three collapse to two", "a   b", "a  b"},
		{"mixed whitespace run", "a \t\n\n b", "a  b"},
		{"nbsp folds to space", "a\u00a0\u00a0\u00a0b", "a  b"},
		{"ligature folds", "\ufb01nance", "finance"},
		{"fullwidth folds", "\uff21\uff22", "AB"},
		{"zero width removed", "con\u200bsolidate", "consolidate"},
		{"soft hyphen removed", "consoli\u00addate", "consolidate"},
		{"bell removed", "a\u0007b", "ab"},
		{"combining recomposed", "e\u0301", "\u00e9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Text(tc.in); got != tc.want {
				t.Fatalf("Text(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestText_Idempotent(t *testing.T) {
	in := "T here   is​ a ﬁx\n\n\n done"
	once := Text(in)
	if twice := Text(once); twice != once {
		t.Fatalf("not idempotent: %q then %q", once, twice)
	}
}
