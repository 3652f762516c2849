package dispatch

import (
	"strings"

	"github.com/hyperifyio/readinglist/internal/record"
)

// Strategy tags how a record's text is obtained.
type Strategy int

const (
	// None leaves text unset.
	None Strategy = iota
	HTML
	PDF
	// Authenticated needs a logged-in browser session.
	Authenticated
)

func (s Strategy) String() string {
	switch s {
	case HTML:
		return "html"
	case PDF:
		return "pdf"
	case Authenticated:
		return "authenticated"
	default:
		return "none"
	}
}

// Select picks the strategy for a record. Hosts that require a login take
// precedence over the declared content type.
func Select(r *record.Record, authHosts []string) Strategy {
	if strings.TrimSpace(r.URL) == "" {
		return None
	}
	if containsAny(r.URL, authHosts) {
		return Authenticated
	}
	switch r.ContentType {
	case record.HTML:
		return HTML
	case record.PDF:
		return PDF
	default:
		return None
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
