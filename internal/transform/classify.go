package transform

import (
	"strings"

	"github.com/hyperifyio/readinglist/internal/record"
)

type classRule struct {
	substr string
	ct     record.ContentType
}

// classRules are evaluated in order and the last match wins.
var classRules = []classRule{
	{"pdf", record.PDF},
	{"podcast", record.Audio},
	{"youtube", record.Video},
	{"ted.com", record.Video},
}

// Classify derives a content type from URL substrings, defaulting to HTML.
// Matching is case-sensitive.
func Classify(url string) record.ContentType {
	ct := record.HTML
	for _, r := range classRules {
		if strings.Contains(url, r.substr) {
			ct = r.ct
		}
	}
	return ct
}
