package record

import (
	"strings"

	"github.com/google/uuid"
)

// ContentType is the declared kind of resource a record's URL points at.
type ContentType string

const (
	HTML  ContentType = "html"
	PDF   ContentType = "pdf"
	Audio ContentType = "audio"
	Video ContentType = "video"
)

// Valid reports whether t is one of the known content types.
func (t ContentType) Valid() bool {
	switch t {
	case HTML, PDF, Audio, Video:
		return true
	}
	return false
}

// idNamespace scopes record ids derived from raw content. Changing it
// invalidates every pinned correction file.
var idNamespace = uuid.MustParse("6f1c2f7e-4b1a-5d0e-9a57-3f5c0e8b2d41")

// Record is one reading-list entry. Derived fields are nil until the
// transformer fills them; Text stays nil unless extraction set it.
type Record struct {
	// Index is the original load-order row index.
	Index int `json:"index"`
	// ID is stable across reorderings of the source dataset.
	ID string `json:"id"`

	RawContent string `json:"raw_content"`
	URL        string `json:"url"`

	Source     *string `json:"source"`
	Author     *string `json:"author"`
	Title      *string `json:"title"`
	Misc       *string `json:"misc"`
	Date       *string `json:"date"`
	MajorTopic *string `json:"major_topic"`

	ContentType ContentType `json:"content_type"`
	Text        *string     `json:"text"`
}

// NewID derives the stable identifier for a raw composite string.
func NewID(rawContent string) string {
	return uuid.NewSHA1(idNamespace, []byte(strings.TrimSpace(rawContent))).String()
}

// New builds a freshly loaded record. An explicit id wins over the derived one.
func New(index int, id, rawContent, url string) *Record {
	if strings.TrimSpace(id) == "" {
		id = NewID(rawContent)
	}
	return &Record{Index: index, ID: id, RawContent: rawContent, URL: url}
}

// Str returns a pointer to s.
func Str(s string) *string { return &s }

// Value dereferences p, returning "" for nil.
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
