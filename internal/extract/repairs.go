package extract

import "strings"

// Repair is a literal replacement for a corrupted word sequence observed in
// decoded documents. It is corpus data, not a general fix.
type Repair struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// Repairs are applied in order.
type Repairs []Repair

// DefaultRepairs covers the sequences seen in the reading-list PDFs.
func DefaultRepairs() Repairs {
	return Repairs{
		{From: "T here", To: "There"},
		{From: "consoli date", To: "consolidate"},
	}
}

// Apply runs every replacement over s.
func (rs Repairs) Apply(s string) string {
	for _, r := range rs {
		if r.From == "" {
			continue
		}
		s = strings.ReplaceAll(s, r.From, r.To)
	}
	return s
}
