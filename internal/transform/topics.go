package transform

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrTopics is wrapped by every topic table validation failure.
var ErrTopics = errors.New("invalid topic table")

// TopicRange assigns Topic to the half-open row-index interval [Start, End).
type TopicRange struct {
	Start int    `yaml:"start" json:"start"`
	End   int    `yaml:"end" json:"end"`
	Topic string `yaml:"topic" json:"topic"`
}

// Topics is an ordered table of ranges.
type Topics []TopicRange

// TopicUpper is the cumulative form used by the original reading list:
// each entry runs from the previous Upper to its own.
type TopicUpper struct {
	Topic string `yaml:"topic" json:"topic"`
	Upper int    `yaml:"upper" json:"upper"`
}

// FromUppers converts a cumulative {topic, upper} list into ranges.
func FromUppers(list []TopicUpper) Topics {
	out := make(Topics, 0, len(list))
	lower := 0
	for _, it := range list {
		out = append(out, TopicRange{Start: lower, End: it.Upper, Topic: it.Topic})
		lower = it.Upper
	}
	return out
}

// DefaultTopics is the segment table of the economic security reading list.
func DefaultTopics() Topics {
	return FromUppers([]TopicUpper{
		{Topic: "Books", Upper: 7},
		{Topic: "Overview of UBI", Upper: 20},
		{Topic: "Past Programs, Pilots and Findings", Upper: 37},
		{Topic: "Current & Pending Pilots and Programs", Upper: 59},
		{Topic: "Policy Variants and Alternatives", Upper: 76},
		{Topic: "Political & Policy Change Strategies", Upper: 91},
		{Topic: "Arguments for UBI", Upper: 113},
		{Topic: "Critiques and Concerns", Upper: 128},
		{Topic: "Misc Videos", Upper: 133},
	})
}

// Validate checks that the table partitions [0, rowCount) exactly: ranges
// sorted by Start, contiguous, non-empty, no overlap, covering every row.
func (t Topics) Validate(rowCount int) error {
	if len(t) == 0 {
		if rowCount == 0 {
			return nil
		}
		return fmt.Errorf("%w: no ranges for %d rows", ErrTopics, rowCount)
	}
	sorted := append(Topics(nil), t...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	next := 0
	for i, r := range sorted {
		if strings.TrimSpace(r.Topic) == "" {
			return fmt.Errorf("%w: range %d [%d,%d) has no topic", ErrTopics, i, r.Start, r.End)
		}
		if r.End <= r.Start {
			return fmt.Errorf("%w: range %q [%d,%d) is empty", ErrTopics, r.Topic, r.Start, r.End)
		}
		switch {
		case r.Start > next:
			return fmt.Errorf("%w: gap [%d,%d) before %q", ErrTopics, next, r.Start, r.Topic)
		case r.Start < next:
			return fmt.Errorf("%w: %q [%d,%d) overlaps previous range ending at %d", ErrTopics, r.Topic, r.Start, r.End, next)
		}
		next = r.End
	}
	if next != rowCount {
		return fmt.Errorf("%w: ranges end at %d but table has %d rows", ErrTopics, next, rowCount)
	}
	return nil
}

// Lookup returns the topic covering index.
func (t Topics) Lookup(index int) (string, bool) {
	for _, r := range t {
		if index >= r.Start && index < r.End {
			return r.Topic, true
		}
	}
	return "", false
}
