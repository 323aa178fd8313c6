package schedule

import "sort"

const minutesPerDay = 24 * 60

// Span is a half-open [Start, End) window in minutes since local midnight.
// A span touching another at its boundary does not overlap it, so
// back-to-back windows are distinct until merged.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (s Span) Empty() bool {
	return s.End <= s.Start
}

func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// MergeSpans sorts and coalesces overlapping or adjacent spans, dropping
// empty ones. The result is sorted, pairwise disjoint and non-adjacent.
func MergeSpans(spans []Span) []Span {
	work := make([]Span, 0, len(spans))
	for _, s := range spans {
		if !s.Empty() {
			work = append(work, s)
		}
	}
	if len(work) == 0 {
		return nil
	}

	sort.Slice(work, func(i, j int) bool {
		if work[i].Start != work[j].Start {
			return work[i].Start < work[j].Start
		}
		return work[i].End < work[j].End
	})

	merged := []Span{work[0]}
	for _, s := range work[1:] {
		last := &merged[len(merged)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}

	return merged
}

// SubtractSpans removes every span in busy from the free set. Carving a
// hole out of the middle of a free span splits it in two; subtracting a
// span wholly outside the set is a no-op. The free set must already be
// merged; the result stays sorted and disjoint.
func SubtractSpans(free, busy []Span) []Span {
	out := free
	for _, b := range busy {
		out = subtractOne(out, b)
	}
	return out
}

func subtractOne(set []Span, b Span) []Span {
	if b.Empty() {
		return set
	}

	out := make([]Span, 0, len(set)+1)
	for _, s := range set {
		if !s.Overlaps(b) {
			out = append(out, s)
			continue
		}
		if b.Start > s.Start {
			out = append(out, Span{Start: s.Start, End: b.Start})
		}
		if b.End < s.End {
			out = append(out, Span{Start: b.End, End: s.End})
		}
	}
	return out
}
