package domain

import "sort"

// ReferenceTable holds the RETSPL values of one headphone model in dB SPL,
// keyed by frequency in Hz.
type ReferenceTable struct {
	Headphone string
	Levels    map[int]float64
}

func (t ReferenceTable) Lookup(freq int) (float64, bool) {
	v, ok := t.Levels[freq]
	return v, ok
}

func (t ReferenceTable) Frequencies() []int {
	out := make([]int, 0, len(t.Levels))
	for f := range t.Levels {
		out = append(out, f)
	}
	sort.Ints(out)
	return out
}
