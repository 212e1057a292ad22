package domain

import (
	"math"
	"sort"

	audiogram "audiometer/internal/modules/audiogram/domain"
)

type Entry struct {
	Ear       audiogram.Ear
	Frequency int
	Offset    float64
}

// Profile is the per ear and frequency correction measured by a calibration
// run. Offsets are measured minus expected dB SPL.
type Profile struct {
	offsets map[audiogram.Ear]map[int]float64
}

func NewProfile() *Profile {
	p := &Profile{offsets: map[audiogram.Ear]map[int]float64{}}
	for _, ear := range audiogram.Ears {
		p.offsets[ear] = map[int]float64{}
	}
	return p
}

func (p *Profile) Set(ear audiogram.Ear, freq int, offset float64) {
	if ear == audiogram.EarBoth {
		p.offsets[audiogram.EarLeft][freq] = offset
		p.offsets[audiogram.EarRight][freq] = offset
		return
	}
	if p.offsets[ear] == nil {
		p.offsets[ear] = map[int]float64{}
	}
	p.offsets[ear][freq] = offset
}

// Offset returns the correction for one ear. EarBoth yields the combined
// value of the left and right offsets.
func (p *Profile) Offset(ear audiogram.Ear, freq int) (float64, bool) {
	if p == nil {
		return 0, false
	}
	if ear == audiogram.EarBoth {
		return p.Combined(freq)
	}
	v, ok := p.offsets[ear][freq]
	return v, ok
}

func (p *Profile) Combined(freq int) (float64, bool) {
	l, okL := p.offsets[audiogram.EarLeft][freq]
	r, okR := p.offsets[audiogram.EarRight][freq]
	if !okL || !okR {
		return 0, false
	}
	return CombineOffsets(l, r), true
}

func (p *Profile) Len() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, row := range p.offsets {
		n += len(row)
	}
	return n
}

// Entries lists the offsets ordered by ear, then frequency.
func (p *Profile) Entries() []Entry {
	if p == nil {
		return nil
	}
	var out []Entry
	for _, ear := range audiogram.Ears {
		freqs := make([]int, 0, len(p.offsets[ear]))
		for f := range p.offsets[ear] {
			freqs = append(freqs, f)
		}
		sort.Ints(freqs)
		for _, f := range freqs {
			out = append(out, Entry{Ear: ear, Frequency: f, Offset: p.offsets[ear][f]})
		}
	}
	return out
}

// CombineOffsets averages two offsets in the power domain.
func CombineOffsets(left, right float64) float64 {
	return 10 * math.Log10((math.Pow(10, left/10)+math.Pow(10, right/10))/2)
}
