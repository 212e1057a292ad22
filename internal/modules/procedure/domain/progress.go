package domain

import (
	"math"
	"sync/atomic"
)

// Progress is a completion fraction in [0, 1] that only moves forward. It
// may be read from any goroutine while a procedure runs.
type Progress struct {
	bits atomic.Uint64
}

func (p *Progress) Value() float64 {
	return math.Float64frombits(p.bits.Load())
}

// Advance raises the fraction to v. Lower values are ignored.
func (p *Progress) Advance(v float64) {
	if v > 1 {
		v = 1
	}
	for {
		old := p.bits.Load()
		if v <= math.Float64frombits(old) {
			return
		}
		if p.bits.CompareAndSwap(old, math.Float64bits(v)) {
			return
		}
	}
}

// Step advances to done/total.
func (p *Progress) Step(done, total int) {
	if total <= 0 {
		return
	}
	p.Advance(float64(done) / float64(total))
}

func (p *Progress) Complete() {
	p.bits.Store(math.Float64bits(1))
}
