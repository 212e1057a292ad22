package domain

import audiogram "audiometer/internal/modules/audiogram/domain"

type Step struct {
	Frequency int
	Ear       audiogram.Ear
}

// Cursor walks the calibration sequence forward only: every clinical
// frequency ascending on the left ear, then on the right ear.
type Cursor struct {
	steps []Step
	pos   int
}

func NewCursor() *Cursor {
	steps := make([]Step, 0, len(audiogram.Ears)*len(audiogram.Frequencies))
	for _, ear := range audiogram.Ears {
		for _, f := range audiogram.Frequencies {
			steps = append(steps, Step{Frequency: f, Ear: ear})
		}
	}
	return &Cursor{steps: steps}
}

// Next yields the following step, or false once the sequence is used up.
func (c *Cursor) Next() (Step, bool) {
	if c.pos >= len(c.steps) {
		return Step{}, false
	}
	s := c.steps[c.pos]
	c.pos++
	return s, true
}

// Current is the step most recently yielded by Next.
func (c *Cursor) Current() (Step, bool) {
	if c.pos == 0 {
		return Step{}, false
	}
	return c.steps[c.pos-1], true
}

func (c *Cursor) Position() int { return c.pos }

func (c *Cursor) Len() int { return len(c.steps) }

func (c *Cursor) Exhausted() bool { return c.pos >= len(c.steps) }

func (c *Cursor) Steps() []Step { return append([]Step(nil), c.steps...) }
