package blinker

import "time"

// Output is a digital output line. machine.Pin satisfies it on TinyGo.
type Output interface {
	Set(high bool)
}

// Toggler flips a set of outputs in lockstep every time its deadline passes.
type Toggler struct {
	outputs  []Output
	high     bool
	deadline time.Time
}

// NewToggler returns a Toggler over outputs. Call Start before Poll.
func NewToggler(outputs ...Output) *Toggler {
	return &Toggler{outputs: outputs}
}

// Start drives every output high and arms the first deadline.
func (t *Toggler) Start(now time.Time, interval Interval) {
	t.high = true
	t.drive()
	t.deadline = now.Add(interval.Duration())
}

// Poll flips the outputs if the deadline has passed and re-arms it with the
// interval in effect now. It reports whether a flip happened.
func (t *Toggler) Poll(now time.Time, interval Interval) bool {
	if now.Before(t.deadline) {
		return false
	}
	t.high = !t.high
	t.drive()
	t.deadline = now.Add(interval.Duration())
	return true
}

// High reports the current output phase.
func (t *Toggler) High() bool { return t.high }

// Deadline is the time of the next flip.
func (t *Toggler) Deadline() time.Time { return t.deadline }

func (t *Toggler) drive() {
	for _, o := range t.outputs {
		o.Set(t.high)
	}
}
