//go:build baremetal

package blinkservice

import "runtime/interrupt"

// On microcontrollers the callbacks run in interrupt context, where a mutex
// could never be released. Masking interrupts is enough: there is one core
// and the loop never holds the section across a call into the stack.
type critical struct {
	state interrupt.State
}

func (c *critical) lock()   { c.state = interrupt.Disable() }
func (c *critical) unlock() { interrupt.Restore(c.state) }
