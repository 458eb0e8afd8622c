//go:build tinygo

package core

import "runtime/interrupt"

// critical masks interrupts so a limit ISR cannot interleave with the
// motion tick.
type critical struct{}

type criticalState = interrupt.State

func (c *critical) enter() criticalState {
	return interrupt.Disable()
}

func (c *critical) exit(state criticalState) {
	interrupt.Restore(state)
}
