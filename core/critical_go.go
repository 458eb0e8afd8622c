//go:build !tinygo

package core

import "sync"

// critical serializes stepper state between the motion tick and limit
// handlers. Host builds have goroutines instead of interrupts.
type critical struct {
	mu sync.Mutex
}

type criticalState struct{}

func (c *critical) enter() criticalState {
	c.mu.Lock()
	return criticalState{}
}

func (c *critical) exit(criticalState) {
	c.mu.Unlock()
}
