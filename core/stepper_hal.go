package core

// StepperBackend generates step and direction signals for a STEP/DIR
// driver. Implementations can use GPIO bit-banging, PIO, or other methods.
type StepperBackend interface {
	// Init claims the step and direction pins.
	// invertStep / invertDir flip the electrical polarity.
	Init(stepPin, dirPin GPIOPin, invertStep, invertDir bool) error

	// Step generates a single step pulse.
	// Must handle pulse width timing internally and be fast, it runs
	// from the motion tick.
	Step()

	// SetDirection sets the direction output.
	// dir: true = reverse, false = forward
	// Must ensure proper dir-to-step setup time
	SetDirection(dir bool)

	// Stop immediately halts stepping
	Stop()

	// GetName returns backend implementation name
	GetName() string
}
