package stepdir

import "gostep/core"

// GPIOBackend bit-bangs step pulses through a core.GPIODriver.
type GPIOBackend struct {
	gpio       core.GPIODriver
	stepPin    core.GPIOPin
	dirPin     core.GPIOPin
	invertStep bool
	invertDir  bool
	direction  bool

	// PulseLoops is the busy-wait between the step edges. Around 300
	// gives the 2us most drivers need at 150MHz; 0 for simulation.
	PulseLoops int
}

// NewGPIOBackend creates a GPIO-based stepper backend
func NewGPIOBackend(gpio core.GPIODriver) *GPIOBackend {
	return &GPIOBackend{gpio: gpio, PulseLoops: 300}
}

// Init configures both pins as outputs, step idle and direction forward.
func (b *GPIOBackend) Init(stepPin, dirPin core.GPIOPin, invertStep, invertDir bool) error {
	b.stepPin = stepPin
	b.dirPin = dirPin
	b.invertStep = invertStep
	b.invertDir = invertDir

	if err := b.gpio.ConfigureOutput(stepPin); err != nil {
		return err
	}
	if err := b.gpio.ConfigureOutput(dirPin); err != nil {
		return err
	}
	if err := b.gpio.SetPin(stepPin, b.invertStep); err != nil {
		return err
	}
	b.SetDirection(false)
	return nil
}

// Step generates a single step pulse
func (b *GPIOBackend) Step() {
	b.gpio.SetPin(b.stepPin, !b.invertStep)
	for i := 0; i < b.PulseLoops; i++ {
	}
	b.gpio.SetPin(b.stepPin, b.invertStep)
}

// SetDirection sets the direction output, true is reverse.
func (b *GPIOBackend) SetDirection(dir bool) {
	b.direction = dir
	b.gpio.SetPin(b.dirPin, dir != b.invertDir)
}

// Stop returns the step pin to idle.
func (b *GPIOBackend) Stop() {
	b.gpio.SetPin(b.stepPin, b.invertStep)
}

// GetName returns the backend name
func (b *GPIOBackend) GetName() string {
	return "GPIO"
}
