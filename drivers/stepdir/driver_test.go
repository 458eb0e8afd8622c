package stepdir_test

import (
	"testing"

	"gostep/core"
	"gostep/drivers/sim"
	"gostep/drivers/stepdir"
)

const (
	stepPin   core.GPIOPin = 2
	dirPin    core.GPIOPin = 3
	enablePin core.GPIOPin = 4
)

func newDriver(t *testing.T, cfg stepdir.Config) (*stepdir.Driver, *sim.GPIO) {
	t.Helper()
	gpio := sim.NewGPIO()
	cfg.StepPin, cfg.DirPin = stepPin, dirPin
	drv, err := stepdir.NewGPIO(gpio, cfg)
	if err != nil {
		t.Fatalf("NewGPIO: %v", err)
	}
	drv.Backend().(*stepdir.GPIOBackend).PulseLoops = 0
	return drv, gpio
}

func TestCapabilities(t *testing.T) {
	drv, _ := newDriver(t, stepdir.Config{})
	if caps := core.Capabilities(drv); caps != core.CapStepDir {
		t.Errorf("capabilities = %v, want STEP_DIR only", caps)
	}
}

func TestInitLeavesMotorDisabled(t *testing.T) {
	drv, gpio := newDriver(t, stepdir.Config{EnablePin: enablePin, UseEnablePin: true})
	if err := drv.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	for _, p := range []core.GPIOPin{stepPin, dirPin, enablePin} {
		if gpio.Mode(p) != sim.PinOutput {
			t.Errorf("pin %d not configured as output", p)
		}
	}
	if !gpio.Level(enablePin) {
		t.Error("active-low enable pin should idle high")
	}
	if gpio.Level(stepPin) {
		t.Error("step pin should idle low")
	}

	drv.SetEnable(true)
	if gpio.Level(enablePin) {
		t.Error("enable pin should be low when armed")
	}
}

func TestEnableActiveHigh(t *testing.T) {
	drv, gpio := newDriver(t, stepdir.Config{EnablePin: enablePin, UseEnablePin: true, EnableActiveHigh: true})
	drv.Init()
	if gpio.Level(enablePin) {
		t.Error("active-high enable pin should idle low")
	}
	drv.SetEnable(true)
	if !gpio.Level(enablePin) {
		t.Error("active-high enable pin should be high when armed")
	}
}

func TestStepperPulsesAndDirection(t *testing.T) {
	testCases := []struct {
		name      string
		invertDir bool
		target    int32
		dirLevel  bool
	}{
		{"forward", false, 5, false},
		{"reverse", false, -5, true},
		{"forward inverted", true, 5, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			drv, gpio := newDriver(t, stepdir.Config{InvertDir: tc.invertDir})
			s := core.NewStepper(1, drv)
			s.SetSpeed(1000)
			s.Enable(true)
			s.MoveToPosition(tc.target)

			if gpio.Level(dirPin) != tc.dirLevel {
				t.Errorf("dir pin = %v, want %v", gpio.Level(dirPin), tc.dirLevel)
			}
			for i := 0; i < 5; i++ {
				s.Update(1000)
			}
			if got := gpio.Rises(stepPin); got != 5 {
				t.Errorf("step pulses = %d, want 5", got)
			}
			if gpio.Level(stepPin) {
				t.Error("step pin left high")
			}
			if s.Position() != tc.target || s.IsMoving() {
				t.Errorf("position %d moving %v", s.Position(), s.IsMoving())
			}
		})
	}
}

func TestInvertStepIdlesHigh(t *testing.T) {
	drv, gpio := newDriver(t, stepdir.Config{InvertStep: true})
	drv.Init()
	if !gpio.Level(stepPin) {
		t.Fatal("inverted step pin should idle high")
	}
	drv.StepPulse()
	if gpio.Falls(stepPin) != 1 || !gpio.Level(stepPin) {
		t.Errorf("inverted pulse: falls=%d level=%v", gpio.Falls(stepPin), gpio.Level(stepPin))
	}
}

func TestNewRejectsMissingParts(t *testing.T) {
	if _, err := stepdir.New(nil, nil, stepdir.Config{}); err == nil {
		t.Error("nil backend accepted")
	}
	if _, err := stepdir.NewGPIO(nil, stepdir.Config{}); err == nil {
		t.Error("nil gpio accepted")
	}
	backend := stepdir.NewGPIOBackend(sim.NewGPIO())
	if _, err := stepdir.New(backend, nil, stepdir.Config{UseEnablePin: true}); err == nil {
		t.Error("enable pin without gpio accepted")
	}
}
