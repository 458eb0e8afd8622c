package config

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"gostep/core"
	"gostep/drivers/tmc5240"
)

const benchYaml = `
name: bench
tick_us: 50
steppers:
  - id: 0
    driver: stepdir
    us_per_step: 100
    stepdir:
      step_pin: 2
      dir_pin: 3
      enable_pin: 4
  - id: 3
    driver: sim
    sim:
      steps_per_poll: 10
limits:
  - name: x-min
    stepper: 0
    pin: 20
`

func TestDefaultProduct(t *testing.T) {
	Convey("the default product builds on a simulated board", t, func() {
		p := Default()
		board := SimBoard(p)
		m, err := Build(p, board)
		So(err, ShouldBeNil)
		So(m.Group().Len(), ShouldEqual, 2)

		Convey("both chips are brought up and left disabled", func() {
			for i, cs := range []core.GPIOPin{DefaultCS0, DefaultCS1} {
				chip := board.Chip(DefaultSPIBus, cs)
				So(chip, ShouldNotBeNil)
				So(chip.WritesTo(tmc5240.RegVMax), ShouldResemble, []uint32{tmc5240.DefaultVMax})
				So(chip.WritesTo(tmc5240.RegIHoldIRun), ShouldResemble, []uint32{tmc5240.DefaultIHoldIRun})
				So(m.Stepper(uint8(i)).Capabilities(), ShouldEqual, core.CapMoveTo|core.CapPositionFeedback|core.CapLimits)
				So(m.Stepper(uint8(i)).Enabled(), ShouldBeFalse)
			}
			So(board.Pins.Level(DefaultEnable), ShouldBeTrue)
		})

		Convey("a group move completes on both chips", func() {
			g := m.Group()
			g.Enable(true)
			So(board.Pins.Level(DefaultEnable), ShouldBeFalse)

			g.MoveTo(300)
			ticks := 0
			for m.Tick(p.TickUS) && ticks < 100 {
				ticks++
			}
			So(g.IsMoving(), ShouldBeFalse)
			So(g.Positions(), ShouldResemble, []int32{300, 300})
		})
	})
}

func TestParse(t *testing.T) {
	Convey("parsing a mixed product", t, func() {
		p, err := Parse([]byte(benchYaml))
		So(err, ShouldBeNil)
		So(p.Name, ShouldEqual, "bench")
		So(p.TickUS, ShouldEqual, 50)
		So(len(p.Steppers), ShouldEqual, 2)

		Convey("defaults are applied", func() {
			So(p.Limits[0].Samples, ShouldEqual, 3)
			So(*p.Steppers[0].StepDir.EnablePin, ShouldEqual, 4)
			So(p.Steppers[1].Sim.StepsPerPoll, ShouldEqual, 10)
		})

		Convey("it builds and honours the limit switch", func() {
			board := SimBoard(p)
			m, err := Build(p, board)
			So(err, ShouldBeNil)
			So(len(m.LimitSwitches()), ShouldEqual, 1)

			s := m.Stepper(0)
			So(s.Capabilities(), ShouldEqual, core.CapStepDir)
			So(s.Speed(), ShouldEqual, 100)

			s.Enable(true)
			s.EnableLimits()
			s.MoveToPosition(50)
			m.Tick(100)
			m.Tick(100)
			So(board.Pins.Rises(2), ShouldEqual, 2)

			board.Pins.SetInput(20, false)
			for i := 0; i < 3; i++ {
				m.Tick(100)
			}
			So(s.LimitHit(), ShouldBeTrue)
			So(s.IsMoving(), ShouldBeFalse)
		})

		Convey("the sim stepper reaches its target", func() {
			m, err := Build(p, SimBoard(p))
			So(err, ShouldBeNil)
			s := m.Stepper(3)
			s.Enable(true)
			s.MoveToPosition(25)
			for s.Update(1) {
			}
			So(s.Position(), ShouldEqual, 25)
		})
	})
}

func TestInvalidProducts(t *testing.T) {
	enable := core.GPIOPin(1)
	sd := &StepDir{StepPin: 2, DirPin: 3, EnablePin: &enable}

	Convey("invalid products are rejected", t, func() {
		Convey("unknown driver", func() {
			_, err := Parse([]byte("steppers:\n  - id: 0\n    driver: l298n\n"))
			So(errors.Is(err, ErrUnknownDriver), ShouldBeTrue)
		})

		Convey("duplicate IDs", func() {
			p := &Product{Steppers: []Stepper{
				{ID: 1, Driver: DriverStepDir, StepDir: sd},
				{ID: 1, Driver: DriverSim},
			}}
			So(errors.Is(p.Validate(), core.ErrDuplicateID), ShouldBeTrue)
		})

		Convey("more steppers than a group holds", func() {
			p := &Product{}
			for i := 0; i <= core.GroupCapacity; i++ {
				p.Steppers = append(p.Steppers, Stepper{ID: uint8(i), Driver: DriverSim})
			}
			_, err := Build(p, SimBoard(p))
			So(errors.Is(err, core.ErrTooManySteppers), ShouldBeTrue)
		})

		Convey("missing driver parameters", func() {
			p := &Product{Steppers: []Stepper{{ID: 0, Driver: DriverStepDir}}}
			So(errors.Is(p.Validate(), ErrMissingParams), ShouldBeTrue)
		})

		Convey("velocity out of register range", func() {
			p := Default()
			p.Steppers[0].TMC5240.VMax = 1 << 23
			So(p.Validate(), ShouldNotBeNil)
		})

		Convey("limit on an unknown stepper", func() {
			p := Default()
			p.Limits = []Limit{{Name: "z", Stepper: 7, Pin: 9}}
			So(errors.Is(p.Validate(), ErrUnknownStepper), ShouldBeTrue)
		})

		Convey("a chip with nothing behind its bus fails its bring-up", func() {
			p := Default()
			_, err := Build(p, SimBoard(&Product{}))
			var initErr *core.InitError
			So(errors.As(err, &initErr), ShouldBeTrue)
			So(initErr.ID, ShouldEqual, 0)
		})
	})
}

func TestMarshal(t *testing.T) {
	Convey("the default product survives a YAML round trip", t, func() {
		data, err := Marshal(Default())
		So(err, ShouldBeNil)
		p, err := Parse(data)
		So(err, ShouldBeNil)
		So(p, ShouldResemble, Default())
	})
}
