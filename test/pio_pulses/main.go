//go:build rp2040

package main

// PIO pulse check: exact pulse bursts at a few spacings, alternating
// direction. Count edges on a scope or logic analyzer; every burst must
// show exactly burstLen pulses.

import (
	"machine"
	"time"

	"gostep/core"
	"gostep/targets/pio"
)

const (
	stepPin  = machine.GPIO2
	dirPin   = machine.GPIO3
	burstLen = 100
)

var spacings = []struct {
	delay uint8
	name  string
}{
	{0, "back to back"},
	{10, "10 loops"},
	{100, "100 loops"},
	{255, "255 loops"},
}

func main() {
	time.Sleep(3 * time.Second)

	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	println("=== PIO pulse check ===")
	println("Step: GP2, Dir: GP3, burst:", burstLen)

	b, err := pio.Allocate()
	if err == nil {
		err = b.Init(core.GPIOPin(stepPin), core.GPIOPin(dirPin), false, false)
	}
	if err != nil {
		println("init error:", err.Error())
		for {
			led.Set(!led.Get())
			time.Sleep(100 * time.Millisecond)
		}
	}

	reverse := false
	for cycle := 1; ; cycle++ {
		println("\n=== cycle", cycle, "reverse:", reverse, "===")
		b.SetDirection(reverse)
		for _, s := range spacings {
			println("spacing:", s.name)
			led.High()
			b.QueueSteps(burstLen, s.delay)
			time.Sleep(500 * time.Millisecond)
			led.Low()
			time.Sleep(250 * time.Millisecond)
		}
		// single steps go through the same path as the motion tick
		for i := 0; i < 10; i++ {
			b.Step()
			time.Sleep(time.Millisecond)
		}
		reverse = !reverse
		time.Sleep(time.Second)
	}
}
