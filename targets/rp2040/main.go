//go:build rp2040

// Firmware for the RP2040 stepper controller. The host talks to it over
// USB CDC; debug output goes to UART0.
package main

import (
	"machine"
	"time"

	"gostep/config"
	"gostep/core"
)

var (
	// counters for the debug UART
	framesIn    uint32
	panics      uint32
	flushErrors uint32
)

func main() {
	// clear any watchdog state left by a previous reset
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}

	initUSB()
	initDebugUART()

	product := config.Default()
	hw := newBoard()
	m, err := config.Build(product, hw)
	if err != nil {
		core.DebugPrintln("build failed: " + err.Error())
		halt()
	}
	armLimitInterrupts(m)

	out := &usbWriter{}
	link := core.NewLink(m, out)

	var sched core.Scheduler
	sched.Dispatch(hardwareTime())
	m.ScheduleTick(&sched, product.TickUS)
	core.DebugPrintln("firmware loop running, " + product.Name)

	buf := make([]byte, 64)
	for {
		// a panic must not take the motors down with the loop
		func() {
			defer func() {
				if r := recover(); r != nil {
					panics++
					m.Group().Stop()
					m.Events().Dump()
				}
			}()

			if n := usbRead(buf); n > 0 {
				framesIn++
				link.Receive(buf[:n])
			}
			sched.Dispatch(hardwareTime())
			if err := link.Flush(); err != nil {
				flushErrors++
			}
		}()

		// yield to the USB stack
		time.Sleep(10 * time.Microsecond)
	}
}

// halt parks the firmware with the motors unpowered.
func halt() {
	for {
		time.Sleep(time.Second)
	}
}
