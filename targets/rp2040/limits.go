//go:build rp2040

package main

import (
	"machine"

	"gostep/core"
)

// armLimitInterrupts fires each switch on its active edge. The tick keeps
// polling the switches too, which is what re-arms them on release.
func armLimitInterrupts(m *core.Machine) {
	for _, ls := range m.LimitSwitches() {
		ls := ls
		edge := machine.PinFalling
		if ls.Flags&core.LSF_ACTIVE_HIGH != 0 {
			edge = machine.PinRising
		}
		err := machine.Pin(ls.Pin).SetInterrupt(edge, func(machine.Pin) {
			ls.Trigger()
		})
		if err != nil {
			core.DebugPrintln("limit " + ls.Name + ": no interrupt, polling only")
		}
	}
}
