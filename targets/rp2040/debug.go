//go:build rp2040

package main

import (
	"machine"

	"gostep/core"
)

// initDebugUART points the core debug writer at UART0 on GPIO0 (TX) and
// GPIO1 (RX), 115200 baud. USB carries the command link, so debug output
// stays off it.
func initDebugUART() {
	uart := machine.UART0
	err := uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GPIO0,
		RX:       machine.GPIO1,
	})
	if err != nil {
		return
	}
	core.SetDebugWriter(func(s string) {
		uart.Write([]byte(s))
		uart.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(true)
	// faults are reported from the tick, which must not wait on the UART
	core.InitAsyncDebug()
	core.DebugPrintln("=== gostep debug UART ===")
}
