package config

import "gostep/drivers/sim"

// SimBoard returns a simulated board carrying one TMC5240 for every
// TMC5240 entry of p, so that Build(p, SimBoard(p)) runs without hardware.
func SimBoard(p *Product) *sim.Board {
	b := sim.NewBoard()
	for _, s := range p.Steppers {
		if s.Driver == DriverTMC5240 && s.TMC5240 != nil {
			b.Attach(s.TMC5240.SPIBus, s.TMC5240.CSPin)
		}
	}
	return b
}
