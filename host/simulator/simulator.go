// Package simulator runs the firmware command loop in-process against
// simulated drivers, connected to the host client by a net.Pipe.
package simulator

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"gostep/config"
	"gostep/core"
	"gostep/drivers/sim"
	"gostep/host/serial"
)

// LoopInterval is how long the simulated main loop sleeps between
// scheduler passes.
var LoopInterval = 200 * time.Microsecond

// Simulator is a virtual controller board running the firmware loop.
type Simulator struct {
	Machine *core.Machine
	Board   *sim.Board

	product *config.Product
	link    *core.Link
	conn    net.Conn
	host    net.Conn
	clock   core.Clock
	log     *log.Entry
}

// New builds p on a simulated board. The motors are disabled until the
// host enables them.
func New(p *config.Product) (*Simulator, error) {
	board := config.SimBoard(p)
	m, err := config.Build(p, board)
	if err != nil {
		return nil, err
	}
	fw, host := net.Pipe()
	return &Simulator{
		Machine: m,
		Board:   board,
		product: p,
		link:    core.NewLink(m, fw),
		conn:    fw,
		host:    host,
		clock:   core.MonotonicClock(),
		log:     log.WithFields(log.Fields{"component": "simulator", "product": p.Name}),
	}, nil
}

// Port returns the host end of the link.
func (s *Simulator) Port() serial.Port {
	return serial.FromConn(s.host)
}

// Link returns the firmware command link.
func (s *Simulator) Link() *core.Link {
	return s.link
}

// Run drives the firmware until ctx is done or the host closes the port.
func (s *Simulator) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		s.receive()
	}()

	var sched core.Scheduler
	sched.Dispatch(s.clock())
	s.Machine.ScheduleTick(&sched, s.product.TickUS)
	s.log.WithField("tick_us", s.product.TickUS).Info("firmware loop running")

	var err error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		default:
		}
		sched.Dispatch(s.clock())
		if ferr := s.link.Flush(); ferr != nil {
			if !isClosed(ferr) {
				err = ferr
			}
			break loop
		}
		time.Sleep(LoopInterval)
	}

	s.Machine.StopTick()
	s.conn.Close()
	wg.Wait()
	return err
}

func (s *Simulator) receive() {
	buf := make([]byte, 64)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			if rerr := s.link.Receive(buf[:n]); rerr != nil {
				s.log.WithError(rerr).Warn("command failed")
			}
		}
		if err != nil {
			if !isClosed(err) {
				s.log.WithError(err).Warn("link read failed")
			}
			return
		}
	}
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed)
}
