// Command stepctl is an interactive shell for the stepper controller. With
// -sim it drives an in-process simulated board instead of a serial device.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/abiosoft/ishell"
	"github.com/caarlos0/env"
	log "github.com/sirupsen/logrus"

	"gostep/config"
	"gostep/host/mcu"
	"gostep/host/serial"
	"gostep/host/simulator"
)

// Settings come from the environment; flags override them.
type Settings struct {
	Device  string `env:"STEPCTL_DEVICE" envDefault:"/dev/ttyACM0"`
	Baud    int    `env:"STEPCTL_BAUD" envDefault:"115200"`
	Product string `env:"STEPCTL_PRODUCT"`
	Sim     bool   `env:"STEPCTL_SIM" envDefault:"false"`
	Debug   bool   `env:"STEPCTL_DEBUG" envDefault:"false"`
}

func main() {
	cfg := new(Settings)
	if err := env.Parse(cfg); err != nil {
		log.WithError(err).Fatal("bad environment")
	}
	flag.StringVar(&cfg.Device, "device", cfg.Device, "serial device path")
	flag.IntVar(&cfg.Baud, "baud", cfg.Baud, "baud rate (ignored for USB CDC)")
	flag.StringVar(&cfg.Product, "product", cfg.Product, "product YAML for -sim, empty for the reference board")
	flag.BoolVar(&cfg.Sim, "sim", cfg.Sim, "run against a simulated board")
	flag.BoolVar(&cfg.Debug, "v", cfg.Debug, "debug logging")
	flag.Parse()

	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m, err := connect(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("connect failed")
	}
	defer m.Close()

	v, err := m.Identify()
	if err != nil {
		log.WithError(err).Fatal("identify failed")
	}

	if flag.NArg() > 0 {
		out, err := execute(m, flag.Args())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			m.Close()
			os.Exit(1)
		}
		fmt.Println(out)
		return
	}

	shell := newShell(m)
	shell.Println("stepctl, firmware " + v.String())

	done := make(chan struct{})
	go func() {
		shell.Start()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func connect(ctx context.Context, cfg *Settings) (*mcu.MCU, error) {
	if !cfg.Sim {
		sc := serial.DefaultConfig(cfg.Device)
		sc.Baud = cfg.Baud
		return mcu.Connect(sc)
	}

	p, err := config.Load(cfg.Product)
	if err != nil {
		return nil, err
	}
	sim, err := simulator.New(p)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := sim.Run(ctx); err != nil {
			log.WithError(err).Error("simulator stopped")
		}
	}()
	return mcu.New(sim.Port()), nil
}

func newShell(m *mcu.MCU) *ishell.Shell {
	shell := ishell.New()
	shell.ShowPrompt(true)
	for _, c := range commands {
		name := c.name
		shell.AddCmd(&ishell.Cmd{
			Name: name,
			Help: c.help,
			Func: func(c *ishell.Context) {
				out, err := execute(m, append([]string{name}, c.Args...))
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(out)
			},
		})
	}
	return shell
}
