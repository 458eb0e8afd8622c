package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gostep/config"
	"gostep/host/mcu"
	"gostep/host/simulator"
)

func startSim(t *testing.T) *mcu.MCU {
	t.Helper()
	s, err := simulator.New(config.Default())
	if err != nil {
		t.Fatalf("simulator.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	m := mcu.New(s.Port())
	m.Timeout = 2 * time.Second
	t.Cleanup(func() {
		m.Close()
		cancel()
		<-done
	})
	return m
}

func run(t *testing.T, m *mcu.MCU, line string) string {
	t.Helper()
	out, err := execute(m, strings.Fields(line))
	if err != nil {
		t.Fatalf("%s: %v", line, err)
	}
	return out
}

func TestShellSession(t *testing.T) {
	m := startSim(t)

	run(t, m, "enable 1 on")
	run(t, m, "moveby 1 -40")
	if out := run(t, m, "wait 1 5s"); out != "stepper 1 done at -40" {
		t.Errorf("wait = %q", out)
	}
	if out := run(t, m, "query 1"); out != "stepper 1: pos=-40 target=-40 [enabled]" {
		t.Errorf("query = %q", out)
	}
	if out := run(t, m, "query 9"); out != "stepper 9: unknown" {
		t.Errorf("query unknown = %q", out)
	}
	if out := run(t, m, "gquery"); out != "steppers=2 moving=false" {
		t.Errorf("gquery = %q", out)
	}
}

func TestExecuteErrors(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"", "wrong number"},
		{"spin 0", "unknown command"},
		{"move 0", "move <oid> <position>"},
		{"move x 10", "bad oid"},
		{"enable 0 maybe", "expected on or off"},
		{"gmove 9999999999", "bad number"},
	}
	for _, tt := range tests {
		_, err := execute(nil, strings.Fields(tt.line))
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%q: err = %v, want %q", tt.line, err, tt.want)
		}
	}
	if _, err := execute(nil, strings.Fields("move 0")); !errors.Is(err, errUsage) {
		t.Errorf("short args not errUsage: %v", err)
	}
}

func TestParseBool(t *testing.T) {
	for s, want := range map[string]bool{"on": true, "ON": true, "1": true, "yes": true, "off": false, "0": false, "false": false} {
		got, err := parseBool(s)
		if err != nil || got != want {
			t.Errorf("parseBool(%q) = %v, %v", s, got, err)
		}
	}
}
