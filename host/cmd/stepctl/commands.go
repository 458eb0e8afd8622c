package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gostep/host/mcu"
)

var errUsage = errors.New("wrong number of arguments")

// command is one shell verb. run gets the arguments after the verb and
// returns the line to print.
type command struct {
	name string
	help string
	args int // minimum argument count
	run  func(m *mcu.MCU, args []string) (string, error)
}

var commands = []command{
	{"enable", "enable <oid> <on|off>", 2, func(m *mcu.MCU, a []string) (string, error) {
		oid, on, err := oidBool(a)
		if err != nil {
			return "", err
		}
		return "ok", m.Enable(oid, on)
	}},
	{"speed", "speed <oid> <us_per_step>", 2, func(m *mcu.MCU, a []string) (string, error) {
		oid, err := parseOID(a[0])
		if err != nil {
			return "", err
		}
		us, err := strconv.ParseUint(a[1], 10, 32)
		if err != nil {
			return "", err
		}
		return "ok", m.SetSpeed(oid, uint32(us))
	}},
	{"move", "move <oid> <position>", 2, func(m *mcu.MCU, a []string) (string, error) {
		oid, v, err := oidInt(a)
		if err != nil {
			return "", err
		}
		return "ok", m.Move(oid, v)
	}},
	{"moveby", "moveby <oid> <delta>", 2, func(m *mcu.MCU, a []string) (string, error) {
		oid, v, err := oidInt(a)
		if err != nil {
			return "", err
		}
		return "ok", m.MoveBy(oid, v)
	}},
	{"stop", "stop <oid>", 1, func(m *mcu.MCU, a []string) (string, error) {
		oid, err := parseOID(a[0])
		if err != nil {
			return "", err
		}
		return "ok", m.Stop(oid)
	}},
	{"limits", "limits <oid> <on|off>", 2, func(m *mcu.MCU, a []string) (string, error) {
		oid, on, err := oidBool(a)
		if err != nil {
			return "", err
		}
		return "ok", m.EnableLimits(oid, on)
	}},
	{"accel", "accel <oid> <accel>", 2, func(m *mcu.MCU, a []string) (string, error) {
		oid, err := parseOID(a[0])
		if err != nil {
			return "", err
		}
		v, err := strconv.ParseUint(a[1], 0, 32)
		if err != nil {
			return "", err
		}
		return "ok", m.SetAcceleration(oid, uint32(v))
	}},
	{"query", "query <oid>", 1, func(m *mcu.MCU, a []string) (string, error) {
		oid, err := parseOID(a[0])
		if err != nil {
			return "", err
		}
		st, err := m.Query(oid)
		if err != nil {
			return "", err
		}
		return formatState(st), nil
	}},
	{"wait", "wait <oid> [timeout]", 1, func(m *mcu.MCU, a []string) (string, error) {
		oid, err := parseOID(a[0])
		if err != nil {
			return "", err
		}
		timeout := 30 * time.Second
		if len(a) > 1 {
			if timeout, err = time.ParseDuration(a[1]); err != nil {
				return "", err
			}
		}
		evt, err := m.Wait(oid, timeout)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("stepper %d %s at %d", evt.OID, evt.Kind, evt.Position), nil
	}},
	{"genable", "genable <on|off>", 1, func(m *mcu.MCU, a []string) (string, error) {
		on, err := parseBool(a[0])
		if err != nil {
			return "", err
		}
		return "ok", m.GroupEnable(on)
	}},
	{"gmove", "gmove <position>", 1, func(m *mcu.MCU, a []string) (string, error) {
		v, err := parseInt32(a[0])
		if err != nil {
			return "", err
		}
		return "ok", m.GroupMove(v)
	}},
	{"gmoveby", "gmoveby <delta>", 1, func(m *mcu.MCU, a []string) (string, error) {
		v, err := parseInt32(a[0])
		if err != nil {
			return "", err
		}
		return "ok", m.GroupMoveBy(v)
	}},
	{"gstop", "gstop", 0, func(m *mcu.MCU, a []string) (string, error) {
		return "ok", m.GroupStop()
	}},
	{"gquery", "gquery", 0, func(m *mcu.MCU, a []string) (string, error) {
		st, err := m.GroupQuery()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("steppers=%d moving=%t", st.Count, st.Moving), nil
	}},
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// execute runs one command line split into words.
func execute(m *mcu.MCU, words []string) (string, error) {
	if len(words) == 0 {
		return "", errUsage
	}
	c, ok := lookup(words[0])
	if !ok {
		return "", fmt.Errorf("unknown command %q", words[0])
	}
	args := words[1:]
	if len(args) < c.args {
		return "", fmt.Errorf("%w: %s", errUsage, c.help)
	}
	return c.run(m, args)
}

func formatState(st mcu.StepperState) string {
	if !st.Known() {
		return fmt.Sprintf("stepper %d: unknown", st.OID)
	}
	var flags []string
	for _, f := range []struct {
		set  bool
		name string
	}{
		{st.Enabled(), "enabled"},
		{st.Moving(), "moving"},
		{st.LimitHit(), "limit"},
		{st.LimitsEnabled(), "limits-on"},
		{st.Fault(), "fault"},
	} {
		if f.set {
			flags = append(flags, f.name)
		}
	}
	return fmt.Sprintf("stepper %d: pos=%d target=%d [%s]", st.OID, st.Position, st.Target, strings.Join(flags, " "))
}

func parseOID(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("bad oid %q", s)
	}
	return uint8(v), nil
}

func parseInt32(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", s)
	}
	return int32(v), nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "1", "true", "yes":
		return true, nil
	case "off", "0", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func oidInt(a []string) (uint8, int32, error) {
	oid, err := parseOID(a[0])
	if err != nil {
		return 0, 0, err
	}
	v, err := parseInt32(a[1])
	return oid, v, err
}

func oidBool(a []string) (uint8, bool, error) {
	oid, err := parseOID(a[0])
	if err != nil {
		return 0, false, err
	}
	on, err := parseBool(a[1])
	return oid, on, err
}
