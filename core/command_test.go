package core

import (
	"errors"
	"strings"
	"testing"

	"gostep/protocol"
)

func TestCommandRegistry(t *testing.T) {
	registry := NewCommandRegistry()

	// Register a command
	var called bool
	handler := func(data *[]byte) error {
		called = true
		return nil
	}

	id := registry.Register("test_command", "arg=%u", handler)

	if id != 0 {
		t.Errorf("Expected first command to have ID 0, got %d", id)
	}

	cmd, ok := registry.GetCommand(id)
	if !ok {
		t.Fatal("Failed to retrieve registered command")
	}
	if cmd.Name != "test_command" {
		t.Errorf("Expected command name 'test_command', got '%s'", cmd.Name)
	}

	var data []byte
	if err := registry.Dispatch(id, &data); err != nil {
		t.Errorf("Dispatch failed: %v", err)
	}
	if !called {
		t.Error("Command handler was not called")
	}

	// Test unknown command
	err := registry.Dispatch(999, &data)
	if !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Expected ErrUnknownCommand, got %v", err)
	}
}

func TestCommandRegistryMultiple(t *testing.T) {
	registry := NewCommandRegistry()

	id1 := registry.Register("command1", "arg1=%u", func(data *[]byte) error { return nil })
	id2 := registry.Register("command2", "arg2=%u", func(data *[]byte) error { return nil })
	id3 := registry.Register("command3", "arg3=%u", func(data *[]byte) error { return nil })

	if id1 != 0 || id2 != 1 || id3 != 2 {
		t.Errorf("Command IDs not sequential: %d, %d, %d", id1, id2, id3)
	}

	if again := registry.Register("command2", "", nil); again != id2 {
		t.Errorf("Re-registering returned %d, want %d", again, id2)
	}
	if registry.Count() != 3 {
		t.Errorf("Count = %d, want 3", registry.Count())
	}
}

func TestCommandRegistryDictionary(t *testing.T) {
	registry := NewCommandRegistry()

	registry.Register("get_uptime", "", func(data *[]byte) error { return nil })
	registry.RegisterResponse("uptime", "high=%u clock=%u")

	dict := registry.Dictionary()
	want := "get_uptime\nuptime high=%u clock=%u\n"
	if dict != want {
		t.Errorf("Dictionary = %q, want %q", dict, want)
	}
}

func TestDispatchResponseIsUnknown(t *testing.T) {
	registry := NewCommandRegistry()
	id := registry.RegisterResponse("status", "v=%u")

	var data []byte
	if err := registry.Dispatch(id, &data); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("dispatching a response: %v", err)
	}
}

func TestCommandWithArguments(t *testing.T) {
	registry := NewCommandRegistry()

	var receivedValue uint32

	handler := func(data *[]byte) error {
		val, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return err
		}
		receivedValue = val
		return nil
	}

	id := registry.Register("test_args", "value=%u", handler)

	data := protocol.AppendVLQUint(nil, 12345)
	if err := registry.Dispatch(id, &data); err != nil {
		t.Errorf("Dispatch failed: %v", err)
	}
	if receivedValue != 12345 {
		t.Errorf("Expected value 12345, got %d", receivedValue)
	}

	// truncated arguments surface as a CommandError naming the command
	data = nil
	err := registry.Dispatch(id, &data)
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Name != "test_args" {
		t.Fatalf("Expected CommandError for test_args, got %v", err)
	}
	if !errors.Is(err, protocol.ErrShortData) {
		t.Errorf("Expected ErrShortData cause, got %v", cmdErr.Err)
	}
}

func TestMotionDictionaryOrder(t *testing.T) {
	r := MotionDictionary()

	order := []string{
		MsgIdentifyResponse, MsgIdentify,
		MsgStepperEnable, MsgStepperSetSpeed, MsgStepperMove, MsgStepperMoveBy,
		MsgStepperStop, MsgStepperEnableLimits, MsgStepperSetAccel, MsgStepperQuery,
		MsgGroupEnable, MsgGroupMove, MsgGroupMoveBy, MsgGroupStop, MsgGroupQuery,
		MsgStepperState, MsgGroupState, MsgStepperDone, MsgStepperLimit,
	}
	if r.Count() != len(order) {
		t.Fatalf("Count = %d, want %d", r.Count(), len(order))
	}
	for want, name := range order {
		if id := r.MustLookup(name); int(id) != want {
			t.Errorf("%s has ID %d, want %d", name, id, want)
		}
	}

	// the host copy carries no handlers
	cmd, _ := r.GetCommand(r.MustLookup(MsgStepperMove))
	if cmd.Handler != nil {
		t.Error("MotionDictionary registered a handler")
	}
	if !strings.Contains(r.Dictionary(), "stepper_move oid=%c pos=%i\n") {
		t.Error("dictionary lacks stepper_move format")
	}
}
