package core

import (
	"errors"
	"sync"
)

// CommandHandler is a function that handles a command with raw frame data
// The handler is responsible for decoding its own arguments from the data pointer
type CommandHandler func(data *[]byte) error

// Command is one dictionary entry. Responses (MCU to host) have a nil
// Handler.
type Command struct {
	ID      uint16
	Name    string
	Format  string // argument format for the dictionary, e.g. "oid=%c pos=%i"
	Handler CommandHandler
}

var ErrUnknownCommand = errors.New("unknown command")

// CommandRegistry assigns IDs in registration order. Both ends of the link
// build the same registry, so the order is the wire contract.
type CommandRegistry struct {
	mu       sync.RWMutex
	commands []*Command
	nameToID map[string]uint16
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{nameToID: make(map[string]uint16)}
}

// Register adds a command and returns its ID. Registering a name twice
// returns the existing ID.
func (r *CommandRegistry) Register(name string, format string, handler CommandHandler) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.nameToID[name]; exists {
		return id
	}
	id := uint16(len(r.commands))
	r.commands = append(r.commands, &Command{ID: id, Name: name, Format: format, Handler: handler})
	r.nameToID[name] = id
	return id
}

// RegisterResponse registers a response message (MCU -> Host)
func (r *CommandRegistry) RegisterResponse(name string, format string) uint16 {
	return r.Register(name, format, nil)
}

// GetCommand retrieves a command by ID
func (r *CommandRegistry) GetCommand(id uint16) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.commands) {
		return nil, false
	}
	return r.commands[id], true
}

// Lookup returns the ID registered for name.
func (r *CommandRegistry) Lookup(name string) (uint16, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.nameToID[name]
	return id, ok
}

// MustLookup is Lookup for names known at compile time.
func (r *CommandRegistry) MustLookup(name string) uint16 {
	id, ok := r.Lookup(name)
	if !ok {
		panic("command not registered: " + name)
	}
	return id
}

// Count returns the number of registered commands
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dispatch calls the handler registered for cmdID.
func (r *CommandRegistry) Dispatch(cmdID uint16, data *[]byte) error {
	cmd, ok := r.GetCommand(cmdID)
	if !ok || cmd.Handler == nil {
		return &CommandError{ID: cmdID, Err: ErrUnknownCommand}
	}
	if err := cmd.Handler(data); err != nil {
		return &CommandError{ID: cmdID, Name: cmd.Name, Err: err}
	}
	return nil
}

// Dictionary returns one "name format" line per entry, in ID order.
func (r *CommandRegistry) Dictionary() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dict := ""
	for _, cmd := range r.commands {
		if cmd.Format != "" {
			dict += cmd.Name + " " + cmd.Format + "\n"
		} else {
			dict += cmd.Name + "\n"
		}
	}
	return dict
}

// CommandError wraps a failure to run a command.
type CommandError struct {
	ID   uint16
	Name string
	Err  error
}

func (e *CommandError) Error() string {
	name := e.Name
	if name == "" {
		name = "#" + itoa(int(e.ID))
	}
	return "command " + name + ": " + e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
