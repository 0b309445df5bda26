// ============================================================================
// zuse - Embeddable Command Interpreter
// ============================================================================
//
// Package:     registry
// Description: Command and module registry with variable substitution
// Author:      Mike Stoffels
// Created:     2026-10-13
// License:     MIT
// ============================================================================

package registry

import (
	"sort"
	"strings"
	"sync"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/internal/stack"
	"github.com/msto63/zuse/pkg/core/logging"
)

// ProbePrefix prefixes the command installed for every loaded module
const ProbePrefix = "ModuleLoaded."

// Handler executes one command. name is the substituted command name as
// invoked; args are the substituted arguments.
type Handler func(t stack.CommandThread, name string, args []string) (string, error)

// Command is a registered command
type Command struct {
	Name    string
	Module  string
	Handler Handler
}

// ModuleInit registers the commands of a module
type ModuleInit func(r *Registry) error

type module struct {
	name   string
	init   ModuleInit
	loaded bool
}

// Options configures a Registry
type Options struct {
	CaseSensitive   bool
	WarnOnOverwrite bool
	Logger          *logging.Logger
}

// Registry maps command names to handlers and module names to their
// initializers. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Command
	modules  map[string]*module

	// loadMu serializes module initialization; loading names the module
	// being initialized and is guarded by mu
	loadMu  sync.Mutex
	loading string

	caseSensitive   bool
	warnOnOverwrite bool
	logger          *logging.Logger
}

// New creates an empty registry
func New(opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = logging.New("registry")
	}
	return &Registry{
		commands:        make(map[string]*Command),
		modules:         make(map[string]*module),
		caseSensitive:   opts.CaseSensitive,
		warnOnOverwrite: opts.WarnOnOverwrite,
		logger:          logger,
	}
}

// CaseSensitive reports whether names are compared case-sensitively
func (r *Registry) CaseSensitive() bool { return r.caseSensitive }

func (r *Registry) key(name string) string {
	if r.caseSensitive {
		return name
	}
	return strings.ToUpper(name)
}

// AddCommand registers handler under name, replacing an existing command
func (r *Registry) AddCommand(name string, handler Handler) {
	r.mu.Lock()
	cmd := &Command{Name: name, Module: r.loading, Handler: handler}
	old, exists := r.commands[r.key(name)]
	r.commands[r.key(name)] = cmd
	r.mu.Unlock()

	if exists && r.warnOnOverwrite {
		r.logger.Warn("Command overwritten", "command", name, "previous", old.Name, "module", old.Module)
	}
}

// Lookup returns the command registered under name
func (r *Registry) Lookup(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[r.key(name)]
	return cmd, ok
}

// Resolve returns the handler of name or a COMMAND_NOT_FOUND error
func (r *Registry) Resolve(name string) (Handler, error) {
	cmd, ok := r.Lookup(name)
	if !ok {
		return nil, zerror.Newf("command %s not found", name).
			WithCode(zerror.CodeCommandNotFound).
			WithDetail("command", name)
	}
	return cmd.Handler, nil
}

// Has reports whether name is registered
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Remove unregisters name and reports whether it existed
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := r.key(name)
	_, ok := r.commands[k]
	delete(r.commands, k)
	return ok
}

// Names returns the registered command names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.commands))
	for _, cmd := range r.commands {
		names = append(names, cmd.Name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Len returns the number of registered commands
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}
