// ============================================================================
// zuse - Embeddable Command Interpreter
// ============================================================================
//
// Package:     interpreter
// Description: Command dispatcher with block control flow, async commands
//              and a parallel job pool
// Author:      Mike Stoffels
// Created:     2026-10-14
// License:     MIT
// ============================================================================

package interpreter

import (
	"strings"
	"sync"

	"github.com/msto63/zuse/internal/async"
	"github.com/msto63/zuse/internal/expr"
	"github.com/msto63/zuse/internal/pool"
	"github.com/msto63/zuse/internal/registry"
	"github.com/msto63/zuse/internal/stack"
	"github.com/msto63/zuse/pkg/core/config"
	"github.com/msto63/zuse/pkg/core/logging"
)

// Built-in module names
const (
	ModuleCore     = "core"
	ModuleControl  = "control"
	ModuleAsync    = "async"
	ModuleParallel = "parallel"
)

// BuiltinModules lists the modules registered by New
var BuiltinModules = []string{ModuleCore, ModuleControl, ModuleAsync, ModuleParallel}

// DefaultMaxLoopIterations bounds While loops unless configured otherwise
const DefaultMaxLoopIterations = 100000

// Options configures an Interpreter
type Options struct {
	CaseSensitive   bool
	WarnOnOverwrite bool

	// MaxLoopIterations aborts a While loop after this many iterations;
	// negative means unlimited, zero selects the default
	MaxLoopIterations int

	// Modules are the built-in modules loaded by New; nil loads all of them
	Modules []string

	MaxWorkers   int
	Priority     pool.Priority
	PriorityFunc pool.PriorityFunc
	IDSource     pool.IDSource

	Evaluator *expr.Evaluator
	Journal   Journal
	Logger    *logging.Logger
}

// Interpreter executes named commands on command threads. Commands may run
// synchronously, in the background, or as jobs on a worker pool.
type Interpreter struct {
	// mu is the interpreter-wide lock for the job table. When the pool lock
	// is needed as well it is taken second.
	mu       sync.Mutex
	jobs     map[uint64]*pool.Job
	jobOrder []uint64

	registry *registry.Registry
	kinds    *stack.KindTable
	globals  *stack.Store
	pool     *pool.Pool
	ids      pool.IDSource
	tasks    *async.List
	lineage  sync.Map // forked thread id -> ids of the async tasks it runs under
	eval     *expr.Evaluator
	journal  Journal
	logger   *logging.Logger
	opts     Options

	closeOnce sync.Once
}

// New creates an interpreter and loads the requested built-in modules
func New(opts Options) (*Interpreter, error) {
	if opts.Logger == nil {
		opts.Logger = logging.New("interpreter")
	}
	if opts.MaxLoopIterations == 0 {
		opts.MaxLoopIterations = DefaultMaxLoopIterations
	}
	if opts.IDSource == nil {
		opts.IDSource = pool.NewSequence(1)
	}
	if opts.Evaluator == nil {
		opts.Evaluator = expr.New()
	}
	if opts.Modules == nil {
		opts.Modules = BuiltinModules
	}

	i := &Interpreter{
		jobs:    make(map[uint64]*pool.Job),
		kinds:   stack.NewKindTable(),
		globals: stack.NewStore(opts.CaseSensitive),
		ids:     opts.IDSource,
		tasks:   async.NewList(),
		eval:    opts.Evaluator,
		journal: opts.Journal,
		logger:  opts.Logger,
		opts:    opts,
	}
	i.registry = registry.New(registry.Options{
		CaseSensitive:   opts.CaseSensitive,
		WarnOnOverwrite: opts.WarnOnOverwrite,
		Logger:          opts.Logger.With("component", "registry"),
	})
	i.pool = pool.New(pool.Options{
		MaxWorkers:   opts.MaxWorkers,
		Priority:     opts.Priority,
		PriorityFunc: opts.PriorityFunc,
		Hooks:        i.jobHooks(),
		Logger:       opts.Logger.With("component", "pool"),
	})

	i.registerBuiltins()
	for _, name := range opts.Modules {
		if err := i.registry.LoadModule(name); err != nil {
			i.pool.Close()
			return nil, err
		}
	}

	i.logger.Debug("Interpreter initialized",
		"case_sensitive", opts.CaseSensitive,
		"modules", len(opts.Modules),
		"max_workers", opts.MaxWorkers)
	return i, nil
}

// OptionsFromConfig maps the interpreter and pool sections of cfg. Modules
// not built into the interpreter are left for their packages to install.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	prio, err := pool.ParsePriority(cfg.Pool.Priority)
	if err != nil {
		return Options{}, err
	}
	loops := cfg.Interpreter.MaxLoopIterations
	if loops == 0 {
		loops = -1
	}

	modules := []string{}
	for _, name := range cfg.Interpreter.Modules {
		for _, builtin := range BuiltinModules {
			if strings.EqualFold(name, builtin) {
				modules = append(modules, builtin)
			}
		}
	}

	return Options{
		CaseSensitive:     cfg.Interpreter.CaseSensitive,
		WarnOnOverwrite:   cfg.Interpreter.WarnOnOverwrite,
		MaxLoopIterations: loops,
		Modules:           modules,
		MaxWorkers:        cfg.Pool.MaxWorkers,
		Priority:          prio,
	}, nil
}

// NewThread creates a command thread sharing this interpreter's globals
func (i *Interpreter) NewThread() *stack.Thread {
	return stack.NewThread(i.globals, i.opts.CaseSensitive)
}

// Registry returns the command registry
func (i *Interpreter) Registry() *registry.Registry { return i.registry }

// Kinds returns the block kind table used by the control commands
func (i *Interpreter) Kinds() *stack.KindTable { return i.kinds }

// Globals returns the global variable store
func (i *Interpreter) Globals() *stack.Store { return i.globals }

// Evaluator returns the expression evaluator
func (i *Interpreter) Evaluator() *expr.Evaluator { return i.eval }

// Logger returns the interpreter logger
func (i *Interpreter) Logger() *logging.Logger { return i.logger }

// CaseSensitive reports whether command and variable names are compared
// case-sensitively
func (i *Interpreter) CaseSensitive() bool { return i.opts.CaseSensitive }

// AddCommand registers a command handler
func (i *Interpreter) AddCommand(name string, handler registry.Handler) {
	i.registry.AddCommand(name, handler)
}

// AddModule registers a module initializer
func (i *Interpreter) AddModule(name string, init registry.ModuleInit) {
	i.registry.AddModule(name, init)
}

// LoadModule loads a registered module
func (i *Interpreter) LoadModule(name string) error {
	return i.registry.LoadModule(name)
}

// IsModuleLoaded reports whether name was loaded
func (i *Interpreter) IsModuleLoaded(name string) bool {
	return i.registry.IsModuleLoaded(name)
}

// HasCommand reports whether name is registered
func (i *Interpreter) HasCommand(name string) bool {
	return i.registry.Has(name)
}

// Close drains the job pool. Background async commands are not waited for.
func (i *Interpreter) Close() error {
	i.closeOnce.Do(func() {
		i.pool.Close()
		i.logger.Debug("Interpreter closed")
	})
	return nil
}
