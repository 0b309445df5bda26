package script

import (
	"sort"
	"strings"
	"sync"
	"time"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/foundation/utils/filex"
	"github.com/msto63/zuse/internal/interpreter"
	"github.com/msto63/zuse/internal/stack"
	"github.com/msto63/zuse/pkg/core/logging"
)

// Script is a script file installed as a command
type Script struct {
	Name     string
	Path     string
	Lines    []string
	InitArgs []string
	Loaded   time.Time
}

// Loader installs script files as commands. Calling such a command runs
// the script body in a Function frame on a forked thread.
type Loader struct {
	interp *interpreter.Interpreter
	dir    string
	logger *logging.Logger

	mu      sync.RWMutex
	scripts map[string]*Script
}

// NewLoader creates a loader for interp
func NewLoader(interp *interpreter.Interpreter, opts Options) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = interp.Logger()
	}
	return &Loader{
		interp:  interp,
		dir:     opts.Dir,
		logger:  logger.With("component", "script_loader"),
		scripts: make(map[string]*Script),
	}
}

func (l *Loader) key(name string) string {
	if l.interp.CaseSensitive() {
		return name
	}
	return strings.ToUpper(name)
}

// LoadScript reads path and installs cmdName as a proxy command for it.
// initArgs are placed before the arguments of every call. Loading the same
// name again replaces the script.
func (l *Loader) LoadScript(cmdName, path string, initArgs []string) error {
	if strings.TrimSpace(cmdName) == "" {
		return zerror.New("script command name is empty").WithCode(zerror.CodeInvalidInput)
	}
	path = filex.Resolve(l.dir, path)
	lines, err := filex.ReadLines(path)
	if err != nil {
		return err
	}

	s := &Script{
		Name:     cmdName,
		Path:     path,
		Lines:    lines,
		InitArgs: append([]string(nil), initArgs...),
		Loaded:   time.Now(),
	}
	l.mu.Lock()
	l.scripts[l.key(cmdName)] = s
	l.mu.Unlock()

	l.interp.AddCommand(cmdName, func(t stack.CommandThread, name string, args []string) (string, error) {
		return l.RunLoadedScript(t, name, args)
	})
	l.logger.Info("Script loaded", "command", cmdName, "path", path, "lines", len(lines))
	return nil
}

// RunLoadedScript runs the script installed as cmdName. $0 is the command
// name, $1..$n the init and call arguments, $argc their count. The result
// is the script's "result" variable or its last command result.
func (l *Loader) RunLoadedScript(t stack.CommandThread, cmdName string, args []string) (string, error) {
	s, ok := l.Script(cmdName)
	if !ok {
		return "", zerror.Newf("no script loaded as %s", cmdName).
			WithCode(zerror.CodeCommandNotFound).
			WithDetail("command", cmdName)
	}
	all := make([]string, 0, len(s.InitArgs)+len(args))
	all = append(all, s.InitArgs...)
	all = append(all, args...)

	result, err := l.interp.CallBody(t.Fork(), cmdName, nil, s.Lines, all)
	if err != nil {
		return "", zerror.Wrap(err, "script "+cmdName+" failed").
			WithDetail("path", s.Path)
	}
	return result, nil
}

// RunPath runs a script file once like a loaded script, without installing
// a command for it
func (l *Loader) RunPath(t stack.CommandThread, path string, args []string) (string, error) {
	path = filex.Resolve(l.dir, path)
	lines, err := filex.ReadLines(path)
	if err != nil {
		return "", err
	}
	return l.interp.CallBody(t.Fork(), path, nil, lines, args)
}

// Script returns the script installed as name
func (l *Loader) Script(name string) (*Script, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.scripts[l.key(name)]
	return s, ok
}

// Names returns the installed script commands, sorted
func (l *Loader) Names() []string {
	l.mu.RLock()
	names := make([]string, 0, len(l.scripts))
	for _, s := range l.scripts {
		names = append(names, s.Name)
	}
	l.mu.RUnlock()
	sort.Strings(names)
	return names
}
