package script

import (
	"strings"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/internal/interpreter"
	"github.com/msto63/zuse/internal/registry"
	"github.com/msto63/zuse/internal/stack"
)

// ModuleName is the module registering the script commands
const ModuleName = "script"

// Install creates a runner and a loader for interp and loads the script
// module with the commands:
//
//	LoadScript name path [args...]   install path as command name
//	RunScript path [args...]         run path once on a forked thread
//	Scripts                          list installed script commands
func Install(interp *interpreter.Interpreter, opts Options) (*Runner, *Loader, error) {
	runner := NewRunner(interp, opts)
	loader := NewLoader(interp, opts)

	interp.AddModule(ModuleName, func(r *registry.Registry) error {
		r.AddCommand("LoadScript", loader.cmdLoadScript)
		r.AddCommand("RunScript", loader.cmdRunScript)
		r.AddCommand("Scripts", loader.cmdScripts)
		return nil
	})
	if err := interp.LoadModule(ModuleName); err != nil {
		return nil, nil, err
	}
	return runner, loader, nil
}

func usage(name, form string) error {
	return zerror.Newf("usage: %s %s", name, form).
		WithCode(zerror.CodeInvalidArgumentCount).
		WithDetail("command", name)
}

func (l *Loader) cmdLoadScript(_ stack.CommandThread, name string, args []string) (string, error) {
	if len(args) < 2 {
		return "", usage(name, "name path [args...]")
	}
	if err := l.LoadScript(args[0], args[1], args[2:]); err != nil {
		return "", err
	}
	return args[0], nil
}

func (l *Loader) cmdRunScript(t stack.CommandThread, name string, args []string) (string, error) {
	if len(args) < 1 {
		return "", usage(name, "path [args...]")
	}
	return l.RunPath(t, args[0], args[1:])
}

func (l *Loader) cmdScripts(_ stack.CommandThread, name string, args []string) (string, error) {
	if len(args) != 0 {
		return "", usage(name, "")
	}
	return strings.Join(l.Names(), " "), nil
}
