package interpreter

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/internal/cmdline"
	"github.com/msto63/zuse/internal/registry"
	"github.com/msto63/zuse/internal/stack"
)

// Run substitutes variables in name and args, resolves the command and
// invokes it on t
func (i *Interpreter) Run(t stack.CommandThread, name string, args []string) (string, error) {
	name, args, handler, err := i.resolve(t, name, args)
	if err != nil {
		return "", err
	}

	started := time.Now()
	result, err := invoke(handler, t, name, args)
	i.record(Record{
		ThreadID: t.ID(),
		Mode:     ModeSync,
		Command:  name,
		Args:     args,
		Result:   result,
		Err:      err,
		Started:  started,
		Duration: time.Since(started),
	})
	return result, err
}

// RunArgs runs argv[0] with the remaining tokens as arguments
func (i *Interpreter) RunArgs(t stack.CommandThread, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", zerror.New("no command given").WithCode(zerror.CodeInvalidArgumentCount)
	}
	return i.Run(t, argv[0], argv[1:])
}

// RunLine tokenizes line and runs it. An empty line yields an empty result.
func (i *Interpreter) RunLine(t stack.CommandThread, line string) (string, error) {
	argv, err := cmdline.Split(line)
	if err != nil {
		return "", err
	}
	if len(argv) == 0 {
		return "", nil
	}
	return i.RunArgs(t, argv)
}

// Process runs line if the current frame executes it. Blank lines and
// lines starting with # are ignored. Lines screened out by a skipping or
// recording frame yield an empty result.
func (i *Interpreter) Process(t stack.CommandThread, line string) (string, error) {
	result, _, err := i.process(t, line)
	return result, err
}

// process also reports whether the line was executed
func (i *Interpreter) process(t stack.CommandThread, line string) (string, bool, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", false, nil
	}

	var name string
	argv, splitErr := cmdline.Split(trimmed)
	if splitErr == nil {
		if len(argv) == 0 {
			return "", false, nil
		}
		name = argv[0]
	} else {
		name = strings.Fields(trimmed)[0]
	}

	if t.Screen(name, trimmed) != stack.Execute {
		return "", false, nil
	}
	if splitErr != nil {
		return "", false, splitErr
	}
	result, err := i.RunArgs(t, argv)
	return result, true, err
}

// resolve performs the substitute and lookup steps shared by Run, RunAsync
// and RunParallel
func (i *Interpreter) resolve(t stack.CommandThread, name string, args []string) (string, []string, registry.Handler, error) {
	name, err := registry.Substitute(t, name)
	if err != nil {
		return "", nil, nil, err
	}
	handler, err := i.registry.Resolve(name)
	if err != nil {
		return "", nil, nil, err
	}
	args, err = registry.SubstituteAll(t, args)
	if err != nil {
		return "", nil, nil, zerror.Wrap(err, "failed to substitute arguments of "+name).
			WithDetail("command", name)
	}
	return name, args, handler, nil
}

// invoke calls handler and turns a panic into an INTERNAL error
func invoke(handler registry.Handler, t stack.CommandThread, name string, args []string) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = zerror.New(fmt.Sprintf("command %s panicked: %v", name, r)).
				WithCode(zerror.CodeInternal).
				WithDetail("command", name).
				WithDetail("stack", string(debug.Stack()))
		}
	}()
	return handler(t, name, args)
}
