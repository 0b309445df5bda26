package interpreter

import (
	"strconv"
	"strings"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/internal/stack"
)

func (i *Interpreter) registerBuiltins() {
	i.registry.AddModule(ModuleCore, i.initCore)
	i.registry.AddModule(ModuleControl, i.initControl)
	i.registry.AddModule(ModuleAsync, i.initAsync)
	i.registry.AddModule(ModuleParallel, i.initParallel)

	i.registry.AddCommand("LoadModule", i.cmdLoadModule)
	i.registry.AddCommand("Modules", i.cmdModules)
}

func (i *Interpreter) cmdLoadModule(_ stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 1, -1); err != nil {
		return "", err
	}
	for _, module := range args {
		if err := i.registry.LoadModule(module); err != nil {
			return "", err
		}
	}
	return "true", nil
}

func (i *Interpreter) cmdModules(_ stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 0, 0); err != nil {
		return "", err
	}
	var out []string
	for _, m := range i.registry.Modules() {
		if i.registry.IsModuleLoaded(m) {
			out = append(out, m)
		}
	}
	return strings.Join(out, " "), nil
}

// checkArgs validates the argument count; max < 0 means unbounded
func checkArgs(name string, args []string, min, max int) error {
	if len(args) >= min && (max < 0 || len(args) <= max) {
		return nil
	}
	var want string
	switch {
	case max < 0:
		want = "at least " + strconv.Itoa(min)
	case min == max:
		want = strconv.Itoa(min)
	default:
		want = strconv.Itoa(min) + " to " + strconv.Itoa(max)
	}
	return zerror.Newf("%s expects %s argument(s), got %d", name, want, len(args)).
		WithCode(zerror.CodeInvalidArgumentCount).
		WithDetail("command", name).
		WithDetail("args", len(args))
}

// joinExpression rebuilds expression text from tokens, quoting tokens the
// tokenizer had grouped
func joinExpression(args []string) string {
	parts := make([]string, len(args))
	for k, a := range args {
		if a == "" || strings.ContainsAny(a, " \t") {
			parts[k] = strconv.Quote(a)
		} else {
			parts[k] = a
		}
	}
	return strings.Join(parts, " ")
}

func parseInt(name, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, zerror.Newf("%s: %q is not an integer", name, s).
			WithCode(zerror.CodeInvalidInput).
			WithDetail("command", name)
	}
	return n, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
