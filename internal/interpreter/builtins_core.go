package interpreter

import (
	"sort"
	"strconv"
	"strings"
	"time"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/internal/registry"
	"github.com/msto63/zuse/internal/stack"
)

func (i *Interpreter) initCore(r *registry.Registry) error {
	r.AddCommand("Echo", cmdEcho)
	r.AddCommand("Set", cmdSet)
	r.AddCommand("Local", cmdLocal)
	r.AddCommand("Global", cmdGlobal)
	r.AddCommand("Get", cmdGet)
	r.AddCommand("Clear", cmdClear)
	r.AddCommand("Ref", cmdRef)
	r.AddCommand("Exists", cmdExists)
	r.AddCommand("Vars", cmdVars)
	r.AddCommand("Eval", i.cmdEval)
	r.AddCommand("Let", i.cmdLet)
	r.AddCommand("Inc", cmdInc)
	r.AddCommand("Capture", i.cmdCapture)
	r.AddCommand("Sleep", cmdSleep)
	r.AddCommand("Commands", i.cmdCommands)
	return nil
}

func cmdEcho(_ stack.CommandThread, _ string, args []string) (string, error) {
	return strings.Join(args, " "), nil
}

// Set name value... updates the visible variable or creates a local one
func cmdSet(t stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 1, -1); err != nil {
		return "", err
	}
	value := strings.Join(args[1:], " ")
	return value, t.SetVariable(args[0], value)
}

func cmdLocal(t stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 1, -1); err != nil {
		return "", err
	}
	value := strings.Join(args[1:], " ")
	return value, t.SetLocalVariable(args[0], value)
}

func cmdGlobal(t stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 1, -1); err != nil {
		return "", err
	}
	value := strings.Join(args[1:], " ")
	return value, t.SetGlobalVariable(args[0], value)
}

func cmdGet(t stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 1, 1); err != nil {
		return "", err
	}
	return t.GetVariable(args[0])
}

func cmdClear(t stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 1, -1); err != nil {
		return "", err
	}
	for _, v := range args {
		if err := t.ClearVariable(v); err != nil {
			return "", err
		}
	}
	return "", nil
}

// Ref name target [level] makes name refer to target. With a level the
// reference is resolved by (target, level) on each access; "global" names
// the global store.
func cmdRef(t stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 2, 3); err != nil {
		return "", err
	}
	if len(args) == 2 {
		return "", t.SetReference(args[0], args[1])
	}
	level := stack.LevelGlobal
	if !strings.EqualFold(args[2], "global") {
		n, err := parseInt(name, args[2])
		if err != nil {
			return "", err
		}
		level = n
	}
	return "", t.SetReferenceAt(args[0], args[1], level)
}

func cmdExists(t stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 1, 1); err != nil {
		return "", err
	}
	return boolString(t.VariableExists(args[0])), nil
}

// Vars lists the visible variables as name=value lines
func cmdVars(t stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 0, 0); err != nil {
		return "", err
	}
	lister, ok := t.(interface{ VisibleVariables() map[string]string })
	if !ok {
		return "", nil
	}
	vars := lister.VisibleVariables()
	names := make([]string, 0, len(vars))
	for n := range vars {
		names = append(names, n)
	}
	sort.Strings(names)
	lines := make([]string, len(names))
	for k, n := range names {
		lines[k] = n + "=" + vars[n]
	}
	return strings.Join(lines, "\n"), nil
}

func (i *Interpreter) cmdEval(t stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 1, -1); err != nil {
		return "", err
	}
	return i.eval.Evaluate(joinExpression(args), t)
}

// Let name expr... sets name to the value of the expression
func (i *Interpreter) cmdLet(t stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 2, -1); err != nil {
		return "", err
	}
	value, err := i.eval.Evaluate(joinExpression(args[1:]), t)
	if err != nil {
		return "", err
	}
	return value, t.SetVariable(args[0], value)
}

// Capture name command args... runs command and stores its result in name.
// The arguments were substituted when Capture itself ran.
func (i *Interpreter) cmdCapture(t stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 2, -1); err != nil {
		return "", err
	}
	handler, err := i.registry.Resolve(args[1])
	if err != nil {
		return "", err
	}
	result, err := invoke(handler, t, args[1], args[2:])
	if err != nil {
		return "", err
	}
	return result, t.SetVariable(args[0], result)
}

// Inc name [delta] adds delta (default 1) to an integer variable
func cmdInc(t stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 1, 2); err != nil {
		return "", err
	}
	delta := 1
	if len(args) == 2 {
		d, err := parseInt(name, args[1])
		if err != nil {
			return "", err
		}
		delta = d
	}
	current := 0
	if t.VariableExists(args[0]) {
		v, err := t.GetVariable(args[0])
		if err != nil {
			return "", err
		}
		if current, err = parseInt(name, v); err != nil {
			return "", err
		}
	}
	value := strconv.Itoa(current + delta)
	return value, t.SetVariable(args[0], value)
}

// Sleep duration pauses the calling thread. A bare number is milliseconds.
func cmdSleep(_ stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 1, 1); err != nil {
		return "", err
	}
	d, err := time.ParseDuration(args[0])
	if err != nil {
		ms, convErr := strconv.Atoi(args[0])
		if convErr != nil {
			return "", zerror.Wrap(err, "invalid duration").
				WithCode(zerror.CodeInvalidInput).
				WithDetail("command", name)
		}
		d = time.Duration(ms) * time.Millisecond
	}
	time.Sleep(d)
	return "", nil
}

// Commands [module] lists command names, optionally of one module
func (i *Interpreter) cmdCommands(_ stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 0, 1); err != nil {
		return "", err
	}
	if len(args) == 1 {
		return strings.Join(i.registry.ModuleCommands(args[0]), " "), nil
	}
	return strings.Join(i.registry.Names(), " "), nil
}
