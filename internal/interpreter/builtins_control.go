package interpreter

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/internal/cmdline"
	"github.com/msto63/zuse/internal/registry"
	"github.com/msto63/zuse/internal/stack"
)

// Parameter values pushed by If for its ElseIf/Else/EndIf
const (
	branchTaken   = "taken"
	branchPending = "pending"
)

// functionResult is the local variable a function body sets to return a value
const functionResult = "result"

func (i *Interpreter) initControl(r *registry.Registry) error {
	r.AddCommand("If", i.cmdIf)
	r.AddCommand("ElseIf", i.cmdElseIf)
	r.AddCommand("Else", cmdElse)
	r.AddCommand("EndIf", cmdEndIf)
	r.AddCommand("While", cmdWhile)
	r.AddCommand("EndWhile", i.cmdEndWhile)
	r.AddCommand("Break", cmdBreak)
	r.AddCommand("Block", cmdBlock)
	r.AddCommand("EndBlock", cmdEndBlock)
	r.AddCommand("Function", cmdFunction)
	r.AddCommand("EndFunction", i.cmdEndFunction)
	r.AddCommand("Return", cmdReturn)
	return nil
}

func (i *Interpreter) condition(t stack.CommandThread, args []string) (bool, error) {
	if len(args) == 0 {
		return false, nil
	}
	return i.eval.Condition(joinExpression(args), t)
}

func unbalanced(name string, want stack.BlockType, t stack.CommandThread) error {
	return zerror.Newf("%s without matching %s block", name, want).
		WithCode(zerror.CodeUnbalancedBlock).
		WithDetail("command", name).
		WithDetail("block", t.Top().BlockType().String())
}

func requireTop(t stack.CommandThread, name string, want stack.BlockType) error {
	if !t.Top().BlockType().Has(want) {
		return unbalanced(name, want, t)
	}
	return nil
}

// If cond opens a conditional block. A condition that fails to evaluate
// still opens the block, with every branch skipped, so the matching EndIf
// stays balanced.
func (i *Interpreter) cmdIf(t stack.CommandThread, name string, args []string) (string, error) {
	ok, err := i.condition(t, args)
	if err != nil {
		t.AddFrame(stack.BlockIf, stack.KindIf, false, false)
		t.PushParameter(branchTaken)
		return "", err
	}
	t.AddFrame(stack.BlockIf, stack.KindIf, ok, false)
	if ok {
		t.PushParameter(branchTaken)
	} else {
		t.PushParameter(branchPending)
	}
	return "", nil
}

// ElseIf cond runs its branch if no earlier branch was taken. The condition
// is only evaluated when it can matter.
func (i *Interpreter) cmdElseIf(t stack.CommandThread, name string, args []string) (string, error) {
	if err := requireTop(t, name, stack.BlockIf); err != nil {
		return "", err
	}
	state, err := t.PopParameter()
	if err != nil {
		return "", err
	}
	if state == branchTaken {
		t.Top().SetDoExecute(false)
		t.PushParameter(branchTaken)
		return "", nil
	}

	ok, err := i.condition(t, args)
	if err != nil {
		t.PushParameter(state)
		return "", err
	}
	t.Top().SetDoExecute(ok)
	if ok {
		t.PushParameter(branchTaken)
	} else {
		t.PushParameter(branchPending)
	}
	return "", nil
}

func cmdElse(t stack.CommandThread, name string, args []string) (string, error) {
	if err := requireTop(t, name, stack.BlockIf); err != nil {
		return "", err
	}
	state, err := t.PopParameter()
	if err != nil {
		return "", err
	}
	t.Top().SetDoExecute(state != branchTaken)
	t.PushParameter(branchTaken)
	return "", nil
}

func cmdEndIf(t stack.CommandThread, name string, _ []string) (string, error) {
	if err := requireTop(t, name, stack.BlockIf); err != nil {
		return "", err
	}
	if _, err := t.PopParameter(); err != nil {
		return "", err
	}
	return "", t.RemoveFrame()
}

// While cond records the loop body until the matching EndWhile, which runs
// it. The condition text is substituted again before every iteration, so
// $$name defers a variable to loop time; bare names are looked up by the
// evaluator on each iteration anyway.
func cmdWhile(t stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 1, -1); err != nil {
		return "", err
	}
	t.AddFrame(stack.BlockWhile, stack.KindWhile, false, true)
	t.PushParameter(joinExpression(args))
	return "", nil
}

func (i *Interpreter) cmdEndWhile(t stack.CommandThread, name string, _ []string) (string, error) {
	if err := requireTop(t, name, stack.BlockWhile); err != nil {
		return "", err
	}
	cond, err := t.PopParameter()
	if err != nil {
		return "", err
	}
	f := t.Top()
	body := f.SavedLines()
	f.ClearSaved()
	f.SetDoSave(false)

	last, loopErr := i.loop(t, f, name, cond, body)
	if err := t.RemoveFrame(); err != nil {
		return "", err
	}
	return last, loopErr
}

func (i *Interpreter) loop(t stack.CommandThread, f stack.StackFrame, name, cond string, body []string) (string, error) {
	var last string
	for n := 0; ; n++ {
		text, err := registry.Substitute(t, cond)
		if err != nil {
			return last, err
		}
		ok, err := i.eval.Condition(text, t)
		if err != nil || !ok {
			return last, err
		}
		if max := i.opts.MaxLoopIterations; max > 0 && n >= max {
			msg := fmt.Sprintf("%s: loop exceeded %d iterations", name, max)
			if constantCondition(cond) {
				msg += fmt.Sprintf("; condition %q never changes, write $$name or a bare name to read a variable on each iteration", cond)
			}
			return last, zerror.New(msg).
				WithCode(zerror.CodeInternal).
				WithDetail("condition", cond)
		}

		f.SetDoExecute(true)
		result, err := i.replay(t, f, body)
		if err != nil {
			return last, err
		}
		last = result
		if f.Interrupted() {
			return last, nil
		}
	}
}

// constantCondition reports whether cond refers to no variable. A While
// condition written with $name is substituted once at While and ends up
// constant.
func constantCondition(cond string) bool {
	return !strings.ContainsRune(cond, '$') && !strings.ContainsFunc(cond, unicode.IsLetter)
}

// replay runs recorded lines on top of frame f. It stops early once f is
// interrupted and always leaves f as the top frame.
func (i *Interpreter) replay(t stack.CommandThread, f stack.StackFrame, lines []string) (string, error) {
	var last string
	for _, line := range lines {
		result, executed, err := i.process(t, line)
		if err != nil {
			t.Unwind(f.Level())
			return last, err
		}
		if executed {
			last = result
		}
		if f.Interrupted() {
			t.Unwind(f.Level())
			return last, nil
		}
	}
	if t.Depth()-1 != f.Level() {
		t.Unwind(f.Level())
		return last, zerror.New("block body left unclosed blocks").
			WithCode(zerror.CodeUnbalancedBlock).
			WithDetail("level", f.Level())
	}
	return last, nil
}

// Break leaves the innermost While loop
func cmdBreak(t stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 0, 0); err != nil {
		return "", err
	}
	for level := t.Depth() - 1; level > 0; level-- {
		f, _ := t.FrameAt(level)
		if f.BlockType().Has(stack.BlockFunction) {
			break
		}
		if f.BlockType().Has(stack.BlockWhile) {
			return "", t.Interrupt(stack.BlockWhile)
		}
	}
	return "", zerror.Newf("%s outside of a loop", name).
		WithCode(zerror.CodeSyntax).
		WithDetail("command", name)
}

func cmdBlock(t stack.CommandThread, _ string, _ []string) (string, error) {
	t.AddFrame(stack.BlockBlock, stack.KindBlock, true, false)
	return "", nil
}

func cmdEndBlock(t stack.CommandThread, name string, _ []string) (string, error) {
	if err := requireTop(t, name, stack.BlockBlock); err != nil {
		return "", err
	}
	return "", t.RemoveFrame()
}

// Function name [param...] records a body that EndFunction installs as the
// command name
func cmdFunction(t stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 1, -1); err != nil {
		return "", err
	}
	t.AddFrame(stack.BlockBlock, stack.KindFunction, false, true)
	t.PushParameter(cmdline.Quote(args))
	return "", nil
}

func (i *Interpreter) cmdEndFunction(t stack.CommandThread, name string, _ []string) (string, error) {
	f := t.Top()
	if f.Kind() != stack.KindFunction || f.DoExecute() {
		return "", unbalanced(name, stack.BlockFunction, t)
	}
	header, err := t.PopParameter()
	if err != nil {
		return "", err
	}
	body := f.SavedLines()
	if err := t.RemoveFrame(); err != nil {
		return "", err
	}

	signature, err := cmdline.Split(header)
	if err != nil {
		return "", err
	}
	fn := &function{name: signature[0], params: signature[1:], body: body}
	i.registry.AddCommand(fn.name, i.functionHandler(fn))
	i.logger.Debug("Function defined", "function", fn.name, "params", len(fn.params), "lines", len(body))
	return fn.name, nil
}

// function is a command defined by Function/EndFunction
type function struct {
	name   string
	params []string
	body   []string
}

func (i *Interpreter) functionHandler(fn *function) registry.Handler {
	return func(t stack.CommandThread, name string, args []string) (string, error) {
		return i.CallBody(t, name, fn.params, fn.body, args)
	}
}

// CallBody runs lines in a new Function frame on t. $0 is name, $1..$n and
// the named params are bound to args, $argc to their count. The result is
// the local variable "result" if set, else the last command result.
func (i *Interpreter) CallBody(t stack.CommandThread, name string, params, lines, args []string) (string, error) {
	f := t.AddFrame(stack.BlockFunction, stack.KindFunction, true, false)

	bind := func(k, v string) {
		f.Variables().Put(stack.NewVariable(k, v, f.Level()))
	}
	bind("0", name)
	bind("argc", strconv.Itoa(len(args)))
	for k, a := range args {
		bind(strconv.Itoa(k+1), a)
		if k < len(params) {
			bind(params[k], a)
		}
	}
	for k := len(args); k < len(params); k++ {
		bind(params[k], "")
	}

	last, err := i.replay(t, f, lines)
	if v, ok := f.Variables().Get(functionResult); ok {
		if value, vErr := v.Value(); vErr == nil {
			last = value
		}
	}
	if rmErr := t.RemoveFrame(); rmErr != nil {
		return "", rmErr
	}
	return last, err
}

// Return [value...] leaves the innermost function, optionally setting its
// result
func cmdReturn(t stack.CommandThread, name string, args []string) (string, error) {
	for level := t.Depth() - 1; level > 0; level-- {
		f, _ := t.FrameAt(level)
		if !f.BlockType().Has(stack.BlockFunction) {
			continue
		}
		if len(args) > 0 {
			value := joinWords(args)
			f.Variables().Put(stack.NewVariable(functionResult, value, f.Level()))
		}
		return "", t.Interrupt(stack.BlockFunction)
	}
	return "", zerror.Newf("%s outside of a function", name).
		WithCode(zerror.CodeSyntax).
		WithDetail("command", name)
}

func joinWords(args []string) string {
	out := args[0]
	for _, a := range args[1:] {
		out += " " + a
	}
	return out
}
