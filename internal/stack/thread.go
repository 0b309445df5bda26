package stack

import (
	"github.com/google/uuid"

	zerror "github.com/msto63/zuse/foundation/core/error"
)

// Thread is one logical command thread: a frame stack plus the parameter
// stack used by block commands. A thread is owned by a single goroutine;
// only the global store is shared.
type Thread struct {
	id            string
	frames        []*Frame
	params        []string
	globals       *Store
	caseSensitive bool
}

// NewThread creates a thread with its base frame. A nil globals store gets
// a private one.
func NewThread(globals *Store, caseSensitive bool) *Thread {
	if globals == nil {
		globals = NewStore(caseSensitive)
	}
	t := &Thread{
		id:            uuid.New().String(),
		globals:       globals,
		caseSensitive: caseSensitive,
	}
	t.frames = []*Frame{newFrame(0, BlockBase, nil, true, false, 0, caseSensitive)}
	return t
}

// ID returns the thread's unique id
func (t *Thread) ID() string { return t.id }

// CaseSensitive reports whether names are compared case-sensitively
func (t *Thread) CaseSensitive() bool { return t.caseSensitive }

// Globals returns the shared global store
func (t *Thread) Globals() *Store { return t.globals }

// Depth returns the number of frames including the base frame
func (t *Thread) Depth() int { return len(t.frames) }

// Top returns the current frame
func (t *Thread) Top() StackFrame { return t.frames[len(t.frames)-1] }

func (t *Thread) top() *Frame { return t.frames[len(t.frames)-1] }

// FrameAt returns the frame at level
func (t *Thread) FrameAt(level int) (StackFrame, bool) {
	if level < 0 || level >= len(t.frames) {
		return nil, false
	}
	return t.frames[level], true
}

// AddFrame pushes a frame and records the parameter stack depth
func (t *Thread) AddFrame(blockType BlockType, kind *BlockKind, doExecute, doSave bool) StackFrame {
	f := newFrame(len(t.frames), blockType, kind, doExecute, doSave, len(t.params), t.caseSensitive)
	t.frames = append(t.frames, f)
	return f
}

// RemoveFrame pops the top frame and invalidates its variables. Removing the
// base frame, or a frame whose parameters were not consumed, is a critical
// fault and leaves the stack untouched.
func (t *Thread) RemoveFrame() error {
	f := t.top()
	if len(t.frames) == 1 {
		return zerror.New("cannot remove the base frame").
			WithCode(zerror.CodeBaseFrameRemoval).
			WithDetail("thread", t.id)
	}
	if len(t.params) != f.paramMark {
		return zerror.Newf("parameter stack holds %d entries, frame expects %d", len(t.params), f.paramMark).
			WithCode(zerror.CodeParameterImbalance).
			WithDetail("thread", t.id).
			WithDetail("level", f.level)
	}

	t.frames = t.frames[:len(t.frames)-1]
	f.vars.InvalidateAll()
	return nil
}

// Unwind drops every frame above level and the parameters they pushed,
// without balance checks. Used to recover after a failed command.
func (t *Thread) Unwind(level int) {
	if level < 0 {
		level = 0
	}
	for len(t.frames)-1 > level {
		f := t.top()
		t.frames = t.frames[:len(t.frames)-1]
		if f.paramMark < len(t.params) {
			t.params = t.params[:f.paramMark]
		}
		f.vars.InvalidateAll()
	}
}

// PushParameter pushes a value for the matching block exit command
func (t *Thread) PushParameter(value string) {
	t.params = append(t.params, value)
}

// PopParameter pops a value pushed inside the current frame
func (t *Thread) PopParameter() (string, error) {
	if len(t.params) <= t.top().paramMark {
		return "", t.imbalance("pop")
	}
	v := t.params[len(t.params)-1]
	t.params = t.params[:len(t.params)-1]
	return v, nil
}

// PeekParameter returns the value PopParameter would return
func (t *Thread) PeekParameter() (string, error) {
	if len(t.params) <= t.top().paramMark {
		return "", t.imbalance("peek")
	}
	return t.params[len(t.params)-1], nil
}

// ParameterDepth returns the parameter stack size
func (t *Thread) ParameterDepth() int { return len(t.params) }

func (t *Thread) imbalance(op string) error {
	return zerror.Newf("parameter %s below frame mark %d", op, t.top().paramMark).
		WithCode(zerror.CodeParameterImbalance).
		WithDetail("thread", t.id).
		WithDetail("level", t.top().level)
}

// Screen decides whether line, whose command is name, runs in the current
// frame. While the frame is not executing only block commands of its kind
// are looked at: enters raise the quiet level, exits lower it, and an exit
// seen at quiet level zero ends the skip and is executed.
func (t *Thread) Screen(name, line string) Disposition {
	f := t.top()
	if f.doExecute {
		return Execute
	}

	if k := f.kind; k != nil {
		switch {
		case k.IsEnter(name, t.caseSensitive):
			f.quietLevel++
		case k.IsExit(name, t.caseSensitive):
			if f.quietLevel <= 0 {
				return Execute
			}
			f.quietLevel--
		case k.IsNeutralExit(name, t.caseSensitive):
			if f.quietLevel <= 0 {
				return Execute
			}
		}
	}

	if f.doSave {
		f.saved = append(f.saved, line)
		return Saved
	}
	return Skip
}

// Interrupt stops execution of every frame from the top down to the nearest
// frame tagged until, inclusive. Return and Break use it.
func (t *Thread) Interrupt(until BlockType) error {
	for i := len(t.frames) - 1; i > 0; i-- {
		if t.frames[i].blockType.Has(until) {
			for j := len(t.frames) - 1; j >= i; j-- {
				t.frames[j].doExecute = false
				t.frames[j].interrupted = true
			}
			return nil
		}
	}
	return zerror.Newf("no enclosing %s block", until).
		WithCode(zerror.CodeSyntax).
		WithDetail("thread", t.id)
}

// scope returns the frames visible from the top: downward until and
// including the first Function frame
func (t *Thread) scope() []*Frame {
	for i := len(t.frames) - 1; i >= 0; i-- {
		if t.frames[i].blockType.Has(BlockFunction) {
			return t.frames[i:]
		}
	}
	return t.frames
}

// LookupVariable finds the visible variable called name
func (t *Thread) LookupVariable(name string) (*Variable, bool) {
	frames := t.scope()
	for i := len(frames) - 1; i >= 0; i-- {
		if v, ok := frames[i].vars.Get(name); ok {
			return v, true
		}
	}
	return t.globals.Get(name)
}

// Resolve implements Resolver for (name, level) references
func (t *Thread) Resolve(name string, level int) (*Variable, bool) {
	if level == LevelGlobal {
		return t.globals.Get(name)
	}
	if level < 0 || level >= len(t.frames) {
		return nil, false
	}
	return t.frames[level].vars.Get(name)
}

// SetVariable updates the visible variable called name, or creates it in
// the current frame
func (t *Thread) SetVariable(name, value string) error {
	if v, ok := t.LookupVariable(name); ok {
		return v.SetValue(value)
	}
	return t.SetLocalVariable(name, value)
}

// SetLocalVariable writes name in the current frame, shadowing outer variables
func (t *Thread) SetLocalVariable(name, value string) error {
	f := t.top()
	if v, ok := f.vars.Get(name); ok {
		return v.SetValue(value)
	}
	f.vars.Put(NewVariable(name, value, f.level))
	return nil
}

// SetGlobalVariable writes name in the global store
func (t *Thread) SetGlobalVariable(name, value string) error {
	if v, ok := t.globals.Get(name); ok {
		return v.SetValue(value)
	}
	t.globals.Put(NewVariable(name, value, LevelGlobal))
	return nil
}

// GetVariable returns the value of the visible variable called name
func (t *Thread) GetVariable(name string) (string, error) {
	v, ok := t.LookupVariable(name)
	if !ok {
		return "", variableNotFound(name)
	}
	return v.Value()
}

// VariableExists reports whether name is visible
func (t *Thread) VariableExists(name string) bool {
	_, ok := t.LookupVariable(name)
	return ok
}

// ClearVariable removes the visible variable called name
func (t *Thread) ClearVariable(name string) error {
	frames := t.scope()
	for i := len(frames) - 1; i >= 0; i-- {
		if _, ok := frames[i].vars.Remove(name); ok {
			return nil
		}
	}
	if _, ok := t.globals.Remove(name); ok {
		return nil
	}
	return variableNotFound(name)
}

// SetReference makes name in the current frame a direct link to the
// visible variable called target
func (t *Thread) SetReference(name, target string) error {
	tv, ok := t.LookupVariable(target)
	if !ok {
		return variableNotFound(target)
	}
	f := t.top()
	if err := t.checkReplace(f.vars, name, tv); err != nil {
		return err
	}
	f.vars.Put(NewReference(name, tv, f.level))
	return nil
}

// SetReferenceAt makes name in the current frame refer to target at level,
// resolved again on every access. LevelGlobal names the global store.
func (t *Thread) SetReferenceAt(name, target string, level int) error {
	if level < LevelGlobal || level >= len(t.frames) {
		return invalidReference(name, "undefined level")
	}
	tv, ok := t.Resolve(target, level)
	if !ok {
		return variableNotFound(target)
	}
	f := t.top()
	if err := t.checkReplace(f.vars, name, tv); err != nil {
		return err
	}
	f.vars.Put(NewNamedReference(name, target, level, f.level, t))
	return nil
}

// checkReplace rejects a reference whose target chain passes through the
// variable it would replace
func (t *Thread) checkReplace(store *Store, name string, target *Variable) error {
	if existing, ok := store.Get(name); ok && target.reaches(existing) {
		return invalidReference(name, "circular reference")
	}
	return nil
}

// VisibleVariables returns name/value pairs of all readable visible
// variables. Inner frames shadow outer ones and locals shadow globals.
func (t *Thread) VisibleVariables() map[string]string {
	out := make(map[string]string)
	seen := make(map[string]bool)
	collect := func(v *Variable) {
		key := t.globals.key(v.name)
		if seen[key] {
			return
		}
		seen[key] = true
		if value, err := v.Value(); err == nil {
			out[v.name] = value
		}
	}
	frames := t.scope()
	for i := len(frames) - 1; i >= 0; i-- {
		frames[i].vars.each(collect)
	}
	t.globals.each(collect)
	return out
}

// Fork creates a thread sharing the globals whose base frame holds copies
// of the variables visible here. Async and parallel commands run on forks.
func (t *Thread) Fork() CommandThread {
	child := NewThread(t.globals, t.caseSensitive)
	base := child.frames[0]

	frames := t.scope()
	for i := len(frames) - 1; i >= 0; i-- {
		frames[i].vars.each(func(v *Variable) {
			if _, exists := base.vars.Get(v.name); exists {
				return
			}
			if copied, ok := v.snapshot(0); ok {
				base.vars.Put(copied)
			}
		})
	}
	return child
}
