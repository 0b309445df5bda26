package stack

// Frame is the execution context of one block instance. The quiet level is a
// single counter because a frame always belongs to exactly one block.
type Frame struct {
	level       int
	blockType   BlockType
	kind        *BlockKind
	doExecute   bool
	doSave      bool
	quietLevel  int
	saved       []string
	vars        *Store
	paramMark   int
	interrupted bool
}

func newFrame(level int, blockType BlockType, kind *BlockKind, doExecute, doSave bool, paramMark int, caseSensitive bool) *Frame {
	return &Frame{
		level:     level,
		blockType: blockType,
		kind:      kind,
		doExecute: doExecute,
		doSave:    doSave,
		vars:      NewStore(caseSensitive),
		paramMark: paramMark,
	}
}

// Level returns the stack level; the base frame is level 0
func (f *Frame) Level() int { return f.level }

// BlockType returns the frame's block tags
func (f *Frame) BlockType() BlockType { return f.blockType }

// Kind returns the block kind used for quiet-skip screening, nil for the base frame
func (f *Frame) Kind() *BlockKind { return f.kind }

// DoExecute reports whether lines are executed in this frame
func (f *Frame) DoExecute() bool { return f.doExecute }

// SetDoExecute switches execution on or off
func (f *Frame) SetDoExecute(on bool) { f.doExecute = on }

// DoSave reports whether skipped lines are saved
func (f *Frame) DoSave() bool { return f.doSave }

// SetDoSave switches saving of skipped lines on or off
func (f *Frame) SetDoSave(on bool) { f.doSave = on }

// QuietLevel returns the nesting depth of same-kind blocks seen while skipping
func (f *Frame) QuietLevel() int { return f.quietLevel }

// SavedLines returns a copy of the saved lines
func (f *Frame) SavedLines() []string {
	out := make([]string, len(f.saved))
	copy(out, f.saved)
	return out
}

// ClearSaved drops the saved lines
func (f *Frame) ClearSaved() { f.saved = nil }

// Variables returns the frame's local variables
func (f *Frame) Variables() *Store { return f.vars }

// ParamMark returns the parameter stack depth recorded when the frame was added
func (f *Frame) ParamMark() int { return f.paramMark }

// Interrupted reports whether Return or Break has left this frame
func (f *Frame) Interrupted() bool { return f.interrupted }
