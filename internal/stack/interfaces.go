package stack

// VariableScope is the variable access a command handler needs
type VariableScope interface {
	SetVariable(name, value string) error
	SetLocalVariable(name, value string) error
	SetGlobalVariable(name, value string) error
	GetVariable(name string) (string, error)
	ClearVariable(name string) error
	SetReference(name, target string) error
	SetReferenceAt(name, target string, level int) error
	VariableExists(name string) bool
}

// StackFrame is the view of one frame given to block commands
type StackFrame interface {
	Level() int
	BlockType() BlockType
	Kind() *BlockKind
	DoExecute() bool
	SetDoExecute(on bool)
	DoSave() bool
	SetDoSave(on bool)
	QuietLevel() int
	SavedLines() []string
	ClearSaved()
	Variables() *Store
	ParamMark() int
	Interrupted() bool
}

// CommandThread is the execution context passed to every command handler
type CommandThread interface {
	VariableScope

	ID() string
	CaseSensitive() bool
	Depth() int
	Top() StackFrame
	FrameAt(level int) (StackFrame, bool)

	AddFrame(blockType BlockType, kind *BlockKind, doExecute, doSave bool) StackFrame
	RemoveFrame() error
	Unwind(level int)

	PushParameter(value string)
	PopParameter() (string, error)
	PeekParameter() (string, error)
	ParameterDepth() int

	Screen(name, line string) Disposition
	Interrupt(until BlockType) error

	Fork() CommandThread
}

var (
	_ CommandThread = (*Thread)(nil)
	_ StackFrame    = (*Frame)(nil)
	_ Resolver      = (*Thread)(nil)
)
