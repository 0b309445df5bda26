package stack

import (
	"sort"
	"strings"
	"sync"
)

// BlockType tags a frame with the block constructs it belongs to. Tags compose.
type BlockType uint8

const (
	BlockBase BlockType = 1 << iota
	BlockBlock
	BlockIf
	BlockWhile
	BlockFunction
)

// Has reports whether all bits of flag are set
func (b BlockType) Has(flag BlockType) bool {
	return b&flag == flag && flag != 0
}

// String returns the tags joined by "|"
func (b BlockType) String() string {
	names := []struct {
		flag BlockType
		name string
	}{
		{BlockBase, "Base"},
		{BlockBlock, "Block"},
		{BlockIf, "If"},
		{BlockWhile, "While"},
		{BlockFunction, "Function"},
	}
	var parts []string
	for _, n := range names {
		if b.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "None"
	}
	return strings.Join(parts, "|")
}

// BlockKind lists the command names that open and close one kind of block.
// NeutralExit commands end a skipped section without leaving the block,
// like Else inside If.
type BlockKind struct {
	Name        string
	Enter       []string
	Exit        []string
	NeutralExit []string
}

func (k *BlockKind) matches(set []string, name string, caseSensitive bool) bool {
	for _, s := range set {
		if s == name || (!caseSensitive && strings.EqualFold(s, name)) {
			return true
		}
	}
	return false
}

// IsEnter reports whether name opens a block of this kind
func (k *BlockKind) IsEnter(name string, caseSensitive bool) bool {
	return k.matches(k.Enter, name, caseSensitive)
}

// IsExit reports whether name closes a block of this kind
func (k *BlockKind) IsExit(name string, caseSensitive bool) bool {
	return k.matches(k.Exit, name, caseSensitive)
}

// IsNeutralExit reports whether name is an exit without level effect
func (k *BlockKind) IsNeutralExit(name string, caseSensitive bool) bool {
	return k.matches(k.NeutralExit, name, caseSensitive)
}

// Built-in block kinds
var (
	KindIf = &BlockKind{
		Name:        "If",
		Enter:       []string{"If"},
		Exit:        []string{"EndIf"},
		NeutralExit: []string{"Else", "ElseIf"},
	}
	KindWhile = &BlockKind{
		Name:  "While",
		Enter: []string{"While"},
		Exit:  []string{"EndWhile"},
	}
	KindBlock = &BlockKind{
		Name:  "Block",
		Enter: []string{"Block"},
		Exit:  []string{"EndBlock"},
	}
	KindFunction = &BlockKind{
		Name:  "Function",
		Enter: []string{"Function"},
		Exit:  []string{"EndFunction"},
	}
)

// KindTable holds the block kinds known to an interpreter so embedding code
// can add its own block commands
type KindTable struct {
	mu    sync.RWMutex
	kinds map[string]*BlockKind
}

// NewKindTable creates a table with the built-in kinds
func NewKindTable() *KindTable {
	t := &KindTable{kinds: make(map[string]*BlockKind)}
	for _, k := range []*BlockKind{KindIf, KindWhile, KindBlock, KindFunction} {
		t.Register(k)
	}
	return t
}

// Register adds or replaces a kind
func (t *KindTable) Register(kind *BlockKind) {
	t.mu.Lock()
	t.kinds[strings.ToUpper(kind.Name)] = kind
	t.mu.Unlock()
}

// Lookup returns the kind with the given name
func (t *KindTable) Lookup(name string) (*BlockKind, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	k, ok := t.kinds[strings.ToUpper(name)]
	return k, ok
}

// Names returns the registered kind names in sorted order
func (t *KindTable) Names() []string {
	t.mu.RLock()
	names := make([]string, 0, len(t.kinds))
	for _, k := range t.kinds {
		names = append(names, k.Name)
	}
	t.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Disposition tells the caller of Screen what to do with a line
type Disposition int

const (
	// Execute runs the line
	Execute Disposition = iota
	// Skip drops the line
	Skip
	// Saved means the line was appended to the frame's saved lines
	Saved
)

func (d Disposition) String() string {
	switch d {
	case Execute:
		return "execute"
	case Skip:
		return "skip"
	case Saved:
		return "saved"
	default:
		return "unknown"
	}
}
