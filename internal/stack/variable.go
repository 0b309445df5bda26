// ============================================================================
// zuse - Embeddable Command Interpreter
// ============================================================================
//
// Package:     stack
// Description: Variables, frames and command threads
// Author:      Mike Stoffels
// Created:     2026-10-12
// License:     MIT
// ============================================================================

package stack

import (
	"sync"

	zerror "github.com/msto63/zuse/foundation/core/error"
)

// Stack levels with a special meaning. Levels >= 0 are frame levels.
const (
	LevelGlobal    = -1
	LevelUndefined = -2
)

// maxReferenceDepth bounds reference chains in addition to cycle detection
const maxReferenceDepth = 64

// Resolver finds the variable recorded by a (name, level) reference
type Resolver interface {
	Resolve(name string, level int) (*Variable, bool)
}

// Variable holds a string value or refers to another variable. A reference
// never stores a value of its own; reads and writes go to the final target.
type Variable struct {
	mu    sync.RWMutex
	name  string
	value string
	level int
	valid bool

	// reference target: a direct link, or a (refName, refLevel) pair looked
	// up through resolver on every access
	isRef    bool
	ref      *Variable
	refName  string
	refLevel int
	resolver Resolver
}

// NewVariable creates a value variable
func NewVariable(name, value string, level int) *Variable {
	return &Variable{name: name, value: value, level: level, valid: true}
}

// NewReference creates a reference linked directly to target
func NewReference(name string, target *Variable, level int) *Variable {
	return &Variable{name: name, level: level, valid: true, isRef: true, ref: target}
}

// NewNamedReference creates a reference to the variable called targetName at
// targetLevel, resolved through r on each access
func NewNamedReference(name, targetName string, targetLevel, level int, r Resolver) *Variable {
	return &Variable{
		name:     name,
		level:    level,
		valid:    true,
		isRef:    true,
		refName:  targetName,
		refLevel: targetLevel,
		resolver: r,
	}
}

// Name returns the variable name
func (v *Variable) Name() string { return v.name }

// Level returns the stack level the variable lives on
func (v *Variable) Level() int { return v.level }

// IsGlobal reports whether the variable lives in the global store
func (v *Variable) IsGlobal() bool { return v.level == LevelGlobal }

// IsDefined reports whether the level denotes a real location
func (v *Variable) IsDefined() bool { return v.level >= LevelGlobal }

// IsReference reports whether v redirects to another variable
func (v *Variable) IsReference() bool { return v.isRef }

// IsValid reports whether v has not been invalidated
func (v *Variable) IsValid() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.valid
}

// Invalidate marks v as removed. References to it fail from now on.
func (v *Variable) Invalidate() {
	v.mu.Lock()
	v.valid = false
	v.mu.Unlock()
}

// Value returns the value of v or of the end of its reference chain
func (v *Variable) Value() (string, error) {
	target, err := v.Target()
	if err != nil {
		return "", err
	}
	target.mu.RLock()
	defer target.mu.RUnlock()
	if !target.valid {
		return "", invalidReference(v.name, "target was removed")
	}
	return target.value, nil
}

// SetValue writes value to v or to the end of its reference chain
func (v *Variable) SetValue(value string) error {
	target, err := v.Target()
	if err != nil {
		return err
	}
	target.mu.Lock()
	defer target.mu.Unlock()
	if !target.valid {
		return invalidReference(v.name, "target was removed")
	}
	target.value = value
	return nil
}

// Target follows the reference chain and returns the value variable at its end
func (v *Variable) Target() (*Variable, error) {
	seen := make(map[*Variable]bool)
	cur := v
	for depth := 0; ; depth++ {
		if seen[cur] || depth > maxReferenceDepth {
			return nil, invalidReference(v.name, "circular reference")
		}
		seen[cur] = true

		cur.mu.RLock()
		valid, isRef := cur.valid, cur.isRef
		next, name, level, resolver := cur.ref, cur.refName, cur.refLevel, cur.resolver
		cur.mu.RUnlock()

		if !valid {
			if cur == v {
				return nil, invalidReference(v.name, "variable was removed")
			}
			return nil, invalidReference(v.name, "target "+cur.name+" was removed")
		}
		if !isRef {
			return cur, nil
		}
		if next == nil {
			if resolver == nil {
				return nil, invalidReference(v.name, "unresolved target "+name)
			}
			var ok bool
			if next, ok = resolver.Resolve(name, level); !ok {
				return nil, invalidReference(v.name, "unresolved target "+name)
			}
		}
		cur = next
	}
}

// reaches reports whether the reference chain starting at v passes through
// other. Unresolvable chains do not reach anything.
func (v *Variable) reaches(other *Variable) bool {
	seen := make(map[*Variable]bool)
	cur := v
	for cur != nil && !seen[cur] {
		if cur == other {
			return true
		}
		seen[cur] = true

		cur.mu.RLock()
		isRef, next, name, level, resolver := cur.isRef, cur.ref, cur.refName, cur.refLevel, cur.resolver
		cur.mu.RUnlock()
		if !isRef {
			return false
		}
		if next == nil && resolver != nil {
			next, _ = resolver.Resolve(name, level)
		}
		cur = next
	}
	return false
}

// snapshot returns a detached value copy for forking
func (v *Variable) snapshot(level int) (*Variable, bool) {
	value, err := v.Value()
	if err != nil {
		return nil, false
	}
	return NewVariable(v.name, value, level), true
}

func invalidReference(name, reason string) error {
	return zerror.Newf("invalid reference %s: %s", name, reason).
		WithCode(zerror.CodeInvalidReference).
		WithDetail("variable", name)
}

func variableNotFound(name string) error {
	return zerror.Newf("variable %s not found", name).
		WithCode(zerror.CodeVariableNotFound).
		WithDetail("variable", name)
}
