package pool

import (
	"strings"

	zerror "github.com/msto63/zuse/foundation/core/error"
)

// Priority is the scheduling priority requested for pool workers
type Priority int

const (
	PriorityLow Priority = iota - 1
	PriorityNormal
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityHigh:
		return "high"
	default:
		return "normal"
	}
}

// ParsePriority parses "low", "normal" or "high". An empty string is normal.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, nil
	case "", "normal":
		return PriorityNormal, nil
	case "high":
		return PriorityHigh, nil
	default:
		return PriorityNormal, zerror.Newf("invalid priority %q", s).
			WithCode(zerror.CodeInvalidInput).
			WithDetail("priority", s)
	}
}

// PriorityFunc applies a priority change to the host environment. Go has no
// portable thread priority, so embedders supply their own.
type PriorityFunc func(p Priority) error
