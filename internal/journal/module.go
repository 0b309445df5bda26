package journal

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/internal/interpreter"
	"github.com/msto63/zuse/internal/registry"
	"github.com/msto63/zuse/internal/stack"
)

// ModuleName is the module registering the journal commands
const ModuleName = "journal"

// DefaultListLimit is the number of entries JournalList shows
const DefaultListLimit = 20

// Install loads the journal module for s:
//
//	JournalList [limit] [command]   newest entries, one per line
//	JournalFailed [limit]           newest failed entries
//	JournalStats                    totals per mode
//
// The store must also be passed as interpreter.Options.Journal to be filled.
func Install(interp *interpreter.Interpreter, s *Store) error {
	interp.AddModule(ModuleName, func(r *registry.Registry) error {
		r.AddCommand("JournalList", s.cmdList)
		r.AddCommand("JournalFailed", s.cmdFailed)
		r.AddCommand("JournalStats", s.cmdStats)
		return nil
	})
	return interp.LoadModule(ModuleName)
}

func parseLimit(name string, args []string) (int, error) {
	if len(args) == 0 {
		return DefaultListLimit, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, zerror.Newf("%s: limit must be a positive integer, got %q", name, args[0]).
			WithCode(zerror.CodeInvalidInput)
	}
	return n, nil
}

func (s *Store) cmdList(_ stack.CommandThread, name string, args []string) (string, error) {
	if len(args) > 2 {
		return "", zerror.Newf("usage: %s [limit] [command]", name).WithCode(zerror.CodeInvalidArgumentCount)
	}
	limit, err := parseLimit(name, args)
	if err != nil {
		return "", err
	}
	filter := Filter{Limit: limit}
	if len(args) == 2 {
		filter.Command = args[1]
	}
	return s.list(filter)
}

func (s *Store) cmdFailed(_ stack.CommandThread, name string, args []string) (string, error) {
	if len(args) > 1 {
		return "", zerror.Newf("usage: %s [limit]", name).WithCode(zerror.CodeInvalidArgumentCount)
	}
	limit, err := parseLimit(name, args)
	if err != nil {
		return "", err
	}
	return s.list(Filter{Limit: limit, FailedOnly: true})
}

func (s *Store) list(filter Filter) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	entries, err := s.Query(ctx, filter)
	if err != nil {
		return "", err
	}
	lines := make([]string, len(entries))
	for k, e := range entries {
		lines[k] = FormatEntry(e)
	}
	return strings.Join(lines, "\n"), nil
}

func (s *Store) cmdStats(_ stack.CommandThread, name string, args []string) (string, error) {
	if len(args) != 0 {
		return "", zerror.Newf("usage: %s", name).WithCode(zerror.CodeInvalidArgumentCount)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stats, err := s.Stats(ctx)
	if err != nil {
		return "", err
	}

	parts := []string{fmt.Sprintf("total=%d failed=%d", stats.Total, stats.Failed)}
	modes := make([]string, 0, len(stats.ByMode))
	for m := range stats.ByMode {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	for _, m := range modes {
		parts = append(parts, fmt.Sprintf("%s=%d", m, stats.ByMode[m]))
	}
	return strings.Join(parts, " "), nil
}

// FormatEntry renders an entry as "time mode command args -> result"
func FormatEntry(e *Entry) string {
	var b strings.Builder
	b.WriteString(e.Timestamp.Local().Format("15:04:05.000"))
	b.WriteString(" ")
	b.WriteString(e.Mode)
	b.WriteString(" ")
	b.WriteString(e.Command)
	for _, a := range e.Args {
		b.WriteString(" ")
		b.WriteString(a)
	}
	if e.Failed() {
		b.WriteString(" !! ")
		b.WriteString(e.Error)
	} else if e.Result != "" {
		b.WriteString(" -> ")
		b.WriteString(e.Result)
	}
	return b.String()
}
