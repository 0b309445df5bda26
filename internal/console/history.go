package console

import (
	"encoding/json"
	"os"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/foundation/utils/filex"
)

// MaxHistory bounds the persisted input history
const MaxHistory = 100

// historyFile is the on-disk form of the input history
type historyFile struct {
	Entries []string `json:"entries,omitempty"`
}

// LoadHistory reads the input history from path. A missing or unreadable
// file yields an empty history.
func LoadHistory(path string) []string {
	if path == "" {
		return []string{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return []string{}
	}

	var h historyFile
	if err := json.Unmarshal(data, &h); err != nil {
		return []string{}
	}
	return trimHistory(h.Entries)
}

// SaveHistory writes the last MaxHistory entries to path
func SaveHistory(path string, entries []string) error {
	if path == "" {
		return nil
	}
	if err := filex.EnsureParentDir(path, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(historyFile{Entries: trimHistory(entries)}, "", "  ")
	if err != nil {
		return zerror.Wrap(err, "failed to encode history").WithCode(zerror.CodeInternal)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return zerror.Wrap(err, "failed to write history").
			WithCode(zerror.CodeIOError).
			WithDetail("path", path)
	}
	return nil
}

// appendHistory adds line unless it repeats the last entry
func appendHistory(entries []string, line string) []string {
	if len(entries) > 0 && entries[len(entries)-1] == line {
		return entries
	}
	return trimHistory(append(entries, line))
}

func trimHistory(entries []string) []string {
	if len(entries) > MaxHistory {
		entries = entries[len(entries)-MaxHistory:]
	}
	return entries
}
