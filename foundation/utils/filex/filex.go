// File: filex.go
// Title: File Utilities
// Description: Small file helpers used by the script loader, the pipe
//              socket directory and the journal: existence checks, line
//              reading, directory creation and stale file removal.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-25 v0.1.0: Initial implementation with comprehensive file utilities
// - 2026-10-19 v0.2.0: Reduced to the helpers the interpreter uses, coded errors

package filex

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	zerror "github.com/msto63/zuse/foundation/core/error"
)

// MaxLineLength is the longest line ReadLines accepts
const MaxLineLength = 1024 * 1024

// Exists checks if a file or directory exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsFile checks if the path exists and is a regular file
func IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// IsDir checks if the path exists and is a directory
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ReadLines reads a text file and returns its lines without line endings.
// Windows line endings are accepted.
func ReadLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		code := zerror.CodeIOError
		if os.IsNotExist(err) {
			code = zerror.CodeNotFound
		}
		return nil, zerror.Wrap(err, "failed to open file").
			WithCode(code).
			WithDetail("path", path)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), MaxLineLength)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, zerror.Wrap(err, "failed to read lines").
			WithCode(zerror.CodeIOError).
			WithDetail("path", path)
	}
	return lines, nil
}

// EnsureDir creates dir and its parents if they do not exist
func EnsureDir(dir string, perm os.FileMode) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, perm); err != nil {
		return zerror.Wrap(err, "failed to create directory").
			WithCode(zerror.CodeIOError).
			WithDetail("path", dir)
	}
	return nil
}

// EnsureParentDir creates the directory that will contain path
func EnsureParentDir(path string, perm os.FileMode) error {
	return EnsureDir(filepath.Dir(path), perm)
}

// RemoveStale removes path if it exists and is not a directory. A missing
// file is not an error.
func RemoveStale(path string) error {
	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return zerror.Wrap(err, "failed to stat file").
			WithCode(zerror.CodeIOError).
			WithDetail("path", path)
	}
	if info.IsDir() {
		return zerror.New("refusing to remove a directory").
			WithCode(zerror.CodeInvalidInput).
			WithDetail("path", path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return zerror.Wrap(err, "failed to remove file").
			WithCode(zerror.CodeIOError).
			WithDetail("path", path)
	}
	return nil
}

// Resolve returns path unchanged when it is absolute, else joined to base.
// A leading "~/" is expanded to the user's home directory.
func Resolve(base, path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	if filepath.IsAbs(path) || base == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}
