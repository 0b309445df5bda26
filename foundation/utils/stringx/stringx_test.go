// File: stringx_test.go
// Title: String Utility Tests
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-12

package stringx

import (
	"reflect"
	"testing"
)

func TestIsBlank(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"   \t\n", true},
		{" ", true},
		{" x ", false},
	}
	for _, tt := range tests {
		if got := IsBlank(tt.in); got != tt.want {
			t.Errorf("IsBlank(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		max      int
		ellipsis string
		want     string
	}{
		{"fits", "hello", 5, "...", "hello"},
		{"cut", "hello world", 8, "...", "hello..."},
		{"unicode", "größenwahn", 4, "…", "grö…"},
		{"ellipsis too long", "hello", 2, "...", "he"},
		{"zero", "hello", 0, "...", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.max, tt.ellipsis); got != tt.want {
				t.Errorf("Truncate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPadRight(t *testing.T) {
	if got := PadRight("ab", 5, '.'); got != "ab..." {
		t.Errorf("PadRight() = %q", got)
	}
	if got := PadRight("äöü", 4, ' '); got != "äöü " {
		t.Errorf("PadRight() unicode = %q", got)
	}
	if got := PadRight("toolong", 3, ' '); got != "toolong" {
		t.Errorf("PadRight() = %q", got)
	}
}

func TestSplitLines(t *testing.T) {
	got := SplitLines("a\r\nb\rc\nd")
	want := []string{"a", "b", "c", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitLines() = %v, want %v", got, want)
	}
}

func TestFirstNonBlank(t *testing.T) {
	if got := FirstNonBlank("", "  ", "x", "y"); got != "x" {
		t.Errorf("FirstNonBlank() = %q", got)
	}
	if got := FirstNonBlank(" "); got != "" {
		t.Errorf("FirstNonBlank() = %q", got)
	}
}
