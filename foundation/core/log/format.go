// File: format.go
// Title: Log Formatters
// Description: JSON, key=value text and colored console formatters.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-12
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation
// - 2026-10-12 v0.2.0: Dropped logfmt, deterministic field order

package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Format selects an output formatter
type Format int

const (
	FormatJSON Format = iota
	FormatText
	FormatConsole
)

// String returns the lower case name of the format
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatText:
		return "text"
	case FormatConsole:
		return "console"
	default:
		return "unknown"
	}
}

// ParseFormat parses a format name
func ParseFormat(format string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return FormatJSON, nil
	case "text", "":
		return FormatText, nil
	case "console":
		return FormatConsole, nil
	}
	return FormatText, fmt.Errorf("unknown log format %q", format)
}

// Formatter renders an entry into a single line including the newline
type Formatter interface {
	Format(entry *Entry) ([]byte, error)
}

// GetFormatter returns the formatter for format
func GetFormatter(format Format) Formatter {
	switch format {
	case FormatText:
		return NewTextFormatter()
	case FormatConsole:
		return NewConsoleFormatter()
	default:
		return NewJSONFormatter()
	}
}

// JSONFormatter writes one JSON object per line
type JSONFormatter struct {
	TimestampFormat string
}

// NewJSONFormatter creates a JSON formatter with RFC3339 nano timestamps
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{TimestampFormat: time.RFC3339Nano}
}

// Format implements Formatter
func (f *JSONFormatter) Format(entry *Entry) ([]byte, error) {
	data := make(map[string]interface{}, len(entry.Fields)+6)
	for k, v := range entry.Fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		data[k] = v
	}
	data["timestamp"] = entry.Timestamp.Format(f.TimestampFormat)
	data["level"] = entry.Level.String()
	data["message"] = entry.Message
	if entry.Logger != "" {
		data["logger"] = entry.Logger
	}
	if entry.RequestID != "" {
		data["request_id"] = entry.RequestID
	}
	if entry.CallerFile != "" {
		data["caller"] = fmt.Sprintf("%s:%d", entry.CallerFile, entry.CallerLine)
	}

	out, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// TextFormatter writes "time LEVEL [logger] message k=v ..." lines
type TextFormatter struct {
	TimestampFormat string
}

// NewTextFormatter creates a text formatter
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"}
}

// Format implements Formatter
func (f *TextFormatter) Format(entry *Entry) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(entry.Timestamp.Format(f.TimestampFormat))
	b.WriteByte(' ')
	fmt.Fprintf(&b, "%-5s", entry.Level.String())
	if entry.Logger != "" {
		fmt.Fprintf(&b, " [%s]", entry.Logger)
	}
	b.WriteByte(' ')
	b.WriteString(entry.Message)
	if entry.RequestID != "" {
		fmt.Fprintf(&b, " request_id=%s", entry.RequestID)
	}
	writeFields(&b, entry.Fields)
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// ConsoleFormatter is a compact colored formatter for terminals
type ConsoleFormatter struct {
	Colors bool
}

// NewConsoleFormatter creates a console formatter with colors enabled
func NewConsoleFormatter() *ConsoleFormatter {
	return &ConsoleFormatter{Colors: true}
}

// Format implements Formatter
func (f *ConsoleFormatter) Format(entry *Entry) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(entry.Timestamp.Format("15:04:05.000"))
	b.WriteByte(' ')
	if f.Colors {
		fmt.Fprintf(&b, "%s%-5s\033[0m", entry.Level.Color(), entry.Level.String())
	} else {
		fmt.Fprintf(&b, "%-5s", entry.Level.String())
	}
	if entry.Logger != "" {
		fmt.Fprintf(&b, " %s:", entry.Logger)
	}
	b.WriteByte(' ')
	b.WriteString(entry.Message)
	writeFields(&b, entry.Fields)
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func writeFields(b *bytes.Buffer, fields Fields) {
	if len(fields) == 0 {
		return
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := fmt.Sprint(fields[k])
		if strings.ContainsAny(v, " \t\"=") {
			v = fmt.Sprintf("%q", v)
		}
		fmt.Fprintf(b, " %s=%s", k, v)
	}
}
