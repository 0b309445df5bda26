// ============================================================================
// zuse - Embeddable Command Interpreter
// ============================================================================
//
// Package:     cmdline
// Description: Tokenizer for command lines and the matching quoting helper
// Author:      Mike Stoffels
// Created:     2026-10-12
// License:     MIT
// ============================================================================

// Package cmdline splits command lines into tokens.
//
// Tokens are separated by whitespace. A double-quoted section may contain
// whitespace; inside quotes \" and \\ are escapes. Quoted and unquoted parts
// that touch form one token, so `a"b c"` yields `ab c`. An empty pair of
// quotes yields an empty token.
package cmdline

import (
	"strings"
	"unicode"

	zerror "github.com/msto63/zuse/foundation/core/error"
)

// Split tokenizes line. An unterminated quote fails with CodeSyntax.
func Split(line string) ([]string, error) {
	var (
		tokens  []string
		current strings.Builder
		inToken bool
		inQuote bool
		escaped bool
	)

	for _, r := range line {
		switch {
		case escaped:
			if r != '"' && r != '\\' {
				current.WriteRune('\\')
			}
			current.WriteRune(r)
			escaped = false
		case inQuote && r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
			inToken = true
		case !inQuote && unicode.IsSpace(r):
			if inToken {
				tokens = append(tokens, current.String())
				current.Reset()
				inToken = false
			}
		default:
			current.WriteRune(r)
			inToken = true
		}
	}

	if inQuote {
		return nil, zerror.New("unterminated quote").
			WithCode(zerror.CodeSyntax).
			WithDetail("line", line)
	}
	if inToken {
		tokens = append(tokens, current.String())
	}
	return tokens, nil
}

// Quote renders args so that Split(Quote(args)) returns args again.
func Quote(args []string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = quoteToken(a)
	}
	return strings.Join(parts, " ")
}

func quoteToken(s string) string {
	if s != "" && !strings.ContainsAny(s, "\"\\") && strings.IndexFunc(s, unicode.IsSpace) < 0 {
		return s
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}
