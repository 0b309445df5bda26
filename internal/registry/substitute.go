package registry

import (
	"strings"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/internal/stack"
)

// Getter reads variables for substitution
type Getter interface {
	GetVariable(name string) (string, error)
}

// Substitute replaces $name and ${name} in token with variable values read
// from scope. $$ yields a literal $; a $ not followed by a name is kept.
func Substitute(scope Getter, token string) (string, error) {
	if !strings.ContainsRune(token, '$') {
		return token, nil
	}

	var b strings.Builder
	b.Grow(len(token))
	for i := 0; i < len(token); {
		c := token[i]
		if c != '$' || i+1 >= len(token) {
			b.WriteByte(c)
			i++
			continue
		}

		next := token[i+1]
		switch {
		case next == '$':
			b.WriteByte('$')
			i += 2
		case next == '{':
			end := strings.IndexByte(token[i+2:], '}')
			if end < 0 {
				return "", zerror.Newf("unterminated ${ in %q", token).
					WithCode(zerror.CodeSyntax).
					WithDetail("token", token)
			}
			value, err := scope.GetVariable(token[i+2 : i+2+end])
			if err != nil {
				return "", err
			}
			b.WriteString(value)
			i += end + 3
		case isNameByte(next):
			j := i + 1
			for j < len(token) && isNameByte(token[j]) {
				j++
			}
			value, err := scope.GetVariable(token[i+1 : j])
			if err != nil {
				return "", err
			}
			b.WriteString(value)
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), nil
}

// SubstituteAll substitutes every token and returns a new slice
func SubstituteAll(scope Getter, tokens []string) ([]string, error) {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		v, err := Substitute(scope, tok)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func isNameByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

var _ Getter = (stack.VariableScope)(nil)
