package expr

import (
	"go/constant"
	"go/token"
	"strconv"
	"strings"
)

// fromString turns a variable value or bare word into a constant. Numeric
// text becomes a number, true/false a bool, anything else a string.
func fromString(s string) constant.Value {
	if n, ok := parseNumber(s); ok {
		return n
	}
	switch s {
	case "true":
		return constant.MakeBool(true)
	case "false":
		return constant.MakeBool(false)
	}
	return constant.MakeString(s)
}

func parseNumber(s string) (constant.Value, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" || !(s[0] >= '0' && s[0] <= '9' || s[0] == '.') {
		return nil, false
	}

	var v constant.Value
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		v = constant.MakeFromLiteral(s, token.INT, 0)
	} else if _, err := strconv.ParseFloat(s, 64); err == nil {
		v = constant.MakeFromLiteral(s, token.FLOAT, 0)
	} else {
		return nil, false
	}
	if v.Kind() == constant.Unknown {
		return nil, false
	}
	if neg {
		v = constant.UnaryOp(token.SUB, v, 0)
	}
	return v, true
}

// format renders a result the way commands expect it
func format(v constant.Value) string {
	switch v.Kind() {
	case constant.String:
		return constant.StringVal(v)
	case constant.Bool:
		return strconv.FormatBool(constant.BoolVal(v))
	case constant.Int:
		return v.ExactString()
	case constant.Float:
		if i := constant.ToInt(v); i.Kind() == constant.Int {
			return i.ExactString()
		}
		f, _ := constant.Float64Val(v)
		return strconv.FormatFloat(f, 'g', -1, 64)
	default:
		return v.String()
	}
}

// Truthy reports whether s counts as true in a condition. Empty strings,
// "false" and zero are false; everything else is true.
func Truthy(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "false") {
		return false
	}
	if n, ok := parseNumber(s); ok {
		return constant.Sign(n) != 0
	}
	return true
}

func truthy(v constant.Value) bool {
	switch v.Kind() {
	case constant.Bool:
		return constant.BoolVal(v)
	case constant.Int, constant.Float:
		return constant.Sign(v) != 0
	case constant.String:
		return Truthy(constant.StringVal(v))
	default:
		return false
	}
}

func isNumeric(v constant.Value) bool {
	return v.Kind() == constant.Int || v.Kind() == constant.Float
}
