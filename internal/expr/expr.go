// ============================================================================
// zuse - Embeddable Command Interpreter
// ============================================================================
//
// Package:     expr
// Description: String-valued expression evaluator for conditions and Eval
// Author:      Mike Stoffels
// Created:     2026-10-14
// License:     MIT
// ============================================================================

package expr

import (
	"go/ast"
	"go/constant"
	"go/parser"
	"go/token"
	"strings"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/pkg/core/cache"
)

// DefaultCacheSize bounds the number of parsed expressions kept
const DefaultCacheSize = 1024

// Scope resolves bare identifiers. A nil Scope treats them as strings.
type Scope interface {
	GetVariable(name string) (string, error)
}

// Evaluator evaluates Go-syntax expressions over string values. Parsed
// expressions are cached; an Evaluator is safe for concurrent use.
type Evaluator struct {
	cache *cache.Cache[ast.Expr] // nil disables caching
}

// New creates an evaluator with the default cache size
func New() *Evaluator {
	return NewWithCacheSize(DefaultCacheSize)
}

// NewWithCacheSize creates an evaluator caching up to size expressions.
// A size of zero or less disables the cache.
func NewWithCacheSize(size int) *Evaluator {
	if size <= 0 {
		return &Evaluator{}
	}
	return &Evaluator{cache: cache.New[ast.Expr](cache.Config{MaxItems: size})}
}

// Evaluate evaluates text and returns the result as a string. Identifiers
// are looked up in scope; unknown identifiers evaluate to their own name.
func (e *Evaluator) Evaluate(text string, scope Scope) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	node, err := e.parse(text)
	if err != nil {
		return "", err
	}
	v, err := (&evaluation{text: text, scope: scope}).eval(node)
	if err != nil {
		return "", err
	}
	return format(v), nil
}

// Condition evaluates text and reports whether the result is truthy
func (e *Evaluator) Condition(text string, scope Scope) (bool, error) {
	result, err := e.Evaluate(text, scope)
	if err != nil {
		return false, err
	}
	return Truthy(result), nil
}

// CacheLen returns the number of cached expressions
func (e *Evaluator) CacheLen() int {
	if e.cache == nil {
		return 0
	}
	return e.cache.Len()
}

// CacheStats returns hit and miss counters of the parse cache
func (e *Evaluator) CacheStats() cache.Stats {
	if e.cache == nil {
		return cache.Stats{}
	}
	return e.cache.Stats()
}

func (e *Evaluator) parse(text string) (ast.Expr, error) {
	if e.cache == nil {
		return parseExpr(text)
	}
	return e.cache.GetOrSet(text, func() (ast.Expr, error) { return parseExpr(text) })
}

func parseExpr(text string) (ast.Expr, error) {
	node, err := parser.ParseExpr(text)
	if err != nil {
		return nil, zerror.Wrap(err, "invalid expression").
			WithCode(zerror.CodeEvaluationFailed).
			WithDetail("expression", text)
	}
	return node, nil
}

type evaluation struct {
	text  string
	scope Scope
}

func (ev *evaluation) fail(format string, args ...interface{}) error {
	return zerror.Newf(format, args...).
		WithCode(zerror.CodeEvaluationFailed).
		WithDetail("expression", ev.text)
}

func (ev *evaluation) eval(node ast.Expr) (constant.Value, error) {
	switch n := node.(type) {
	case *ast.BasicLit:
		v := constant.MakeFromLiteral(n.Value, n.Kind, 0)
		if v.Kind() == constant.Unknown {
			return nil, ev.fail("invalid literal %s", n.Value)
		}
		if n.Kind == token.CHAR {
			r, _ := constant.Int64Val(v)
			return constant.MakeString(string(rune(r))), nil
		}
		return v, nil

	case *ast.Ident:
		return ev.ident(n.Name)

	case *ast.ParenExpr:
		return ev.eval(n.X)

	case *ast.UnaryExpr:
		x, err := ev.eval(n.X)
		if err != nil {
			return nil, err
		}
		return ev.unary(n.Op, x)

	case *ast.BinaryExpr:
		return ev.binary(n)

	case *ast.CallExpr:
		return ev.call(n)

	default:
		return nil, ev.fail("unsupported expression %T", node)
	}
}

func (ev *evaluation) ident(name string) (constant.Value, error) {
	if ev.scope != nil {
		if value, err := ev.scope.GetVariable(name); err == nil {
			return fromString(value), nil
		} else if !zerror.HasCode(err, zerror.CodeVariableNotFound) {
			return nil, err
		}
	}
	switch name {
	case "true":
		return constant.MakeBool(true), nil
	case "false":
		return constant.MakeBool(false), nil
	}
	return constant.MakeString(name), nil
}

func (ev *evaluation) unary(op token.Token, x constant.Value) (constant.Value, error) {
	switch op {
	case token.NOT:
		return constant.MakeBool(!truthy(x)), nil
	case token.SUB, token.ADD:
		if x.Kind() == constant.String {
			n, ok := parseNumber(constant.StringVal(x))
			if !ok {
				return nil, ev.fail("operator %s needs a number, got %q", op, constant.StringVal(x))
			}
			x = n
		}
		if !isNumeric(x) {
			return nil, ev.fail("operator %s needs a number", op)
		}
		return constant.UnaryOp(op, x, 0), nil
	case token.XOR:
		if x.Kind() != constant.Int {
			return nil, ev.fail("operator ^ needs an integer")
		}
		return constant.UnaryOp(op, x, 0), nil
	default:
		return nil, ev.fail("unsupported operator %s", op)
	}
}

func (ev *evaluation) binary(n *ast.BinaryExpr) (constant.Value, error) {
	x, err := ev.eval(n.X)
	if err != nil {
		return nil, err
	}

	// && and || short-circuit
	switch n.Op {
	case token.LAND:
		if !truthy(x) {
			return constant.MakeBool(false), nil
		}
		y, err := ev.eval(n.Y)
		if err != nil {
			return nil, err
		}
		return constant.MakeBool(truthy(y)), nil
	case token.LOR:
		if truthy(x) {
			return constant.MakeBool(true), nil
		}
		y, err := ev.eval(n.Y)
		if err != nil {
			return nil, err
		}
		return constant.MakeBool(truthy(y)), nil
	}

	y, err := ev.eval(n.Y)
	if err != nil {
		return nil, err
	}
	x, y = coerce(x, y)

	switch n.Op {
	case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ:
		if x.Kind() != y.Kind() && !(isNumeric(x) && isNumeric(y)) {
			x, y = constant.MakeString(format(x)), constant.MakeString(format(y))
		}
		if x.Kind() == constant.Bool && n.Op != token.EQL && n.Op != token.NEQ {
			return nil, ev.fail("operator %s not defined on booleans", n.Op)
		}
		return constant.MakeBool(constant.Compare(x, n.Op, y)), nil

	case token.ADD:
		if x.Kind() == constant.String || y.Kind() == constant.String {
			return constant.MakeString(format(x) + format(y)), nil
		}
		return ev.arith(n.Op, x, y)

	case token.SUB, token.MUL, token.QUO, token.REM:
		return ev.arith(n.Op, x, y)

	case token.AND, token.OR, token.XOR, token.AND_NOT:
		if x.Kind() != constant.Int || y.Kind() != constant.Int {
			return nil, ev.fail("operator %s needs integers", n.Op)
		}
		return constant.BinaryOp(x, n.Op, y), nil

	case token.SHL, token.SHR:
		if x.Kind() != constant.Int || y.Kind() != constant.Int {
			return nil, ev.fail("operator %s needs integers", n.Op)
		}
		s, ok := constant.Uint64Val(y)
		if !ok || s > 1024 {
			return nil, ev.fail("invalid shift count %s", y)
		}
		return constant.Shift(x, n.Op, uint(s)), nil

	default:
		return nil, ev.fail("unsupported operator %s", n.Op)
	}
}

func (ev *evaluation) arith(op token.Token, x, y constant.Value) (constant.Value, error) {
	if !isNumeric(x) || !isNumeric(y) {
		return nil, ev.fail("operator %s needs numbers, got %q and %q", op, format(x), format(y))
	}
	if (op == token.QUO || op == token.REM) && constant.Sign(y) == 0 {
		return nil, ev.fail("division by zero")
	}
	bothInt := x.Kind() == constant.Int && y.Kind() == constant.Int
	switch {
	case op == token.REM && !bothInt:
		return nil, ev.fail("operator %% needs integers")
	case op == token.QUO && bothInt:
		op = token.QUO_ASSIGN
	}
	return constant.BinaryOp(x, op, y), nil
}

// coerce converts numeric-looking strings when the other operand is a number
func coerce(x, y constant.Value) (constant.Value, constant.Value) {
	if x.Kind() == constant.String && isNumeric(y) {
		if n, ok := parseNumber(constant.StringVal(x)); ok {
			x = n
		}
	}
	if y.Kind() == constant.String && isNumeric(x) {
		if n, ok := parseNumber(constant.StringVal(y)); ok {
			y = n
		}
	}
	return x, y
}
