package expr

import (
	"go/ast"
	"go/constant"
	"go/token"
	"strings"
	"unicode/utf8"
)

func (ev *evaluation) call(n *ast.CallExpr) (constant.Value, error) {
	fn, ok := n.Fun.(*ast.Ident)
	if !ok {
		return nil, ev.fail("unsupported call")
	}

	args := make([]constant.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := ev.eval(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	want := func(count int) error {
		if len(args) != count {
			return ev.fail("%s expects %d argument(s), got %d", fn.Name, count, len(args))
		}
		return nil
	}

	switch fn.Name {
	case "len":
		if err := want(1); err != nil {
			return nil, err
		}
		return constant.MakeInt64(int64(utf8.RuneCountInString(format(args[0])))), nil
	case "upper":
		if err := want(1); err != nil {
			return nil, err
		}
		return constant.MakeString(strings.ToUpper(format(args[0]))), nil
	case "lower":
		if err := want(1); err != nil {
			return nil, err
		}
		return constant.MakeString(strings.ToLower(format(args[0]))), nil
	case "abs":
		if err := want(1); err != nil {
			return nil, err
		}
		x, _ := coerce(args[0], constant.MakeInt64(0))
		if !isNumeric(x) {
			return nil, ev.fail("abs needs a number")
		}
		if constant.Sign(x) < 0 {
			x = constant.UnaryOp(token.SUB, x, 0)
		}
		return x, nil
	case "min", "max":
		if len(args) == 0 {
			return nil, ev.fail("%s needs at least one argument", fn.Name)
		}
		op := token.LSS
		if fn.Name == "max" {
			op = token.GTR
		}
		best := args[0]
		for _, a := range args[1:] {
			a, b := coerce(a, best)
			if !isNumeric(a) || !isNumeric(b) {
				return nil, ev.fail("%s needs numbers", fn.Name)
			}
			if constant.Compare(a, op, b) {
				best = a
			} else {
				best = b
			}
		}
		return best, nil
	case "contains":
		if err := want(2); err != nil {
			return nil, err
		}
		return constant.MakeBool(strings.Contains(format(args[0]), format(args[1]))), nil
	default:
		return nil, ev.fail("unknown function %s", fn.Name)
	}
}
