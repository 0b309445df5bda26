package interpreter

import (
	"strings"
	"testing"

	zerror "github.com/msto63/zuse/foundation/core/error"
)

func TestIfBranches(t *testing.T) {
	tests := []struct {
		name string
		x    string
		want string
	}{
		{"if branch", "1", "one"},
		{"elseif branch", "2", "two"},
		{"else branch", "3", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := newTestInterpreter(t, Options{})
			th := i.NewThread()
			runLines(t, i, th,
				"Set r none",
				"Set x "+tt.x,
				"If x == 1",
				"  Set r one",
				"ElseIf x == 2",
				"  Set r two",
				"ElseIf x == 2",
				"  Set r duplicate",
				"Else",
				"  Set r other",
				"EndIf",
			)
			if got, _ := th.GetVariable("r"); got != tt.want {
				t.Errorf("r = %q, want %q", got, tt.want)
			}
			if th.Depth() != 1 || th.ParameterDepth() != 0 {
				t.Errorf("stack not balanced: depth %d, params %d", th.Depth(), th.ParameterDepth())
			}
		})
	}
}

func TestQuietSkipNestedIf(t *testing.T) {
	i := newTestInterpreter(t, Options{})
	th := i.NewThread()
	runLines(t, i, th,
		"Set r none",
		"Set x 1",
		"If x == 2",
		"  If x == 1",
		"    Set r inner",
		"  Else",
		"    Set r inner-else",
		"  EndIf",
		"  NoSuchCommand $undefined",
		"  Set r outer",
		"ElseIf x == 1",
		"  Set r elseif",
		"Else",
		"  Set r else",
		"EndIf",
	)
	if got, _ := th.GetVariable("r"); got != "elseif" {
		t.Errorf("r = %q, want elseif", got)
	}
	if th.Depth() != 1 {
		t.Errorf("Depth() = %d", th.Depth())
	}
}

func TestIfCaseInsensitiveBlockNames(t *testing.T) {
	i := newTestInterpreter(t, Options{})
	th := i.NewThread()
	runLines(t, i, th,
		"set r none",
		"if 0",
		"  if 1",
		"  endif",
		"  set r wrong",
		"else",
		"  set r right",
		"ENDIF",
	)
	if got, _ := th.GetVariable("r"); got != "right" {
		t.Errorf("r = %q", got)
	}
}

func TestUnbalancedBlockCommands(t *testing.T) {
	for _, line := range []string{"EndIf", "Else", "ElseIf 1", "EndWhile", "EndBlock", "EndFunction"} {
		t.Run(line, func(t *testing.T) {
			i := newTestInterpreter(t, Options{})
			_, err := i.Process(i.NewThread(), line)
			if !zerror.HasCode(err, zerror.CodeUnbalancedBlock) {
				t.Errorf("Process(%s) error = %v, want UNBALANCED_BLOCK", line, err)
			}
		})
	}
}

func TestIfConditionErrorKeepsBalance(t *testing.T) {
	i := newTestInterpreter(t, Options{})
	th := i.NewThread()
	if _, err := i.Process(th, "If 1 +"); !zerror.HasCode(err, zerror.CodeEvaluationFailed) {
		t.Fatalf("error = %v", err)
	}
	runLines(t, i, th, "Set r body", "EndIf")
	if th.VariableExists("r") || th.Depth() != 1 {
		t.Error("the block of a failed condition must be skipped and closed by EndIf")
	}
}

func TestWhileLoop(t *testing.T) {
	i := newTestInterpreter(t, Options{})
	th := i.NewThread()
	runLines(t, i, th,
		"Set i 0",
		"Set sum 0",
		"While i < 5",
		"  Inc i",
		"  Let sum sum + i",
		"EndWhile",
	)
	if got, _ := th.GetVariable("sum"); got != "15" {
		t.Errorf("sum = %q, want 15", got)
	}
	if th.Depth() != 1 || th.ParameterDepth() != 0 {
		t.Errorf("stack not balanced: depth %d, params %d", th.Depth(), th.ParameterDepth())
	}
}

func TestWhileDeferredSubstitution(t *testing.T) {
	i := newTestInterpreter(t, Options{})
	th := i.NewThread()
	runLines(t, i, th,
		"Set n 3",
		"Set out x",
		"While $$n > 0",
		"  Set out ${out}x",
		"  Inc n -1",
		"EndWhile",
	)
	if got, _ := th.GetVariable("out"); got != "xxxx" {
		t.Errorf("out = %q", got)
	}
}

func TestNestedLoopsAndBreak(t *testing.T) {
	i := newTestInterpreter(t, Options{})
	th := i.NewThread()
	runLines(t, i, th,
		"Set count 0",
		"Set a 0",
		"While a < 3",
		"  Inc a",
		"  Set b 0",
		"  While 1",
		"    Inc b",
		"    If b > 2",
		"      Break",
		"    EndIf",
		"    Inc count",
		"  EndWhile",
		"EndWhile",
	)
	if got, _ := th.GetVariable("count"); got != "6" {
		t.Errorf("count = %q, want 6", got)
	}
	if th.Depth() != 1 || th.ParameterDepth() != 0 {
		t.Errorf("stack not balanced: depth %d, params %d", th.Depth(), th.ParameterDepth())
	}
}

func TestWhileFalseSkipsBody(t *testing.T) {
	i := newTestInterpreter(t, Options{})
	th := i.NewThread()
	runLines(t, i, th,
		"Set r untouched",
		"While 0",
		"  Set r touched",
		"  NoSuchCommand",
		"EndWhile",
	)
	if got, _ := th.GetVariable("r"); got != "untouched" {
		t.Errorf("r = %q", got)
	}
}

func TestLoopIterationCap(t *testing.T) {
	i := newTestInterpreter(t, Options{MaxLoopIterations: 10})
	th := i.NewThread()
	runLines(t, i, th, "Set i 0", "While 1", "  Inc i")
	_, err := i.Process(th, "EndWhile")
	if err == nil {
		t.Fatal("endless loop must be stopped")
	}
	if got, _ := th.GetVariable("i"); got != "10" {
		t.Errorf("i = %q, want 10", got)
	}
	if th.Depth() != 1 {
		t.Errorf("Depth() = %d after the aborted loop", th.Depth())
	}
}

func TestLoopCapExplainsConstantCondition(t *testing.T) {
	tests := []struct {
		name     string
		cond     string
		wantHint bool
	}{
		{"substituted at While", "$i < 3", true},
		{"bare name", "i < 3 + 100", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := newTestInterpreter(t, Options{MaxLoopIterations: 5})
			th := i.NewThread()
			runLines(t, i, th, "Set i 0", "While "+tt.cond, "  Inc i")
			_, err := i.Process(th, "EndWhile")
			if err == nil {
				t.Fatal("loop must hit the iteration cap")
			}
			if got := strings.Contains(err.Error(), "$$name"); got != tt.wantHint {
				t.Errorf("hint in %q = %v, want %v", err.Error(), got, tt.wantHint)
			}
		})
	}
}

func TestLoopBodyErrorUnwinds(t *testing.T) {
	i := newTestInterpreter(t, Options{})
	th := i.NewThread()
	runLines(t, i, th, "While 1", "  If 1", "    Get missing", "  EndIf")
	_, err := i.Process(th, "EndWhile")
	if !zerror.HasCode(err, zerror.CodeVariableNotFound) {
		t.Fatalf("error = %v", err)
	}
	if th.Depth() != 1 || th.ParameterDepth() != 0 {
		t.Errorf("stack not restored: depth %d, params %d", th.Depth(), th.ParameterDepth())
	}
}

func TestBreakOutsideLoop(t *testing.T) {
	i := newTestInterpreter(t, Options{})
	if _, err := i.Process(i.NewThread(), "Break"); !zerror.HasCode(err, zerror.CodeSyntax) {
		t.Errorf("error = %v", err)
	}
	if _, err := i.Process(i.NewThread(), "Return 1"); !zerror.HasCode(err, zerror.CodeSyntax) {
		t.Errorf("error = %v", err)
	}
}

func TestBlockScopesLocals(t *testing.T) {
	i := newTestInterpreter(t, Options{})
	th := i.NewThread()
	runLines(t, i, th,
		"Set outer 1",
		"Block",
		"  Local outer 2",
		"  Set inner 3",
		"EndBlock",
	)
	if got, _ := th.GetVariable("outer"); got != "1" {
		t.Errorf("outer = %q", got)
	}
	if th.VariableExists("inner") {
		t.Error("inner must not survive EndBlock")
	}
}

func TestFunction(t *testing.T) {
	i := newTestInterpreter(t, Options{})
	th := i.NewThread()
	got := runLines(t, i, th,
		"Function add a b",
		"  Let s a + b",
		"  Return $s",
		"  Set unreachable 1",
		"EndFunction",
	)
	if got != "add" {
		t.Errorf("EndFunction result = %q", got)
	}

	if got, err := i.RunLine(th, "add 2 3"); err != nil || got != "5" {
		t.Errorf("add 2 3 = %q, %v", got, err)
	}
	if th.VariableExists("s") || th.VariableExists("unreachable") || th.Depth() != 1 {
		t.Error("function locals leaked into the caller")
	}
}

func TestFunctionArgumentsAndScope(t *testing.T) {
	i := newTestInterpreter(t, Options{})
	th := i.NewThread()
	runLines(t, i, th,
		"Set hidden caller",
		"Global shared g",
		"Function info first",
		"  Set seen no",
		"  If argc == 2",
		"    Set seen $0:$1:$2:$first:$shared",
		"  EndIf",
		"  Exists hidden",
		"  Return $seen",
		"EndFunction",
	)
	got, err := i.RunLine(th, "info a b")
	if err != nil || got != "info:a:b:a:g" {
		t.Errorf("info a b = %q, %v", got, err)
	}

	runLines(t, i, th,
		"Function visible",
		"  Exists hidden",
		"EndFunction",
	)
	if got, _ := i.RunLine(th, "visible"); got != "false" {
		t.Errorf("caller locals must not be visible, got %q", got)
	}
}

func TestRecursiveFunction(t *testing.T) {
	i := newTestInterpreter(t, Options{})
	th := i.NewThread()
	runLines(t, i, th,
		"Function fact n",
		"  If n <= 1",
		"    Return 1",
		"  EndIf",
		"  Let m n - 1",
		"  Capture sub fact $m",
		"  Let r n * sub",
		"  Return $r",
		"EndFunction",
	)
	if got, err := i.RunLine(th, "fact 6"); err != nil || got != "720" {
		t.Errorf("fact 6 = %q, %v", got, err)
	}
}

func TestReturnFromLoopInFunction(t *testing.T) {
	i := newTestInterpreter(t, Options{})
	th := i.NewThread()
	runLines(t, i, th,
		"Function find limit",
		"  Set k 0",
		"  While 1",
		"    Inc k",
		"    If k == limit",
		"      Return found-$k",
		"    EndIf",
		"  EndWhile",
		"EndFunction",
	)
	if got, err := i.RunLine(th, "find 4"); err != nil || got != "found-4" {
		t.Errorf("find 4 = %q, %v", got, err)
	}
	if th.Depth() != 1 || th.ParameterDepth() != 0 {
		t.Errorf("stack not balanced: depth %d, params %d", th.Depth(), th.ParameterDepth())
	}
}
