package interpreter

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/internal/stack"
	"github.com/msto63/zuse/pkg/core/config"
	"github.com/msto63/zuse/pkg/core/logging"
)

func newTestInterpreter(t *testing.T, opts Options) *Interpreter {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = logging.Discard("interpreter")
	}
	i, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { i.Close() })
	return i
}

func bufferLogger(t *testing.T, buf *bytes.Buffer) *logging.Logger {
	t.Helper()
	base, _, err := logging.NewLogger(logging.LoggerConfig{ServiceName: "test", Level: "debug", Output: buf})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	return logging.Wrap(base, "interpreter")
}

// runLines feeds lines to Process and returns the last non-empty result
func runLines(t *testing.T, i *Interpreter, th stack.CommandThread, lines ...string) string {
	t.Helper()
	var last string
	for n, line := range lines {
		result, err := i.Process(th, line)
		if err != nil {
			t.Fatalf("line %d %q: %v", n+1, line, err)
		}
		if result != "" {
			last = result
		}
	}
	return last
}

type memJournal struct {
	mu      sync.Mutex
	records []Record
}

func (j *memJournal) Record(rec Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, rec)
	return nil
}

func (j *memJournal) count(mode Mode) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	n := 0
	for _, r := range j.records {
		if r.Mode == mode {
			n++
		}
	}
	return n
}

func TestRunEcho(t *testing.T) {
	i := newTestInterpreter(t, Options{})
	th := i.NewThread()

	got, err := i.Run(th, "Echo", []string{"hello", "world"})
	if err != nil || got != "hello world" {
		t.Errorf("Run(Echo) = %q, %v", got, err)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	i := newTestInterpreter(t, Options{})
	_, err := i.Run(i.NewThread(), "Nope", nil)
	if !zerror.HasCode(err, zerror.CodeCommandNotFound) {
		t.Errorf("Run(Nope) error = %v, want COMMAND_NOT_FOUND", err)
	}
	if _, err := i.RunArgs(i.NewThread(), nil); !zerror.HasCode(err, zerror.CodeInvalidArgumentCount) {
		t.Errorf("RunArgs(nil) error = %v", err)
	}
}

func TestCaseSensitivity(t *testing.T) {
	tests := []struct {
		name          string
		caseSensitive bool
		command       string
		wantErr       bool
	}{
		{"insensitive upper", false, "ECHO", false},
		{"insensitive lower", false, "echo", false},
		{"sensitive exact", true, "Echo", false},
		{"sensitive lower", true, "echo", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := newTestInterpreter(t, Options{CaseSensitive: tt.caseSensitive})
			_, err := i.Run(i.NewThread(), tt.command, []string{"x"})
			if (err != nil) != tt.wantErr {
				t.Errorf("Run(%s) error = %v, wantErr %v", tt.command, err, tt.wantErr)
			}
		})
	}
}

func TestSubstitutionBeforeDispatch(t *testing.T) {
	i := newTestInterpreter(t, Options{})
	th := i.NewThread()
	th.SetVariable("cmd", "Echo")
	th.SetVariable("who", "zuse")

	got, err := i.RunLine(th, `$cmd "hello $who" $$who`)
	if err != nil {
		t.Fatalf("RunLine() error = %v", err)
	}
	if got != "hello zuse $who" {
		t.Errorf("RunLine() = %q", got)
	}

	var seen []string
	i.AddCommand("Args", func(_ stack.CommandThread, name string, args []string) (string, error) {
		seen = append([]string{name}, args...)
		return "", nil
	})
	i.RunLine(th, "args $who")
	if strings.Join(seen, ",") != "args,zuse" {
		t.Errorf("handler saw %v", seen)
	}

	if _, err := i.RunLine(th, "Echo $missing"); !zerror.HasCode(err, zerror.CodeVariableNotFound) {
		t.Errorf("undefined variable error = %v", err)
	}
}

func TestProcessIgnoresBlankAndComments(t *testing.T) {
	i := newTestInterpreter(t, Options{})
	th := i.NewThread()
	for _, line := range []string{"", "   ", "# Echo no", "  # indented"} {
		got, err := i.Process(th, line)
		if err != nil || got != "" {
			t.Errorf("Process(%q) = %q, %v", line, got, err)
		}
	}
}

func TestHandlerPanicBecomesError(t *testing.T) {
	i := newTestInterpreter(t, Options{})
	i.AddCommand("Boom", func(stack.CommandThread, string, []string) (string, error) {
		panic("bad handler")
	})
	_, err := i.Run(i.NewThread(), "Boom", nil)
	if !zerror.HasCode(err, zerror.CodeInternal) {
		t.Errorf("error = %v, want INTERNAL", err)
	}
}

func TestModules(t *testing.T) {
	i := newTestInterpreter(t, Options{Modules: []string{ModuleCore}})
	th := i.NewThread()

	if i.HasCommand("If") {
		t.Fatal("control module should not be loaded")
	}
	if _, err := i.RunLine(th, "LoadModule control"); err != nil {
		t.Fatalf("LoadModule control: %v", err)
	}
	if !i.HasCommand("If") || !i.IsModuleLoaded("control") {
		t.Error("control commands missing after LoadModule")
	}
	if got, _ := i.RunLine(th, "ModuleLoaded.control"); got != "true" {
		t.Errorf("probe = %q", got)
	}
	if _, err := i.RunLine(th, "LoadModule nosuch"); !zerror.HasCode(err, zerror.CodeModuleNotFound) {
		t.Errorf("LoadModule nosuch error = %v", err)
	}
	if got, _ := i.RunLine(th, "Modules"); got != "control core" {
		t.Errorf("Modules = %q", got)
	}
	if got, _ := i.RunLine(th, "Commands control"); !strings.Contains(got, "EndWhile") {
		t.Errorf("Commands control = %q", got)
	}
}

func TestNewUnknownModule(t *testing.T) {
	_, err := New(Options{Modules: []string{"core", "bogus"}, Logger: logging.Discard("x")})
	if !zerror.HasCode(err, zerror.CodeModuleNotFound) {
		t.Errorf("New() error = %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Interpreter.CaseSensitive = true
	cfg.Interpreter.MaxLoopIterations = 0
	cfg.Pool.MaxWorkers = 3
	cfg.Pool.Priority = "high"

	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		t.Fatalf("OptionsFromConfig() error = %v", err)
	}
	if !opts.CaseSensitive || opts.MaxWorkers != 3 || opts.MaxLoopIterations != -1 {
		t.Errorf("opts = %+v", opts)
	}
	if strings.Join(opts.Modules, ",") != "core,control,async,parallel" {
		t.Errorf("Modules = %v", opts.Modules)
	}

	cfg.Pool.Priority = "whatever"
	if _, err := OptionsFromConfig(cfg); err == nil {
		t.Error("invalid priority should fail")
	}
}

func TestCoreCommands(t *testing.T) {
	i := newTestInterpreter(t, Options{})
	th := i.NewThread()

	tests := []struct {
		line string
		want string
	}{
		{"Set greeting hello there", "hello there"},
		{"Get greeting", "hello there"},
		{"Exists greeting", "true"},
		{"Exists nothing", "false"},
		{"Eval 2 * 21", "42"},
		{"Let n 5 + 5", "10"},
		{"Inc n", "11"},
		{"Inc n -3", "8"},
		{"Inc fresh", "1"},
		{"Global g 1", "1"},
		{"Ref alias g global", ""},
		{"Set alias 2", "2"},
		{"Get g", "2"},
		{"Capture c Echo captured", "captured"},
		{"Get c", "captured"},
		{"Sleep 1", ""},
		{"Sleep 1ms", ""},
	}
	for _, tt := range tests {
		got, err := i.RunLine(th, tt.line)
		if err != nil {
			t.Fatalf("%s: %v", tt.line, err)
		}
		if got != tt.want {
			t.Errorf("%s = %q, want %q", tt.line, got, tt.want)
		}
	}

	if _, err := i.RunLine(th, "Clear greeting"); err != nil {
		t.Fatal(err)
	}
	if _, err := i.RunLine(th, "Get greeting"); !zerror.HasCode(err, zerror.CodeVariableNotFound) {
		t.Errorf("Get after Clear error = %v", err)
	}
	if _, err := i.RunLine(th, "Get"); !zerror.HasCode(err, zerror.CodeInvalidArgumentCount) {
		t.Errorf("Get without args error = %v", err)
	}
	if vars, _ := i.RunLine(th, "Vars"); !strings.Contains(vars, "n=8") {
		t.Errorf("Vars = %q", vars)
	}
}

func TestJournalRecordsRuns(t *testing.T) {
	journal := &memJournal{}
	i := newTestInterpreter(t, Options{Journal: journal})
	th := i.NewThread()

	i.RunLine(th, "Echo a")
	i.RunLine(th, "Nope")
	id, _ := i.RunAsync(th, "Echo", []string{"b"})
	i.AsyncWait(id)
	ids, _ := i.RunParallelRepeat(th, 2, "Echo", []string{"c"})
	for _, id := range ids {
		i.JobWait(id)
	}
	i.Close()

	if n := journal.count(ModeSync); n != 1 {
		t.Errorf("sync records = %d, want 1 (unknown commands are not run)", n)
	}
	// The completion callback may still be running right after AsyncWait.
	if n := journal.count(ModeParallel); n != 2 {
		t.Errorf("parallel records = %d", n)
	}
}

type failingJournal struct{}

func (failingJournal) Record(Record) error { return errors.New("disk full") }

func TestJournalFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	i := newTestInterpreter(t, Options{Journal: failingJournal{}, Logger: bufferLogger(t, &buf)})
	if _, err := i.RunLine(i.NewThread(), "Echo x"); err != nil {
		t.Fatalf("journal errors must not fail commands: %v", err)
	}
	if !strings.Contains(buf.String(), "Failed to write journal record") {
		t.Errorf("log = %q", buf.String())
	}
}
