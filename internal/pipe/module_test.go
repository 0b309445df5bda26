package pipe

import (
	"strings"
	"testing"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/pkg/core/logging"
)

func TestPipeModule(t *testing.T) {
	i := newInterp(t)
	b, err := Install(i, Options{SocketDir: t.TempDir(), Logger: logging.Discard("pipe")})
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	t.Cleanup(func() { b.Close() })
	if !i.IsModuleLoaded(ModuleName) {
		t.Fatal("pipe module not loaded")
	}

	th := i.NewThread()
	th.SetVariable("who", "world")
	steps := []struct {
		line string
		want string
	}{
		{"PipeServer p srv", "srv"},
		{"PipeClient p cli", "cli"},
		{"PipeSend cli Echo hello $who", "hello world"},
		{`PipeSend cli Echo "a  b"`, "a  b"},
		{"PipeSend cli Set cost $$5", "$5"},
		{"PipeSend cli Get cost", "$5"},
	}
	for _, s := range steps {
		got, err := i.RunLine(th, s.line)
		if err != nil || got != s.want {
			t.Errorf("%s = %q, %v; want %q", s.line, got, err, s.want)
		}
	}

	status, err := i.RunLine(th, "PipeStatus")
	if err != nil {
		t.Fatalf("PipeStatus error = %v", err)
	}
	for _, want := range []string{"pipe: healthy", "server:srv: healthy", "client:cli: healthy"} {
		if !strings.Contains(status, want) {
			t.Errorf("PipeStatus = %q, missing %q", status, want)
		}
	}

	if _, err := i.RunLine(th, "PipeSend nobody Echo"); !zerror.HasCode(err, zerror.CodeNotFound) {
		t.Errorf("PipeSend to unknown client error = %v", err)
	}
	if _, err := i.RunLine(th, "PipeSend cli"); !zerror.HasCode(err, zerror.CodeInvalidArgumentCount) {
		t.Errorf("PipeSend usage error = %v", err)
	}

	if _, err := i.RunLine(th, "PipeClose"); err != nil {
		t.Errorf("PipeClose error = %v", err)
	}
	if _, err := i.RunLine(th, "PipeStop srv"); err != nil {
		t.Errorf("PipeStop error = %v", err)
	}
	if len(b.ServerNames()) != 0 || len(b.ClientNames()) != 0 {
		t.Errorf("tables not empty: %v %v", b.ServerNames(), b.ClientNames())
	}
}
