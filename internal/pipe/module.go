package pipe

import (
	"context"
	"strings"
	"time"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/internal/cmdline"
	"github.com/msto63/zuse/internal/interpreter"
	"github.com/msto63/zuse/internal/registry"
	"github.com/msto63/zuse/internal/stack"
)

// ModuleName is the module registering the pipe commands
const ModuleName = "pipe"

// Install creates a bridge for interp and loads the pipe module:
//
//	PipeServer pipe [name]      serve pipe, registered as name
//	PipeClient pipe [name]      connect to pipe, registered as name
//	PipeSend client command...  one round trip, returns the response
//	PipeStop [name...]          stop servers, all without names
//	PipeClose [name...]         close clients, all without names
//	PipeStatus                  health of every server and client
func Install(interp *interpreter.Interpreter, opts Options) (*Bridge, error) {
	b, err := NewBridge(interp, opts)
	if err != nil {
		return nil, err
	}
	interp.AddModule(ModuleName, func(r *registry.Registry) error {
		r.AddCommand("PipeServer", b.cmdServer)
		r.AddCommand("PipeClient", b.cmdClient)
		r.AddCommand("PipeSend", b.cmdSend)
		r.AddCommand("PipeStop", b.cmdStop)
		r.AddCommand("PipeClose", b.cmdClose)
		r.AddCommand("PipeStatus", b.cmdStatus)
		return nil
	})
	if err := interp.LoadModule(ModuleName); err != nil {
		return nil, err
	}
	return b, nil
}

func usage(name, form string) error {
	return zerror.Newf("usage: %s %s", name, form).
		WithCode(zerror.CodeInvalidArgumentCount).
		WithDetail("command", name)
}

func optionalName(args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	return ""
}

func (b *Bridge) cmdServer(_ stack.CommandThread, name string, args []string) (string, error) {
	if len(args) < 1 || len(args) > 2 {
		return "", usage(name, "pipe [name]")
	}
	s, err := b.CreatePipeServer(args[0], optionalName(args))
	if err != nil {
		return "", err
	}
	return s.Name(), nil
}

func (b *Bridge) cmdClient(_ stack.CommandThread, name string, args []string) (string, error) {
	if len(args) < 1 || len(args) > 2 {
		return "", usage(name, "pipe [name]")
	}
	c, err := b.CreatePipeClient(args[0], optionalName(args))
	if err != nil {
		return "", err
	}
	return c.Name(), nil
}

// PipeSend re-quotes the already substituted arguments and escapes "$"
// so the server receives the same tokens
func (b *Bridge) cmdSend(_ stack.CommandThread, name string, args []string) (string, error) {
	if len(args) < 2 {
		return "", usage(name, "client command [args...]")
	}
	c, ok := b.Client(args[0])
	if !ok {
		return "", zerror.Newf("no pipe client named %s", args[0]).
			WithCode(zerror.CodeNotFound).
			WithDetail("client", args[0])
	}
	tokens := make([]string, len(args)-1)
	for k, a := range args[1:] {
		tokens[k] = strings.ReplaceAll(a, "$", "$$")
	}
	return c.GetServerResponse(cmdline.Quote(tokens))
}

func (b *Bridge) cmdStop(_ stack.CommandThread, _ string, args []string) (string, error) {
	if len(args) == 0 {
		return "", b.RemoveAllServers()
	}
	return "", b.RemoveServer(args...)
}

func (b *Bridge) cmdClose(_ stack.CommandThread, _ string, args []string) (string, error) {
	if len(args) == 0 {
		return "", b.RemoveAllClients()
	}
	return "", b.RemoveClient(args...)
}

func (b *Bridge) cmdStatus(_ stack.CommandThread, name string, args []string) (string, error) {
	if len(args) != 0 {
		return "", usage(name, "")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return strings.TrimSpace(b.Health(ctx).String()), nil
}
