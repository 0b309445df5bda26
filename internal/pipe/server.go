package pipe

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/internal/cmdline"
	"github.com/msto63/zuse/internal/registry"
	"github.com/msto63/zuse/internal/stack"
	coreGrpc "github.com/msto63/zuse/pkg/core/grpc"
	"github.com/msto63/zuse/pkg/core/logging"
)

// Server runs request lines received on one pipe. Requests are executed
// one at a time on a thread owned by the server.
type Server struct {
	bridge   *Bridge
	name     string
	pipe     string
	listener Listener
	logger   *logging.Logger

	mu     sync.Mutex
	thread *stack.Thread

	requests atomic.Int64
	failures atomic.Int64
}

func newServer(b *Bridge, name, pipe string) *Server {
	return &Server{
		bridge: b,
		name:   name,
		pipe:   pipe,
		logger: b.logger.With("server", name, "pipe", pipe),
		thread: b.interp.NewThread(),
	}
}

// Name returns the registered server name
func (s *Server) Name() string { return s.name }

// Pipe returns the pipe name the server listens on
func (s *Server) Pipe() string { return s.pipe }

// Addr returns the socket address
func (s *Server) Addr() string { return s.listener.Addr() }

// Requests returns the number of requests answered
func (s *Server) Requests() int64 { return s.requests.Load() }

// Failures returns the number of requests answered with an error
func (s *Server) Failures() int64 { return s.failures.Load() }

// Thread returns the thread requests run on
func (s *Server) Thread() stack.CommandThread { return s.thread }

// handle tokenizes and runs one request. Failures become responses
// starting with the error prefix.
func (s *Server) handle(ctx context.Context, request string) string {
	s.requests.Add(1)
	requestID := coreGrpc.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	result, err := s.run(request)
	if err != nil {
		s.failures.Add(1)
		s.logger.Warn("Pipe request failed", "request_id", requestID, "request", request, "error", err)
		return s.bridge.opts.ErrorPrefix + err.Error()
	}
	s.logger.Debug("Pipe request served", "request_id", requestID, "request", request)
	return result
}

func (s *Server) run(request string) (string, error) {
	argv, err := cmdline.Split(request)
	if err != nil {
		return "", err
	}
	if len(argv) == 0 {
		return "", zerror.New("empty request").WithCode(zerror.CodeInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The name is checked after substitution, as Run resolves it
	name, err := registry.Substitute(s.thread, argv[0])
	if err != nil {
		return "", err
	}
	if !s.bridge.interp.HasCommand(name) {
		return "", zerror.Newf("command not found: %s", name).
			WithCode(zerror.CodeCommandNotFound).
			WithDetail("command", name)
	}
	return s.bridge.interp.RunArgs(s.thread, argv)
}
