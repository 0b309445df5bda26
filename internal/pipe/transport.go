package pipe

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/foundation/utils/filex"
	"github.com/msto63/zuse/pkg/core/logging"
)

// Transport names
const (
	TransportGRPC      = "grpc"
	TransportWebSocket = "websocket"
	TransportLine      = "line"
)

// Handler answers one request line with one response
type Handler func(ctx context.Context, request string) string

// Transport carries request and response lines over a unix socket
type Transport interface {
	Name() string
	// Listen binds path and serves requests with handler until stopped
	Listen(path string, handler Handler) (Listener, error)
	Dial(ctx context.Context, path string) (Conn, error)
}

// Listener is a serving pipe endpoint
type Listener interface {
	Addr() string
	// Stop stops accepting, lets in-flight exchanges finish and removes
	// the socket. When ctx ends first the remaining connections are cut.
	Stop(ctx context.Context) error
}

// Conn is a client connection to a pipe endpoint. Send is one blocking
// round trip.
type Conn interface {
	Send(ctx context.Context, request string) (string, error)
	Close() error
}

// TransportOptions configures NewTransport
type TransportOptions struct {
	// Terminator ends every response of the line transport
	Terminator string
	Logger     *logging.Logger
}

// NewTransport returns the transport registered under name
func NewTransport(name string, opts TransportOptions) (Transport, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.New("pipe")
	}
	switch name {
	case "", TransportGRPC:
		return &grpcTransport{logger: logger}, nil
	case TransportWebSocket:
		return &wsTransport{logger: logger}, nil
	case TransportLine:
		term := opts.Terminator
		if term == "" {
			term = DefaultTerminator
		}
		return &lineTransport{terminator: term, logger: logger}, nil
	default:
		return nil, zerror.Newf("unknown pipe transport %q", name).
			WithCode(zerror.CodeInvalidInput)
	}
}

// prepareSocket creates the socket directory and removes a socket file
// nobody listens on
func prepareSocket(path string) error {
	if err := filex.EnsureParentDir(path, 0o755); err != nil {
		return err
	}
	if !filex.Exists(path) {
		return nil
	}
	conn, err := net.DialTimeout("unix", path, 200*time.Millisecond)
	if err == nil {
		conn.Close()
		return zerror.New("socket is already in use").
			WithCode(zerror.CodePipeExists).
			WithDetail("socket", path)
	}
	return filex.RemoveStale(path)
}

// session is one server-side connection. Its mutex is held for the length
// of an exchange, so closing it waits for the current response.
type session struct {
	mu     sync.Mutex
	closer io.Closer
}

// sessions tracks the connections of a listener for graceful stops
type sessions struct {
	mu     sync.Mutex
	set    map[*session]struct{}
	closed bool
	wg     sync.WaitGroup
}

func newSessions() *sessions {
	return &sessions{set: make(map[*session]struct{})}
}

// add registers c. It returns false once the listener is stopping.
func (s *sessions) add(c io.Closer) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false
	}
	sess := &session{closer: c}
	s.set[sess] = struct{}{}
	s.wg.Add(1)
	return sess, true
}

func (s *sessions) remove(sess *session) {
	s.mu.Lock()
	if _, ok := s.set[sess]; ok {
		delete(s.set, sess)
		s.wg.Done()
	}
	s.mu.Unlock()
	sess.closer.Close()
}

// closeAll closes every session after its current exchange and waits for
// the connection goroutines, or until ctx ends
func (s *sessions) closeAll(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	open := make([]*session, 0, len(s.set))
	for sess := range s.set {
		open = append(open, sess)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		for _, sess := range open {
			sess.mu.Lock()
			sess.closer.Close()
			sess.mu.Unlock()
		}
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		for _, sess := range open {
			sess.closer.Close()
		}
		return ctx.Err()
	}
}

// applyDeadline maps the context deadline onto a connection
func applyDeadline(ctx context.Context, set func(time.Time) error) {
	deadline, _ := ctx.Deadline()
	set(deadline)
}

func removeSocket(path string) {
	_ = filex.RemoveStale(path)
}
