package pipe

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/pkg/core/logging"
)

// DefaultTerminator ends a response of the line transport. Responses may
// span several lines.
const DefaultTerminator = "\x00"

// lineTransport speaks plain text: one newline-terminated request, one
// response followed by the terminator. It suits shell tools such as socat.
type lineTransport struct {
	terminator string
	logger     *logging.Logger
}

func (t *lineTransport) Name() string { return TransportLine }

func (t *lineTransport) Listen(path string, handler Handler) (Listener, error) {
	if err := prepareSocket(path); err != nil {
		return nil, err
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, zerror.Wrap(err, "failed to listen on pipe socket").
			WithCode(zerror.CodePipeUnavailable).
			WithDetail("socket", path)
	}
	l := &lineListener{
		path:       path,
		ln:         ln,
		handler:    handler,
		terminator: t.terminator,
		sessions:   newSessions(),
		logger:     t.logger,
		done:       make(chan struct{}),
	}
	go l.accept()
	return l, nil
}

func (t *lineTransport) Dial(ctx context.Context, path string) (Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, zerror.Wrap(err, "failed to connect to pipe").
			WithCode(zerror.CodePipeUnavailable).
			WithDetail("socket", path)
	}
	return &lineConn{conn: conn, r: bufio.NewReader(conn), terminator: t.terminator}, nil
}

type lineListener struct {
	path       string
	ln         net.Listener
	handler    Handler
	terminator string
	sessions   *sessions
	logger     *logging.Logger
	done       chan struct{}
}

func (l *lineListener) Addr() string { return l.path }

func (l *lineListener) accept() {
	defer close(l.done)
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				l.logger.Error("Line pipe accept failed", "socket", l.path, "error", err)
			}
			return
		}
		sess, ok := l.sessions.add(conn)
		if !ok {
			conn.Close()
			return
		}
		go l.serve(conn, sess)
	}
}

func (l *lineListener) serve(conn net.Conn, sess *session) {
	defer l.sessions.remove(sess)

	r := bufio.NewReader(conn)
	ctx := context.Background()
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		request := strings.TrimRight(line, "\r\n")

		sess.mu.Lock()
		response := l.handler(ctx, request)
		_, err = conn.Write([]byte(response + l.terminator))
		sess.mu.Unlock()
		if err != nil {
			l.logger.Warn("Line pipe write error", "socket", l.path, "error", err)
			return
		}
	}
}

func (l *lineListener) Stop(ctx context.Context) error {
	l.ln.Close()
	<-l.done
	err := l.sessions.closeAll(ctx)
	removeSocket(l.path)
	return err
}

type lineConn struct {
	mu         sync.Mutex
	conn       net.Conn
	r          *bufio.Reader
	terminator string
}

// Send writes request as one line and reads up to the terminator.
// Newlines inside request are sent as spaces.
func (c *lineConn) Send(ctx context.Context, request string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	applyDeadline(ctx, c.conn.SetDeadline)
	request = strings.NewReplacer("\r", " ", "\n", " ").Replace(request)
	if _, err := c.conn.Write([]byte(request + "\n")); err != nil {
		return "", err
	}

	var b strings.Builder
	last := c.terminator[len(c.terminator)-1]
	for {
		chunk, err := c.r.ReadString(last)
		b.WriteString(chunk)
		if err != nil {
			return "", err
		}
		if strings.HasSuffix(b.String(), c.terminator) {
			return strings.TrimSuffix(b.String(), c.terminator), nil
		}
	}
}

func (c *lineConn) Close() error { return c.conn.Close() }
