package pipe

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/pkg/core/logging"
)

// wsURL is the URL requested over the unix socket; the host is ignored
const wsURL = "ws://zuse/pipe"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // unix socket peers are local
	},
}

type wsTransport struct {
	logger *logging.Logger
}

func (t *wsTransport) Name() string { return TransportWebSocket }

func (t *wsTransport) Listen(path string, handler Handler) (Listener, error) {
	if err := prepareSocket(path); err != nil {
		return nil, err
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, zerror.Wrap(err, "failed to listen on pipe socket").
			WithCode(zerror.CodePipeUnavailable).
			WithDetail("socket", path)
	}

	l := &wsListener{
		path:     path,
		ln:       ln,
		handler:  handler,
		sessions: newSessions(),
		logger:   t.logger,
		done:     make(chan struct{}),
	}
	l.srv = &http.Server{Handler: l, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		defer close(l.done)
		if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.logger.Error("WebSocket pipe server error", "socket", path, "error", err)
		}
	}()
	return l, nil
}

func (t *wsTransport) Dial(ctx context.Context, path string) (Conn, error) {
	dialer := websocket.Dialer{
		NetDialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", path)
		},
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, zerror.Wrap(err, "failed to connect to pipe").
			WithCode(zerror.CodePipeUnavailable).
			WithDetail("socket", path)
	}
	return &wsConn{conn: conn}, nil
}

type wsListener struct {
	path     string
	ln       net.Listener
	srv      *http.Server
	handler  Handler
	sessions *sessions
	logger   *logging.Logger
	done     chan struct{}
}

func (l *wsListener) Addr() string { return l.path }

// ServeHTTP upgrades the connection and answers one text message per request
func (l *wsListener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}
	sess, ok := l.sessions.add(conn)
	if !ok {
		conn.Close()
		return
	}
	defer l.sessions.remove(sess)

	ctx := context.WithoutCancel(r.Context())
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				l.logger.Warn("WebSocket pipe read error", "socket", l.path, "error", err)
			}
			return
		}

		sess.mu.Lock()
		response := l.handler(ctx, string(data))
		err = conn.WriteMessage(websocket.TextMessage, []byte(response))
		sess.mu.Unlock()
		if err != nil {
			l.logger.Warn("WebSocket pipe write error", "socket", l.path, "error", err)
			return
		}
	}
}

func (l *wsListener) Stop(ctx context.Context) error {
	err := l.srv.Shutdown(ctx)
	if closeErr := l.sessions.closeAll(ctx); err == nil {
		err = closeErr
	}
	<-l.done
	removeSocket(l.path)
	return err
}

type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) Send(ctx context.Context, request string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	applyDeadline(ctx, c.conn.SetWriteDeadline)
	applyDeadline(ctx, c.conn.SetReadDeadline)
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(request)); err != nil {
		return "", err
	}
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *wsConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}
