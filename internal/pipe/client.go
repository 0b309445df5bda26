package pipe

import (
	"context"
	"strings"
	"sync"
	"time"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/pkg/core/logging"
)

// Client sends request lines to one pipe server
type Client struct {
	name        string
	pipe        string
	conn        Conn
	timeout     time.Duration
	errorPrefix string
	logger      *logging.Logger

	mu     sync.Mutex
	closed bool
}

// Name returns the registered client name
func (c *Client) Name() string { return c.name }

// Pipe returns the pipe the client is connected to
func (c *Client) Pipe() string { return c.pipe }

// GetServerResponse sends line and blocks until the response arrives.
// A response carrying the error prefix is returned as a REMOTE_ERROR
// error; transport failures are PIPE_UNAVAILABLE.
func (c *Client) GetServerResponse(line string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return c.send(ctx, line)
}

func (c *Client) send(ctx context.Context, line string) (string, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return "", zerror.Newf("pipe client %s is closed", c.name).
			WithCode(zerror.CodePipeUnavailable).
			WithDetail("client", c.name)
	}

	response, err := c.conn.Send(ctx, line)
	if err != nil {
		c.logger.Error("Pipe round trip failed", "request", line, "error", err)
		return "", zerror.Wrap(err, "pipe "+c.pipe+" unavailable").
			WithCode(zerror.CodePipeUnavailable).
			WithDetail("client", c.name).
			WithDetail("pipe", c.pipe)
	}
	if msg, ok := strings.CutPrefix(response, c.errorPrefix); ok {
		return "", zerror.New(msg).
			WithCode(zerror.CodeRemoteError).
			WithDetail("pipe", c.pipe)
	}
	return response, nil
}

// ping checks the round trip. An error response still proves the server
// is alive.
func (c *Client) ping(ctx context.Context) error {
	_, err := c.send(ctx, "Modules")
	if zerror.HasCode(err, zerror.CodeRemoteError) {
		return nil
	}
	return err
}

func (c *Client) close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.conn.Close()
}
