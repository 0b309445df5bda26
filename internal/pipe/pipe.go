// ============================================================================
// zuse - Embeddable Command Interpreter
// ============================================================================
//
// Package:     pipe
// Description: Pipe bridge exposing command execution to other processes
//              over named unix sockets. Servers run request lines on the
//              interpreter; clients send lines and return the responses.
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package pipe

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"time"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/foundation/utils/stringx"
	"github.com/msto63/zuse/internal/interpreter"
	"github.com/msto63/zuse/pkg/core/config"
	"github.com/msto63/zuse/pkg/core/health"
	"github.com/msto63/zuse/pkg/core/logging"
	"github.com/msto63/zuse/pkg/core/version"
	"golang.org/x/sync/errgroup"
)

// Defaults
const (
	DefaultErrorPrefix    = "ERROR: "
	DefaultRequestTimeout = 30 * time.Second
	DefaultStopTimeout    = 5 * time.Second
)

// Options configures a Bridge
type Options struct {
	// Transport is "grpc" (default), "websocket" or "line"
	Transport   string
	SocketDir   string
	ErrorPrefix string
	Terminator  string
	// RequestTimeout bounds one client round trip
	RequestTimeout time.Duration
	// StopTimeout bounds the graceful stop of one server
	StopTimeout time.Duration
	Logger      *logging.Logger
}

// OptionsFromConfig maps the pipe section of cfg to bridge options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Transport:      cfg.Pipe.Transport,
		SocketDir:      cfg.Pipe.SocketDir,
		ErrorPrefix:    cfg.Pipe.ErrorPrefix,
		Terminator:     cfg.Pipe.Terminator,
		RequestTimeout: cfg.Pipe.RequestTimeout.Duration,
	}
}

// Bridge owns the pipe servers and clients of one interpreter. Both are
// kept in name-keyed tables.
type Bridge struct {
	interp    *interpreter.Interpreter
	transport Transport
	opts      Options
	logger    *logging.Logger

	mu      sync.Mutex
	servers map[string]*Server
	clients map[string]*Client
}

// NewBridge creates a bridge for interp
func NewBridge(interp *interpreter.Interpreter, opts Options) (*Bridge, error) {
	if opts.SocketDir == "" {
		opts.SocketDir = config.Default().Pipe.SocketDir
	}
	if opts.ErrorPrefix == "" {
		opts.ErrorPrefix = DefaultErrorPrefix
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = DefaultStopTimeout
	}
	if opts.Logger == nil {
		opts.Logger = interp.Logger()
	}
	logger := opts.Logger.With("component", "pipe")

	transport, err := NewTransport(opts.Transport, TransportOptions{
		Terminator: opts.Terminator,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	return &Bridge{
		interp:    interp,
		transport: transport,
		opts:      opts,
		logger:    logger,
		servers:   make(map[string]*Server),
		clients:   make(map[string]*Client),
	}, nil
}

// Transport returns the name of the transport in use
func (b *Bridge) Transport() string { return b.transport.Name() }

// ErrorPrefix returns the prefix marking error responses
func (b *Bridge) ErrorPrefix() string { return b.opts.ErrorPrefix }

// SocketPath returns the socket path of a pipe name
func (b *Bridge) SocketPath(pipe string) string {
	return filepath.Join(b.opts.SocketDir, "zuse-"+pipe+".sock")
}

func validName(kind, name string) error {
	if name == "" || filepath.Base(name) != name {
		return zerror.Newf("invalid %s name %q", kind, name).
			WithCode(zerror.CodeInvalidInput)
	}
	return nil
}

// CreatePipeServer starts serving pipe. The server is registered as
// serverName, or as pipe when serverName is empty.
func (b *Bridge) CreatePipeServer(pipe, serverName string) (*Server, error) {
	serverName = stringx.FirstNonBlank(serverName, pipe)
	if err := validName("pipe", pipe); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.servers[serverName]; exists {
		return nil, zerror.Newf("pipe server %s already exists", serverName).
			WithCode(zerror.CodePipeExists).
			WithDetail("server", serverName)
	}

	s := newServer(b, serverName, pipe)
	ln, err := b.transport.Listen(b.SocketPath(pipe), s.handle)
	if err != nil {
		return nil, err
	}
	s.listener = ln
	b.servers[serverName] = s
	b.logger.Info("Pipe server started", "server", serverName, "pipe", pipe,
		"socket", ln.Addr(), "transport", b.transport.Name())
	return s, nil
}

// CreatePipeClient connects to pipe. The client is registered as
// clientName, or as pipe when clientName is empty.
func (b *Bridge) CreatePipeClient(pipe, clientName string) (*Client, error) {
	clientName = stringx.FirstNonBlank(clientName, pipe)
	if err := validName("pipe", pipe); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.clients[clientName]; exists {
		return nil, zerror.Newf("pipe client %s already exists", clientName).
			WithCode(zerror.CodePipeExists).
			WithDetail("client", clientName)
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.opts.RequestTimeout)
	defer cancel()
	conn, err := b.transport.Dial(ctx, b.SocketPath(pipe))
	if err != nil {
		return nil, zerror.Wrap(err, "failed to create pipe client").
			WithCode(zerror.CodePipeUnavailable).
			WithDetail("pipe", pipe)
	}

	c := &Client{
		name:        clientName,
		pipe:        pipe,
		conn:        conn,
		timeout:     b.opts.RequestTimeout,
		errorPrefix: b.opts.ErrorPrefix,
		logger:      b.logger.With("client", clientName),
	}
	b.clients[clientName] = c
	b.logger.Info("Pipe client connected", "client", clientName, "pipe", pipe)
	return c, nil
}

// Server returns the server registered as name
func (b *Bridge) Server(name string) (*Server, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.servers[name]
	return s, ok
}

// Client returns the client registered as name
func (b *Bridge) Client(name string) (*Client, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.clients[name]
	return c, ok
}

// ServerNames returns the registered server names, sorted
func (b *Bridge) ServerNames() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return sortedKeys(b.servers)
}

// ClientNames returns the registered client names, sorted
func (b *Bridge) ClientNames() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return sortedKeys(b.clients)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RemoveServer stops and unregisters the named servers. Unknown names are
// reported after the known ones have been stopped.
func (b *Bridge) RemoveServer(names ...string) error {
	b.mu.Lock()
	var stop []*Server
	var errs []error
	for _, name := range names {
		s, ok := b.servers[name]
		if !ok {
			errs = append(errs, zerror.Newf("no pipe server named %s", name).
				WithCode(zerror.CodeNotFound).
				WithDetail("server", name))
			continue
		}
		delete(b.servers, name)
		stop = append(stop, s)
	}
	b.mu.Unlock()

	if err := b.stopServers(stop); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// RemoveAllServers stops and unregisters every server
func (b *Bridge) RemoveAllServers() error {
	b.mu.Lock()
	stop := make([]*Server, 0, len(b.servers))
	for name, s := range b.servers {
		stop = append(stop, s)
		delete(b.servers, name)
	}
	b.mu.Unlock()
	return b.stopServers(stop)
}

func (b *Bridge) stopServers(servers []*Server) error {
	var g errgroup.Group
	for _, s := range servers {
		s := s
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), b.opts.StopTimeout)
			defer cancel()
			err := s.listener.Stop(ctx)
			b.logger.Info("Pipe server stopped", "server", s.name, "pipe", s.pipe, "requests", s.Requests())
			if err != nil {
				return zerror.Wrap(err, "pipe server "+s.name+" did not stop gracefully").
					WithCode(zerror.CodeTimeout).
					WithDetail("server", s.name)
			}
			return nil
		})
	}
	return g.Wait()
}

// RemoveClient closes and unregisters the named clients
func (b *Bridge) RemoveClient(names ...string) error {
	b.mu.Lock()
	var closing []*Client
	var errs []error
	for _, name := range names {
		c, ok := b.clients[name]
		if !ok {
			errs = append(errs, zerror.Newf("no pipe client named %s", name).
				WithCode(zerror.CodeNotFound).
				WithDetail("client", name))
			continue
		}
		delete(b.clients, name)
		closing = append(closing, c)
	}
	b.mu.Unlock()

	if err := closeClients(closing); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// RemoveAllClients closes and unregisters every client
func (b *Bridge) RemoveAllClients() error {
	b.mu.Lock()
	closing := make([]*Client, 0, len(b.clients))
	for name, c := range b.clients {
		closing = append(closing, c)
		delete(b.clients, name)
	}
	b.mu.Unlock()
	return closeClients(closing)
}

func closeClients(clients []*Client) error {
	var g errgroup.Group
	for _, c := range clients {
		g.Go(c.close)
	}
	return g.Wait()
}

// Close removes every client and then every server
func (b *Bridge) Close() error {
	return errors.Join(b.RemoveAllClients(), b.RemoveAllServers())
}

// Health checks that every server socket accepts connections and every
// client still answers
func (b *Bridge) Health(ctx context.Context) *health.Report {
	reg := health.NewRegistry("pipe", version.PipeProtocol)

	b.mu.Lock()
	for name, s := range b.servers {
		reg.Register(health.SocketCheck("server:"+name, b.SocketPath(s.pipe), time.Second))
	}
	for name, c := range b.clients {
		reg.Register(health.ProbeCheck("client:"+name, c.ping))
	}
	b.mu.Unlock()

	return reg.Check(ctx)
}
