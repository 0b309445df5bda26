// ============================================================================
// zuse - Embeddable Command Interpreter
// ============================================================================
//
// Package:     grpc
// Description: gRPC server helpers for unix socket and TCP listeners
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package grpc

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"github.com/msto63/zuse/pkg/core/logging"
)

// ServerConfig holds gRPC server configuration
type ServerConfig struct {
	// Network is "unix" or "tcp"
	Network           string
	Address           string
	MaxRecvMsgSize    int
	MaxSendMsgSize    int
	EnableReflection  bool
	KeepaliveInterval time.Duration
	KeepaliveTimeout  time.Duration

	// Logger receives call and server logs; nil uses the default logger
	Logger *logging.Logger
}

// DefaultServerConfig returns a default configuration for a unix socket path
func DefaultServerConfig(socketPath string) ServerConfig {
	return ServerConfig{
		Network:           "unix",
		Address:           socketPath,
		MaxRecvMsgSize:    4 * 1024 * 1024, // 4MB
		MaxSendMsgSize:    4 * 1024 * 1024, // 4MB
		KeepaliveInterval: 30 * time.Second,
		KeepaliveTimeout:  10 * time.Second,
	}
}

// Server wraps a gRPC server with additional functionality
type Server struct {
	server   *grpc.Server
	config   ServerConfig
	logger   *logging.Logger
	listener net.Listener
	done     chan struct{}
	stopOnce sync.Once
}

// NewServer creates a new gRPC server
func NewServer(cfg ServerConfig, opts ...grpc.ServerOption) *Server {
	logger := orDefault(cfg.Logger)
	serverOpts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(cfg.MaxRecvMsgSize),
		grpc.MaxSendMsgSize(cfg.MaxSendMsgSize),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    cfg.KeepaliveInterval,
			Timeout: cfg.KeepaliveTimeout,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.ChainUnaryInterceptor(
			RequestIDInterceptor(),
			RecoveryInterceptor(logger),
			LoggingInterceptor(logger),
		),
	}

	// Append custom options
	serverOpts = append(serverOpts, opts...)

	server := grpc.NewServer(serverOpts...)
	if cfg.EnableReflection {
		reflection.Register(server)
	}

	return &Server{
		server: server,
		config: cfg,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// GRPCServer returns the underlying gRPC server for service registration
func (s *Server) GRPCServer() *grpc.Server {
	return s.server
}

// Listen binds the configured address. A stale unix socket file is removed first.
func (s *Server) Listen() error {
	if s.config.Network == "unix" {
		if err := os.MkdirAll(filepath.Dir(s.config.Address), 0755); err != nil {
			return fmt.Errorf("failed to create socket directory: %w", err)
		}
		if err := removeStaleSocket(s.config.Address); err != nil {
			return err
		}
	}

	listener, err := net.Listen(s.config.Network, s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address, err)
	}
	s.listener = listener
	return nil
}

// StartAsync binds the listener and serves in a goroutine
func (s *Server) StartAsync() error {
	if err := s.Listen(); err != nil {
		return err
	}

	go func() {
		defer close(s.done)
		if err := s.server.Serve(s.listener); err != nil {
			// Log error but don't panic - server might be shutting down
			s.logger.Error("gRPC server error", "error", err, "address", s.config.Address)
		}
	}()

	return nil
}

// Stop gracefully stops the gRPC server; in-flight calls finish first
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.server.GracefulStop()
		s.cleanup()
	})
}

// StopWithTimeout stops the server, forcing it down when ctx expires
func (s *Server) StopWithTimeout(ctx context.Context) {
	s.stopOnce.Do(func() {
		done := make(chan struct{})
		go func() {
			s.server.GracefulStop()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			s.server.Stop()
		}
		s.cleanup()
	})
}

// Done is closed once Serve has returned
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Address returns the server address
func (s *Server) Address() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Address
}

func (s *Server) cleanup() {
	if s.config.Network == "unix" {
		_ = os.Remove(s.config.Address)
	}
}

// removeStaleSocket deletes a socket file nobody is listening on
func removeStaleSocket(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	conn, err := net.DialTimeout("unix", path, 200*time.Millisecond)
	if err == nil {
		conn.Close()
		return fmt.Errorf("socket %s is already in use", path)
	}
	return os.Remove(path)
}
