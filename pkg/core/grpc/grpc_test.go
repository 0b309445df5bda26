package grpc

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/pkg/core/logging"
)

func TestRecoveryInterceptor(t *testing.T) {
	interceptor := RecoveryInterceptor(logging.Discard("grpc"))
	info := &grpc.UnaryServerInfo{FullMethod: "/zuse.pipe.Pipe/Send"}

	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		panic("handler exploded")
	})
	if status.Code(err) != codes.Internal {
		t.Errorf("code = %v, want Internal", status.Code(err))
	}

	resp, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	})
	if err != nil || resp != "ok" {
		t.Errorf("resp = %v, err = %v", resp, err)
	}
}

func TestRequestIDInterceptor(t *testing.T) {
	interceptor := RequestIDInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/zuse.pipe.Pipe/Send"}

	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{"generated", context.Background(), ""},
		{"from metadata", metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDHeader, "req-42")), "req-42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			_, err := interceptor(tt.ctx, nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				seen = GetRequestID(ctx)
				return nil, nil
			})
			if err != nil {
				t.Fatalf("interceptor error = %v", err)
			}
			if seen == "" {
				t.Fatal("request id missing in handler context")
			}
			if tt.want != "" && seen != tt.want {
				t.Errorf("request id = %q, want %q", seen, tt.want)
			}
		})
	}
}

func TestLoggingInterceptorPassesError(t *testing.T) {
	interceptor := LoggingInterceptor(logging.Discard("grpc"))
	info := &grpc.UnaryServerInfo{FullMethod: "/zuse.pipe.Pipe/Send"}
	want := status.Error(codes.NotFound, "missing")

	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, want
	})
	if !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
}

func TestLoggingInterceptorConvertsCodedErrors(t *testing.T) {
	interceptor := LoggingInterceptor(logging.Discard("grpc"))
	info := &grpc.UnaryServerInfo{FullMethod: "/zuse.pipe.Pipe/Send"}

	_, err := interceptor(context.Background(), wrapperspb.String("Nope x"), info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, zerror.New("command not found: Nope").WithCode(zerror.CodeCommandNotFound)
	})
	if status.Code(err) != codes.NotFound {
		t.Errorf("code = %v, want NotFound", status.Code(err))
	}
}

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"nil", nil, codes.OK},
		{"command not found", zerror.New("x").WithCode(zerror.CodeCommandNotFound), codes.NotFound},
		{"syntax", zerror.New("x").WithCode(zerror.CodeSyntax), codes.InvalidArgument},
		{"pipe unavailable", zerror.New("x").WithCode(zerror.CodePipeUnavailable), codes.Unavailable},
		{"critical", zerror.New("x").WithCode(zerror.CodeParameterImbalance), codes.FailedPrecondition},
		{"plain error", errors.New("x"), codes.Unknown},
		{"status passes through", status.Error(codes.Aborted, "x"), codes.Aborted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := status.Code(StatusFromError(tt.err)); got != tt.want {
				t.Errorf("StatusFromError() code = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorFromStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want zerror.Code
	}{
		{"unavailable", status.Error(codes.Unavailable, "connection refused"), zerror.CodePipeUnavailable},
		{"deadline", status.Error(codes.DeadlineExceeded, "slow"), zerror.CodeTimeout},
		{"remote failure", status.Error(codes.NotFound, "[COMMAND_NOT_FOUND] x"), zerror.CodeRemoteError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := zerror.GetCode(ErrorFromStatus(tt.err)); got != tt.want {
				t.Errorf("ErrorFromStatus() code = %v, want %v", got, tt.want)
			}
		})
	}

	plain := errors.New("plain")
	if ErrorFromStatus(plain) != plain {
		t.Error("non-status errors should be returned unchanged")
	}
	if ErrorFromStatus(nil) != nil {
		t.Error("ErrorFromStatus(nil) should be nil")
	}
}

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc")
	if got := GetRequestID(ctx); got != "abc" {
		t.Errorf("GetRequestID() = %q", got)
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID() = %q, want empty", got)
	}
}

func TestServerUnixSocketLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sock", "zuse-test.sock")

	srv := NewServer(DefaultServerConfig(path))
	if err := srv.StartAsync(); err != nil {
		t.Fatalf("StartAsync() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("socket not created: %v", err)
	}

	second := NewServer(DefaultServerConfig(path))
	if err := second.Listen(); err == nil {
		t.Error("second Listen() on a live socket should fail")
	}

	srv.Stop()
	<-srv.Done()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("socket file should be removed after Stop, stat err = %v", err)
	}
	srv.Stop()
}

func TestRemoveStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stale.sock")
	l, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	// Keep the file but stop accepting.
	l.(*net.UnixListener).SetUnlinkOnClose(false)
	l.Close()

	if err := removeStaleSocket(path); err != nil {
		t.Fatalf("removeStaleSocket() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("stale socket should be removed")
	}
}

func TestUnixTarget(t *testing.T) {
	if got := UnixTarget("/tmp/zuse-P.sock"); got != "unix:///tmp/zuse-P.sock" {
		t.Errorf("UnixTarget() = %q", got)
	}
}
