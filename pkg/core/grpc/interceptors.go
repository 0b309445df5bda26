// ============================================================================
// zuse - Embeddable Command Interpreter
// ============================================================================
//
// Package:     grpc
// Description: Pipe call interceptors: panic recovery, request ids, call
//              logging and the mapping between error codes and gRPC status
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package grpc

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/foundation/utils/stringx"
	"github.com/msto63/zuse/pkg/core/logging"
)

// Context keys for request metadata
type contextKey string

const (
	RequestIDKey    contextKey = "request_id"
	RequestIDHeader string     = "x-request-id"
)

// maxLoggedRequest bounds the request text written to the log
const maxLoggedRequest = 80

// statusCodes maps error codes to the gRPC status sent to pipe clients
var statusCodes = map[zerror.Code]codes.Code{
	zerror.CodeNotFound:             codes.NotFound,
	zerror.CodeCommandNotFound:      codes.NotFound,
	zerror.CodeInvalidInput:         codes.InvalidArgument,
	zerror.CodeSyntax:               codes.InvalidArgument,
	zerror.CodeTimeout:              codes.DeadlineExceeded,
	zerror.CodePipeUnavailable:      codes.Unavailable,
	zerror.CodePipeExists:           codes.AlreadyExists,
	zerror.CodeParameterImbalance:   codes.FailedPrecondition,
	zerror.CodeBaseFrameRemoval:     codes.FailedPrecondition,
	zerror.CodeInternal:             codes.Internal,
	zerror.CodeInvalidArgumentCount: codes.InvalidArgument,
}

// StatusFromError converts err into a gRPC status error. Status errors
// pass through; coded errors keep their code as the status message prefix.
func StatusFromError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	code := zerror.GetCode(err)
	grpcCode, ok := statusCodes[code]
	if !ok {
		grpcCode = codes.Unknown
	}
	return status.Errorf(grpcCode, "[%s] %s", code, err.Error())
}

// ErrorFromStatus converts a gRPC status error received by a client into a
// coded error. Unreachable or timed out servers become CodePipeUnavailable.
func ErrorFromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	code := zerror.CodeRemoteError
	switch st.Code() {
	case codes.Unavailable, codes.Canceled:
		code = zerror.CodePipeUnavailable
	case codes.DeadlineExceeded:
		code = zerror.CodeTimeout
	}
	return zerror.Wrap(err, st.Message()).
		WithCode(code).
		WithDetail("grpc_code", st.Code().String())
}

// requestText returns the loggable form of a pipe request
func requestText(req interface{}) string {
	if v, ok := req.(interface{ GetValue() string }); ok {
		return stringx.Truncate(v.GetValue(), maxLoggedRequest, "...")
	}
	return ""
}

func orDefault(logger *logging.Logger) *logging.Logger {
	if logger == nil {
		return logging.New("grpc")
	}
	return logger
}

// RecoveryInterceptor turns a panicking pipe handler into an Internal
// status. The server keeps serving.
func RecoveryInterceptor(logger *logging.Logger) grpc.UnaryServerInterceptor {
	logger = orDefault(logger)
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Pipe handler panicked",
					"request_id", GetRequestID(ctx),
					"method", info.FullMethod,
					"request", requestText(req),
					"panic", r,
					"stack", string(debug.Stack()))
				err = StatusFromError(zerror.Newf("pipe handler panicked: %v", r).
					WithCode(zerror.CodeInternal))
			}
		}()
		return handler(ctx, req)
	}
}

// RequestIDInterceptor makes the caller's request id available through
// GetRequestID and echoes it in the response header. Calls without one
// get a fresh uuid.
func RequestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		requestID := extractRequestID(ctx)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx = WithRequestID(ctx, requestID)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, requestID))
		return handler(ctx, req)
	}
}

// LoggingInterceptor logs every pipe call with its request text. Handler
// errors are converted with StatusFromError.
func LoggingInterceptor(logger *logging.Logger) grpc.UnaryServerInterceptor {
	logger = orDefault(logger)
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		err = StatusFromError(err)

		fields := []interface{}{
			"request_id", GetRequestID(ctx),
			"method", info.FullMethod,
			"request", requestText(req),
			"status", status.Code(err).String(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if err != nil {
			logger.Warn("Pipe call failed", append(fields, "error", err.Error())...)
		} else {
			logger.Debug("Pipe call served", fields...)
		}
		return resp, err
	}
}

// ClientRequestIDInterceptor sends the request id of ctx, or a new one,
// with every outgoing pipe call
func ClientRequestIDInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		requestID := GetRequestID(ctx)
		if requestID == "" {
			requestID = uuid.NewString()
			ctx = WithRequestID(ctx, requestID)
		}
		ctx = metadata.AppendToOutgoingContext(ctx, RequestIDHeader, requestID)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// ClientLoggingInterceptor logs outgoing pipe calls with their target
func ClientLoggingInterceptor(logger *logging.Logger) grpc.UnaryClientInterceptor {
	logger = orDefault(logger)
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)

		fields := []interface{}{
			"target", cc.Target(),
			"method", method,
			"request", requestText(req),
			"status", status.Code(err).String(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if err != nil {
			fields = append(fields, "error", err.Error())
		}
		logger.Debug("Pipe call", fields...)
		return err
	}
}

// GetRequestID returns the request id stored in ctx or received in the
// incoming metadata
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return extractRequestID(ctx)
}

func extractRequestID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(RequestIDHeader); len(values) > 0 {
		return values[0]
	}
	return ""
}

// WithRequestID stores a request id in ctx
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}
