package pipe

import (
	"context"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/foundation/utils/filex"
	coreGrpc "github.com/msto63/zuse/pkg/core/grpc"
	"github.com/msto63/zuse/pkg/core/logging"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	pipeServiceName = "zuse.pipe.Pipe"
	sendMethod      = "/zuse.pipe.Pipe/Send"
)

// pipeService is the server side of the Pipe service. Requests and
// responses are single protobuf string values.
type pipeService interface {
	Send(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
}

var pipeServiceDesc = grpc.ServiceDesc{
	ServiceName: pipeServiceName,
	HandlerType: (*pipeService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Send", Handler: sendHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "zuse/pipe.proto",
}

func sendHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(pipeService).Send(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: sendMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(pipeService).Send(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

type grpcHandler struct {
	handler Handler
}

func (h *grpcHandler) Send(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	return wrapperspb.String(h.handler(ctx, req.GetValue())), nil
}

type grpcTransport struct {
	logger *logging.Logger
}

func (t *grpcTransport) Name() string { return TransportGRPC }

func (t *grpcTransport) Listen(path string, handler Handler) (Listener, error) {
	if err := prepareSocket(path); err != nil {
		return nil, err
	}
	cfg := coreGrpc.DefaultServerConfig(path)
	cfg.Logger = t.logger
	srv := coreGrpc.NewServer(cfg)
	srv.GRPCServer().RegisterService(&pipeServiceDesc, &grpcHandler{handler: handler})
	if err := srv.StartAsync(); err != nil {
		return nil, zerror.Wrap(err, "failed to start pipe server").
			WithCode(zerror.CodePipeUnavailable).
			WithDetail("socket", path)
	}
	return &grpcListener{srv: srv}, nil
}

func (t *grpcTransport) Dial(ctx context.Context, path string) (Conn, error) {
	if !filex.Exists(path) {
		return nil, zerror.New("no pipe server listening").
			WithCode(zerror.CodePipeUnavailable).
			WithDetail("socket", path)
	}
	cfg := coreGrpc.DefaultClientConfig(coreGrpc.UnixTarget(path))
	cfg.Logger = t.logger
	conn, err := coreGrpc.Dial(ctx, cfg)
	if err != nil {
		return nil, zerror.Wrap(err, "failed to connect to pipe").
			WithCode(zerror.CodePipeUnavailable).
			WithDetail("socket", path)
	}
	return &grpcConn{conn: conn}, nil
}

type grpcListener struct {
	srv *coreGrpc.Server
}

func (l *grpcListener) Addr() string { return l.srv.Address() }

func (l *grpcListener) Stop(ctx context.Context) error {
	l.srv.StopWithTimeout(ctx)
	return ctx.Err()
}

type grpcConn struct {
	conn *grpc.ClientConn
}

func (c *grpcConn) Send(ctx context.Context, request string) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.conn.Invoke(ctx, sendMethod, wrapperspb.String(request), out); err != nil {
		return "", coreGrpc.ErrorFromStatus(err)
	}
	return out.GetValue(), nil
}

func (c *grpcConn) Close() error { return c.conn.Close() }
