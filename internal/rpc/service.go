package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully-qualified gRPC service worker daemons expose.
const ServiceName = "ezpool.Worker"

const (
	methodRun      = "/" + ServiceName + "/Run"
	methodDescribe = "/" + ServiceName + "/Describe"
	methodShutdown = "/" + ServiceName + "/Shutdown"
)

// RunRequest asks a daemon to execute one task with the named worker type.
// Payload carries the CBOR-encoded task value; Index is the task's position
// in the submitted batch, echoed for logging and diagnostics.
type RunRequest struct {
	Worker  string `cbor:"worker"`
	Index   int64  `cbor:"index"`
	Payload []byte `cbor:"payload"`
}

// RunReply carries the CBOR-encoded result value, or the textual task
// failure in Error. Task-logic failures travel here as values; a non-empty
// Error is never a transport error.
type RunReply struct {
	Payload []byte `cbor:"payload"`
	Error   string `cbor:"error,omitempty"`
}

// DescribeRequest queries a daemon's capabilities. When Worker is non-empty,
// Supported in the reply answers for that worker type specifically.
type DescribeRequest struct {
	Worker string `cbor:"worker,omitempty"`
}

// DescribeReply lists the worker types the daemon hosts.
type DescribeReply struct {
	Workers   []string `cbor:"workers"`
	Supported bool     `cbor:"supported"`
}

// ShutdownRequest asks the daemon to stop serving after in-flight calls
// drain.
type ShutdownRequest struct{}

// ShutdownReply acknowledges a shutdown request.
type ShutdownReply struct{}

// WorkerServiceServer is the server API for the ezpool.Worker service.
type WorkerServiceServer interface {
	Run(ctx context.Context, req *RunRequest) (*RunReply, error)
	Describe(ctx context.Context, req *DescribeRequest) (*DescribeReply, error)
	Shutdown(ctx context.Context, req *ShutdownRequest) (*ShutdownReply, error)
}

// RegisterWorkerService registers srv with a gRPC server.
func RegisterWorkerService(s grpc.ServiceRegistrar, srv WorkerServiceServer) {
	s.RegisterService(&workerServiceDesc, srv)
}

var workerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WorkerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Run", Handler: runHandler},
		{MethodName: "Describe", Handler: describeHandler},
		{MethodName: "Shutdown", Handler: shutdownHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func runHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RunRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WorkerServiceServer).Run(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodRun}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(WorkerServiceServer).Run(ctx, req.(*RunRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func describeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(DescribeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WorkerServiceServer).Describe(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodDescribe}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(WorkerServiceServer).Describe(ctx, req.(*DescribeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func shutdownHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ShutdownRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WorkerServiceServer).Shutdown(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodShutdown}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(WorkerServiceServer).Shutdown(ctx, req.(*ShutdownRequest))
	}
	return interceptor(ctx, in, info, handler)
}
