package rpc

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// Handle is a resolved, callable reference to a worker daemon. It owns one
// client connection, created once and reused sequentially across every task
// routed to this endpoint. A Handle must not carry concurrent calls from
// multiple goroutines unless the caller serializes them.
type Handle struct {
	uri  URI
	conn *grpc.ClientConn
}

// Dial resolves an endpoint URI into a Handle. The underlying connection is
// established lazily on the first call, so Dial succeeding does not imply
// the daemon is reachable.
func Dial(uri string) (*Handle, error) {
	u, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	conn, err := grpc.NewClient(u.Target(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	)
	if err != nil {
		return nil, fmt.Errorf("rpc: cannot create client for %s: %w", uri, err)
	}

	return &Handle{uri: u, conn: conn}, nil
}

// URI returns the endpoint this handle was resolved from.
func (h *Handle) URI() URI { return h.uri }

// Endpoint returns the endpoint URI string.
func (h *Handle) Endpoint() string { return h.uri.String() }

// Run executes one task remotely and blocks until its reply or a transport
// failure. A task-logic failure arrives inside the reply, not as an error.
func (h *Handle) Run(ctx context.Context, worker string, index int64, payload []byte) (*RunReply, error) {
	out := new(RunReply)
	req := &RunRequest{Worker: worker, Index: index, Payload: payload}
	if err := h.conn.Invoke(ctx, methodRun, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Describe queries the daemon's hosted worker types.
func (h *Handle) Describe(ctx context.Context, worker string) (*DescribeReply, error) {
	out := new(DescribeReply)
	if err := h.conn.Invoke(ctx, methodDescribe, &DescribeRequest{Worker: worker}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Shutdown asks the daemon to stop serving after in-flight calls drain.
func (h *Handle) Shutdown(ctx context.Context) error {
	return h.conn.Invoke(ctx, methodShutdown, &ShutdownRequest{}, new(ShutdownReply))
}

// Close releases the handle's connection. Safe to call more than once.
func (h *Handle) Close() error {
	return h.conn.Close()
}

// IsTimeout reports whether a call error was caused by a deadline rather
// than by the endpoint or the network.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return status.Code(err) == codes.DeadlineExceeded
}
