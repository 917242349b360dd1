package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ezpool/ezpool/internal/rpc"
)

func startTestServer(t *testing.T) (*Server, *rpc.Handle) {
	t.Helper()

	reg := NewRegistry()
	require.NoError(t, RegisterBuiltins(reg))

	srv := NewServer("127.0.0.1:0", reg)
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Stop)

	handle, err := rpc.Dial(fmt.Sprintf("grpc:worker@%s", srv.Addr()))
	require.NoError(t, err)
	t.Cleanup(func() { handle.Close() })

	return srv, handle
}

func TestServer_Describe(t *testing.T) {
	_, handle := startTestServer(t)

	reply, err := handle.Describe(context.Background(), "fib")
	require.NoError(t, err)
	assert.True(t, reply.Supported)
	assert.Equal(t, []string{"echo", "fib"}, reply.Workers)

	reply, err = handle.Describe(context.Background(), "no-such-worker")
	require.NoError(t, err)
	assert.False(t, reply.Supported)
}

func TestServer_Run(t *testing.T) {
	_, handle := startTestServer(t)

	payload, err := rpc.Marshal(12)
	require.NoError(t, err)

	reply, err := handle.Run(context.Background(), "fib", 0, payload)
	require.NoError(t, err)
	require.Empty(t, reply.Error)

	var result int
	require.NoError(t, rpc.Unmarshal(reply.Payload, &result))
	assert.Equal(t, 144, result)
}

func TestServer_RunTaskFailureInReply(t *testing.T) {
	_, handle := startTestServer(t)

	payload, err := rpc.Marshal(-3)
	require.NoError(t, err)

	// fib(-3) fails inside the worker: the call itself must succeed and
	// carry the failure in the reply.
	reply, err := handle.Run(context.Background(), "fib", 0, payload)
	require.NoError(t, err)
	assert.Contains(t, reply.Error, "fib undefined")
}

func TestServer_RunUnknownWorker(t *testing.T) {
	_, handle := startTestServer(t)

	payload, err := rpc.Marshal(1)
	require.NoError(t, err)

	_, err = handle.Run(context.Background(), "no-such-worker", 0, payload)
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestServer_RemoteShutdown(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, RegisterBuiltins(reg))

	srv := NewServer("127.0.0.1:0", reg)
	require.NoError(t, srv.Start())
	addr := srv.Addr().String()

	handle, err := rpc.Dial(fmt.Sprintf("grpc:worker@%s", addr))
	require.NoError(t, err)
	defer handle.Close()

	require.NoError(t, handle.Shutdown(context.Background()))

	// The daemon drains and stops; subsequent calls must fail.
	assert.Eventually(t, func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		_, err := handle.Describe(ctx, "fib")
		return err != nil
	}, 3*time.Second, 50*time.Millisecond)
}

func TestServe_ReturnsAfterRemoteShutdown(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, RegisterBuiltins(reg))

	srv := NewServer("127.0.0.1:0", reg)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background()) }()
	require.Eventually(t, func() bool { return srv.Addr() != nil }, 3*time.Second, 10*time.Millisecond)

	handle, err := rpc.Dial(fmt.Sprintf("grpc:worker@%s", srv.Addr()))
	require.NoError(t, err)
	defer handle.Close()

	require.NoError(t, handle.Shutdown(context.Background()))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after remote Shutdown")
	}
}

func TestServe_StopsOnContextCancel(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, RegisterBuiltins(reg))

	srv := NewServer("127.0.0.1:0", reg)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	// Give Start a moment, then cancel and expect Serve to return.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after context cancellation")
	}
}

func TestNewServer_BadAddress(t *testing.T) {
	reg := NewRegistry()
	srv := NewServer("256.0.0.1:-1", reg)
	assert.Error(t, srv.Start())
}
