package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezpool/ezpool/internal/rpc"
)

func TestRegister_RejectsBadInput(t *testing.T) {
	reg := NewRegistry()

	err := Register(reg, "", func(ctx context.Context, n int) (int, error) { return n, nil })
	assert.Error(t, err, "empty name must be rejected")

	err = Register[int, int](reg, "noop", nil)
	assert.Error(t, err, "nil function must be rejected")
}

func TestRegister_RejectsDuplicateName(t *testing.T) {
	reg := NewRegistry()
	identity := func(ctx context.Context, n int) (int, error) { return n, nil }

	require.NoError(t, Register(reg, "identity", identity))
	assert.Error(t, Register(reg, "identity", identity))
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, RegisterBuiltins(reg))

	assert.Equal(t, []string{"echo", "fib"}, reg.Names())
}

func TestRegistry_Lookup(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, RegisterBuiltins(reg))

	_, ok := reg.Lookup("fib")
	assert.True(t, ok)
	_, ok = reg.Lookup("no-such-worker")
	assert.False(t, ok)
}

func TestHandler_RoundTrip(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, Register(reg, "double", func(ctx context.Context, n int) (int, error) {
		return n * 2, nil
	}))

	handler, ok := reg.Lookup("double")
	require.True(t, ok)

	payload, err := rpc.Marshal(21)
	require.NoError(t, err)

	out, err := handler(context.Background(), payload)
	require.NoError(t, err)

	var result int
	require.NoError(t, rpc.Unmarshal(out, &result))
	assert.Equal(t, 42, result)
}

func TestHandler_DecodeFailure(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, Register(reg, "strict", func(ctx context.Context, n int) (int, error) {
		return n, nil
	}))

	handler, _ := reg.Lookup("strict")
	_, err := handler(context.Background(), []byte{0xff, 0x00})
	assert.Error(t, err, "undecodable payload must fail, not panic")
}

func TestHandler_TaskErrorPropagated(t *testing.T) {
	wantErr := errors.New("saturated")
	reg := NewRegistry()
	require.NoError(t, Register(reg, "failing", func(ctx context.Context, n int) (int, error) {
		return 0, wantErr
	}))

	handler, _ := reg.Lookup("failing")
	payload, err := rpc.Marshal(1)
	require.NoError(t, err)

	_, err = handler(context.Background(), payload)
	assert.ErrorIs(t, err, wantErr)
}

func TestHandler_PanicRecovered(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, Register(reg, "panicky", func(ctx context.Context, n int) (int, error) {
		panic("worker bug")
	}))

	handler, _ := reg.Lookup("panicky")
	payload, err := rpc.Marshal(1)
	require.NoError(t, err)

	_, err = handler(context.Background(), payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker panic")
}

func TestBuiltins(t *testing.T) {
	got, err := Fib(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 55, got)

	_, err = Fib(context.Background(), -1)
	assert.Error(t, err)

	echoed, err := Echo(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", echoed)
}
