package transport

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTransportCallWithoutHandlerReturnsOK(t *testing.T) {
	m := NewMemoryTransport()
	resp, err := m.Call(context.Background(), RPCRequest{ID: uuid.New(), Verb: VerbStatus})
	require.NoError(t, err)
	assert.True(t, resp.OK)
}

func TestMemoryTransportServeAnswersCall(t *testing.T) {
	m := NewMemoryTransport()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := m.Serve(ctx, "a", func(_ context.Context, req RPCRequest) (RPCResponse, error) {
		return RPCResponse{ID: req.ID, OK: true, Message: "served"}, nil
	})
	require.NoError(t, err)

	resp, err := m.Call(context.Background(), RPCRequest{ID: uuid.New(), Verb: VerbStatus})
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, "served", resp.Message)
}

func TestMemoryTransportServeHandlerClearedOnCancel(t *testing.T) {
	m := NewMemoryTransport()
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, m.Serve(ctx, "a", func(_ context.Context, req RPCRequest) (RPCResponse, error) {
		return RPCResponse{ID: req.ID, OK: true}, nil
	}))

	cancel()
	require.Eventually(t, func() bool {
		m.mu.RLock()
		defer m.mu.RUnlock()
		return m.handler == nil
	}, time.Second, 10*time.Millisecond)

	resp, err := m.Call(context.Background(), RPCRequest{ID: uuid.New(), Verb: VerbStatus})
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Empty(t, resp.Message)
}

func TestMemoryTransportPublishSubscribe(t *testing.T) {
	m := NewMemoryTransport()
	events, err := m.Subscribe(context.Background())
	require.NoError(t, err)

	require.NoError(t, m.Publish(context.Background(), FleetEvent{Kind: KindTick, Address: "a"}))

	select {
	case evt := <-events:
		assert.Equal(t, "a", evt.Address)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published event")
	}
}

func TestMemoryTransportCloseClosesSubscribers(t *testing.T) {
	m := NewMemoryTransport()
	events, err := m.Subscribe(context.Background())
	require.NoError(t, err)

	require.NoError(t, m.Close())

	_, ok := <-events
	assert.False(t, ok)
}
