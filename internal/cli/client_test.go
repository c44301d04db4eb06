package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julien6387/supvisors/internal/transport"
)

func newTestClient(t *testing.T, handler transport.RPCHandler) *Client {
	t.Helper()
	bus := transport.NewMemoryTransport()
	require.NoError(t, bus.Serve(context.Background(), "a", handler))
	return NewClient(bus, "a")
}

func TestClientStatusDecodesSnapshot(t *testing.T) {
	snapshot := transport.StatusSnapshot{FleetState: "OPERATION", Master: "a"}
	raw, err := json.Marshal(snapshot)
	require.NoError(t, err)

	client := newTestClient(t, func(_ context.Context, req transport.RPCRequest) (transport.RPCResponse, error) {
		return transport.RPCResponse{ID: req.ID, OK: true, Message: string(raw)}, nil
	})

	got, err := client.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "OPERATION", got.FleetState)
	assert.Equal(t, "a", got.Master)
}

func TestClientStartApplicationRejected(t *testing.T) {
	client := newTestClient(t, func(_ context.Context, req transport.RPCRequest) (transport.RPCResponse, error) {
		return transport.RPCResponse{ID: req.ID, OK: false, Fault: "BAD_ADDRESS", Message: "unknown application"}, nil
	})

	err := client.StartApplication(context.Background(), "missing")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown application")
}

func TestClientStopApplicationSuccess(t *testing.T) {
	var sawName string
	client := newTestClient(t, func(_ context.Context, req transport.RPCRequest) (transport.RPCResponse, error) {
		sawName = req.Payload["application"]
		return transport.RPCResponse{ID: req.ID, OK: true}, nil
	})

	require.NoError(t, client.StopApplication(context.Background(), "web"))
	assert.Equal(t, "web", sawName)
}

func TestClientConciliateSendsBothFields(t *testing.T) {
	var payload map[string]string
	client := newTestClient(t, func(_ context.Context, req transport.RPCRequest) (transport.RPCResponse, error) {
		payload = req.Payload
		return transport.RPCResponse{ID: req.ID, OK: true}, nil
	})

	require.NoError(t, client.Conciliate(context.Background(), "web:api", "node-1"))
	assert.Equal(t, "web:api", payload["namespec"])
	assert.Equal(t, "node-1", payload["keep_address"])
}
