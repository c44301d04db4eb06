package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julien6387/supvisors/internal/cli"
	"github.com/julien6387/supvisors/internal/transport"
)

func newTestShell(t *testing.T, handler transport.RPCHandler) (*Shell, *bytes.Buffer) {
	t.Helper()
	bus := transport.NewMemoryTransport()
	require.NoError(t, bus.Serve(context.Background(), "a", handler))
	client := cli.NewClient(bus, "a")

	var buf bytes.Buffer
	sh := &Shell{client: client, out: &buf}
	return sh, &buf
}

func TestDispatchHelp(t *testing.T) {
	sh, buf := newTestShell(t, nil)
	require.NoError(t, sh.dispatch(context.Background(), "help"))
	assert.Contains(t, buf.String(), "commands:")
}

func TestDispatchStatus(t *testing.T) {
	snapshot := transport.StatusSnapshot{
		FleetState: "OPERATION",
		Master:     "a",
		Addresses:  []transport.AddressSnapshot{{Name: "a", State: "RUNNING", Loading: 10}},
	}
	raw, err := json.Marshal(snapshot)
	require.NoError(t, err)

	sh, buf := newTestShell(t, func(_ context.Context, req transport.RPCRequest) (transport.RPCResponse, error) {
		return transport.RPCResponse{ID: req.ID, OK: true, Message: string(raw)}, nil
	})

	require.NoError(t, sh.dispatch(context.Background(), "status"))
	assert.Contains(t, buf.String(), "fleet state: OPERATION")
	assert.Contains(t, buf.String(), "a")
}

func TestDispatchStartRequiresArgument(t *testing.T) {
	sh, _ := newTestShell(t, nil)
	err := sh.dispatch(context.Background(), "start")
	assert.Error(t, err)
}

func TestDispatchStartCallsClient(t *testing.T) {
	var sawVerb transport.RPCVerb
	sh, _ := newTestShell(t, func(_ context.Context, req transport.RPCRequest) (transport.RPCResponse, error) {
		sawVerb = req.Verb
		return transport.RPCResponse{ID: req.ID, OK: true}, nil
	})

	require.NoError(t, sh.dispatch(context.Background(), "start web"))
	assert.Equal(t, transport.VerbStartApplication, sawVerb)
}

func TestDispatchConciliateRequiresTwoArgs(t *testing.T) {
	sh, _ := newTestShell(t, nil)
	err := sh.dispatch(context.Background(), "conciliate web:api")
	assert.Error(t, err)
}

func TestDispatchUnknownCommand(t *testing.T) {
	sh, _ := newTestShell(t, nil)
	err := sh.dispatch(context.Background(), "bogus")
	assert.Error(t, err)
}
