package listener

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julien6387/supvisors/internal/api"
	"github.com/julien6387/supvisors/internal/fleet"
	"github.com/julien6387/supvisors/internal/transport"
)

func TestHandleRPCStatusReportsFleetState(t *testing.T) {
	l, _ := newTestListener(t)

	resp, err := l.handleRPC(context.Background(), transport.RPCRequest{ID: uuid.New(), Verb: transport.VerbStatus})
	require.NoError(t, err)
	require.True(t, resp.OK)

	var snapshot transport.StatusSnapshot
	require.NoError(t, json.Unmarshal([]byte(resp.Message), &snapshot))
	assert.Equal(t, api.StateInitialization.String(), snapshot.FleetState)
}

func TestHandleRPCStartApplicationUnknownApplication(t *testing.T) {
	l, _ := newTestListener(t)

	resp, err := l.handleRPC(context.Background(), transport.RPCRequest{
		ID: uuid.New(), Verb: transport.VerbStartApplication, Payload: map[string]string{"application": "missing"},
	})
	require.NoError(t, err)
	assert.False(t, resp.OK)
	assert.Equal(t, api.FaultBadAddress.String(), resp.Fault)
}

func TestHandleRPCStartApplicationKnownApplication(t *testing.T) {
	l, _ := newTestListener(t)
	l.ApplyRuleSet(nil, map[string]fleet.ProcessRules{"web:api": {Addresses: []string{"*"}}})

	resp, err := l.handleRPC(context.Background(), transport.RPCRequest{
		ID: uuid.New(), Verb: transport.VerbStartApplication, Payload: map[string]string{"application": "web"},
	})
	require.NoError(t, err)
	assert.True(t, resp.OK)
}

func TestHandleRPCConciliateRejectsOutsideConciliationState(t *testing.T) {
	l, _ := newTestListener(t)

	resp, err := l.handleRPC(context.Background(), transport.RPCRequest{
		ID: uuid.New(), Verb: transport.VerbConciliate,
		Payload: map[string]string{"namespec": "web:api", "keep_address": "a"},
	})
	require.NoError(t, err)
	assert.False(t, resp.OK)
}

func TestHandleRPCUnknownVerb(t *testing.T) {
	l, _ := newTestListener(t)

	resp, err := l.handleRPC(context.Background(), transport.RPCRequest{ID: uuid.New(), Verb: "NOT_A_VERB"})
	require.NoError(t, err)
	assert.False(t, resp.OK)
	assert.Equal(t, api.FaultBadStrategy.String(), resp.Fault)
}

func TestHandleRPCStartStopProcessDelegatesToSupervisor(t *testing.T) {
	l, _ := newTestListener(t)

	resp, err := l.handleRPC(context.Background(), transport.RPCRequest{
		ID: uuid.New(), Verb: transport.VerbStartProcess,
		Payload: map[string]string{"namespec": "web:api", "extra_args": ""},
	})
	require.NoError(t, err)
	assert.True(t, resp.OK)

	resp, err = l.handleRPC(context.Background(), transport.RPCRequest{
		ID: uuid.New(), Verb: transport.VerbStopProcess, Payload: map[string]string{"namespec": "web:api"},
	})
	require.NoError(t, err)
	assert.True(t, resp.OK)
}
