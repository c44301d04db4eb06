package listener

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julien6387/supvisors/internal/api"
	"github.com/julien6387/supvisors/internal/config"
	"github.com/julien6387/supvisors/internal/fleet"
	"github.com/julien6387/supvisors/internal/transport"
)

func newTestListener(t *testing.T) (*Listener, *transport.MemoryTransport) {
	t.Helper()
	mem := transport.NewMemoryTransport()
	opts := config.GetDefaultOptions()
	opts.AddressList = []string{"a", "b"}
	opts.TickPeriod = 1
	opts.SynchroTimeout = 1

	l := New(mem, "a", opts)
	return l, mem
}

func TestListenerAppliesIncomingTick(t *testing.T) {
	l, mem := newTestListener(t)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = l.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	l.Context().OnAuthorization("b", true)
	require.NoError(t, mem.Publish(ctx, transport.FleetEvent{
		Kind:      transport.KindTick,
		Address:   "b",
		Timestamp: time.Now(),
		Payload:   transport.TickPayload{SenderAddress: "b", RemoteTime: time.Now()},
	}))

	<-done

	addr, ok := l.Context().Address("b")
	require.True(t, ok)
	assert.Equal(t, api.AddressRunning, addr.State)
}

func TestListenerApplyRuleSetSeedsProcess(t *testing.T) {
	l, _ := newTestListener(t)

	l.ApplyRuleSet(
		map[string]fleet.ApplicationRules{"web": {StartSequence: 1}},
		map[string]fleet.ProcessRules{"web:api": {Addresses: []string{"*"}, Required: true}},
	)

	p, ok := l.Context().ProcessByNamespec("web:api")
	require.True(t, ok)
	assert.True(t, p.Rules.Required)

	app := l.Context().Application("web")
	assert.Equal(t, 1, app.Rules.StartSequence)
}
