package fsm

import (
	"context"
	"testing"
	"time"

	"github.com/julien6387/supvisors/internal/api"
	"github.com/julien6387/supvisors/internal/commander"
	"github.com/julien6387/supvisors/internal/config"
	"github.com/julien6387/supvisors/internal/fleet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDispatcher struct{}

func (fakeDispatcher) CheckAddress(context.Context, string) error         { return nil }
func (fakeDispatcher) IsolateAddresses(context.Context, []string) error  { return nil }
func (fakeDispatcher) Restart(context.Context, string) error             { return nil }
func (fakeDispatcher) Shutdown(context.Context, string) error            { return nil }

type fakeCommanderDispatcher struct{}

func (fakeCommanderDispatcher) StartProcess(context.Context, string, string, string) error { return nil }
func (fakeCommanderDispatcher) StopProcess(context.Context, string, string) error          { return nil }

func newTestFSM(t *testing.T, addressList []string) (*FSM, *fleet.Context) {
	t.Helper()
	ctx := fleet.NewContext(addressList)
	opts := config.GetDefaultOptions()
	opts.AddressList = addressList
	opts.SynchroTimeout = 1

	chooser := func(string, []string, int) (string, bool) { return addressList[0], true }
	starter := commander.NewStarter(fakeCommanderDispatcher{}, chooser, addressList, func(string, string, string) {})
	stopper := commander.NewStopper(fakeCommanderDispatcher{}, func(string, string, string) {})
	starter.SetStopper(stopper)

	f := New(ctx, addressList[0], addressList, opts, starter, stopper, fakeDispatcher{})
	f.Start(time.Now())
	return f, ctx
}

func TestMasterElectionPicksLowestRank(t *testing.T) {
	f, ctx := newTestFSM(t, []string{"a", "b", "c"})
	for _, name := range []string{"b", "c", "a"} {
		addr, _ := ctx.Address(name)
		addr.State = api.AddressRunning
	}

	f.Tick(context.Background(), time.Now(), func() []*fleet.ApplicationStatus { return nil })
	assert.Equal(t, "a", ctx.MasterAddress())
	assert.Equal(t, api.StateDeployment, f.State())
}

func TestSynchroTimeoutMarksRemainingSilent(t *testing.T) {
	f, ctx := newTestFSM(t, []string{"a", "b"})
	addrA, _ := ctx.Address("a")
	addrA.State = api.AddressRunning

	f.Tick(context.Background(), time.Now().Add(2*time.Second), func() []*fleet.ApplicationStatus { return nil })

	addrB, ok := ctx.Address("b")
	require.True(t, ok)
	assert.Equal(t, api.AddressSilent, addrB.State)
	assert.Equal(t, "a", ctx.MasterAddress())
}

func TestOperationTransitionsToConciliationOnConflict(t *testing.T) {
	f, ctx := newTestFSM(t, []string{"a", "b"})
	now := time.Now()
	for _, name := range []string{"a", "b"} {
		addr, _ := ctx.Address(name)
		addr.State = api.AddressRunning
		addr.LocalTime = now
	}
	ctx.SetMasterAddress("a")
	f.state = api.StateOperation

	ctx.OnProcessEvent("a", "web", "api", fleet.ProcessEvent{State: api.ProcessRunning, Now: now})
	ctx.OnProcessEvent("b", "web", "api", fleet.ProcessEvent{State: api.ProcessRunning, Now: now})

	f.Tick(context.Background(), now, func() []*fleet.ApplicationStatus { return nil })
	assert.Equal(t, api.StateConciliation, f.State())
}

func TestConciliateUserRejectsOutsideConciliationState(t *testing.T) {
	f, _ := newTestFSM(t, []string{"a", "b"})
	f.state = api.StateOperation

	err := f.ConciliateUser(context.Background(), "web:api", "a")
	assert.Error(t, err)
}

func TestConciliateUserStopsEveryOtherRunningAddress(t *testing.T) {
	f, ctx := newTestFSM(t, []string{"a", "b", "c"})
	now := time.Now()
	for _, name := range []string{"a", "b", "c"} {
		addr, _ := ctx.Address(name)
		addr.State = api.AddressRunning
		addr.LocalTime = now
	}
	ctx.SetMasterAddress("a")
	ctx.OnProcessEvent("a", "web", "api", fleet.ProcessEvent{State: api.ProcessRunning, Now: now})
	ctx.OnProcessEvent("b", "web", "api", fleet.ProcessEvent{State: api.ProcessRunning, Now: now})
	ctx.OnProcessEvent("c", "web", "api", fleet.ProcessEvent{State: api.ProcessRunning, Now: now})
	f.state = api.StateConciliation

	err := f.ConciliateUser(context.Background(), "web:api", "a")
	require.NoError(t, err)
	assert.True(t, f.stopper.InProgress())

	p, ok := ctx.ProcessByNamespec("web:api")
	require.True(t, ok)
	assert.Contains(t, p.RunningAddressesByStartTime(), "a")
}

func TestConciliateUserUnknownProcess(t *testing.T) {
	f, _ := newTestFSM(t, []string{"a", "b"})
	f.state = api.StateConciliation

	err := f.ConciliateUser(context.Background(), "web:missing", "a")
	assert.Error(t, err)
}

func TestConciliateUserNoOtherRunningAddress(t *testing.T) {
	f, ctx := newTestFSM(t, []string{"a", "b"})
	now := time.Now()
	addr, _ := ctx.Address("a")
	addr.State = api.AddressRunning
	addr.LocalTime = now
	ctx.OnProcessEvent("a", "web", "api", fleet.ProcessEvent{State: api.ProcessRunning, Now: now})
	f.state = api.StateConciliation

	err := f.ConciliateUser(context.Background(), "web:api", "a")
	assert.Error(t, err)
}

func TestAddAddressExtendsKnownSetAndElectionList(t *testing.T) {
	f, ctx := newTestFSM(t, []string{"a", "b"})

	f.AddAddress("c")
	_, ok := ctx.Address("c")
	assert.True(t, ok)
	assert.Contains(t, f.addressList, "c")

	f.AddAddress("c")
	count := 0
	for _, name := range f.addressList {
		if name == "c" {
			count++
		}
	}
	assert.Equal(t, 1, count, "AddAddress must be idempotent")
}

func TestTickConciliationRestartSchedulesFreshStart(t *testing.T) {
	f, ctx := newTestFSM(t, []string{"a", "b"})
	f.options.ConciliationStrategy = "RESTART"
	now := time.Now()
	for _, name := range []string{"a", "b"} {
		addr, _ := ctx.Address(name)
		addr.State = api.AddressRunning
		addr.LocalTime = now
	}
	ctx.SetMasterAddress("a")
	ctx.Process("web", "api", fleet.ProcessRules{})
	ctx.OnProcessEvent("a", "web", "api", fleet.ProcessEvent{State: api.ProcessRunning, Now: now})
	ctx.OnProcessEvent("b", "web", "api", fleet.ProcessEvent{State: api.ProcessRunning, Now: now})
	f.state = api.StateConciliation

	f.tickConciliation(context.Background())

	p, ok := ctx.ProcessByNamespec("web:api")
	require.True(t, ok)
	assert.Contains(t, f.pendingRestarts, p.Namespec())

	ctx.OnProcessEvent("a", "web", "api", fleet.ProcessEvent{State: api.ProcessStopped, Now: now})
	ctx.OnProcessEvent("b", "web", "api", fleet.ProcessEvent{State: api.ProcessStopped, Now: now})
	f.checkPendingRestarts(context.Background())

	assert.NotContains(t, f.pendingRestarts, p.Namespec())
}

func TestTickConciliationFailureRestartsApplication(t *testing.T) {
	f, ctx := newTestFSM(t, []string{"a", "b"})
	f.options.ConciliationStrategy = "FAILURE"
	now := time.Now()
	for _, name := range []string{"a", "b"} {
		addr, _ := ctx.Address(name)
		addr.State = api.AddressRunning
		addr.LocalTime = now
	}
	ctx.SetMasterAddress("a")
	ctx.Process("web", "api", fleet.ProcessRules{RunningFailureStrategy: api.RunningFailureRestartApplication})
	ctx.Process("web", "sidecar", fleet.ProcessRules{})
	ctx.OnProcessEvent("a", "web", "api", fleet.ProcessEvent{State: api.ProcessRunning, Now: now})
	ctx.OnProcessEvent("b", "web", "api", fleet.ProcessEvent{State: api.ProcessRunning, Now: now})
	ctx.OnProcessEvent("a", "web", "sidecar", fleet.ProcessEvent{State: api.ProcessRunning, Now: now})
	f.state = api.StateConciliation

	f.tickConciliation(context.Background())

	apiProc, ok := ctx.ProcessByNamespec("web:api")
	require.True(t, ok)
	sidecar, ok := ctx.ProcessByNamespec("web:sidecar")
	require.True(t, ok)
	assert.Contains(t, f.pendingRestarts, apiProc.Namespec())
	assert.Contains(t, f.pendingRestarts, sidecar.Namespec())
}

func TestTickTerminalStopsApplicationsBeforeRestartRPC(t *testing.T) {
	f, ctx := newTestFSM(t, []string{"a"})
	now := time.Now()
	addr, _ := ctx.Address("a")
	addr.State = api.AddressRunning
	addr.LocalTime = now
	ctx.SetMasterAddress("a")
	ctx.Process("web", "api", fleet.ProcessRules{})
	ctx.OnProcessEvent("a", "web", "api", fleet.ProcessEvent{State: api.ProcessRunning, Now: now})
	f.state = api.StateRestarting

	f.Tick(context.Background(), now, func() []*fleet.ApplicationStatus { return nil })

	assert.True(t, f.stopper.InProgress(), "tickTerminal must stop applications before issuing the terminal RPC")
	assert.Equal(t, api.StateRestarting, f.State(), "must wait for the stop to complete before transitioning")
}
