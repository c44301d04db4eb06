package commander

import (
	"context"
	"testing"
	"time"

	"github.com/julien6387/supvisors/internal/api"
	"github.com/julien6387/supvisors/internal/fleet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDispatcher struct {
	started []string
	stopped []string
}

func (f *fakeDispatcher) StartProcess(_ context.Context, address, namespec, _ string) error {
	f.started = append(f.started, address+"/"+namespec)
	return nil
}

func (f *fakeDispatcher) StopProcess(_ context.Context, address, namespec string) error {
	f.stopped = append(f.stopped, address+"/"+namespec)
	return nil
}

func alwaysChoose(addr string) AddressChooser {
	return func(string, []string, int) (string, bool) { return addr, true }
}

func TestStarterRunsTiersInOrder(t *testing.T) {
	app := fleet.NewApplicationStatus("web", fleet.ApplicationRules{StartSequence: 1, StartingFailureStrategy: api.StartingFailureContinue})
	p1 := fleet.NewProcessStatus("web", "api", fleet.ProcessRules{Required: true, StartSequence: 1})
	p2 := fleet.NewProcessStatus("web", "worker", fleet.ProcessRules{Required: true, StartSequence: 2})
	app.AddProcess(p1)
	app.AddProcess(p2)

	disp := &fakeDispatcher{}
	s := NewStarter(disp, alwaysChoose("addr1"), []string{"addr1"}, func(string, string, string) {})

	s.StartApplications(context.Background(), []*fleet.ApplicationStatus{app})
	require.True(t, s.InProgress())
	assert.Equal(t, []string{"addr1/web:api"}, disp.started)

	s.OnEvent(context.Background(), "web", p1, api.ProcessRunning, false)
	assert.Equal(t, []string{"addr1/web:api", "addr1/web:worker"}, disp.started)

	s.OnEvent(context.Background(), "web", p2, api.ProcessRunning, false)
	assert.False(t, s.InProgress())
}

func TestStarterNoResourceMarksFailure(t *testing.T) {
	app := fleet.NewApplicationStatus("web", fleet.ApplicationRules{StartSequence: 1, StartingFailureStrategy: api.StartingFailureAbort})
	p1 := fleet.NewProcessStatus("web", "api", fleet.ProcessRules{Required: true, StartSequence: 1})
	app.AddProcess(p1)

	disp := &fakeDispatcher{}
	noChoice := func(string, []string, int) (string, bool) { return "", false }
	s := NewStarter(disp, noChoice, []string{"addr1"}, func(string, string, string) {})

	s.StartApplications(context.Background(), []*fleet.ApplicationStatus{app})
	assert.False(t, s.InProgress())
	assert.Empty(t, disp.started)
}

func TestStarterCheckStartingForcesFatal(t *testing.T) {
	app := fleet.NewApplicationStatus("web", fleet.ApplicationRules{StartSequence: 1, StartingFailureStrategy: api.StartingFailureContinue})
	p1 := fleet.NewProcessStatus("web", "api", fleet.ProcessRules{Required: true, StartSequence: 1})
	app.AddProcess(p1)

	disp := &fakeDispatcher{}
	var forced string
	s := NewStarter(disp, alwaysChoose("addr1"), []string{"addr1"}, func(addr, appName, procName string) {
		forced = addr + "/" + appName + ":" + procName
	})

	s.StartApplications(context.Background(), []*fleet.ApplicationStatus{app})
	s.CheckStarting(time.Now().Add(6 * time.Second))
	assert.Equal(t, "addr1/web:api", forced)
}

func TestStarterStartingFailureStopInvokesStopper(t *testing.T) {
	app := fleet.NewApplicationStatus("web", fleet.ApplicationRules{StartSequence: 1, StartingFailureStrategy: api.StartingFailureStop})
	p1 := fleet.NewProcessStatus("web", "api", fleet.ProcessRules{Required: true, StartSequence: 1})
	p2 := fleet.NewProcessStatus("web", "worker", fleet.ProcessRules{Required: false, StartSequence: 1})
	app.AddProcess(p1)
	app.AddProcess(p2)
	p2.AddInfo("addr1", fleet.ProcessEvent{State: api.ProcessRunning, Now: time.Now()})

	disp := &fakeDispatcher{}
	s := NewStarter(disp, alwaysChoose("addr1"), []string{"addr1"}, func(string, string, string) {})
	stopper := NewStopper(disp, func(string, string, string) {})
	s.SetStopper(stopper)

	s.StartApplications(context.Background(), []*fleet.ApplicationStatus{app})
	s.OnEvent(context.Background(), "web", p1, api.ProcessExited, false)

	assert.False(t, s.InProgress())
	assert.True(t, stopper.InProgress())
	assert.Contains(t, disp.stopped, "addr1/web:worker")
}

func TestStopperWaitsForAllAddresses(t *testing.T) {
	p := fleet.NewProcessStatus("web", "api", fleet.ProcessRules{})
	now := time.Now()
	p.AddInfo("addr1", fleet.ProcessEvent{State: api.ProcessRunning, Now: now})
	p.AddInfo("addr2", fleet.ProcessEvent{State: api.ProcessRunning, Now: now})

	disp := &fakeDispatcher{}
	stopper := NewStopper(disp, func(string, string, string) {})
	stopper.StopProcess(context.Background(), p)
	assert.True(t, stopper.InProgress())
	assert.Len(t, disp.stopped, 2)

	stopper.OnEvent("web:api", "addr1", api.ProcessStopped)
	assert.True(t, stopper.InProgress())
	stopper.OnEvent("web:api", "addr2", api.ProcessStopped)
	assert.False(t, stopper.InProgress())
}
