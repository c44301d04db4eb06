package fsm

import (
	"context"
	"fmt"
	"time"

	"github.com/julien6387/supvisors/internal/api"
	"github.com/julien6387/supvisors/internal/commander"
	"github.com/julien6387/supvisors/internal/config"
	"github.com/julien6387/supvisors/internal/fleet"
	"github.com/julien6387/supvisors/internal/strategy"
	"github.com/julien6387/supvisors/pkg/logging"
)

// ApplicationsFunc supplies the current application set, e.g. from the
// rules loader.
type ApplicationsFunc func() []*fleet.ApplicationStatus

// FSM drives the fleet-level state machine. Every node runs an FSM
// instance; only the node whose local address is the elected master
// performs active commands (Starter/Stopper/Conciliator dispatches).
// Non-masters track the same state from observed events so failover is
// immediate on master loss.
type FSM struct {
	state FleetState

	ctx          *fleet.Context
	localAddress string
	addressList  []string
	options      config.Options

	starter    *commander.Starter
	stopper    *commander.Stopper
	dispatcher FleetDispatcher

	synchroDeadline time.Time

	// pendingRestarts holds processes stopped by RESTART conciliation or a
	// RESTART_PROCESS/RESTART_APPLICATION running_failure_strategy, awaiting
	// STOPPED before being resubmitted to the Starter.
	pendingRestarts map[string]*fleet.ProcessStatus

	// terminalStopIssued guards the one-time application stop-all fired on
	// entering RESTARTING/SHUTTING_DOWN.
	terminalStopIssued bool
}

// FleetState is an alias kept local to this package for readability in
// signatures; it is the same enum as internal/api.FleetState.
type FleetState = api.FleetState

// New creates an FSM in the INITIALIZATION state.
func New(ctx *fleet.Context, localAddress string, addressList []string, options config.Options,
	starter *commander.Starter, stopper *commander.Stopper, dispatcher FleetDispatcher) *FSM {
	return &FSM{
		state:           api.StateInitialization,
		ctx:             ctx,
		localAddress:    localAddress,
		addressList:     addressList,
		options:         options,
		starter:         starter,
		stopper:         stopper,
		dispatcher:      dispatcher,
		pendingRestarts: make(map[string]*fleet.ProcessStatus),
	}
}

// Start marks the beginning of the synchronization window.
func (f *FSM) Start(now time.Time) {
	f.state = api.StateInitialization
	f.synchroDeadline = now.Add(f.options.SynchroTimeoutDuration())
}

// State returns the current fleet state.
func (f *FSM) State() FleetState {
	return f.state
}

// IsMaster reports whether the local address is the elected master.
func (f *FSM) IsMaster() bool {
	return f.ctx.MasterAddress() != "" && f.ctx.MasterAddress() == f.localAddress
}

// AddAddress registers a dynamically discovered address in both the fleet
// model and the election priority list, so it can be synchronized with and,
// eventually, elected master. It is a no-op if the address is already known.
func (f *FSM) AddAddress(name string) {
	if !f.ctx.AddAddress(name) {
		return
	}
	f.addressList = append(f.addressList, name)
	logging.Info("FSM", "discovered address %s added to fleet", name)
}

// RequestRestart and RequestShutdown move the FSM to its terminal paths;
// they take effect on the next Tick.
func (f *FSM) RequestRestart() { f.state = api.StateRestarting }

// ConciliateUser resolves one conflicting process by operator decision: every
// running address except keepAddress is stopped. It is the manual
// counterpart to tickConciliation's automatic strategies, used when
// ConciliationStrategy is USER and tickConciliation is left awaiting input.
func (f *FSM) ConciliateUser(ctx context.Context, namespec, keepAddress string) error {
	if f.state != api.StateConciliation {
		return fmt.Errorf("fleet is not in CONCILIATION state")
	}
	p, ok := f.ctx.ProcessByNamespec(namespec)
	if !ok {
		return fmt.Errorf("unknown process %q", namespec)
	}
	var stopAddresses []string
	for _, addr := range p.RunningAddressesByStartTime() {
		if addr != keepAddress {
			stopAddresses = append(stopAddresses, addr)
		}
	}
	if len(stopAddresses) == 0 {
		return fmt.Errorf("no running address to stop for %q other than %q", namespec, keepAddress)
	}
	f.stopper.StopAddresses(ctx, p, stopAddresses)
	logging.Audit(logging.AuditEvent{
		Action:   "conciliate_user",
		Outcome:  "success",
		Namespec: namespec,
		Details:  fmt.Sprintf("kept=%s stopped=%v", keepAddress, stopAddresses),
	})
	return nil
}

func (f *FSM) RequestShutdown() { f.state = api.StateShuttingDown }

// Tick advances the FSM by one main-loop iteration.
func (f *FSM) Tick(ctx context.Context, now time.Time, applications ApplicationsFunc) {
	f.checkLiveness(now)
	f.checkPendingRestarts(ctx)

	switch f.state {
	case api.StateInitialization:
		f.tickInitialization(now)
	case api.StateDeployment:
		f.tickDeployment(ctx, applications)
	case api.StateOperation:
		f.tickOperation(ctx, now)
	case api.StateConciliation:
		f.tickConciliation(ctx)
	case api.StateRestarting:
		f.tickTerminal(ctx, true)
	case api.StateShuttingDown:
		f.tickTerminal(ctx, false)
	}
}

// checkLiveness demotes RUNNING addresses that have missed their
// inactivity deadline to SILENT, and advances auto-fenced SILENT addresses
// toward ISOLATED one tick at a time.
func (f *FSM) checkLiveness(now time.Time) {
	for _, a := range f.ctx.Addresses() {
		if a.State == api.AddressRunning && a.IsStale(now, f.options.InactivityDuration()) {
			f.ctx.MarkSilent(a.Name)
			logging.Warn("FSM", "address %s missed its liveness deadline, marked SILENT", a.Name)
			continue
		}
		if a.State.InIsolation() || a.State == api.AddressSilent {
			if f.options.AutoFence {
				newState := f.ctx.AdvanceIsolation(a.Name)
				if newState == api.AddressIsolated {
					f.ctx.Invalidate(a.Name)
					if f.dispatcher != nil {
						_ = f.dispatcher.IsolateAddresses(context.Background(), []string{a.Name})
					}
					if a.Name == f.ctx.MasterAddress() {
						f.ctx.SetMasterAddress("")
					}
					logging.Audit(logging.AuditEvent{
						Action:  "isolate_address",
						Outcome: "success",
						Address: a.Name,
						Details: "auto-fenced after missed liveness deadline",
					})
				}
			}
		}
	}
}

// tickInitialization waits up to synchro_timeout for every configured
// address to reach RUNNING, elects the master, and transitions to
// DEPLOYMENT.
func (f *FSM) tickInitialization(now time.Time) {
	allRunning := true
	for _, a := range f.ctx.Addresses() {
		if a.State != api.AddressRunning {
			allRunning = false
			break
		}
	}

	if !allRunning && now.Before(f.synchroDeadline) {
		return
	}
	if !allRunning {
		f.ctx.EndSynchro()
	}

	f.electMaster()
	f.state = api.StateDeployment
}

// electMaster picks the RUNNING address with the smallest index in the
// configured address list.
func (f *FSM) electMaster() {
	for _, name := range f.addressList {
		if a, ok := f.ctx.Address(name); ok && a.State == api.AddressRunning {
			f.ctx.SetMasterAddress(name)
			return
		}
	}
}

// tickDeployment has the master invoke Starter.StartApplications() once;
// every node waits for the Starter to go idle before entering OPERATION.
func (f *FSM) tickDeployment(ctx context.Context, applications ApplicationsFunc) {
	if f.IsMaster() && !f.starter.InProgress() {
		f.starter.StartApplications(ctx, applications())
	}
	if !f.starter.InProgress() {
		f.state = api.StateOperation
	}
}

// tickOperation runs Starter/Stopper progress checks and watches for
// conflicts or master loss.
func (f *FSM) tickOperation(ctx context.Context, now time.Time) {
	f.starter.CheckStarting(now)
	f.stopper.CheckStopping(now)

	if len(f.ctx.Conflicts()) > 0 {
		f.state = api.StateConciliation
		return
	}
	if f.masterMissing() {
		f.state = api.StateInitialization
	}
}

func (f *FSM) masterMissing() bool {
	master := f.ctx.MasterAddress()
	if master == "" {
		return true
	}
	a, ok := f.ctx.Address(master)
	return !ok || a.State != api.AddressRunning
}

// tickConciliation applies the configured conciliation strategy to every
// conflicting process; only the master issues the resulting stop
// commands.
func (f *FSM) tickConciliation(ctx context.Context) {
	conflicts := f.ctx.Conflicts()
	if len(conflicts) == 0 {
		f.state = api.StateOperation
		return
	}
	if !f.IsMaster() {
		return
	}

	for _, p := range conflicts {
		action := strategy.Conciliate(f.options.ConciliationStrategyValue(), p)
		if action.Await || len(action.StopAddresses) == 0 {
			continue
		}
		f.stopper.StopAddresses(ctx, p, action.StopAddresses)
		switch {
		case action.ScheduleRestart:
			f.pendingRestarts[p.Namespec()] = p
		case action.ApplyFailure:
			f.applyRunningFailure(ctx, p)
		}
		logging.Audit(logging.AuditEvent{
			Action:   "conciliate",
			Outcome:  "success",
			Namespec: p.Namespec(),
			Details:  fmt.Sprintf("strategy=%s stopped=%v", f.options.ConciliationStrategy, action.StopAddresses),
		})
	}
}

// applyRunningFailure dispatches a conflicting process's declared
// running_failure_strategy once the conciliation strategy has stopped its
// duplicate instances.
func (f *FSM) applyRunningFailure(ctx context.Context, p *fleet.ProcessStatus) {
	logging.Warn("FSM", "conflict on %s resolved via running_failure_strategy %s", p.Namespec(), p.Rules.RunningFailureStrategy)

	switch p.Rules.RunningFailureStrategy {
	case api.RunningFailureContinue:
	case api.RunningFailureRestartProcess:
		f.pendingRestarts[p.Namespec()] = p
	case api.RunningFailureStopApplication:
		f.stopApplication(ctx, p.ApplicationName)
	case api.RunningFailureRestartApplication:
		app := f.stopApplication(ctx, p.ApplicationName)
		for _, proc := range app {
			f.pendingRestarts[proc.Namespec()] = proc
		}
	}
}

// stopApplication stops every process of the named application and returns
// them, for callers that also need to schedule a subsequent restart.
func (f *FSM) stopApplication(ctx context.Context, appName string) []*fleet.ProcessStatus {
	app := f.ctx.Application(appName)
	if app == nil {
		return nil
	}
	processes := make([]*fleet.ProcessStatus, 0, len(app.Processes))
	for _, proc := range app.Processes {
		processes = append(processes, proc)
	}
	f.stopper.StopApplication(ctx, processes)
	return processes
}

// checkPendingRestarts resubmits processes stopped by a RESTART conciliation
// or a RESTART_* running_failure_strategy to the Starter once they have
// actually stopped. Only the master issues the resulting start command.
func (f *FSM) checkPendingRestarts(ctx context.Context) {
	if !f.IsMaster() || len(f.pendingRestarts) == 0 {
		return
	}
	for namespec, p := range f.pendingRestarts {
		if !p.Stopped() {
			continue
		}
		delete(f.pendingRestarts, namespec)
		app := f.ctx.Application(p.ApplicationName)
		if app == nil {
			continue
		}
		f.starter.StartProcess(ctx, app, p)
		logging.Audit(logging.AuditEvent{
			Action:   "conciliate_restart",
			Outcome:  "success",
			Namespec: namespec,
			Details:  "fresh start issued after conciliation stop",
		})
	}
}

// tickTerminal stops every application and, once idle, issues the
// supervisor-level restart or shutdown RPC to every RUNNING address.
func (f *FSM) tickTerminal(ctx context.Context, restart bool) {
	if f.IsMaster() && !f.terminalStopIssued {
		f.terminalStopIssued = true
		f.stopAllApplications(ctx)
	}

	if f.starter.InProgress() || f.stopper.InProgress() {
		return
	}
	if !f.IsMaster() {
		f.state = api.StateShutdown
		return
	}

	for _, a := range f.ctx.Addresses() {
		if a.State != api.AddressRunning {
			continue
		}
		var err error
		if restart {
			err = f.dispatcher.Restart(ctx, a.Name)
		} else {
			err = f.dispatcher.Shutdown(ctx, a.Name)
		}
		if err != nil {
			logging.Warn("FSM", "terminal RPC to %s failed: %v", a.Name, err)
		}
	}
	f.state = api.StateShutdown
}

// stopAllApplications fires a stop request for every known application,
// used once on entry to RESTARTING/SHUTTING_DOWN before the terminal RPCs.
func (f *FSM) stopAllApplications(ctx context.Context) {
	for _, app := range f.ctx.Applications() {
		processes := make([]*fleet.ProcessStatus, 0, len(app.Processes))
		for _, p := range app.Processes {
			processes = append(processes, p)
		}
		f.stopper.StopApplication(ctx, processes)
	}
}
