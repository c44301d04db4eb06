package commander

import (
	"context"
	"time"

	"github.com/julien6387/supvisors/internal/api"
	"github.com/julien6387/supvisors/internal/fleet"
	"github.com/julien6387/supvisors/pkg/logging"
)

// ForceFatal publishes a synthetic FATAL process event for a namespec that
// the bounded-time check decided to stop waiting on. Wired by the Listener
// to fleet.Context.OnProcessEvent.
type ForceFatal func(address, applicationName, processName string)

// Starter drives ordered, multi-tier application start plans.
//
// Three nested structures mirror the execution protocol directly:
// plannedSequence (app_order -> app_name -> proc_order -> processes),
// plannedJobs (the tier currently being worked, same shape minus app_order),
// and currentJobs (app_name -> in-flight jobs awaiting a terminal event).
type Starter struct {
	dispatcher Dispatcher
	chooser    AddressChooser
	addressList []string
	forceFatal ForceFatal
	stopper    *Stopper

	plannedSequence map[int]map[string]map[int][]*fleet.ProcessStatus
	plannedJobs     map[string]map[int][]*fleet.ProcessStatus
	currentJobs     map[string][]*Job

	apps map[string]*fleet.ApplicationStatus
}

// NewStarter creates an idle Starter.
func NewStarter(dispatcher Dispatcher, chooser AddressChooser, addressList []string, forceFatal ForceFatal) *Starter {
	return &Starter{
		dispatcher:      dispatcher,
		chooser:         chooser,
		addressList:     addressList,
		forceFatal:      forceFatal,
		plannedSequence: make(map[int]map[string]map[int][]*fleet.ProcessStatus),
		plannedJobs:     make(map[string]map[int][]*fleet.ProcessStatus),
		currentJobs:     make(map[string][]*Job),
		apps:            make(map[string]*fleet.ApplicationStatus),
	}
}

// SetStopper attaches the Stopper used by the STOP starting-failure
// strategy to tear down the application. Wired once by the Listener after
// both are constructed.
func (s *Starter) SetStopper(stopper *Stopper) {
	s.stopper = stopper
}

// InProgress reports whether any of planned_sequence, planned_jobs, or
// current_jobs is non-empty.
func (s *Starter) InProgress() bool {
	if len(s.plannedSequence) != 0 || len(s.plannedJobs) != 0 {
		return true
	}
	for _, jobs := range s.currentJobs {
		if len(jobs) > 0 {
			return true
		}
	}
	return false
}

// StartApplications builds planned_sequence from the given applications'
// start sequences and kicks off the first tier. Applications whose
// application-level start_sequence is 0 are excluded, per the design note
// preserving the source's bucket-0 behavior.
func (s *Starter) StartApplications(ctx context.Context, apps []*fleet.ApplicationStatus) {
	for _, app := range apps {
		if app.Rules.StartSequence == 0 {
			continue
		}
		groups := app.StartSequence()
		if len(groups) == 0 {
			continue
		}
		s.apps[app.ApplicationName] = app
		if s.plannedSequence[app.Rules.StartSequence] == nil {
			s.plannedSequence[app.Rules.StartSequence] = make(map[string]map[int][]*fleet.ProcessStatus)
		}
		s.plannedSequence[app.Rules.StartSequence][app.ApplicationName] = groups
	}
	s.popNextTier(ctx)
}

// StartProcess bypasses planned_sequence for a single, directly requested
// process: it goes straight to current_jobs with IgnoreWaitExit set so the
// caller is not held waiting on wait_exit.
func (s *Starter) StartProcess(ctx context.Context, app *fleet.ApplicationStatus, p *fleet.ProcessStatus) bool {
	s.apps[app.ApplicationName] = app
	job := s.processJob(ctx, app.ApplicationName, p)
	if job != nil {
		job.IgnoreWaitExit = true
	}
	return job != nil
}

// popNextTier pops the lowest app_order key from planned_sequence into
// planned_jobs and triggers the first process-order group of every
// application in the tier.
func (s *Starter) popNextTier(ctx context.Context) {
	if len(s.plannedJobs) > 0 || len(s.plannedSequence) == 0 {
		return
	}
	tier := lowestIntKey(s.plannedSequence)
	s.plannedJobs = s.plannedSequence[tier]
	delete(s.plannedSequence, tier)

	for appName := range s.plannedJobs {
		s.triggerAppGroup(ctx, appName)
	}
}

// triggerAppGroup pops the lowest remaining process-order group for an
// application and dispatches every process in it. A group that produces no
// in-flight job (every placement failed) advances immediately to the next
// group within the same application.
func (s *Starter) triggerAppGroup(ctx context.Context, appName string) {
	groups := s.plannedJobs[appName]
	if len(groups) == 0 {
		delete(s.plannedJobs, appName)
		if len(s.plannedJobs) == 0 {
			s.popNextTier(ctx)
		}
		return
	}

	order := lowestIntKey(groups)
	processes := groups[order]
	delete(groups, order)

	inFlight := 0
	for _, p := range processes {
		if s.processJob(ctx, appName, p) != nil {
			inFlight++
		}
	}
	if inFlight == 0 {
		s.triggerAppGroup(ctx, appName)
	}
}

// processJob picks a placement address, dispatches the start RPC, and
// appends a Job to current_jobs. Returns nil if no address was available,
// in which case the process is marked FATAL via the failure path.
func (s *Starter) processJob(ctx context.Context, appName string, p *fleet.ProcessStatus) *Job {
	allowed := p.Rules.Addresses
	if p.Rules.Wildcard() {
		allowed = s.addressList
	}

	address, ok := s.chooser(p.Namespec(), allowed, p.Rules.ExpectedLoading)
	if !ok {
		logging.Warn("Starter", "no resource available for %s", p.Namespec())
		s.processFailure(ctx, appName, p, true)
		return nil
	}

	if err := s.dispatcher.StartProcess(ctx, address, p.Namespec(), p.ExtraArgs); err != nil {
		logging.Warn("Starter", "start_process %s on %s failed: %v", p.Namespec(), address, err)
	}

	job := &Job{
		Namespec:    p.Namespec(),
		Address:     address,
		RequestTime: time.Now(),
		WaitExit:    p.Rules.WaitExit,
	}
	s.currentJobs[appName] = append(s.currentJobs[appName], job)
	p.RequestTime = job.RequestTime
	return job
}

// OnEvent advances the per-process sub-state machine for a process in
// current_jobs.
func (s *Starter) OnEvent(ctx context.Context, appName string, p *fleet.ProcessStatus, state api.ProcessState, expectedExit bool) {
	jobs := s.currentJobs[appName]
	idx := -1
	for i, j := range jobs {
		if j.Namespec == p.Namespec() {
			idx = i
			break
		}
	}
	if idx == -1 {
		// Late-sequence crash: this process isn't in current_jobs but its
		// application still has remaining planned_jobs, so the failure
		// strategy must still be applied.
		if _, pending := s.plannedJobs[appName]; pending {
			s.processFailure(ctx, appName, p, p.Rules.Required)
		}
		return
	}
	job := jobs[idx]

	switch state {
	case api.ProcessStarting:
		return
	case api.ProcessRunning:
		if job.WaitExit && !job.IgnoreWaitExit {
			return
		}
		s.removeJob(ctx, appName, idx)
	case api.ProcessExited:
		if job.WaitExit && expectedExit {
			s.removeJob(ctx, appName, idx)
			return
		}
		s.removeJobAt(appName, idx)
		s.processFailure(ctx, appName, p, p.Rules.Required)
	case api.ProcessStopped, api.ProcessStopping, api.ProcessUnknown, api.ProcessFatal:
		s.removeJobAt(appName, idx)
		s.processFailure(ctx, appName, p, p.Rules.Required)
	case api.ProcessBackoff:
		logging.Warn("Starter", "process %s backing off on %s", p.Namespec(), job.Address)
	}
}

// removeJob drops a successfully completed job and advances the group.
func (s *Starter) removeJob(ctx context.Context, appName string, idx int) {
	s.removeJobAt(appName, idx)
	s.advanceIfIdle(ctx, appName)
}

func (s *Starter) removeJobAt(appName string, idx int) {
	jobs := s.currentJobs[appName]
	s.currentJobs[appName] = append(jobs[:idx], jobs[idx+1:]...)
}

func (s *Starter) advanceIfIdle(ctx context.Context, appName string) {
	if len(s.currentJobs[appName]) == 0 {
		s.triggerAppGroup(ctx, appName)
	}
}

// processFailure applies an application's starting_failure_strategy to a
// required-process failure; optional-process failures always continue.
func (s *Starter) processFailure(ctx context.Context, appName string, p *fleet.ProcessStatus, required bool) {
	app := s.apps[appName]
	if !required || app == nil {
		s.advanceIfIdle(ctx, appName)
		return
	}

	switch app.Rules.StartingFailureStrategy {
	case api.StartingFailureAbort:
		delete(s.plannedJobs, appName)
		delete(s.currentJobs, appName)
		if len(s.plannedJobs) == 0 {
			s.popNextTier(ctx)
		}
	case api.StartingFailureStop:
		delete(s.plannedJobs, appName)
		delete(s.currentJobs, appName)
		if len(s.plannedJobs) == 0 {
			s.popNextTier(ctx)
		}
		if s.stopper != nil {
			processes := make([]*fleet.ProcessStatus, 0, len(app.Processes))
			for _, proc := range app.Processes {
				processes = append(processes, proc)
			}
			s.stopper.StopApplication(ctx, processes)
		}
	case api.StartingFailureContinue:
		s.advanceIfIdle(ctx, appName)
	}
}

// CheckStarting force-marks any process that remains stopped 5s after its
// request_time FATAL via a synthetic event, so the sequencer is never
// blocked by a lost or delayed RPC.
func (s *Starter) CheckStarting(now time.Time) {
	for appName, jobs := range s.currentJobs {
		for _, job := range jobs {
			if job.Expired(now) {
				job.Synthetic = true
				applicationName, processName := splitNamespec(job.Namespec)
				logging.Warn("Starter", "still stopped 5 seconds after start request: %s", job.Namespec)
				s.forceFatal(job.Address, applicationName, processName)
			}
		}
		_ = appName
	}
}

func lowestIntKey[V any](m map[int]V) int {
	first := true
	var min int
	for k := range m {
		if first || k < min {
			min = k
			first = false
		}
	}
	return min
}
