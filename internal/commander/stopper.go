package commander

import (
	"context"
	"time"

	"github.com/julien6387/supvisors/internal/api"
	"github.com/julien6387/supvisors/internal/fleet"
	"github.com/julien6387/supvisors/pkg/logging"
)

// ForceUnknown publishes a synthetic UNKNOWN process event when a stop
// request times out, mirroring ForceFatal on the start side.
type ForceUnknown func(address, applicationName, processName string)

// Stopper is symmetric to Starter: it sends stop_process to every address
// currently running a process (handling in-flight conflicts implicitly by
// addressing them all), waits for STOPPED, and times out to UNKNOWN after
// 5s.
type Stopper struct {
	dispatcher   Dispatcher
	forceUnknown ForceUnknown

	// jobs maps namespec -> in-flight stop jobs, one per address still
	// being waited on.
	jobs map[string][]*Job
}

// NewStopper creates an idle Stopper.
func NewStopper(dispatcher Dispatcher, forceUnknown ForceUnknown) *Stopper {
	return &Stopper{
		dispatcher:   dispatcher,
		forceUnknown: forceUnknown,
		jobs:         make(map[string][]*Job),
	}
}

// InProgress reports whether any stop request is still awaiting a terminal
// event.
func (s *Stopper) InProgress() bool {
	for _, jobs := range s.jobs {
		if len(jobs) > 0 {
			return true
		}
	}
	return false
}

// StopProcess sends stop_process to every address currently running p.
// Per the design notes' open question, it does not wait for per-address
// acknowledgment; on partial success the process stays tracked until the
// 5s timeout.
func (s *Stopper) StopProcess(ctx context.Context, p *fleet.ProcessStatus) {
	s.StopAddresses(ctx, p, p.Addresses())
}

// StopAddresses sends stop_process only to the given subset of addresses
// currently running p, for use by conciliation strategies that keep one
// instance alive (SENICIDE/INFANTICIDE).
func (s *Stopper) StopAddresses(ctx context.Context, p *fleet.ProcessStatus, addresses []string) {
	if len(addresses) == 0 {
		return
	}

	now := time.Now()
	jobs := make([]*Job, 0, len(addresses))
	for _, address := range addresses {
		if err := s.dispatcher.StopProcess(ctx, address, p.Namespec()); err != nil {
			logging.Warn("Stopper", "stop_process %s on %s failed: %v", p.Namespec(), address, err)
		}
		jobs = append(jobs, &Job{Namespec: p.Namespec(), Address: address, RequestTime: now})
	}
	s.jobs[p.Namespec()] = jobs
}

// StopApplication requests a stop for every process of the application,
// highest stop_sequence first is the caller's responsibility; this simply
// fires the RPCs for the given processes.
func (s *Stopper) StopApplication(ctx context.Context, processes []*fleet.ProcessStatus) {
	for _, p := range processes {
		s.StopProcess(ctx, p)
	}
}

// OnEvent advances a pending stop job: STOPPED removes the job for that
// address; any other terminal state is treated the same way, since the
// Stopper only cares that the address is no longer running the process.
func (s *Stopper) OnEvent(namespec, address string, state api.ProcessState) {
	jobs, ok := s.jobs[namespec]
	if !ok {
		return
	}
	if state.RunningLike() {
		return
	}
	idx := -1
	for i, j := range jobs {
		if j.Address == address {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}
	jobs = append(jobs[:idx], jobs[idx+1:]...)
	if len(jobs) == 0 {
		delete(s.jobs, namespec)
	} else {
		s.jobs[namespec] = jobs
	}
}

// CheckStopping force-marks any address still not STOPPED 5s after the
// stop request UNKNOWN, via a synthetic event.
func (s *Stopper) CheckStopping(now time.Time) {
	for namespec, jobs := range s.jobs {
		applicationName, processName := splitNamespec(namespec)
		for _, job := range jobs {
			if job.Expired(now) {
				job.Synthetic = true
				logging.Warn("Stopper", "still running 5 seconds after stop request: %s on %s", namespec, job.Address)
				s.forceUnknown(job.Address, applicationName, processName)
			}
		}
	}
}
