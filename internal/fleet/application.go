package fleet

import (
	"sort"

	"github.com/julien6387/supvisors/internal/api"
)

// ApplicationRules is the declared application-level policy: ordering and
// failure handling that apply regardless of individual process rules.
type ApplicationRules struct {
	StartSequence           int
	StopSequence            int
	StartingFailureStrategy api.StartingFailureStrategy
	RunningFailureStrategy  api.RunningFailureStrategy
}

// ApplicationStatus aggregates Processes sharing an application name and
// computes derived state.
type ApplicationStatus struct {
	ApplicationName string
	Rules           ApplicationRules
	Processes       map[string]*ProcessStatus // keyed by process name

	State         api.ApplicationState
	MajorFailure  bool
	MinorFailure  bool
}

// NewApplicationStatus creates an empty ApplicationStatus.
func NewApplicationStatus(name string, rules ApplicationRules) *ApplicationStatus {
	return &ApplicationStatus{
		ApplicationName: name,
		Rules:           rules,
		Processes:       make(map[string]*ProcessStatus),
		State:           api.ApplicationStopped,
	}
}

// AddProcess registers a process under this application.
func (a *ApplicationStatus) AddProcess(p *ProcessStatus) {
	a.Processes[p.ProcessName] = p
}

// Running reports whether any process is running.
func (a *ApplicationStatus) Running() bool {
	for _, p := range a.Processes {
		if p.Running() {
			return true
		}
	}
	return false
}

// Stopped reports whether every process is stopped.
func (a *ApplicationStatus) Stopped() bool {
	for _, p := range a.Processes {
		if !p.Stopped() {
			return false
		}
	}
	return true
}

// Refresh recomputes State, MajorFailure, and MinorFailure from the
// current process set, per the ApplicationStatus derivation rule:
// RUNNING iff every required process runs; STARTING if any process is
// STARTING/BACKOFF; STOPPING if any is STOPPING; else STOPPED.
func (a *ApplicationStatus) Refresh() {
	allRequiredRunning := true
	anyRequired := false
	anyStarting := false
	anyStopping := false
	a.MajorFailure = false
	a.MinorFailure = false

	for _, p := range a.Processes {
		switch p.State {
		case api.ProcessStarting, api.ProcessBackoff:
			anyStarting = true
		case api.ProcessStopping:
			anyStopping = true
		}

		if p.Rules.Required {
			anyRequired = true
			if !p.Running() {
				allRequiredRunning = false
			}
			if p.Crashed() || p.Stopped() {
				if a.Running() {
					a.MajorFailure = true
				}
			}
		} else {
			if p.Crashed() || p.Stopped() {
				if a.Running() {
					a.MinorFailure = true
				}
			}
		}
	}

	switch {
	case anyRequired && allRequiredRunning:
		a.State = api.ApplicationRunning
	case anyStarting:
		a.State = api.ApplicationStarting
	case anyStopping:
		a.State = api.ApplicationStopping
	default:
		a.State = api.ApplicationStopped
	}
}

// StartSequence groups auto-startable processes (start_sequence > 0) by
// their process-level order. The map has no order; OrderedSequenceKeys
// gives its keys ascending. Per the open question in
// the design notes, a process-order bucket of 0 is always excluded.
func (a *ApplicationStatus) StartSequence() map[int][]*ProcessStatus {
	return a.sequenceBy(func(p *ProcessStatus) int { return p.Rules.StartSequence })
}

// StopSequence groups processes by their process-level stop order.
func (a *ApplicationStatus) StopSequence() map[int][]*ProcessStatus {
	return a.sequenceBy(func(p *ProcessStatus) int { return p.Rules.StopSequence })
}

func (a *ApplicationStatus) sequenceBy(order func(*ProcessStatus) int) map[int][]*ProcessStatus {
	groups := make(map[int][]*ProcessStatus)
	for _, p := range a.Processes {
		seq := order(p)
		if seq == 0 {
			continue
		}
		groups[seq] = append(groups[seq], p)
	}
	return groups
}

// OrderedSequenceKeys returns the sorted process-order keys of a sequence
// map, for deterministic iteration.
func OrderedSequenceKeys(groups map[int][]*ProcessStatus) []int {
	keys := make([]int, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
