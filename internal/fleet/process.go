package fleet

import (
	"fmt"
	"time"

	"github.com/julien6387/supvisors/internal/api"
)

// ProcessRules is the declared per-process policy loaded from the rules
// file: placement constraints, ordering, and failure handling.
type ProcessRules struct {
	Addresses               []string // allowed placement set; nil/["*"] means wildcard
	StartSequence            int
	StopSequence             int
	Required                 bool
	WaitExit                 bool
	ExpectedLoading          int
	StartingFailureStrategy  api.StartingFailureStrategy
	RunningFailureStrategy   api.RunningFailureStrategy
}

// Wildcard reports whether Addresses denotes "any configured address".
func (r ProcessRules) Wildcard() bool {
	return len(r.Addresses) == 0 || (len(r.Addresses) == 1 && r.Addresses[0] == "*")
}

// ProcessEvent is one report of process state received from a single
// address, matching the underlying supervisor's process-event schema.
type ProcessEvent struct {
	Address     string
	State       api.ProcessState
	Start       time.Time
	Stop        time.Time
	Now         time.Time
	PID         int
	Description string
	SpawnErr    string
	Expected    bool
}

// ProcessStatus aggregates the same process observed across multiple
// addresses into one logical entity.
type ProcessStatus struct {
	ApplicationName string
	ProcessName     string
	Rules           ProcessRules

	perAddress map[string]ProcessEvent

	State         api.ProcessState
	ExpectedExit  bool
	RequestTime   time.Time
	LastEventTime time.Time
	ExtraArgs     string
	IgnoreWaitExit bool
}

// NewProcessStatus creates an empty ProcessStatus for the given namespec
// components.
func NewProcessStatus(applicationName, processName string, rules ProcessRules) *ProcessStatus {
	return &ProcessStatus{
		ApplicationName: applicationName,
		ProcessName:     processName,
		Rules:           rules,
		perAddress:      make(map[string]ProcessEvent),
		State:           api.ProcessStopped,
	}
}

// Namespec returns the canonical application:process identifier.
func (p *ProcessStatus) Namespec() string {
	return fmt.Sprintf("%s:%s", p.ApplicationName, p.ProcessName)
}

// Addresses returns the set of addresses currently reporting this process
// in a running-like state.
func (p *ProcessStatus) Addresses() []string {
	var addrs []string
	for addr, info := range p.perAddress {
		if info.State.RunningLike() {
			addrs = append(addrs, addr)
		}
	}
	return addrs
}

// Running reports whether the aggregated state is running-like.
func (p *ProcessStatus) Running() bool {
	return p.State.RunningLike()
}

// Stopped reports whether the aggregated state is STOPPED.
func (p *ProcessStatus) Stopped() bool {
	return p.State == api.ProcessStopped
}

// Crashed reports whether the process is FATAL, or EXITED unexpectedly.
func (p *ProcessStatus) Crashed() bool {
	if p.State == api.ProcessFatal {
		return true
	}
	return p.State == api.ProcessExited && !p.ExpectedExit
}

// Conflicting reports whether more than one address currently runs this
// process.
func (p *ProcessStatus) Conflicting() bool {
	return len(p.Addresses()) > 1
}

// AddInfo records an address's first report of this process and
// recomputes the aggregated state.
func (p *ProcessStatus) AddInfo(address string, evt ProcessEvent) {
	p.perAddress[address] = evt
	p.recompute()
}

// UpdateInfo applies a new event from an address already known to this
// process and recomputes the aggregated state.
func (p *ProcessStatus) UpdateInfo(address string, evt ProcessEvent) {
	p.perAddress[address] = evt
	p.recompute()
}

// InvalidateAddress drops an address that went silent. If no addresses
// remain, the aggregated state becomes STOPPED.
func (p *ProcessStatus) InvalidateAddress(address string) {
	delete(p.perAddress, address)
	p.recompute()
}

// recompute applies the aggregation rule from the per-process state
// machine: running-like states win (most advanced first); otherwise the
// most recent terminal state by event time.
func (p *ProcessStatus) recompute() {
	var best *ProcessEvent
	var bestTerminal *ProcessEvent

	for addr := range p.perAddress {
		info := p.perAddress[addr]
		if info.State.RunningLike() {
			if best == nil || api.MoreAdvanced(info.State, best.State) {
				i := info
				best = &i
			}
		} else {
			if bestTerminal == nil || info.Now.After(bestTerminal.Now) {
				i := info
				bestTerminal = &i
			}
		}
	}

	switch {
	case best != nil:
		p.State = best.State
		p.LastEventTime = best.Now
		p.ExpectedExit = best.Expected
	case bestTerminal != nil:
		p.State = bestTerminal.State
		p.LastEventTime = bestTerminal.Now
		p.ExpectedExit = bestTerminal.Expected
	default:
		p.State = api.ProcessStopped
	}
}

// InfoForAddress returns the last reported info from a given address.
func (p *ProcessStatus) InfoForAddress(address string) (ProcessEvent, bool) {
	info, ok := p.perAddress[address]
	return info, ok
}

// LatestDescription returns the description carried by the most recently
// reported ProcessEvent across every address, or "" if none has reported
// yet. Used by status reporting to surface spawn errors and exit reasons.
func (p *ProcessStatus) LatestDescription() string {
	var latest ProcessEvent
	var found bool
	for _, info := range p.perAddress {
		if !found || info.Now.After(latest.Now) {
			latest = info
			found = true
		}
	}
	if !found {
		return ""
	}
	if latest.SpawnErr != "" {
		return latest.SpawnErr
	}
	return latest.Description
}

// RunningAddressesByStartTime returns the addresses currently running this
// process, oldest instance first, for use by age-based conciliation
// strategies (SENICIDE/INFANTICIDE).
func (p *ProcessStatus) RunningAddressesByStartTime() []string {
	type entry struct {
		addr  string
		start time.Time
	}
	var entries []entry
	for addr, info := range p.perAddress {
		if info.State.RunningLike() {
			entries = append(entries, entry{addr: addr, start: info.Start})
		}
	}
	for i := 1; i < len(entries); i++ {
		j := i
		for j > 0 && entries[j].start.Before(entries[j-1].start) {
			entries[j], entries[j-1] = entries[j-1], entries[j]
			j--
		}
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.addr
	}
	return out
}
