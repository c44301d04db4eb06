package fleet

import (
	"fmt"
	"sync"
	"time"

	"github.com/julien6387/supvisors/internal/api"
	"github.com/julien6387/supvisors/pkg/logging"
)

// Context is the single source of truth for the fleet model: the
// authoritative addresses, applications, and processes, plus the elected
// master address. All mutation of the model goes through its event-ingest
// entry points; nothing else is permitted to touch the model directly.
type Context struct {
	mu sync.RWMutex

	addresses    map[string]*AddressStatus
	applications map[string]*ApplicationStatus
	processes    map[string]*ProcessStatus // keyed by namespec

	masterAddress string

	bus *EventBus
}

// NewContext creates a Context seeded with one AddressStatus per configured
// address name, all initially UNKNOWN.
func NewContext(addressList []string) *Context {
	c := &Context{
		addresses:    make(map[string]*AddressStatus),
		applications: make(map[string]*ApplicationStatus),
		processes:    make(map[string]*ProcessStatus),
		bus:          NewEventBus(),
	}
	for _, name := range addressList {
		c.addresses[name] = NewAddressStatus(name)
	}
	return c
}

// Bus returns the internal event bus for subscribers (FSM, CLI, shell).
func (c *Context) Bus() *EventBus {
	return c.bus
}

// Address returns the AddressStatus for a given name.
func (c *Context) Address(name string) (*AddressStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.addresses[name]
	return a, ok
}

// Addresses returns every known address, in no particular order.
func (c *Context) Addresses() []*AddressStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*AddressStatus, 0, len(c.addresses))
	for _, a := range c.addresses {
		out = append(out, a)
	}
	return out
}

// AddAddress registers a newly discovered address as UNKNOWN if it isn't
// already known. It reports whether the address was added, so callers
// (e.g. the AddressBook discovery watcher) can log only genuine changes.
// Addresses are never removed by discovery: shrinking the known set while
// the FSM is past INITIALIZATION would strand processes it still tracks.
func (c *Context) AddAddress(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.addresses[name]; ok {
		return false
	}
	c.addresses[name] = NewAddressStatus(name)
	return true
}

// MarkSilent transitions an address to SILENT after a missed-heartbeat
// timeout and publishes the change.
func (c *Context) MarkSilent(name string) {
	c.mu.Lock()
	a, ok := c.addresses[name]
	if !ok {
		c.mu.Unlock()
		return
	}
	old := a.State
	a.Silent()
	changed := a.State != old
	c.mu.Unlock()

	if changed {
		c.bus.Publish(Event{Kind: EventAddressStateChanged, Address: name, Payload: a.State, Timestamp: time.Now()})
	}
}

// AdvanceIsolation moves a SILENT address to ISOLATING, or an ISOLATING
// address to ISOLATED, per the auto-fence policy. Returns the resulting
// state.
func (c *Context) AdvanceIsolation(name string) api.AddressState {
	c.mu.Lock()
	a, ok := c.addresses[name]
	if !ok {
		c.mu.Unlock()
		return api.AddressUnknown
	}
	a.Isolate()
	state := a.State
	c.mu.Unlock()

	c.bus.Publish(Event{Kind: EventAddressStateChanged, Address: name, Payload: state, Timestamp: time.Now()})
	return state
}

// MasterAddress returns the currently elected master, or "" if none.
func (c *Context) MasterAddress() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.masterAddress
}

// SetMasterAddress records the elected master.
func (c *Context) SetMasterAddress(name string) {
	c.mu.Lock()
	c.masterAddress = name
	c.mu.Unlock()
}

// Application returns the ApplicationStatus for a given name, creating it
// lazily with empty rules if it has never been observed.
func (c *Context) Application(name string) *ApplicationStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applicationLocked(name)
}

func (c *Context) applicationLocked(name string) *ApplicationStatus {
	app, ok := c.applications[name]
	if !ok {
		app = NewApplicationStatus(name, ApplicationRules{})
		c.applications[name] = app
	}
	return app
}

// Applications returns every known application.
func (c *Context) Applications() []*ApplicationStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*ApplicationStatus, 0, len(c.applications))
	for _, a := range c.applications {
		out = append(out, a)
	}
	return out
}

// SetApplicationRules installs declared rules for an application, creating
// it lazily if needed. Called by the rules loader on load/reload.
func (c *Context) SetApplicationRules(name string, rules ApplicationRules) {
	c.mu.Lock()
	defer c.mu.Unlock()
	app := c.applicationLocked(name)
	app.Rules = rules
}

// Process returns the ProcessStatus for a namespec, creating both the
// owning application and the process lazily if this is the first time
// either has been observed.
func (c *Context) Process(applicationName, processName string, rules ProcessRules) *ProcessStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	namespec := fmt.Sprintf("%s:%s", applicationName, processName)
	p, ok := c.processes[namespec]
	if !ok {
		p = NewProcessStatus(applicationName, processName, rules)
		c.processes[namespec] = p
		app := c.applicationLocked(applicationName)
		app.AddProcess(p)
	}
	return p
}

// ProcessByNamespec looks up a process without creating it.
func (c *Context) ProcessByNamespec(namespec string) (*ProcessStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.processes[namespec]
	return p, ok
}

// Conflicts returns every process currently observed RUNNING on more than
// one address.
func (c *Context) Conflicts() []*ProcessStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*ProcessStatus
	for _, p := range c.processes {
		if p.Conflicting() {
			out = append(out, p)
		}
	}
	return out
}

// OnTickEvent records a heartbeat from an address: the sole entry point
// for address liveness mutation.
func (c *Context) OnTickEvent(address string, remoteTime time.Time) {
	c.mu.Lock()
	a, ok := c.addresses[address]
	if !ok || a.InIsolation() {
		c.mu.Unlock()
		return
	}
	oldState := a.State
	a.UpdateRemoteTime(remoteTime, time.Now())
	c.mu.Unlock()

	if a.State != oldState {
		c.bus.Publish(Event{Kind: EventAddressStateChanged, Address: address, Payload: a.State, Timestamp: time.Now()})
	}
}

// OnStatisticsEvent records a fresh loading sample for an address,
// reported periodically alongside ticks.
func (c *Context) OnStatisticsEvent(address string, loading int) {
	c.mu.Lock()
	a, ok := c.addresses[address]
	if !ok {
		c.mu.Unlock()
		return
	}
	a.SetLoading(loading)
	c.mu.Unlock()
}

// OnProcessEvent applies a process event reported by an address: the sole
// entry point for process state mutation.
func (c *Context) OnProcessEvent(address, applicationName, processName string, evt ProcessEvent) {
	c.mu.Lock()
	a, ok := c.addresses[address]
	if !ok || a.InIsolation() {
		c.mu.Unlock()
		return
	}
	namespec := fmt.Sprintf("%s:%s", applicationName, processName)
	p, ok := c.processes[namespec]
	if !ok {
		p = NewProcessStatus(applicationName, processName, ProcessRules{})
		c.processes[namespec] = p
		app := c.applicationLocked(applicationName)
		app.AddProcess(p)
	}
	wasConflicting := p.Conflicting()
	p.UpdateInfo(address, evt)
	app := c.applicationLocked(applicationName)
	app.Refresh()
	c.mu.Unlock()

	c.bus.Publish(Event{Kind: EventProcessStateChanged, Address: address, Namespec: namespec, Payload: p.State, Timestamp: time.Now()})
	c.bus.Publish(Event{Kind: EventApplicationStateChanged, Namespec: applicationName, Payload: app.State, Timestamp: time.Now()})
	if !wasConflicting && p.Conflicting() {
		c.bus.Publish(Event{Kind: EventConflictDetected, Namespec: namespec, Timestamp: time.Now()})
	}
	if wasConflicting && !p.Conflicting() {
		c.bus.Publish(Event{Kind: EventConflictResolved, Namespec: namespec, Timestamp: time.Now()})
	}
}

// OnAuthorization records the outcome of a peer handshake (check_address).
func (c *Context) OnAuthorization(address string, authorized bool) {
	c.mu.Lock()
	a, ok := c.addresses[address]
	if !ok {
		c.mu.Unlock()
		return
	}
	if authorized {
		a.Checked = true
		if a.State == api.AddressUnknown {
			a.State = api.AddressChecking
		}
	}
	c.mu.Unlock()
	logging.Debug("Context", "address %s authorization=%v", address, authorized)
}

// Invalidate drops an address from the model after it has gone SILENT (or
// ISOLATED): every process reported solely by that address loses it, which
// may reduce the process to STOPPED.
func (c *Context) Invalidate(address string) {
	c.mu.Lock()
	affected := make([]*ProcessStatus, 0)
	apps := make(map[string]*ApplicationStatus)
	for _, p := range c.processes {
		if _, ok := p.InfoForAddress(address); ok {
			p.InvalidateAddress(address)
			affected = append(affected, p)
			apps[p.ApplicationName] = c.applicationLocked(p.ApplicationName)
		}
	}
	for _, app := range apps {
		app.Refresh()
	}
	c.mu.Unlock()

	for _, p := range affected {
		c.bus.Publish(Event{Kind: EventProcessStateChanged, Address: address, Namespec: p.Namespec(), Payload: p.State, Timestamp: time.Now()})
	}
}

// EndSynchro closes the synchronization window: any address still UNKNOWN
// becomes SILENT (and, if auto-fence is enabled by the caller via a
// subsequent Isolate, may progress to ISOLATED on later ticks).
func (c *Context) EndSynchro() {
	c.mu.Lock()
	changed := make([]*AddressStatus, 0)
	for _, a := range c.addresses {
		if a.State == api.AddressUnknown {
			a.Silent()
			changed = append(changed, a)
		}
	}
	c.mu.Unlock()

	for _, a := range changed {
		c.bus.Publish(Event{Kind: EventAddressStateChanged, Address: a.Name, Payload: a.State, Timestamp: time.Now()})
	}
}
