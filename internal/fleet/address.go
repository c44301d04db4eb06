package fleet

import (
	"time"

	"github.com/julien6387/supvisors/internal/api"
)

// AddressStatus holds liveness for one peer node: the stable name from the
// configured address list, its reported RUNNING/SILENT/ISOLATED state, the
// last observed remote and local clock readings, and its current loading.
type AddressStatus struct {
	Name       string
	State      api.AddressState
	RemoteTime time.Time
	LocalTime  time.Time
	Loading    int
	Checked    bool
}

// NewAddressStatus creates an address in the initial UNKNOWN state.
func NewAddressStatus(name string) *AddressStatus {
	return &AddressStatus{Name: name, State: api.AddressUnknown}
}

// UpdateRemoteTime records a heartbeat: transitions CHECKING to RUNNING and
// refreshes both the remote (peer-reported) and local (observer) clocks.
func (a *AddressStatus) UpdateRemoteTime(remoteTime, localTime time.Time) {
	if a.State == api.AddressChecking {
		a.State = api.AddressRunning
	}
	a.RemoteTime = remoteTime
	a.LocalTime = localTime
}

// InIsolation reports whether the address is ISOLATING or ISOLATED.
func (a *AddressStatus) InIsolation() bool {
	return a.State.InIsolation()
}

// StateString returns the display label for the address's current state.
func (a *AddressStatus) StateString() string {
	return a.State.String()
}

// Silent marks the address SILENT after a missed-heartbeat timeout.
func (a *AddressStatus) Silent() {
	if a.State == api.AddressRunning || a.State == api.AddressChecking || a.State == api.AddressUnknown {
		a.State = api.AddressSilent
	}
}

// Isolate advances SILENT addresses through ISOLATING to ISOLATED, one FSM
// tick at a time, per the auto-fence policy.
func (a *AddressStatus) Isolate() {
	switch a.State {
	case api.AddressSilent:
		a.State = api.AddressIsolating
	case api.AddressIsolating:
		a.State = api.AddressIsolated
	}
}

// Recover allows a SILENT address to return to CHECKING when auto-fence is
// disabled and a heartbeat is observed again.
func (a *AddressStatus) Recover() {
	if a.State == api.AddressSilent {
		a.State = api.AddressChecking
	}
}

// IsStale reports whether the address has missed its liveness deadline,
// given the inactivity timeout (inactivity_ticks * tick_period).
func (a *AddressStatus) IsStale(now time.Time, inactivity time.Duration) bool {
	if a.LocalTime.IsZero() {
		return false
	}
	return now.Sub(a.LocalTime) > inactivity
}

// AddLoading increases the address's committed capacity by the given
// expected_loading, clamped to [0, 100].
func (a *AddressStatus) AddLoading(delta int) {
	a.Loading += delta
	if a.Loading < 0 {
		a.Loading = 0
	}
	if a.Loading > 100 {
		a.Loading = 100
	}
}

// SetLoading overwrites the address's reported loading with a fresh
// statistics-event sample, clamped to [0, 100].
func (a *AddressStatus) SetLoading(value int) {
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	a.Loading = value
}

// RemainingCapacity is 100 minus the address's current loading.
func (a *AddressStatus) RemainingCapacity() int {
	return 100 - a.Loading
}
