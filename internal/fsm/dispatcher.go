package fsm

import "context"

// FleetDispatcher issues the fleet-wide RPCs the FSM drives outside the
// Commander's start/stop protocol: authorization handshakes, address
// isolation, and terminal restart/shutdown.
type FleetDispatcher interface {
	CheckAddress(ctx context.Context, address string) error
	IsolateAddresses(ctx context.Context, addresses []string) error
	Restart(ctx context.Context, address string) error
	Shutdown(ctx context.Context, address string) error
}
