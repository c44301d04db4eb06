package commander

import "context"

// Dispatcher issues the asynchronous start_process/stop_process RPCs to a
// peer address. Implementations must not block the caller beyond enqueueing
// the request; Starter/Stopper resume progress from process events, not
// from the RPC's own completion.
type Dispatcher interface {
	StartProcess(ctx context.Context, address, namespec, extraArgs string) error
	StopProcess(ctx context.Context, address, namespec string) error
}

// AddressChooser picks a placement address for a process among its
// allowed candidates, per the active starting strategy. It returns
// ("", false) when no address has sufficient capacity.
type AddressChooser func(namespec string, allowedAddresses []string, expectedLoading int) (string, bool)
