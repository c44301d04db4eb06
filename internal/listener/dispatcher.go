package listener

import (
	"context"
	"errors"

	"github.com/julien6387/supvisors/internal/transport"
	"github.com/julien6387/supvisors/pkg/logging"
)

// peerDispatcher adapts a transport.PeerTransport into the RPC surface
// Starter, Stopper, and the FSM each expect, so neither package needs to
// know about the wire protocol underneath. Every call is handed to the
// egress pool and the RPC itself runs asynchronously: callers resume
// progress from the process events that follow, not from this call
// returning, per Dispatcher's non-blocking contract.
type peerDispatcher struct {
	transport transport.PeerTransport
	egress    *egress
}

func newPeerDispatcher(t transport.PeerTransport) *peerDispatcher {
	return &peerDispatcher{transport: t}
}

// attachEgress wires the egress pool once Run creates it; dispatcher calls
// made before this point (there are none in practice) would be dropped.
func (d *peerDispatcher) attachEgress(e *egress) {
	d.egress = e
}

var errEgressNotReady = errors.New("egress pool not attached")

func (d *peerDispatcher) call(verb transport.RPCVerb, target string, payload map[string]string) error {
	if d.egress == nil {
		return errEgressNotReady
	}
	req := transport.NewRPCRequest(verb, target, payload)
	d.egress.submit(func(ctx context.Context) {
		resp, err := d.transport.Call(ctx, req)
		if err != nil {
			logging.Warn("listener", "%s on %s failed: %v", verb, target, err)
			return
		}
		if !resp.OK {
			logging.Warn("listener", "%s on %s rejected: %s: %s", verb, target, resp.Fault, resp.Message)
		}
	})
	return nil
}

// StartProcess implements commander.Dispatcher.
func (d *peerDispatcher) StartProcess(_ context.Context, address, namespec, extraArgs string) error {
	return d.call(transport.VerbStartProcess, address, map[string]string{
		"namespec":   namespec,
		"extra_args": extraArgs,
	})
}

// StopProcess implements commander.Dispatcher.
func (d *peerDispatcher) StopProcess(_ context.Context, address, namespec string) error {
	return d.call(transport.VerbStopProcess, address, map[string]string{"namespec": namespec})
}

// CheckAddress implements fsm.FleetDispatcher.
func (d *peerDispatcher) CheckAddress(_ context.Context, address string) error {
	return d.call(transport.VerbCheckAddress, address, nil)
}

// IsolateAddresses implements fsm.FleetDispatcher.
func (d *peerDispatcher) IsolateAddresses(_ context.Context, addresses []string) error {
	for _, address := range addresses {
		if err := d.call(transport.VerbIsolateAddresses, address, nil); err != nil {
			return err
		}
	}
	return nil
}

// Restart implements fsm.FleetDispatcher.
func (d *peerDispatcher) Restart(_ context.Context, address string) error {
	return d.call(transport.VerbRestart, address, nil)
}

// Shutdown implements fsm.FleetDispatcher.
func (d *peerDispatcher) Shutdown(_ context.Context, address string) error {
	return d.call(transport.VerbShutdown, address, nil)
}
