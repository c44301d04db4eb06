package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/julien6387/supvisors/internal/api"
	"github.com/julien6387/supvisors/internal/commander"
	"github.com/julien6387/supvisors/internal/config"
	"github.com/julien6387/supvisors/internal/fleet"
	"github.com/julien6387/supvisors/internal/fsm"
	"github.com/julien6387/supvisors/internal/strategy"
	"github.com/julien6387/supvisors/internal/supervisor"
	"github.com/julien6387/supvisors/internal/transport"
	"github.com/julien6387/supvisors/pkg/logging"
)

// Listener owns the fleet model and drives it to completion: one ingress
// path applies peer events as they arrive and ticks the FSM on a timer,
// one egress pool dispatches the RPCs that decision emits.
type Listener struct {
	localAddress string
	options      config.Options

	ctx     *fleet.Context
	machine *fsm.FSM
	starter *commander.Starter
	stopper *commander.Stopper
	peer    *peerDispatcher
	bus     transport.PeerTransport
	egress  *egress

	supervisor supervisor.LocalSupervisor
}

// New wires a Listener for one fleet node: its own fleet.Context, a
// Starter/Stopper pair bound to the configured starting strategy, and an
// FSM bound to both.
func New(bus transport.PeerTransport, localAddress string, options config.Options) *Listener {
	fleetCtx := fleet.NewContext(options.AddressList)
	peer := newPeerDispatcher(bus)

	l := &Listener{
		localAddress: localAddress,
		options:      options,
		ctx:          fleetCtx,
		peer:         peer,
		bus:          bus,
		supervisor:   supervisor.LoggingSupervisor{},
	}

	l.starter = commander.NewStarter(peer, l.chooseAddress, options.AddressList, l.forceFatal)
	l.stopper = commander.NewStopper(peer, l.forceUnknown)
	l.starter.SetStopper(l.stopper)
	l.machine = fsm.New(fleetCtx, localAddress, options.AddressList, options, l.starter, l.stopper, peer)
	return l
}

// Context exposes the fleet model for read-only consumers (CLI, shell).
func (l *Listener) Context() *fleet.Context { return l.ctx }

// FSM exposes the state machine for read-only consumers.
func (l *Listener) FSM() *fsm.FSM { return l.machine }

// ApplyAddressSet merges a discovered address set into the fleet model,
// called by the discovery Watcher on startup and every AddressBook change.
// It only ever adds addresses; shrinking the known set at runtime would
// strand processes the FSM still tracks on a removed address.
func (l *Listener) ApplyAddressSet(addresses []string) {
	for _, name := range addresses {
		l.machine.AddAddress(name)
	}
}

// ApplyRuleSet installs parsed application/process rules, called by the
// rules Watcher on load and every reload.
func (l *Listener) ApplyRuleSet(appRules map[string]fleet.ApplicationRules, processRules map[string]fleet.ProcessRules) {
	for name, rules := range appRules {
		l.ctx.SetApplicationRules(name, rules)
	}
	for namespec, rules := range processRules {
		applicationName, processName := splitNamespec(namespec)
		l.ctx.Process(applicationName, processName, rules)
	}
}

// Run starts the ingress loop: it subscribes to the peer transport, ticks
// the FSM on options.TickPeriod, and blocks until ctx is canceled.
func (l *Listener) Run(ctx context.Context) error {
	l.egress = newEgress(ctx, defaultEgressWorkers)
	l.peer.attachEgress(l.egress)
	defer l.egress.close()

	events, err := l.bus.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to peer transport: %w", err)
	}
	if err := l.bus.Serve(ctx, l.localAddress, l.handleRPC); err != nil {
		return fmt.Errorf("serve RPC channel: %w", err)
	}

	l.machine.Start(time.Now())
	ticker := time.NewTicker(l.options.TickPeriodDuration())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			l.handleEvent(ctx, evt)
		case now := <-ticker.C:
			l.publishTick(ctx, now)
			l.machine.Tick(ctx, now, l.ctx.Applications)
		}
	}
}

func (l *Listener) publishTick(ctx context.Context, now time.Time) {
	l.ctx.OnTickEvent(l.localAddress, now)
	if err := l.bus.Publish(ctx, transport.FleetEvent{
		Kind:      transport.KindTick,
		Address:   l.localAddress,
		Timestamp: now,
		Payload:   transport.TickPayload{SenderAddress: l.localAddress, RemoteTime: now},
	}); err != nil {
		logging.Warn("listener", "publish tick failed: %v", err)
	}
}

func (l *Listener) handleEvent(ctx context.Context, evt transport.FleetEvent) {
	switch evt.Kind {
	case transport.KindTick:
		var p transport.TickPayload
		if err := decodePayload(evt.Payload, &p); err != nil {
			logging.Warn("listener", "malformed tick payload: %v", err)
			return
		}
		l.ctx.OnTickEvent(p.SenderAddress, p.RemoteTime)

	case transport.KindProcess:
		var p transport.ProcessEventPayload
		if err := decodePayload(evt.Payload, &p); err != nil {
			logging.Warn("listener", "malformed process event payload: %v", err)
			return
		}
		state := api.ParseProcessState(p.State)
		l.applyProcessEvent(ctx, p.SenderAddress, p.ApplicationName, p.ProcessName, state, p.Expected, fleet.ProcessEvent{
			Address:     p.SenderAddress,
			State:       state,
			Start:       p.Start,
			Stop:        p.Stop,
			Now:         p.Now,
			PID:         p.PID,
			Description: p.Description,
			SpawnErr:    p.SpawnErr,
			Expected:    p.Expected,
		})

	case transport.KindStatistics:
		var p transport.StatisticsPayload
		if err := decodePayload(evt.Payload, &p); err != nil {
			logging.Warn("listener", "malformed statistics payload: %v", err)
			return
		}
		l.ctx.OnStatisticsEvent(p.SenderAddress, p.Loading)
	}
}

// applyProcessEvent is the single path every process state transition goes
// through, whether reported by a peer, forced by Starter.CheckStarting, or
// forced by Stopper.CheckStopping: update the model, then let Starter and
// Stopper advance their own bookkeeping against the new state.
func (l *Listener) applyProcessEvent(ctx context.Context, address, applicationName, processName string, state api.ProcessState, expected bool, evt fleet.ProcessEvent) {
	l.ctx.OnProcessEvent(address, applicationName, processName, evt)
	namespec := applicationName + ":" + processName
	if p, ok := l.ctx.ProcessByNamespec(namespec); ok {
		l.starter.OnEvent(ctx, applicationName, p, state, expected)
		l.stopper.OnEvent(namespec, address, state)
	}
}

func (l *Listener) forceFatal(address, applicationName, processName string) {
	l.applyProcessEvent(context.Background(), address, applicationName, processName, api.ProcessFatal, false, fleet.ProcessEvent{
		Address: address, State: api.ProcessFatal, Now: time.Now(),
	})
}

func (l *Listener) forceUnknown(address, applicationName, processName string) {
	l.applyProcessEvent(context.Background(), address, applicationName, processName, api.ProcessUnknown, false, fleet.ProcessEvent{
		Address: address, State: api.ProcessUnknown, Now: time.Now(),
	})
}

// chooseAddress adapts strategy.ChooseAddress to commander.AddressChooser:
// resolve the allowed address names to live AddressStatus values, then
// apply the configured starting strategy.
func (l *Listener) chooseAddress(_ string, allowedAddresses []string, expectedLoading int) (string, bool) {
	candidates := make([]*fleet.AddressStatus, 0, len(allowedAddresses))
	for _, name := range allowedAddresses {
		if a, ok := l.ctx.Address(name); ok {
			candidates = append(candidates, a)
		}
	}
	chosen, ok := strategy.ChooseAddress(l.options.StartingStrategyValue(), candidates, expectedLoading)
	if ok {
		if a, found := l.ctx.Address(chosen); found {
			a.AddLoading(expectedLoading)
		}
	}
	return chosen, ok
}

func splitNamespec(namespec string) (applicationName, processName string) {
	for i := 0; i < len(namespec); i++ {
		if namespec[i] == ':' {
			return namespec[:i], namespec[i+1:]
		}
	}
	return namespec, ""
}

// decodePayload normalizes a FleetEvent payload into a concrete struct: it
// round-trips through JSON so the same code path handles both an
// already-typed struct (the memory transport) and a decoded
// map[string]interface{} (the valkey transport, coming off the wire).
func decodePayload(payload interface{}, target interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}

// encodeSnapshot serializes a StatusSnapshot for transport in an
// RPCResponse's Message field.
func encodeSnapshot(snapshot transport.StatusSnapshot) (string, error) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
