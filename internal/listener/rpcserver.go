package listener

import (
	"context"
	"fmt"

	"github.com/julien6387/supvisors/internal/api"
	"github.com/julien6387/supvisors/internal/fleet"
	"github.com/julien6387/supvisors/internal/transport"
)

// handleRPC answers an RPCRequest addressed to this node: peer-to-peer
// commands issued by another node's Starter/Stopper/FSM (START_PROCESS,
// STOP_PROCESS, CHECK_ADDRESS, ISOLATE_ADDRESSES, RESTART, SHUTDOWN) and
// operator commands issued by the CLI (STATUS, START_APPLICATION,
// STOP_APPLICATION, CONCILIATE).
func (l *Listener) handleRPC(ctx context.Context, req transport.RPCRequest) (transport.RPCResponse, error) {
	switch req.Verb {
	case transport.VerbStartProcess:
		err := l.supervisor.StartProcess(ctx, req.Payload["namespec"], req.Payload["extra_args"])
		return rpcResult(req, err)

	case transport.VerbStopProcess:
		err := l.supervisor.StopProcess(ctx, req.Payload["namespec"])
		return rpcResult(req, err)

	case transport.VerbCheckAddress:
		return transport.RPCResponse{ID: req.ID, OK: true}, nil

	case transport.VerbIsolateAddresses:
		return transport.RPCResponse{ID: req.ID, OK: true}, nil

	case transport.VerbRestart:
		err := l.supervisor.Restart(ctx)
		return rpcResult(req, err)

	case transport.VerbShutdown:
		err := l.supervisor.Shutdown(ctx)
		return rpcResult(req, err)

	case transport.VerbStatus:
		return l.handleStatus(req)

	case transport.VerbStartApplication:
		return l.handleStartApplication(ctx, req)

	case transport.VerbStopApplication:
		return l.handleStopApplication(ctx, req)

	case transport.VerbConciliate:
		err := l.machine.ConciliateUser(ctx, req.Payload["namespec"], req.Payload["keep_address"])
		return rpcResult(req, err)

	default:
		return transport.RPCResponse{ID: req.ID, OK: false, Fault: api.FaultBadStrategy.String(), Message: fmt.Sprintf("unknown verb %q", req.Verb)}, nil
	}
}

func rpcResult(req transport.RPCRequest, err error) (transport.RPCResponse, error) {
	if err != nil {
		return transport.RPCResponse{ID: req.ID, OK: false, Fault: "FAILED", Message: err.Error()}, nil
	}
	return transport.RPCResponse{ID: req.ID, OK: true}, nil
}

func (l *Listener) handleStatus(req transport.RPCRequest) (transport.RPCResponse, error) {
	snapshot := transport.StatusSnapshot{
		FleetState: l.machine.State().String(),
	}
	snapshot.Master = l.ctx.MasterAddress()
	for _, a := range l.ctx.Addresses() {
		snapshot.Addresses = append(snapshot.Addresses, transport.AddressSnapshot{
			Name: a.Name, State: a.StateString(), Loading: a.Loading,
		})
	}
	for _, app := range l.ctx.Applications() {
		as := transport.ApplicationSnapshot{Name: app.ApplicationName, State: app.State.String()}
		for _, p := range app.Processes {
			as.Processes = append(as.Processes, transport.ProcessSnapshot{
				Namespec: p.Namespec(), State: p.State.String(), Addresses: p.Addresses(),
				Description: p.LatestDescription(),
			})
		}
		snapshot.Applications = append(snapshot.Applications, as)
	}

	message, err := encodeSnapshot(snapshot)
	if err != nil {
		return transport.RPCResponse{}, err
	}
	return transport.RPCResponse{ID: req.ID, OK: true, Message: message}, nil
}

func (l *Listener) handleStartApplication(ctx context.Context, req transport.RPCRequest) (transport.RPCResponse, error) {
	name := req.Payload["application"]
	var app *fleet.ApplicationStatus
	for _, candidate := range l.ctx.Applications() {
		if candidate.ApplicationName == name {
			app = candidate
			break
		}
	}
	if app == nil {
		return transport.RPCResponse{ID: req.ID, OK: false, Fault: api.FaultBadAddress.String(), Message: fmt.Sprintf("unknown application %q", name)}, nil
	}
	l.starter.StartApplications(ctx, []*fleet.ApplicationStatus{app})
	return transport.RPCResponse{ID: req.ID, OK: true}, nil
}

func (l *Listener) handleStopApplication(ctx context.Context, req transport.RPCRequest) (transport.RPCResponse, error) {
	name := req.Payload["application"]
	var app *fleet.ApplicationStatus
	for _, candidate := range l.ctx.Applications() {
		if candidate.ApplicationName == name {
			app = candidate
			break
		}
	}
	if app == nil {
		return transport.RPCResponse{ID: req.ID, OK: false, Fault: api.FaultBadAddress.String(), Message: fmt.Sprintf("unknown application %q", name)}, nil
	}
	processes := make([]*fleet.ProcessStatus, 0, len(app.Processes))
	for _, p := range app.Processes {
		processes = append(processes, p)
	}
	l.stopper.StopApplication(ctx, processes)
	return transport.RPCResponse{ID: req.ID, OK: true}, nil
}
