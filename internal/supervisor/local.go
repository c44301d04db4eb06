package supervisor

import (
	"context"

	"github.com/julien6387/supvisors/pkg/logging"
)

// LocalSupervisor starts and stops a process on the local host, on behalf
// of an incoming START_PROCESS/STOP_PROCESS RPC. The concrete local process
// supervisor it talks to (spawning, signaling, reaping) is out of scope;
// implementations plug in whatever local control plane a deployment uses.
type LocalSupervisor interface {
	StartProcess(ctx context.Context, namespec string, extraArgs string) error
	StopProcess(ctx context.Context, namespec string) error
	Restart(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// LoggingSupervisor is the default LocalSupervisor: it logs the command and
// reports success, standing in for a real local supervisor integration.
type LoggingSupervisor struct{}

func (LoggingSupervisor) StartProcess(_ context.Context, namespec string, extraArgs string) error {
	logging.Info("supervisor", "start %s %s", namespec, extraArgs)
	return nil
}

func (LoggingSupervisor) StopProcess(_ context.Context, namespec string) error {
	logging.Info("supervisor", "stop %s", namespec)
	return nil
}

func (LoggingSupervisor) Restart(_ context.Context) error {
	logging.Info("supervisor", "restart requested")
	return nil
}

func (LoggingSupervisor) Shutdown(_ context.Context) error {
	logging.Info("supervisor", "shutdown requested")
	return nil
}
