package strategy

import (
	"github.com/julien6387/supvisors/internal/api"
	"github.com/julien6387/supvisors/internal/fleet"
)

// ConciliationAction is the decision produced by applying a conciliation
// strategy to one conflicting process: which addresses to stop, and
// whether a fresh start should be scheduled once they stop, or the
// process's running_failure_strategy should be applied instead.
type ConciliationAction struct {
	Namespec         string
	StopAddresses    []string
	ScheduleRestart  bool
	ApplyFailure     bool
	Await            bool // USER strategy: take no action, await manual intervention
}

// Conciliate applies a conciliation strategy to a single conflicting
// process and returns the action to carry out.
func Conciliate(strategyKind api.ConciliationStrategy, p *fleet.ProcessStatus) ConciliationAction {
	namespec := p.Namespec()
	running := p.RunningAddressesByStartTime() // oldest first

	switch strategyKind {
	case api.ConciliationUser:
		return ConciliationAction{Namespec: namespec, Await: true}

	case api.ConciliationSenicide:
		// keep the oldest instance, stop the rest
		if len(running) <= 1 {
			return ConciliationAction{Namespec: namespec}
		}
		return ConciliationAction{Namespec: namespec, StopAddresses: running[1:]}

	case api.ConciliationInfanticide:
		// keep the newest instance, stop the rest
		if len(running) <= 1 {
			return ConciliationAction{Namespec: namespec}
		}
		return ConciliationAction{Namespec: namespec, StopAddresses: running[:len(running)-1]}

	case api.ConciliationStop:
		return ConciliationAction{Namespec: namespec, StopAddresses: running}

	case api.ConciliationRestart:
		return ConciliationAction{Namespec: namespec, StopAddresses: running, ScheduleRestart: true}

	case api.ConciliationFailure:
		return ConciliationAction{Namespec: namespec, StopAddresses: running, ApplyFailure: true}

	default:
		return ConciliationAction{Namespec: namespec, Await: true}
	}
}
