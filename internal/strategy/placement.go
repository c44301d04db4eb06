package strategy

import (
	"sort"

	"github.com/julien6387/supvisors/internal/api"
	"github.com/julien6387/supvisors/internal/fleet"
)

// ChooseAddress selects a placement address for a process among the
// candidate RUNNING addresses, per the given starting strategy:
//
//   - CONFIG: first RUNNING address in declared order with enough capacity.
//   - LESS_LOADED: RUNNING address with the lowest loading that still fits.
//   - MOST_LOADED: RUNNING address with the highest loading that still fits.
//
// candidates must already be filtered to the process's allowed address set
// (ProcessRules.Addresses) in declared order. Returns ("", false) when no
// candidate has sufficient remaining capacity.
func ChooseAddress(strategy api.StartingStrategy, candidates []*fleet.AddressStatus, expectedLoading int) (string, bool) {
	eligible := make([]*fleet.AddressStatus, 0, len(candidates))
	for _, a := range candidates {
		if a.State != api.AddressRunning {
			continue
		}
		if a.RemainingCapacity() >= expectedLoading {
			eligible = append(eligible, a)
		}
	}
	if len(eligible) == 0 {
		return "", false
	}

	switch strategy {
	case api.StrategyConfig:
		return eligible[0].Name, true
	case api.StrategyLessLoaded:
		sort.SliceStable(eligible, func(i, j int) bool { return eligible[i].Loading < eligible[j].Loading })
		return eligible[0].Name, true
	case api.StrategyMostLoaded:
		sort.SliceStable(eligible, func(i, j int) bool { return eligible[i].Loading > eligible[j].Loading })
		return eligible[0].Name, true
	default:
		return "", false
	}
}
