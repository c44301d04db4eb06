package config

import (
	"fmt"

	"github.com/julien6387/supvisors/internal/api"
)

// ValidationErrors accumulates option validation failures so the loader can
// report every problem at once instead of failing on the first one.
type ValidationErrors struct {
	Errors []string
}

func (v *ValidationErrors) add(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return "no validation errors"
	}
	msg := v.Errors[0]
	if len(v.Errors) > 1 {
		msg = fmt.Sprintf("%s (and %d more)", msg, len(v.Errors)-1)
	}
	return msg
}

// Validate checks Options against the ranges in the external interfaces
// table. When any check fails it returns a ConfigurationError whose Message
// is the accumulated ValidationErrors text.
func (o Options) Validate() error {
	var errs ValidationErrors

	if len(o.AddressList) == 0 {
		errs.add("address_list must contain at least one address")
	}

	if o.SynchroTimeout < 1 || o.SynchroTimeout > 1000 {
		errs.add("synchro_timeout must be between 1 and 1000, got %d", o.SynchroTimeout)
	}

	if len(o.StatsPeriods) < 1 || len(o.StatsPeriods) > 3 {
		errs.add("stats_periods must list between 1 and 3 values, got %d", len(o.StatsPeriods))
	}
	for _, p := range o.StatsPeriods {
		if p < 5 || p > 3600 {
			errs.add("stats_periods value %d must be between 5 and 3600", p)
		}
		if p%5 != 0 {
			errs.add("stats_periods value %d must be a multiple of 5", p)
		}
	}

	if o.StatsHisto < 10 || o.StatsHisto > 1500 {
		errs.add("stats_histo must be between 10 and 1500, got %d", o.StatsHisto)
	}

	if _, err := api.ParseStartingStrategy(o.StartingStrategy); err != nil {
		errs.add("starting_strategy %q is invalid", o.StartingStrategy)
	}
	if _, err := api.ParseConciliationStrategy(o.ConciliationStrategy); err != nil {
		errs.add("conciliation_strategy %q is invalid", o.ConciliationStrategy)
	}

	if errs.HasErrors() {
		return NewConfigurationError("", "config.yaml", "fleet", "options", "validation", errs.Error())
	}
	return nil
}
