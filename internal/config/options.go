package config

import (
	"time"

	"github.com/julien6387/supvisors/internal/api"
)

// Options holds the recognized configuration options for a fleet node, per
// the external interfaces table: address list, transport ports, timeouts,
// and default strategies.
type Options struct {
	AddressList           []string `yaml:"address_list"`
	RulesFile             string   `yaml:"rules_file"`
	InternalPort           int     `yaml:"internal_port"`
	EventPort              int     `yaml:"event_port"`
	AutoFence              bool    `yaml:"auto_fence"`
	SynchroTimeout         int     `yaml:"synchro_timeout"`
	ConciliationStrategy   string  `yaml:"conciliation_strategy"`
	StartingStrategy       string  `yaml:"starting_strategy"`
	StatsPeriods           []int   `yaml:"stats_periods"`
	StatsHisto             int     `yaml:"stats_histo"`
	TickPeriod             int     `yaml:"tick_period"`
	InactivityTicks        int     `yaml:"inactivity_ticks"`
	DiscoveryNamespace     string  `yaml:"discovery_namespace"`
}

// GetDefaultOptions returns the option set with every default from the
// external interfaces table applied.
func GetDefaultOptions() Options {
	return Options{
		AddressList:          nil,
		RulesFile:            "",
		InternalPort:         65001,
		EventPort:            65002,
		AutoFence:            false,
		SynchroTimeout:       15,
		ConciliationStrategy: "USER",
		StartingStrategy:     "CONFIG",
		StatsPeriods:         []int{10},
		StatsHisto:           200,
		TickPeriod:           5,
		InactivityTicks:      2,
		DiscoveryNamespace:   "",
	}
}

// SynchroTimeoutDuration converts SynchroTimeout into a time.Duration.
func (o Options) SynchroTimeoutDuration() time.Duration {
	return time.Duration(o.SynchroTimeout) * time.Second
}

// TickPeriodDuration converts TickPeriod into a time.Duration.
func (o Options) TickPeriodDuration() time.Duration {
	return time.Duration(o.TickPeriod) * time.Second
}

// InactivityDuration is the liveness timeout: inactivity_ticks * tick_period.
func (o Options) InactivityDuration() time.Duration {
	return time.Duration(o.InactivityTicks) * o.TickPeriodDuration()
}

// ConciliationStrategyValue parses ConciliationStrategy, falling back to
// USER (no-op, await manual intervention) if the configured name is
// invalid. Validate() should already have rejected bad names before this
// is ever consulted at runtime.
func (o Options) ConciliationStrategyValue() api.ConciliationStrategy {
	s, err := api.ParseConciliationStrategy(o.ConciliationStrategy)
	if err != nil {
		return api.ConciliationUser
	}
	return s
}

// StartingStrategyValue parses StartingStrategy, falling back to CONFIG.
func (o Options) StartingStrategyValue() api.StartingStrategy {
	s, err := api.ParseStartingStrategy(o.StartingStrategy)
	if err != nil {
		return api.StrategyConfig
	}
	return s
}
