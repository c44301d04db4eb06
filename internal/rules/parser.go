package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/julien6387/supvisors/internal/api"
	"github.com/julien6387/supvisors/internal/fleet"
)

// document is the on-disk YAML shape of the rules file.
type document struct {
	Applications []applicationDoc `yaml:"applications"`
}

type applicationDoc struct {
	Name                    string       `yaml:"name"`
	StartSequence           int          `yaml:"start_sequence"`
	StopSequence            int          `yaml:"stop_sequence"`
	StartingFailureStrategy string       `yaml:"starting_failure_strategy"`
	RunningFailureStrategy  string       `yaml:"running_failure_strategy"`
	Processes               []processDoc `yaml:"processes"`
}

type processDoc struct {
	Name                    string   `yaml:"name"`
	Addresses               []string `yaml:"addresses"`
	StartSequence           int      `yaml:"start_sequence"`
	StopSequence            int      `yaml:"stop_sequence"`
	Required                bool     `yaml:"required"`
	WaitExit                bool     `yaml:"wait_exit"`
	ExpectedLoading         int      `yaml:"expected_loading"`
	StartingFailureStrategy string   `yaml:"starting_failure_strategy"`
	RunningFailureStrategy  string   `yaml:"running_failure_strategy"`
}

// RuleSet is the parsed, validated form of a rules file: application rules
// keyed by application name, process rules keyed by namespec
// ("application:process").
type RuleSet struct {
	Applications map[string]fleet.ApplicationRules
	Processes    map[string]fleet.ProcessRules
}

// Parse reads and validates a rules file at path.
func Parse(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("read rules file %s: %w", path, err)
	}
	return ParseBytes(data)
}

// ParseBytes parses an in-memory rules document. Parse calls it after
// reading the file, including on each debounced Watcher reload.
func ParseBytes(data []byte) (RuleSet, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return RuleSet{}, fmt.Errorf("parse rules document: %w", err)
	}

	set := RuleSet{
		Applications: make(map[string]fleet.ApplicationRules),
		Processes:    make(map[string]fleet.ProcessRules),
	}

	for _, app := range doc.Applications {
		if app.Name == "" {
			return RuleSet{}, fmt.Errorf("rules document: application with empty name")
		}

		startingFailure := api.StartingFailureAbort
		if app.StartingFailureStrategy != "" {
			sf, err := api.ParseStartingFailureStrategy(app.StartingFailureStrategy)
			if err != nil {
				return RuleSet{}, fmt.Errorf("application %s: %w", app.Name, err)
			}
			startingFailure = sf
		}
		runningFailure := api.RunningFailureContinue
		if app.RunningFailureStrategy != "" {
			rf, err := api.ParseRunningFailureStrategy(app.RunningFailureStrategy)
			if err != nil {
				return RuleSet{}, fmt.Errorf("application %s: %w", app.Name, err)
			}
			runningFailure = rf
		}

		set.Applications[app.Name] = fleet.ApplicationRules{
			StartSequence:           app.StartSequence,
			StopSequence:            app.StopSequence,
			StartingFailureStrategy: startingFailure,
			RunningFailureStrategy:  runningFailure,
		}

		for _, proc := range app.Processes {
			if proc.Name == "" {
				return RuleSet{}, fmt.Errorf("application %s: process with empty name", app.Name)
			}

			procStartingFailure := startingFailure
			if proc.StartingFailureStrategy != "" {
				sf, err := api.ParseStartingFailureStrategy(proc.StartingFailureStrategy)
				if err != nil {
					return RuleSet{}, fmt.Errorf("process %s:%s: %w", app.Name, proc.Name, err)
				}
				procStartingFailure = sf
			}
			procRunningFailure := runningFailure
			if proc.RunningFailureStrategy != "" {
				rf, err := api.ParseRunningFailureStrategy(proc.RunningFailureStrategy)
				if err != nil {
					return RuleSet{}, fmt.Errorf("process %s:%s: %w", app.Name, proc.Name, err)
				}
				procRunningFailure = rf
			}

			addresses := proc.Addresses
			if len(addresses) == 0 {
				addresses = []string{"*"}
			}

			namespec := app.Name + ":" + proc.Name
			set.Processes[namespec] = fleet.ProcessRules{
				Addresses:               addresses,
				StartSequence:           proc.StartSequence,
				StopSequence:            proc.StopSequence,
				Required:                proc.Required,
				WaitExit:                proc.WaitExit,
				ExpectedLoading:         proc.ExpectedLoading,
				StartingFailureStrategy: procStartingFailure,
				RunningFailureStrategy:  procRunningFailure,
			}
		}
	}

	return set, nil
}
