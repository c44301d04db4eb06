// Package app bootstraps one fleet node: it loads configuration, wires
// logging, resolves the node's own identity against the configured address
// list, builds the peer transport, and assembles the Listener that drives
// the FSM for as long as the process runs.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/julien6387/supvisors/internal/config"
	"github.com/julien6387/supvisors/internal/discovery"
	"github.com/julien6387/supvisors/internal/fleet"
	"github.com/julien6387/supvisors/internal/listener"
	"github.com/julien6387/supvisors/internal/rules"
	"github.com/julien6387/supvisors/internal/transport"
	"github.com/julien6387/supvisors/pkg/logging"
)

// Config holds the command-line-derived settings that shape bootstrap,
// independent of the loaded Options (address list, timeouts, strategies).
type Config struct {
	ConfigPath string
	Debug      bool
	Silent     bool
}

// Application is the running fleet node: a Listener bound to its own
// identity, plus an optional rules file watcher feeding it application and
// process rules.
type Application struct {
	options      config.Options
	localAddress string
	node         *listener.Listener
	peer         transport.PeerTransport
	rulesWatcher *rules.Watcher
	discovery    *discovery.Watcher
}

// NewApplication performs the bootstrap sequence: configure logging, load
// Options, resolve local identity, connect the peer transport, and wire the
// Listener. Watching the rules file and running discovery start in Run.
func NewApplication(cfg *Config) (*Application, error) {
	logLevel := logging.LevelInfo
	if cfg.Debug {
		logLevel = logging.LevelDebug
	}
	var output io.Writer = os.Stdout
	if cfg.Silent {
		output = io.Discard
	}
	logging.InitForCLI(logLevel, output)

	path := cfg.ConfigPath
	if path == "" {
		path = config.GetDefaultConfigPathOrPanic()
	}
	options, err := config.LoadOptions(path)
	if err != nil {
		logging.Error("bootstrap", err, "failed to load configuration from %s", path)
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	mapper := fleet.NewAddressMapper(options.AddressList, nil)
	localAddress, err := mapper.LocalAddress()
	if err != nil {
		logging.Error("bootstrap", err, "failed to resolve local address identity")
		return nil, fmt.Errorf("resolve local address: %w", err)
	}
	logging.Info("bootstrap", "resolved local address: %s", localAddress)

	peer, err := transport.NewValkeyTransport(context.Background(), []string{fmt.Sprintf("127.0.0.1:%d", options.EventPort)})
	if err != nil {
		logging.Error("bootstrap", err, "failed to connect peer transport")
		return nil, fmt.Errorf("connect peer transport: %w", err)
	}

	node := listener.New(peer, localAddress, options)

	app := &Application{
		options:      options,
		localAddress: localAddress,
		node:         node,
		peer:         peer,
	}

	if options.RulesFile != "" {
		app.rulesWatcher = rules.NewWatcher(options.RulesFile)
	}

	if options.DiscoveryNamespace != "" {
		if !discovery.IsKubernetesAvailable() {
			logging.Warn("bootstrap", "discovery_namespace %q set but no Kubernetes cluster is reachable, skipping AddressBook discovery", options.DiscoveryNamespace)
		} else {
			restConfig, restErr := discovery.GetRestConfig()
			if restErr != nil {
				logging.Warn("bootstrap", "discovery_namespace set but failed to load kube config: %v", restErr)
			} else {
				watcher, watchErr := discovery.NewWatcher(restConfig, options.DiscoveryNamespace)
				if watchErr != nil {
					logging.Warn("bootstrap", "failed to create AddressBook watcher: %v", watchErr)
				} else {
					app.discovery = watcher
				}
			}
		}
	}

	return app, nil
}

// Run starts the rules watcher (if configured) and the Listener's main
// loop, blocking until ctx is canceled.
func (a *Application) Run(ctx context.Context) error {
	defer a.peer.Close()

	if a.rulesWatcher != nil {
		ruleSets, err := a.rulesWatcher.Start(ctx)
		if err != nil {
			return fmt.Errorf("start rules watcher: %w", err)
		}
		go func() {
			for set := range ruleSets {
				a.node.ApplyRuleSet(set.Applications, set.Processes)
			}
		}()
	}

	if a.discovery != nil {
		addressSets, err := a.discovery.Start(ctx)
		if err != nil {
			return fmt.Errorf("start discovery watcher: %w", err)
		}
		go func() {
			for set := range addressSets {
				a.node.ApplyAddressSet(set)
			}
		}()
	}

	return a.node.Run(ctx)
}

// Listener exposes the underlying Listener for the CLI/shell to query
// fleet state without re-resolving configuration.
func (a *Application) Listener() *listener.Listener { return a.node }
