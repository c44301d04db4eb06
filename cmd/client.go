package cmd

import (
	"context"
	"fmt"

	"github.com/julien6387/supvisors/internal/cli"
	"github.com/julien6387/supvisors/internal/config"
	"github.com/julien6387/supvisors/internal/transport"
)

// newOperatorClient loads Options from --config-path, dials a fresh
// ValkeyTransport, and wraps it as an operator RPC client addressed at
// --target (or the first configured address). Callers own the returned
// transport.PeerTransport and must Close it.
func newOperatorClient(ctx context.Context) (*cli.Client, transport.PeerTransport, error) {
	path := configPathFlag
	if path == "" {
		path = config.GetDefaultConfigPathOrPanic()
	}
	options, err := config.LoadOptions(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	target := targetFlag
	if target == "" {
		if len(options.AddressList) == 0 {
			return nil, nil, fmt.Errorf("no --target given and address_list is empty in configuration")
		}
		target = options.AddressList[0]
	}

	bus, err := transport.NewValkeyTransport(ctx, []string{fmt.Sprintf("127.0.0.1:%d", options.EventPort)})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to fleet transport: %w", err)
	}

	return cli.NewClient(bus, target), bus, nil
}
