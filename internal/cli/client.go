// Package cli is the operator-facing RPC client: it wraps a
// transport.PeerTransport with the request/response shape the `supvisors`
// commands need (status snapshots, application start/stop, conciliation),
// independent of cmd's flag parsing and table rendering.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/julien6387/supvisors/internal/transport"
)

// Client issues operator RPCs against one fleet node.
type Client struct {
	bus    transport.PeerTransport
	target string
}

// NewClient wraps bus, addressing every call at target (any node in the
// address list; every node answers STATUS/START_APPLICATION/etc identically
// except for the snapshot's Master/FleetState fields, which reflect that
// node's own view).
func NewClient(bus transport.PeerTransport, target string) *Client {
	return &Client{bus: bus, target: target}
}

// Status fetches the fleet snapshot as observed by the target node.
func (c *Client) Status(ctx context.Context) (transport.StatusSnapshot, error) {
	resp, err := c.call(ctx, transport.VerbStatus, nil)
	if err != nil {
		return transport.StatusSnapshot{}, err
	}
	var snapshot transport.StatusSnapshot
	if err := json.Unmarshal([]byte(resp.Message), &snapshot); err != nil {
		return transport.StatusSnapshot{}, fmt.Errorf("decode status snapshot: %w", err)
	}
	return snapshot, nil
}

// StartApplication requests the target node start every process of
// application name in sequence order.
func (c *Client) StartApplication(ctx context.Context, name string) error {
	_, err := c.call(ctx, transport.VerbStartApplication, map[string]string{"application": name})
	return err
}

// StopApplication requests the target node stop every process of
// application name; the stop requests are not ordered by stop_sequence.
func (c *Client) StopApplication(ctx context.Context, name string) error {
	_, err := c.call(ctx, transport.VerbStopApplication, map[string]string{"application": name})
	return err
}

// Conciliate resolves a USER-strategy conflict by keeping namespec running
// on keepAddress and stopping every other address running it.
func (c *Client) Conciliate(ctx context.Context, namespec, keepAddress string) error {
	_, err := c.call(ctx, transport.VerbConciliate, map[string]string{"namespec": namespec, "keep_address": keepAddress})
	return err
}

func (c *Client) call(ctx context.Context, verb transport.RPCVerb, payload map[string]string) (transport.RPCResponse, error) {
	req := transport.NewRPCRequest(verb, c.target, payload)
	resp, err := c.bus.Call(ctx, req)
	if err != nil {
		return transport.RPCResponse{}, fmt.Errorf("%s: %w", verb, err)
	}
	if !resp.OK {
		return transport.RPCResponse{}, fmt.Errorf("%s rejected: %s: %s", verb, resp.Fault, resp.Message)
	}
	return resp, nil
}
