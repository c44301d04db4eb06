package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/julien6387/supvisors/pkg/logging"
	"github.com/valkey-io/valkey-go"
)

const (
	channelTick       = "supvisors.tick"
	channelProcess    = "supvisors.process"
	channelStatistics = "supvisors.stats"
	channelRPCPrefix  = "supvisors.rpc."
	channelReplyPrefix = "supvisors.reply."

	callTimeout = 5 * time.Second
)

// wireEnvelope is the JSON-serialized form of a FleetEvent placed on a
// valkey pub/sub channel.
type wireEnvelope struct {
	Kind      FleetEventKind  `json:"kind"`
	Address   string          `json:"address"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

func channelForKind(kind FleetEventKind) string {
	switch kind {
	case KindTick:
		return channelTick
	case KindStatistics:
		return channelStatistics
	default:
		return channelProcess
	}
}

// ValkeyTransport is the default PeerTransport: FleetEvents are published
// and consumed over valkey-go pub/sub channels, and RPC Call implements a
// request/reply pattern over a per-call reply channel.
type ValkeyTransport struct {
	client valkey.Client
}

// NewValkeyTransport dials the given valkey/redis-protocol addresses.
func NewValkeyTransport(ctx context.Context, addresses []string) (*ValkeyTransport, error) {
	client, err := valkey.NewClient(valkey.ClientOption{InitAddress: addresses})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &ValkeyTransport{client: client}, nil
}

func (t *ValkeyTransport) Publish(ctx context.Context, event FleetEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	envelope, err := json.Marshal(wireEnvelope{
		Kind:      event.Kind,
		Address:   event.Address,
		Timestamp: event.Timestamp,
		Payload:   payload,
	})
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}
	channel := channelForKind(event.Kind)
	cmd := t.client.B().Publish().Channel(channel).Message(string(envelope)).Build()
	return t.client.Do(ctx, cmd).Error()
}

func (t *ValkeyTransport) Subscribe(ctx context.Context) (<-chan FleetEvent, error) {
	out := make(chan FleetEvent, 256)
	dedicated, cancel := t.client.Dedicate()

	handler := func(msg valkey.PubSubMessage) {
		var envelope wireEnvelope
		if err := json.Unmarshal([]byte(msg.Message), &envelope); err != nil {
			logging.Warn("transport", "dropping malformed event on channel %s: %v", msg.Channel, err)
			return
		}
		var payload interface{}
		if len(envelope.Payload) > 0 {
			if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
				logging.Warn("transport", "dropping event with malformed payload on channel %s: %v", msg.Channel, err)
				return
			}
		}
		evt := FleetEvent{Kind: envelope.Kind, Address: envelope.Address, Timestamp: envelope.Timestamp, Payload: payload}
		select {
		case out <- evt:
		default:
			logging.Warn("transport", "subscriber channel full, dropping event kind=%s address=%s", evt.Kind, evt.Address)
		}
	}

	wait := dedicated.SetPubSubHooks(valkey.PubSubHooks{
		OnMessage: handler,
	})
	if err := dedicated.Do(ctx, dedicated.B().Subscribe().
		Channel(channelTick, channelProcess, channelStatistics).Build()).Error(); err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	go func() {
		defer close(out)
		defer cancel()
		select {
		case <-ctx.Done():
		case err := <-wait:
			if err != nil {
				logging.Error("transport", err, "pubsub connection closed")
			}
		}
	}()

	return out, nil
}

// Call implements request/reply over valkey pub/sub: the request is
// published on the target's dedicated RPC channel, and the caller blocks on
// a per-request reply channel keyed by the request ID until a response
// arrives or callTimeout elapses.
func (t *ValkeyTransport) Call(ctx context.Context, req RPCRequest) (RPCResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	replyChannel := channelReplyPrefix + req.ID.String()
	dedicated, release := t.client.Dedicate()
	defer release()

	replies := make(chan RPCResponse, 1)
	wait := dedicated.SetPubSubHooks(valkey.PubSubHooks{
		OnMessage: func(msg valkey.PubSubMessage) {
			var resp RPCResponse
			if err := json.Unmarshal([]byte(msg.Message), &resp); err != nil {
				logging.Warn("transport", "dropping malformed RPC reply: %v", err)
				return
			}
			select {
			case replies <- resp:
			default:
			}
		},
	})
	if err := dedicated.Do(ctx, dedicated.B().Subscribe().Channel(replyChannel).Build()).Error(); err != nil {
		return RPCResponse{}, fmt.Errorf("subscribe to reply channel: %w", err)
	}

	body, err := json.Marshal(requestEnvelope{Request: req, ReplyChannel: replyChannel})
	if err != nil {
		return RPCResponse{}, fmt.Errorf("marshal RPC request: %w", err)
	}
	targetChannel := channelRPCPrefix + req.Target
	if err := t.client.Do(ctx, t.client.B().Publish().Channel(targetChannel).Message(string(body)).Build()).Error(); err != nil {
		return RPCResponse{}, fmt.Errorf("publish RPC request: %w", err)
	}

	select {
	case resp := <-replies:
		return resp, nil
	case err := <-wait:
		if err != nil {
			return RPCResponse{}, fmt.Errorf("reply subscription closed: %w", err)
		}
		return RPCResponse{}, fmt.Errorf("reply subscription closed before response")
	case <-ctx.Done():
		return RPCResponse{}, ctx.Err()
	}
}

// Serve subscribes to this node's own RPC channel (supvisors.rpc.<address>)
// and answers every incoming requestEnvelope with handler, publishing the
// result on the envelope's reply channel. It runs until ctx is canceled.
func (t *ValkeyTransport) Serve(ctx context.Context, localAddress string, handler RPCHandler) error {
	dedicated, cancel := t.client.Dedicate()

	onMessage := func(msg valkey.PubSubMessage) {
		var envelope requestEnvelope
		if err := json.Unmarshal([]byte(msg.Message), &envelope); err != nil {
			logging.Warn("transport", "dropping malformed RPC request: %v", err)
			return
		}
		go func() {
			resp, err := handler(ctx, envelope.Request)
			if err != nil {
				resp = RPCResponse{ID: envelope.Request.ID, OK: false, Fault: "INTERNAL", Message: err.Error()}
			}
			body, err := json.Marshal(resp)
			if err != nil {
				logging.Warn("transport", "marshal RPC response: %v", err)
				return
			}
			if err := t.client.Do(ctx, t.client.B().Publish().
				Channel(envelope.ReplyChannel).Message(string(body)).Build()).Error(); err != nil {
				logging.Warn("transport", "publish RPC response: %v", err)
			}
		}()
	}

	wait := dedicated.SetPubSubHooks(valkey.PubSubHooks{OnMessage: onMessage})
	channel := channelRPCPrefix + localAddress
	if err := dedicated.Do(ctx, dedicated.B().Subscribe().Channel(channel).Build()).Error(); err != nil {
		cancel()
		return fmt.Errorf("subscribe to RPC channel: %w", err)
	}

	go func() {
		defer cancel()
		select {
		case <-ctx.Done():
		case err := <-wait:
			if err != nil {
				logging.Error("transport", err, "RPC pubsub connection closed")
			}
		}
	}()

	return nil
}

// requestEnvelope is what arrives on a node's supvisors.rpc.<address>
// channel: the request plus the channel its reply must be published on.
type requestEnvelope struct {
	Request      RPCRequest `json:"request"`
	ReplyChannel string     `json:"reply_channel"`
}

func (t *ValkeyTransport) Close() error {
	t.client.Close()
	return nil
}
