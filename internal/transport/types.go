package transport

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FleetEventKind tags the payload carried on the internal pub/sub bus.
type FleetEventKind string

const (
	KindTick       FleetEventKind = "TICK"
	KindProcess    FleetEventKind = "PROCESS"
	KindStatistics FleetEventKind = "STATISTICS"
)

// FleetEvent is the wire envelope published on the internal pub/sub bus.
type FleetEvent struct {
	Kind      FleetEventKind
	Address   string
	Payload   interface{}
	Timestamp time.Time
}

// TickPayload is the TICK event payload: a heartbeat carrying the sender's
// remote clock reading.
type TickPayload struct {
	SenderAddress string
	RemoteTime    time.Time
}

// ProcessEventPayload is the PROCESS event payload, matching the underlying
// supervisor's process-event schema.
type ProcessEventPayload struct {
	SenderAddress   string
	ApplicationName string
	ProcessName     string
	State           string
	Start           time.Time
	Stop            time.Time
	Now             time.Time
	PID             int
	Description     string
	SpawnErr        string
	Expected        bool
}

// StatisticsPayload is the STATISTICS event payload: a periodic loading
// sample for one address.
type StatisticsPayload struct {
	SenderAddress string
	Loading       int
}

// RPCVerb identifies a deferred command placed on the egress queue.
type RPCVerb string

const (
	VerbCheckAddress     RPCVerb = "CHECK_ADDRESS"
	VerbIsolateAddresses RPCVerb = "ISOLATE_ADDRESSES"
	VerbStartProcess     RPCVerb = "START_PROCESS"
	VerbStopProcess      RPCVerb = "STOP_PROCESS"
	VerbRestart          RPCVerb = "RESTART"
	VerbShutdown         RPCVerb = "SHUTDOWN"

	// Operator-facing verbs, issued by the CLI rather than by a peer's
	// Starter/Stopper/FSM.
	VerbStatus           RPCVerb = "STATUS"
	VerbStartApplication RPCVerb = "START_APPLICATION"
	VerbStopApplication  RPCVerb = "STOP_APPLICATION"
	VerbConciliate       RPCVerb = "CONCILIATE"
)

// RPCRequest is the concrete value placed on the egress queue for a
// deferred command to a peer.
type RPCRequest struct {
	ID        uuid.UUID
	Verb      RPCVerb
	Target    string
	Payload   map[string]string
	IssuedAt  time.Time
}

// NewRPCRequest stamps a fresh correlation ID and issue time.
func NewRPCRequest(verb RPCVerb, target string, payload map[string]string) RPCRequest {
	return RPCRequest{
		ID:       uuid.New(),
		Verb:     verb,
		Target:   target,
		Payload:  payload,
		IssuedAt: time.Now(),
	}
}

// RPCResponse is the reply to an RPCRequest.
type RPCResponse struct {
	ID      uuid.UUID
	OK      bool
	Fault   string
	Message string
}

// RPCHandler answers an RPCRequest addressed to the local node.
type RPCHandler func(ctx context.Context, req RPCRequest) (RPCResponse, error)

// PeerTransport is the interface the rest of the repository depends on for
// peer communication: a non-blocking publish side, a subscription side for
// the ingress actor, a blocking request/response Call for the egress actor,
// and a Serve side that answers RPCs addressed to this node (from a peer's
// egress actor, or from the operator CLI).
type PeerTransport interface {
	Publish(ctx context.Context, event FleetEvent) error
	Subscribe(ctx context.Context) (<-chan FleetEvent, error)
	Call(ctx context.Context, req RPCRequest) (RPCResponse, error)
	Serve(ctx context.Context, localAddress string, handler RPCHandler) error
	Close() error
}
