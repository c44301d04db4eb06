package transport

import (
	"context"
	"sync"
)

// MemoryTransport is an in-process PeerTransport backed by buffered
// channels, used by unit tests and single-process demos in place of a real
// valkey-go connection.
type MemoryTransport struct {
	mu          sync.RWMutex
	subscribers []chan FleetEvent
	handler     func(context.Context, RPCRequest) (RPCResponse, error)
	closed      bool
}

// NewMemoryTransport creates an idle in-process transport. SetCallHandler
// must be called before Call is used for anything but a no-op 200 OK.
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{}
}

// SetCallHandler installs the function that answers RPCRequests, typically
// the local node's Listener dispatch table in tests that simulate a peer
// answering on the same process.
func (m *MemoryTransport) SetCallHandler(h func(context.Context, RPCRequest) (RPCResponse, error)) {
	m.mu.Lock()
	m.handler = h
	m.mu.Unlock()
}

func (m *MemoryTransport) Publish(_ context.Context, event FleetEvent) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil
	}
	for _, ch := range m.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (m *MemoryTransport) Subscribe(_ context.Context) (<-chan FleetEvent, error) {
	ch := make(chan FleetEvent, 256)
	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()
	return ch, nil
}

// Serve installs handler as the in-process call target. localAddress is
// ignored: a MemoryTransport models a single node, so every Call lands on
// whichever handler was last installed (by SetCallHandler or Serve).
func (m *MemoryTransport) Serve(ctx context.Context, localAddress string, handler RPCHandler) error {
	m.SetCallHandler(handler)
	go func() {
		<-ctx.Done()
		m.mu.Lock()
		if m.handler != nil {
			m.handler = nil
		}
		m.mu.Unlock()
	}()
	return nil
}

func (m *MemoryTransport) Call(ctx context.Context, req RPCRequest) (RPCResponse, error) {
	m.mu.RLock()
	handler := m.handler
	m.mu.RUnlock()
	if handler == nil {
		return RPCResponse{ID: req.ID, OK: true}, nil
	}
	return handler(ctx, req)
}

func (m *MemoryTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for _, ch := range m.subscribers {
		close(ch)
	}
	m.subscribers = nil
	return nil
}
