// Package transport carries the two peer-to-peer channels described in the
// external interfaces: an internal pub/sub bus for TICK/PROCESS/STATISTICS
// events, and a request/response RPC channel for commands. PeerTransport is
// the interface the rest of the repository depends on; transport/valkey.go
// is the concrete valkey-io/valkey-go adapter, and transport/memory.go is
// an in-process fake used by tests and single-process demos.
package transport
