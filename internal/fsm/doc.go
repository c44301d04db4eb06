// Package fsm implements the fleet-level state machine: synchronization,
// master election, deployment, steady-state operation, and conciliation.
// States are a small compile-time enum (internal/api.FleetState); the
// transition logic lives in an explicit per-state function, not a
// generic/reflection-based dispatcher.
package fsm
