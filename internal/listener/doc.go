// Package listener is the main-loop glue: a single ingress goroutine
// applies peer events (ticks, process events, statistics) to fleet.Context
// and drives the FSM tick by tick, while a bounded egress actor pool sends
// the deferred RPCs that Starter/Stopper/FSM decide to issue. It is the
// only package that wires internal/transport to internal/fleet,
// internal/commander, and internal/fsm.
package listener
