// Package api holds the cross-cutting enumerations and typed error values
// shared by every other package in the fleet coordinator: process and
// address states, strategy identifiers, and the fault taxonomy surfaced at
// the RPC boundary.
package api
