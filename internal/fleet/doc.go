// Package fleet holds the authoritative in-memory model of the distributed
// process fleet: addresses, processes, and applications, plus the Context
// that owns them and the event bus that announces mutations.
package fleet
