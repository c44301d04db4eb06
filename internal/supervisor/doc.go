// Package supervisor defines the boundary between this repository and the
// single-host process supervisor it coordinates. Actually spawning,
// signaling, and reaping OS processes is explicitly out of scope (the
// underlying supervisor owns that); this package only gives the RPC server
// something concrete to call so the dispatch path is exercised end to end.
package supervisor
