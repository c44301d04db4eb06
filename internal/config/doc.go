// Package config loads and validates the fleet node's Options: the
// address list, transport ports, timeouts, and default strategies
// described in the external interfaces table. Parsing uses gopkg.in/yaml.v3,
// matching the rest of the repository's configuration surface.
package config
