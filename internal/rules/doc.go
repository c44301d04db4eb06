// Package rules parses the YAML rules file that assigns ApplicationRules
// and ProcessRules to a fleet, and watches it for changes with an
// fsnotify-backed debounced Watcher so an operator can edit placement and
// sequencing rules without restarting any node.
package rules
