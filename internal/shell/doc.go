// Package shell is an interactive operator REPL over internal/cli.Client,
// for ad hoc fleet inspection without re-invoking the supvisors binary for
// every command.
package shell
