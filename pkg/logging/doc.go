// Package logging provides structured logging for the supvisors CLI and
// fleet node process.
//
// Logs go through a single slog text handler, bridged into
// controller-runtime's logr interface so internal/discovery's Kubernetes
// informer caches don't warn about a missing logger, and mirrored to the
// systemd journal when the process runs under a systemd unit.
//
//	logging.InitForCLI(logging.LevelInfo, os.Stdout)
//	logging.Info("FSM", "address %s elected master", name)
//	logging.Error("transport", err, "publish failed")
//
// Audit records fleet decisions worth a separate trail from routine
// logs: address isolation and conciliation resolution.
//
//	logging.Audit(logging.AuditEvent{Action: "isolate_address", Outcome: "success", Address: name})
package logging
