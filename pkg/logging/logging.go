package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
	"github.com/go-logr/logr"
	ctrl "sigs.k8s.io/controller-runtime"
)

// LogLevel defines the severity of the log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String makes LogLevel satisfy the fmt.Stringer interface.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l LogLevel) journalPriority() journal.Priority {
	switch l {
	case LevelDebug:
		return journal.PriDebug
	case LevelInfo:
		return journal.PriInfo
	case LevelWarn:
		return journal.PriWarning
	case LevelError:
		return journal.PriErr
	default:
		return journal.PriInfo
	}
}

var defaultLogger *slog.Logger

// journalEnabled is resolved once at init time: go-systemd reports whether
// the process was launched under a systemd unit with a journal socket.
var journalEnabled = journal.Enabled()

// InitForCLI initializes the logging system for CLI and fleet-node use.
// It installs a slog text handler over output, bridges the same handler
// into controller-runtime's logr so internal/discovery's informer caches
// stop warning about a missing logger, and additionally mirrors every
// record to the systemd journal when the process runs under systemd.
func InitForCLI(filterLevel LogLevel, output io.Writer) {
	opts := &slog.HandlerOptions{Level: filterLevel.SlogLevel()}
	handler := slog.NewTextHandler(output, opts)
	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)

	initControllerRuntimeLogger(handler)
}

// initControllerRuntimeLogger bridges the given slog handler into the
// logr interface controller-runtime expects, so internal/discovery's
// Kubernetes informer caches don't print "log.SetLogger(...) was never
// called" warnings at startup.
func initControllerRuntimeLogger(handler slog.Handler) {
	if handler == nil {
		return
	}
	ctrl.SetLogger(logr.FromSlogHandler(handler))
}

func logInternal(level LogLevel, subsystem string, err error, messageFmt string, args ...interface{}) {
	if defaultLogger == nil || !defaultLogger.Enabled(context.Background(), level.SlogLevel()) {
		return
	}

	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}

	var slogAttrs []slog.Attr
	slogAttrs = append(slogAttrs, slog.String("subsystem", subsystem))
	if err != nil {
		slogAttrs = append(slogAttrs, slog.String("error", err.Error()))
	}
	defaultLogger.LogAttrs(context.Background(), level.SlogLevel(), msg, slogAttrs...)

	if journalEnabled {
		vars := map[string]string{"SUBSYSTEM": subsystem}
		if err != nil {
			vars["ERROR"] = err.Error()
		}
		if jerr := journal.Send(msg, level.journalPriority(), vars); jerr != nil {
			fmt.Fprintf(os.Stderr, "[LOGGING_WARN] journal send failed: %v\n", jerr)
		}
	}
}

// Debug logs a debug message.
func Debug(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelDebug, subsystem, nil, messageFmt, args...)
}

// Info logs an informational message.
func Info(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelInfo, subsystem, nil, messageFmt, args...)
}

// Warn logs a warning message.
func Warn(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelWarn, subsystem, nil, messageFmt, args...)
}

// Error logs an error message.
func Error(subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(LevelError, subsystem, err, messageFmt, args...)
}

// AuditEvent is a structured record of a fleet decision worth keeping a
// trail of independent from the regular log stream: address isolation and
// conciliation resolution.
type AuditEvent struct {
	// Action names the decision being audited, e.g. "isolate_address",
	// "conciliate".
	Action string
	// Outcome is "success" or "failure".
	Outcome string
	// Address is the fleet address the decision concerns, if any.
	Address string
	// Namespec is the application:process the decision concerns, if any.
	Namespec string
	// Details carries additional free-form context.
	Details string
	// Error holds the failure reason when Outcome is "failure".
	Error string
}

// Audit logs an AuditEvent at INFO level with an [AUDIT] prefix so log
// aggregators can filter fleet decisions from routine operational noise.
func Audit(event AuditEvent) {
	parts := make([]string, 0, 6)
	parts = append(parts, "action="+event.Action)
	parts = append(parts, "outcome="+event.Outcome)
	if event.Address != "" {
		parts = append(parts, "address="+event.Address)
	}
	if event.Namespec != "" {
		parts = append(parts, "namespec="+event.Namespec)
	}
	if event.Details != "" {
		parts = append(parts, "details="+event.Details)
	}
	if event.Error != "" {
		parts = append(parts, "error="+event.Error)
	}

	logInternal(LevelInfo, "AUDIT", nil, "[AUDIT] %s", strings.Join(parts, " "))
}
