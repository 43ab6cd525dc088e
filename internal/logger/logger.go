// Package logger wraps charmbracelet/log for the daemon. Unlike the
// teacher's logger, this one has no UI-notifier or log-forwarder hooks
// and never redirects to a file under /var/log — there is no TUI to
// forward to and no file-logging requirement for this daemon.
package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Logger is the process-wide structured logger, written to stderr.
var Logger *log.Logger

func init() {
	Logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	SetLevel(os.Getenv("LOG_LEVEL"))
}

// SetLevel sets the log level from a string (case-insensitive); an
// unrecognized or empty value defaults to info.
func SetLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		Logger.SetLevel(log.DebugLevel)
	case "WARN", "WARNING":
		Logger.SetLevel(log.WarnLevel)
	case "ERROR":
		Logger.SetLevel(log.ErrorLevel)
	case "FATAL":
		Logger.SetLevel(log.FatalLevel)
	default:
		Logger.SetLevel(log.InfoLevel)
	}
}

func Info(msg any, keyvals ...any)  { Logger.Info(msg, keyvals...) }
func Debug(msg any, keyvals ...any) { Logger.Debug(msg, keyvals...) }
func Warn(msg any, keyvals ...any)  { Logger.Warn(msg, keyvals...) }
func Error(msg any, keyvals ...any) { Logger.Error(msg, keyvals...) }

// Fatal writes a stderr line beginning "FATAL ERROR:" (§7) and exits 1.
// The line is written directly rather than through Logger, whose
// output would start with a timestamp and level.
func Fatal(msg any, keyvals ...any) {
	fmt.Fprintf(os.Stderr, "FATAL ERROR: %v\n", msg)
	if len(keyvals) > 0 {
		Logger.Error("", keyvals...)
	}
	os.Exit(1)
}
