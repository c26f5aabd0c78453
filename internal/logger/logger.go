// Package logger wraps charmbracelet/log with the daemon's logging
// conventions: a package-level logger, a LOG_LEVEL env var, and
// SetupFileLogging for writing to the system or user log directory.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

var (
	Logger        *log.Logger
	currentWriter io.Writer = os.Stderr
)

func init() {
	Logger = log.New(os.Stderr)
	SetLevel(os.Getenv("LOG_LEVEL"))
}

// Info logs at info level.
func Info(msg interface{}, keyvals ...interface{}) { Logger.Info(msg, keyvals...) }

// Debug logs at debug level.
func Debug(msg interface{}, keyvals ...interface{}) { Logger.Debug(msg, keyvals...) }

// Warn logs at warn level.
func Warn(msg interface{}, keyvals ...interface{}) { Logger.Warn(msg, keyvals...) }

// Error logs at error level.
func Error(msg interface{}, keyvals ...interface{}) { Logger.Error(msg, keyvals...) }

// Fatal logs at fatal level and exits.
func Fatal(msg interface{}, keyvals ...interface{}) { Logger.Fatal(msg, keyvals...) }

// Infof logs a formatted message at info level.
func Infof(format string, args ...interface{}) { Logger.Infof(format, args...) }

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...interface{}) { Logger.Debugf(format, args...) }

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...interface{}) { Logger.Warnf(format, args...) }

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...interface{}) { Logger.Errorf(format, args...) }

// Fatalf logs a formatted message at fatal level and exits.
func Fatalf(format string, args ...interface{}) { Logger.Fatalf(format, args...) }

// SetLevel sets the log level from a string; unrecognized values fall back
// to info.
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

// SetOutput redirects the logger to w, preserving the current level.
func SetOutput(w io.Writer) {
	currentWriter = w
	level := Logger.GetLevel()
	Logger = log.NewWithOptions(w, log.Options{ReportTimestamp: true, TimeFormat: "15:04:05"})
	Logger.SetLevel(level)
}

// SetPrefix sets a prefix (e.g. the composite device name) on the logger,
// preserving the current output and level.
func SetPrefix(prefix string) {
	level := Logger.GetLevel()
	Logger = log.NewWithOptions(currentWriter, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Prefix:          prefix,
	})
	Logger.SetLevel(level)
}

// SetupFileLogging points the logger at the daemon's log file: the system
// directory when running as root, the user's XDG data directory otherwise.
func SetupFileLogging() (*os.File, error) {
	var logDir, logPath string

	if os.Geteuid() == 0 {
		logDir = "/var/log/inputplumberd"
		logPath = filepath.Join(logDir, "inputplumberd.log")
		if err := os.MkdirAll(logDir, 0750); err != nil {
			return nil, fmt.Errorf("create system log directory: %w", err)
		}
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = "."
		}
		logDir = filepath.Join(homeDir, ".local", "share", "inputplumberd")
		if err := os.MkdirAll(logDir, 0750); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		logPath = filepath.Join(logDir, "inputplumberd.log")
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", logPath, err)
	}

	fmt.Fprintf(logFile, "\n%s inputplumberd: === new session === (log: %s)\n",
		time.Now().Format("15:04:05"), logPath)

	SetOutput(logFile)
	Info("file logging initialized", "path", logPath)
	return logFile, nil
}

// Get returns the logger instance.
func Get() *log.Logger { return Logger }
