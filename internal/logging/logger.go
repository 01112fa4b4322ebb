package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const logDirEnvVar = "VIEWSYNC_LOG_DIR"

// Level represents the severity of a log message.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger defines a minimal, printf-style logging contract.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// ComponentLogger writes leveled, component-tagged lines to stderr and,
// when VIEWSYNC_LOG_DIR is set, to viewsync.log in that directory.
type ComponentLogger struct {
	component string
	level     Level
	mu        *sync.Mutex
	out       *log.Logger
}

var (
	sinkOnce sync.Once
	sinkMu   sync.Mutex
	sinkOut  *log.Logger
)

func sharedSink() (*sync.Mutex, *log.Logger) {
	sinkOnce.Do(func() {
		var writer *os.File = os.Stderr
		if dir := strings.TrimSpace(os.Getenv(logDirEnvVar)); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err == nil {
				path := filepath.Join(dir, "viewsync.log")
				if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
					writer = f
				}
			}
		}
		sinkOut = log.New(writer, "", 0)
	})
	return &sinkMu, sinkOut
}

func levelFromEnv() Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("VIEWSYNC_LOG_LEVEL"))) {
	case "debug":
		return DEBUG
	case "warn":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// NewComponentLogger creates a logger scoped to a component name.
func NewComponentLogger(component string) *ComponentLogger {
	mu, out := sharedSink()
	return &ComponentLogger{
		component: component,
		level:     levelFromEnv(),
		mu:        mu,
		out:       out,
	}
}

func (l *ComponentLogger) logf(level Level, format string, args ...any) {
	if level < l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	stamp := time.Now().Format("2006-01-02 15:04:05.000")
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Printf("%s [%s] [%s] %s", stamp, level, l.component, msg)
}

func (l *ComponentLogger) Debug(format string, args ...any) { l.logf(DEBUG, format, args...) }
func (l *ComponentLogger) Info(format string, args ...any)  { l.logf(INFO, format, args...) }
func (l *ComponentLogger) Warn(format string, args ...any)  { l.logf(WARN, format, args...) }
func (l *ComponentLogger) Error(format string, args ...any) { l.logf(ERROR, format, args...) }

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return Nop()
	}
	return logger
}
