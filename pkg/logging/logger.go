package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// LogDirEnv overrides the directory log files are written to.
const LogDirEnv = "FORGE_AUTOMATION_LOG_DIR"

// Level is a log severity. Messages below the global level are dropped.
type Level int32

const (
	LevelDebug Level = iota // LevelDebug enables every message.
	LevelInfo               // LevelInfo drops debug messages.
	LevelWarn               // LevelWarn keeps warnings and errors.
	LevelError              // LevelError keeps errors only.
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return fmt.Sprintf("LEVEL(%d)", int32(l))
}

// ParseVerbosity maps a configured verbosity to a level:
// quiet, normal, verbose, debug.
func ParseVerbosity(v string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "quiet":
		return LevelWarn, nil
	case "", "normal":
		return LevelInfo, nil
	case "verbose", "debug":
		return LevelDebug, nil
	}
	return LevelInfo, fmt.Errorf("invalid verbosity %q (must be quiet, normal, verbose or debug)", v)
}

// Logger writes component-tagged log lines to the worker's run log.
// All loggers in a process share one file under the log directory.
//
// Stdout carries the response stream, so a Logger never writes to it; when
// the log file cannot be opened it falls back to stderr.
type Logger struct {
	runID     string
	component string
	file      *os.File
	logger    *log.Logger
	mu        sync.Mutex
	logPath   string
	closeOnce sync.Once
}

var (
	// Global run ID for the current worker process
	runID     string
	runIDOnce sync.Once

	// logDir is the directory where log files are stored
	logDir string

	// initOnce ensures directory initialization happens once
	initOnce sync.Once

	// initErr stores any error from directory initialization
	initErr error

	level atomic.Int32
)

func init() {
	level.Store(int32(LevelInfo))
}

// SetLevel sets the minimum level written by every logger.
func SetLevel(l Level) {
	level.Store(int32(l))
}

// GetLevel returns the current minimum level.
func GetLevel() Level {
	return Level(level.Load())
}

func getRunID() string {
	runIDOnce.Do(func() {
		runID = uuid.New().String()
	})
	return runID
}

func initLogDirectory() error {
	initOnce.Do(func() {
		if logDir == "" {
			logDir = os.Getenv(LogDirEnv)
		}
		if logDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				initErr = fmt.Errorf("failed to get home directory: %w", err)
				return
			}
			logDir = filepath.Join(homeDir, ".forge", "logs")
		}

		if err := os.MkdirAll(logDir, 0750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
			return
		}
	})
	return initErr
}

// NewLogger creates a logger for a specific component.
// The logger writes to <log dir>/<run-id>-worker.log.
//
// If the log directory or file cannot be opened, it returns a stderr
// fallback logger along with the error so callers can note the degradation.
func NewLogger(component string) (*Logger, error) {
	if err := initLogDirectory(); err != nil {
		return newFallbackLogger(component, err), err
	}

	id := getRunID()
	logPath := filepath.Join(logDir, fmt.Sprintf("%s-worker.log", id))

	// Append mode: every component in the process writes to the same file
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		err = fmt.Errorf("failed to open log file: %w", err)
		return newFallbackLogger(component, err), err
	}

	return &Logger{
		runID:     id,
		component: component,
		file:      file,
		logger:    log.New(file, "", 0),
		logPath:   logPath,
	}, nil
}

func newFallbackLogger(component string, err error) *Logger {
	logger := log.New(os.Stderr, "", 0)
	l := &Logger{
		runID:     getRunID(),
		component: component,
		logger:    logger,
	}
	l.write(LevelWarn, fmt.Sprintf("failed to initialize file logging, using stderr: %v", err))
	return l
}

func (l *Logger) write(lvl Level, message string) {
	if lvl < GetLevel() {
		return
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	entry := fmt.Sprintf("[%s] [%s] [%s] %s", timestamp, l.component, lvl, message)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Println(entry)
}

// Printf logs a formatted message at info level
func (l *Logger) Printf(format string, v ...interface{}) {
	l.write(LevelInfo, fmt.Sprintf(format, v...))
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.write(LevelDebug, fmt.Sprintf(format, v...))
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.write(LevelInfo, fmt.Sprintf(format, v...))
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.write(LevelWarn, fmt.Sprintf(format, v...))
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.write(LevelError, fmt.Sprintf(format, v...))
}

// Writer returns an io.Writer that writes to this logger's destination
func (l *Logger) Writer() io.Writer {
	if l.file != nil {
		return l.file
	}
	return os.Stderr
}

// RunID returns the worker run ID shared by every logger in the process
func (l *Logger) RunID() string {
	return l.runID
}

// LogPath returns the path to the log file, empty in fallback mode
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}

// GetRunID returns the current global run ID
func GetRunID() string {
	return getRunID()
}

// GetLogDirectory returns the directory where logs are stored
func GetLogDirectory() (string, error) {
	if err := initLogDirectory(); err != nil {
		return "", err
	}
	return logDir, nil
}
