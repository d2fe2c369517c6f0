package log

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"rpmsynth/config"
)

// FileLogger writes coordinator activity to a small set of category files
// under cfg.LogPath, implementing LibraryLogger so it can be handed to
// dispatch.Server and cmd's driver code interchangeably with StdoutLogger or
// MemoryLogger.
//
// The category split mirrors the teacher's multi-file convention (one file
// per concern rather than one firehose), trimmed down from the teacher's
// per-port build phases to the categories a dispatch coordinator actually
// produces: overall activity, successes, failures, and debug detail.
type FileLogger struct {
	activityFile *os.File
	successFile  *os.File
	failureFile  *os.File
	debugFile    *os.File
	mu           sync.Mutex
}

// NewFileLogger creates cfg.LogPath if needed and opens the category files.
func NewFileLogger(cfg *config.Config) (*FileLogger, error) {
	if err := os.MkdirAll(cfg.LogPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	l := &FileLogger{}
	var err error

	l.activityFile, err = os.Create(filepath.Join(cfg.LogPath, "00_activity.log"))
	if err != nil {
		return nil, err
	}
	l.successFile, err = os.Create(filepath.Join(cfg.LogPath, "01_success.log"))
	if err != nil {
		return nil, err
	}
	l.failureFile, err = os.Create(filepath.Join(cfg.LogPath, "02_failure.log"))
	if err != nil {
		return nil, err
	}
	l.debugFile, err = os.Create(filepath.Join(cfg.LogPath, "03_debug.log"))
	if err != nil {
		return nil, err
	}

	l.writeHeaders()
	return l, nil
}

func (l *FileLogger) writeHeaders() {
	timestamp := time.Now().Format(time.RFC3339)
	fmt.Fprintf(l.activityFile, "rpmsynth coordinator log - %s\n%s\n\n", timestamp, strings.Repeat("=", 70))
	fmt.Fprintf(l.successFile, "Successful builds - %s\n\n", timestamp)
	fmt.Fprintf(l.failureFile, "Failed builds - %s\n\n", timestamp)
	fmt.Fprintf(l.debugFile, "Debug log - %s\n\n", timestamp)
}

// Close closes every open category file.
func (l *FileLogger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, f := range []*os.File{l.activityFile, l.successFile, l.failureFile, l.debugFile} {
		if f != nil {
			f.Close()
		}
	}
}

func (l *FileLogger) Info(format string, args ...any) {
	l.write(l.activityFile, "INFO", format, args...)
}

func (l *FileLogger) Warn(format string, args ...any) {
	l.write(l.activityFile, "WARN", format, args...)
}

func (l *FileLogger) Error(format string, args ...any) {
	msg := l.write(l.activityFile, "ERROR", format, args...)
	l.appendRaw(l.failureFile, msg)
}

func (l *FileLogger) Debug(format string, args ...any) {
	l.write(l.debugFile, "DEBUG", format, args...)
}

// Success records a base's successful build in the success-only file in
// addition to the regular activity log entry a caller logs via Info.
func (l *FileLogger) Success(base string) {
	l.appendRaw(l.successFile, base)
}

func (l *FileLogger) write(f *os.File, level, format string, args ...any) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("15:04:05")
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(f, "[%s] %s: %s\n", timestamp, level, msg)
	f.Sync()
	return msg
}

func (l *FileLogger) appendRaw(f *os.File, line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(f, line)
	f.Sync()
}
