// Package rclog is rclonepool's leveled logger: a thin wrapper over the
// standard log package, in the style of rclone's own fs.Debugf/fs.Infof —
// a few package-level functions gated by a level, not a structured logging
// framework.
package rclog

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// Level controls which calls actually reach the writer.
type Level int

// Levels, quietest first.
const (
	LevelError Level = iota
	LevelNotice
	LevelInfo
	LevelDebug
)

var (
	mu      sync.Mutex
	current = LevelNotice
	logger  = log.New(os.Stderr, "", log.LstdFlags)
)

// SetLevel adjusts the minimum level that is emitted.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	current = l
}

func emit(l Level, prefix, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if l > current {
		return
	}
	logger.Output(3, prefix+" "+fmt.Sprintf(format, args...))
}

// Debugf logs at debug level: intra-operation detail (chunk placement,
// retry attempts).
func Debugf(format string, args ...interface{}) { emit(LevelDebug, "DEBUG:", format, args...) }

// Infof logs at info level: one line per completed operation.
func Infof(format string, args ...interface{}) { emit(LevelInfo, "INFO: ", format, args...) }

// Noticef logs at notice level: shown by default (hidden only at
// LevelError), non-fatal (a remote refused a
// manifest save but the save still went durable elsewhere).
func Noticef(format string, args ...interface{}) { emit(LevelNotice, "NOTICE:", format, args...) }

// Errorf logs at error level: an operation failed outright.
func Errorf(format string, args ...interface{}) { emit(LevelError, "ERROR:", format, args...) }
