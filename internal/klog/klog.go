// Package klog is the scheduler's diagnostic channel. It keeps the
// teacher's texture deliberately: biscuit never reaches for a structured
// logging library (see res/res.go, proc/oom.go — bare fmt.Printf gated by
// package-level bool flags), so neither does this package; it is a thin
// *log.Logger wrapper, not an adopted third-party logger.
package klog

import (
	"log"
	"os"
	"sync/atomic"
)

// Level controls which calls actually print.
type Level int32

const (
	LevelSilent Level = iota
	LevelInfo
	LevelDebug
)

var (
	current atomic.Int32
	boot    atomic.Value // string
	logger  = log.New(os.Stderr, "", log.Ltime|log.Lmicroseconds)
)

func init() {
	current.Store(int32(LevelInfo))
	boot.Store("")
}

// SetLevel changes the minimum level that is printed.
func SetLevel(l Level) { current.Store(int32(l)) }

// SetBootID stamps every subsequent log line with id, the way a real kernel
// would stamp a boot count into its serial console header.
func SetBootID(id string) { boot.Store(id) }

func prefixed(format string) string {
	id, _ := boot.Load().(string)
	if id == "" {
		return format
	}
	return "[boot " + id + "] " + format
}

// Debugf logs at LevelDebug.
func Debugf(format string, args ...interface{}) {
	if Level(current.Load()) >= LevelDebug {
		logger.Printf(prefixed(format), args...)
	}
}

// Infof logs at LevelInfo.
func Infof(format string, args ...interface{}) {
	if Level(current.Load()) >= LevelInfo {
		logger.Printf(prefixed(format), args...)
	}
}

// Warnf always logs, regardless of level, matching the reference kernel's
// habit of unconditionally printing on a killed/doomed thread.
func Warnf(format string, args ...interface{}) {
	logger.Printf(prefixed("WARN: "+format), args...)
}
