// Package telemetry is the module's minimal stderr logger, gated by the
// FLOWALYZER_LOG environment variable, in place of a logging framework
// (none appears anywhere in the retrieved teacher pack for this domain).
package telemetry

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

type level int

const (
	levelOff level = iota
	levelError
	levelWarn
	levelInfo
	levelDebug
)

var (
	once    sync.Once
	current level
)

func resolve() level {
	once.Do(func() {
		switch strings.ToLower(strings.TrimSpace(os.Getenv("FLOWALYZER_LOG"))) {
		case "debug":
			current = levelDebug
		case "info":
			current = levelInfo
		case "warn", "warning":
			current = levelWarn
		case "error":
			current = levelError
		case "off", "":
			current = levelOff
		default:
			current = levelInfo
		}
	})
	return current
}

func logf(lv level, tag, format string, args ...any) {
	if lv > resolve() {
		return
	}
	fmt.Fprintf(os.Stderr, "["+tag+"] "+format+"\n", args...)
}

func Debugf(format string, args ...any) { logf(levelDebug, "debug", format, args...) }
func Infof(format string, args ...any)  { logf(levelInfo, "info", format, args...) }
func Warnf(format string, args ...any)  { logf(levelWarn, "warn", format, args...) }
func Errorf(format string, args ...any) { logf(levelError, "error", format, args...) }
