package ring

import "sync/atomic"

import "github.com/prataprc/golog"

// verbose gates debugf below production log levels without the cost
// of building the log line when disabled. Off by default; only
// SetVerbose changes it.
var verbose atomic.Bool

// SetVerbose toggles chunk-allocation tracing for this process.
func SetVerbose(on bool) {
	verbose.Store(on)
}

func debugf(format string, args ...interface{}) {
	if verbose.Load() {
		log.Debugf(format, args...)
	}
}

func infof(format string, args ...interface{}) {
	log.Infof(format, args...)
}

func warnf(format string, args ...interface{}) {
	log.Warnf(format, args...)
}

func errorf(format string, args ...interface{}) {
	log.Errorf(format, args...)
}
