package global

import "sync/atomic"

import "github.com/prataprc/golog"

var verbose atomic.Bool

// SetVerbose toggles orphan-reclaim tracing for this process.
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
