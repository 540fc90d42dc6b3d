package local

import "sync/atomic"

import "github.com/prataprc/golog"

var verbose atomic.Bool

// SetVerbose toggles the flag that gates this package's debugf output.
// No code in this package calls debugf, and the lifecycle messages
// New and Close log go through infof/warnf, which the flag does not
// gate.
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
