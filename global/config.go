package global

import s "github.com/prataprc/gosettings"

import "github.com/bnclabs/ringmalloc/ring"

// Defaultsettings for a global Allocator, layered on top of
// ring.Defaultsettings().
func Defaultsettings() s.Settings {
	return ring.SettingsFromConfig(ring.Defaultsettings())
}
