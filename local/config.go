package local

import s "github.com/prataprc/gosettings"

import "github.com/bnclabs/ringmalloc/api"
import "github.com/bnclabs/ringmalloc/backing"
import "github.com/bnclabs/ringmalloc/ring"

// Defaultsettings for a LocalAllocator, layered on top of
// ring.Defaultsettings().
func Defaultsettings() s.Settings {
	return ring.SettingsFromConfig(ring.Defaultsettings())
}

func defaultBacking() api.Backing {
	return backing.CGo{}
}
