package ring

import s "github.com/prataprc/gosettings"
import "github.com/cloudfoundry/gosigar"

// Defaultsettings for a Ring, sized off the host's free RAM at the
// time of the call.
//
// "ring.minchunksize" (int64, default: 4096)
//		Size of the first chunk allocated for a fresh ring, and the
//		floor of the geometric growth schedule.
//
// "ring.maxchunksize" (int64, default: 2MiB, or free RAM/64 when
// that is smaller, but never below 4096)
//		Cap on geometric chunk growth; a single request that needs
//		more still gets a chunk sized to fit it. Also bounds the
//		largest alignment a ring-carved (non-oversize) block may
//		request.
//
// "ring.growthfactor" (int64, default: 2)
//		Multiplier applied to the previous freshly-allocated chunk's
//		size each time the ring needs another chunk.
//
// "ring.oversizethreshold" (int64, default: ring.maxchunksize/4)
//		Requests larger than this bypass the ring and go straight to
//		the backing allocator.
func Defaultsettings() Config {
	_, _, free := getsysmem()

	maxChunkSize := int64(2 * 1024 * 1024)
	if free > 0 && free/64 < uint64(maxChunkSize) {
		// on a small host, don't let a single chunk dominate free RAM.
		maxChunkSize = int64(free / 64)
	}
	if maxChunkSize < 4096 {
		maxChunkSize = 4096
	}

	return Config{
		MinChunkSize:      4096,
		MaxChunkSize:      maxChunkSize,
		GrowthFactor:      2,
		OversizeThreshold: maxChunkSize / 4,
	}
}

// SettingsFromConfig renders cfg as a gosettings.Settings map, the
// form local/global accept from callers and Mixin against their own
// defaults.
func SettingsFromConfig(cfg Config) s.Settings {
	return s.Settings{
		"ring.minchunksize":      cfg.MinChunkSize,
		"ring.maxchunksize":      cfg.MaxChunkSize,
		"ring.growthfactor":      cfg.GrowthFactor,
		"ring.oversizethreshold": cfg.OversizeThreshold,
	}
}

// ConfigFromSettings reads back the "ring.*" keys SettingsFromConfig
// writes. Missing keys leave the corresponding Config field zero,
// which NewRing's withDefaults then fills in.
func ConfigFromSettings(setts s.Settings) Config {
	var cfg Config
	if v, ok := setts["ring.minchunksize"]; ok {
		cfg.MinChunkSize = v.(int64)
	}
	if v, ok := setts["ring.maxchunksize"]; ok {
		cfg.MaxChunkSize = v.(int64)
	}
	if v, ok := setts["ring.growthfactor"]; ok {
		cfg.GrowthFactor = v.(int64)
	}
	if v, ok := setts["ring.oversizethreshold"]; ok {
		cfg.OversizeThreshold = v.(int64)
	}
	return cfg
}

func getsysmem() (total, used, free uint64) {
	mem := sigar.Mem{}
	mem.Get()
	return mem.Total, mem.Used, mem.Free
}
