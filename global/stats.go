package global

import gohumanize "github.com/dustin/go-humanize"

// Stats reports a snapshot of allocator state as raw values: this
// Allocator's name and maximum chunk size, and the process-wide
// orphaned-chunk count. Log renders the same values humanized.
func (ga *Allocator) Stats() map[string]interface{} {
	return map[string]interface{}{
		"name":         ga.name,
		"orphaned":     OrphanCount(),
		"maxchunksize": ga.cfg.MaxChunkSize,
	}
}

// Log writes a humanized one-line summary of Stats to the info log.
func (ga *Allocator) Log() {
	stats := ga.Stats()
	infof(
		"%v orphaned:%v maxchunksize:%v\n",
		ga.logprefix(),
		stats["orphaned"],
		gohumanize.Bytes(uint64(stats["maxchunksize"].(int64))),
	)
}
