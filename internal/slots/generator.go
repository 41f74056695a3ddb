package slots

// GeneratePool produces the canonical ordered slot labels for a working
// day: one label every durationMinutes from startMinutes up to but not
// including endMinutes. An empty window or non-positive duration yields
// nil rather than an error. Deterministic, so callers regenerate the
// pool on demand instead of persisting it.
func GeneratePool(durationMinutes, startMinutes, endMinutes int) []string {
	if durationMinutes <= 0 || startMinutes >= endMinutes {
		return nil
	}

	var pool []string
	for m := startMinutes; m < endMinutes; m += durationMinutes {
		pool = append(pool, ToLabel(m))
	}
	return pool
}

// DefaultPool is the pool for the default 09:00-17:00 window with
// 30-minute slots, used when a doctor has never saved settings.
func DefaultPool() []string {
	return GeneratePool(30, 9*60, 17*60)
}
