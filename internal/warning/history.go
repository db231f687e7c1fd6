package warning

import "time"

// prune drops entries older than ttl and keeps at most max of the newest,
// in one pass. Entries must be in timestamp order.
func prune[T any](entries []T, ts func(T) time.Time, now time.Time, ttl time.Duration, max int) []T {
	start := len(entries) - max
	if start < 0 {
		start = 0
	}
	cutoff := now.Add(-ttl)
	for start < len(entries) && ts(entries[start]).Before(cutoff) {
		start++
	}
	if start == 0 {
		return entries
	}
	kept := make([]T, len(entries)-start)
	copy(kept, entries[start:])
	return kept
}
