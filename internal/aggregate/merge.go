// Package aggregate merges per-shard fingerprint groups into a single
// result set and derives the summary statistics reported for each
// fingerprint.
package aggregate

import "github.com/slowlogdef/slowlogdef/internal/slowlog"

// Merge combines the per-shard Group maps produced by slowlog.ParseShard
// into one map keyed by fingerprint, summing counters and widening
// extrema the same way a single-shard parse would have accumulated
// them had the whole file been one shard.
func Merge(parts []map[string]*slowlog.Group) map[string]*slowlog.Group {
	agg := make(map[string]*slowlog.Group)

	for _, part := range parts {
		for fp, g := range part {
			t, ok := agg[fp]
			if !ok {
				clone := *g
				clone.Durations = append([]float64(nil), g.Durations...)
				agg[fp] = &clone
				continue
			}

			t.Samples += g.Samples
			t.TotalTimeS += g.TotalTimeS
			if g.MaxTimeS > t.MaxTimeS {
				t.MaxTimeS = g.MaxTimeS
			}
			t.SumLockTimeS += g.SumLockTimeS
			t.RowsExaminedTotal += g.RowsExaminedTotal
			t.RowsSentTotal += g.RowsSentTotal
			t.Durations = append(t.Durations, g.Durations...)

			if g.FirstSeen != "" && (t.FirstSeen == "" || g.FirstSeen < t.FirstSeen) {
				t.FirstSeen = g.FirstSeen
			}
			if g.LastSeen != "" && (t.LastSeen == "" || g.LastSeen > t.LastSeen) {
				t.LastSeen = g.LastSeen
			}
			if g.HasTruncated {
				t.HasTruncated = true
			}
			if t.DB == "" && g.DB != "" {
				t.DB = g.DB
			}
			if t.UserHost == "" && g.UserHost != "" {
				t.UserHost = g.UserHost
			}
			if t.MainTable == "" && g.MainTable != "" {
				t.MainTable = g.MainTable
			}
		}
	}

	return agg
}

// MergeShardStats sums every field across a set of per-shard counters.
func MergeShardStats(parts []slowlog.ShardStats) slowlog.ShardStats {
	var total slowlog.ShardStats
	for _, p := range parts {
		total.Add(p)
	}
	return total
}
