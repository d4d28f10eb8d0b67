// Package scanner locates shard boundaries in a slow-log file so the
// orchestrator can hand independent byte ranges to worker goroutines
// without splitting a record across two shards.
package scanner

import (
	"bytes"
	"os"
	"sort"
)

// Shard is a half-open byte range [Start, End) within the source file.
type Shard struct {
	Start int64
	End   int64
}

// Plan describes how a file was divided: the shards to hand to
// workers, how many record-start markers were found, and the file
// size, which the orchestrator reports under --stats.
type Plan struct {
	Shards    []Shard
	NumStarts int
	FileSize  int64
}

var (
	markerTime      = []byte("\n# Time:")
	markerQueryTime = []byte("\n# Query_time:")
	prefixTime      = []byte("# Time:")
	prefixQueryTime = []byte("# Query_time:")
)

// ComputeBoundaries scans path for "# Time:" record markers (and, in
// loose mode, "# Query_time:" markers too) and groups them into at
// most maxParts contiguous shards of roughly equal marker count. A
// file with no markers at all is returned as one shard spanning the
// whole file, since the shard parser can still recover a single
// record from it.
func ComputeBoundaries(path string, maxParts int, looseStart bool) (Plan, error) {
	data, closer, err := mapFile(path)
	if err != nil {
		return Plan{}, err
	}
	defer closer()

	size := int64(len(data))
	starts := findStarts(data, looseStart)

	if len(starts) == 0 {
		return Plan{
			Shards:    []Shard{{Start: 0, End: size}},
			NumStarts: 0,
			FileSize:  size,
		}, nil
	}

	parts := maxParts
	if parts > len(starts) {
		parts = len(starts)
	}
	if parts < 1 {
		parts = 1
	}

	idxs := partitionIndexes(len(starts), parts)

	var shards []Shard
	for i := 0; i+1 < len(idxs); i++ {
		a, b := idxs[i], idxs[i+1]
		if a == b {
			continue
		}
		start := starts[a]
		var end int64
		if b < len(starts) {
			end = starts[b]
		} else {
			end = size
		}
		shards = append(shards, Shard{Start: start, End: end})
	}
	if len(shards) == 0 {
		shards = []Shard{{Start: 0, End: size}}
	}

	return Plan{Shards: shards, NumStarts: len(starts), FileSize: size}, nil
}

// partitionIndexes mirrors evenly spaced round(i*n/parts) bucketing,
// deduplicated and clamped to [0, n].
func partitionIndexes(n, parts int) []int {
	seen := make(map[int]struct{}, parts+1)
	var out []int
	for i := 0; i <= parts; i++ {
		k := (i*n + parts/2) / parts
		if k < 0 {
			k = 0
		}
		if k > n {
			k = n
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func findStarts(data []byte, looseStart bool) []int64 {
	starts := make(map[int64]struct{})

	if bytes.HasPrefix(data, prefixTime) {
		starts[0] = struct{}{}
	}
	if looseStart && bytes.HasPrefix(data, prefixQueryTime) {
		starts[0] = struct{}{}
	}

	findAll(data, markerTime, starts)
	if looseStart {
		findAll(data, markerQueryTime, starts)
	}

	out := make([]int64, 0, len(starts))
	for k := range starts {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// findAll records the offset of the '#' following every occurrence of
// needle (which begins with '\n') into starts.
func findAll(data, needle []byte, starts map[int64]struct{}) {
	pos := 0
	for {
		i := bytes.Index(data[pos:], needle)
		if i == -1 {
			return
		}
		abs := pos + i
		starts[int64(abs+1)] = struct{}{}
		pos = abs + len(needle)
	}
}

// ReadShard reads exactly the bytes in s from path.
func ReadShard(path string, s Shard) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, s.End-s.Start)
	if _, err := f.ReadAt(buf, s.Start); err != nil {
		return nil, err
	}
	return buf, nil
}
