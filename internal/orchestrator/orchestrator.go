// Package orchestrator drives a full analyzer run: time-window
// resolution, sampling, boundary scanning, parallel shard parsing,
// merging, and statistics, leaving emission to its caller.
package orchestrator

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/slowlogdef/slowlogdef/internal/aggregate"
	"github.com/slowlogdef/slowlogdef/internal/sampler"
	"github.com/slowlogdef/slowlogdef/internal/scanner"
	"github.com/slowlogdef/slowlogdef/internal/slowlog"
)

// Timings records wall-clock duration spent in each phase, reported
// under --stats.
type Timings struct {
	Sample time.Duration
	Scan   time.Duration
	Parse  time.Duration
	Merge  time.Duration
	Stats  time.Duration
	Total  time.Duration
}

// Result is everything a caller needs to emit a report or print
// --stats diagnostics.
type Result struct {
	Rows       []aggregate.Row
	ShardStats slowlog.ShardStats
	Timings    Timings
	NumShards  int
	NumStarts  int
	FileSize   int64
	Jobs       int

	// Skipped is true when the sampler concluded there is no data in
	// the requested range and the run stopped before scanning.
	Skipped       bool
	SampleResult  sampler.Result
	TimeRangeUsed *sampler.Range
}

// Run executes the full pipeline described by cfg.
func Run(cfg Config) (Result, error) {
	t0 := time.Now()
	var res Result
	res.Jobs = cfg.jobs()

	timeRange, err := cfg.resolveTimeRange()
	if err != nil {
		return res, err
	}
	res.TimeRangeUsed = timeRange

	if timeRange != nil {
		tSample := time.Now()
		sr := sampler.Check(cfg.LogFile, timeRange)
		res.Timings.Sample = time.Since(tSample)
		res.SampleResult = sr

		slog.Debug("sampler verdict", "has_data_in_range", sr.HasDataInRange, "coverage", sr.EstimatedCoverage, "kind", sr.Kind)

		if !sr.HasDataInRange {
			res.Skipped = true
			res.Timings.Total = time.Since(t0)
			return res, nil
		}
	}

	tScan := time.Now()
	plan, err := scanner.ComputeBoundaries(cfg.LogFile, res.Jobs, cfg.LooseStart)
	if err != nil {
		return res, fmt.Errorf("boundary scan: %w", err)
	}
	res.Timings.Scan = time.Since(tScan)
	res.NumShards = len(plan.Shards)
	res.NumStarts = plan.NumStarts
	res.FileSize = plan.FileSize

	workers := res.Jobs
	if workers > len(plan.Shards) {
		workers = len(plan.Shards)
	}

	var parseTimeRange *slowlog.TimeRange
	if timeRange != nil {
		parseTimeRange = &slowlog.TimeRange{Start: timeRange.Start, End: timeRange.End}
	}

	opts := slowlog.Options{
		MinTime:       cfg.MinTime,
		ExcludeDumps:  cfg.ExcludeDumps,
		MarkTruncated: cfg.MarkTruncated,
		LooseStart:    cfg.LooseStart,
		TimeRange:     parseTimeRange,
	}

	type shardResult struct {
		groups map[string]*slowlog.Group
		stats  slowlog.ShardStats
	}

	tParse := time.Now()
	results, err := concurrentMap(plan.Shards, workers, func(s scanner.Shard) (shardResult, error) {
		data, err := scanner.ReadShard(cfg.LogFile, s)
		if err != nil {
			return shardResult{}, fmt.Errorf("read shard [%d,%d): %w", s.Start, s.End, err)
		}
		groups, stats := slowlog.ParseShard(data, opts)
		return shardResult{groups: groups, stats: stats}, nil
	})
	if err != nil {
		return res, fmt.Errorf("parse shards: %w", err)
	}
	res.Timings.Parse = time.Since(tParse)

	tMerge := time.Now()
	groupMaps := make([]map[string]*slowlog.Group, len(results))
	shardStats := make([]slowlog.ShardStats, len(results))
	for i, r := range results {
		groupMaps[i] = r.groups
		shardStats[i] = r.stats
	}
	merged := aggregate.Merge(groupMaps)
	res.ShardStats = aggregate.MergeShardStats(shardStats)
	res.Timings.Merge = time.Since(tMerge)

	tStats := time.Now()
	res.Rows = aggregate.BuildRows(merged)
	res.Timings.Stats = time.Since(tStats)

	res.Timings.Total = time.Since(t0)
	return res, nil
}
