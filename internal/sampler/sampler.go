// Package sampler estimates, without a full scan, whether a slow-log
// file is likely to contain any records inside a requested time range.
// It is a heuristic used purely to decide whether the orchestrator can
// skip a file entirely; it never gates which records ultimately get
// counted, which the shard parser still decides exactly.
package sampler

import (
	"bufio"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/slowlogdef/slowlogdef/internal/timeparse"
)

const (
	defaultMaxSampleSize = 10 * 1024 * 1024
	maxLinesPerChunk     = 200
)

var reSetTimestamp = regexp.MustCompile(`SET timestamp=(\d+);`)

// CoverageKind labels why a Check arrived at its estimated coverage.
type CoverageKind string

const (
	CoverageUnknown          CoverageKind = "unknown"
	CoverageNoTimestampFound CoverageKind = "no_timestamps_found"
	CoverageFullFileInRange  CoverageKind = "full_file_in_range"
	CoverageFullRangeCovered CoverageKind = "full_range_covered"
	CoverageMostlyCovered    CoverageKind = "mostly_covered"
	CoveragePartiallyCovered CoverageKind = "partially_covered"
	CoverageLimitedOverlap   CoverageKind = "limited_overlap"
	CoverageNoOverlap        CoverageKind = "no_overlap"
)

// Result is the sampler's verdict on one file.
type Result struct {
	HasDataInRange    bool
	EstimatedCoverage float64
	Kind              CoverageKind
	SampleCount       int
	FileStartTime     time.Time
	FileEndTime       time.Time
	// Err is the stat or open error that kept the file from being
	// sampled; the verdict then assumes data may be in range.
	Err error
}

// Range is the inclusive UTC window being searched for.
type Range struct {
	Start time.Time
	End   time.Time
}

// Check samples the head, middle, and tail of path and reports whether
// it looks like the file has any data inside r. A nil *Range means no
// time filtering is requested, so every file trivially qualifies.
func Check(path string, r *Range) Result {
	if r == nil {
		return Result{HasDataInRange: true, EstimatedCoverage: 1.0}
	}

	info, err := os.Stat(path)
	if err != nil {
		return Result{HasDataInRange: true, EstimatedCoverage: 1.0, Kind: CoverageUnknown, Err: err}
	}
	size := info.Size()
	sampleSize := defaultMaxSampleSize
	if size <= int64(sampleSize) {
		// A file that fits in one sample is read whole, once.
		sampleSize = int(size)
	} else if v := int(size / 3); v < sampleSize {
		sampleSize = v
	}
	if sampleSize <= 0 {
		return Result{HasDataInRange: true, EstimatedCoverage: 1.0, Kind: CoverageUnknown}
	}

	positions := []int64{
		0,
		maxInt64(0, size/2-int64(sampleSize)/2),
		maxInt64(0, size-int64(sampleSize)),
	}

	f, err := os.Open(path)
	if err != nil {
		return Result{HasDataInRange: true, EstimatedCoverage: 1.0, Kind: CoverageUnknown, Err: err}
	}
	defer f.Close()

	var samples []time.Time
	var fileStart, fileEnd time.Time
	have := false

	for i, pos := range positions {
		if i > 0 && pos == positions[i-1] {
			continue
		}
		times := sampleChunk(f, pos, sampleSize)
		for _, t := range times {
			samples = append(samples, t)
			if !have || t.Before(fileStart) {
				fileStart = t
			}
			if !have || t.After(fileEnd) {
				fileEnd = t
			}
			have = true
		}
	}

	if len(samples) == 0 {
		return Result{HasDataInRange: true, EstimatedCoverage: 0.0, Kind: CoverageNoTimestampFound}
	}

	hasData := false
	for _, t := range samples {
		if !t.Before(r.Start) && !t.After(r.End) {
			hasData = true
			break
		}
	}

	coverage, kind := estimateCoverage(fileStart, fileEnd, r, hasData)

	return Result{
		HasDataInRange:    hasData,
		EstimatedCoverage: coverage,
		Kind:              kind,
		SampleCount:       len(samples),
		FileStartTime:     fileStart,
		FileEndTime:       fileEnd,
	}
}

func estimateCoverage(fileStart, fileEnd time.Time, r *Range, hasData bool) (float64, CoverageKind) {
	if !hasData {
		return 0.0, CoverageUnknown
	}

	overlapStart := fileStart
	if r.Start.After(overlapStart) {
		overlapStart = r.Start
	}
	overlapEnd := fileEnd
	if r.End.Before(overlapEnd) {
		overlapEnd = r.End
	}
	if overlapStart.After(overlapEnd) {
		return 0.0, CoverageNoOverlap
	}

	switch {
	case !fileStart.Before(r.Start) && !fileEnd.After(r.End):
		return 1.0, CoverageFullFileInRange
	case !r.Start.Before(fileStart) && !r.End.After(fileEnd):
		return 1.0, CoverageFullRangeCovered
	}

	fileDuration := fileEnd.Sub(fileStart).Seconds()
	if fileDuration <= 0 {
		return 0.0, CoverageLimitedOverlap
	}
	overlapDuration := overlapEnd.Sub(overlapStart).Seconds()
	ratio := overlapDuration / fileDuration

	switch {
	case ratio > 0.8:
		return 0.9, CoverageMostlyCovered
	case ratio > 0.5:
		return 0.7, CoveragePartiallyCovered
	default:
		return ratio * 0.5, CoverageLimitedOverlap
	}
}

func sampleChunk(f *os.File, pos int64, size int) []time.Time {
	buf := make([]byte, size)
	n, err := f.ReadAt(buf, pos)
	if n == 0 && err != nil {
		return nil
	}
	buf = buf[:n]

	var times []time.Time
	sc := bufio.NewScanner(strings.NewReader(string(buf)))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lines := 0
	for sc.Scan() && lines < maxLinesPerChunk {
		lines++
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "# Time:"):
			ts := strings.TrimSpace(strings.TrimPrefix(line, "# Time:"))
			if t, ok := timeparse.Parse(ts); ok {
				times = append(times, t)
			}
		case strings.HasPrefix(line, "SET timestamp="):
			if m := reSetTimestamp.FindStringSubmatch(line); m != nil {
				if t, ok := timeparse.Parse(m[1]); ok {
					times = append(times, t)
				}
			}
		}
	}
	return times
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
