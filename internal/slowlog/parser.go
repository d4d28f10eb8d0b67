package slowlog

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/slowlogdef/slowlogdef/internal/sqlnorm"
	"github.com/slowlogdef/slowlogdef/internal/timeparse"
)

var (
	reQueryTime    = regexp.MustCompile(`Query_time:\s*([\d.]+)`)
	reLockTime     = regexp.MustCompile(`Lock_time:\s*([\d.]+)`)
	reRowsSent     = regexp.MustCompile(`Rows_sent:\s*(\d+)`)
	reRowsExamined = regexp.MustCompile(`Rows_examined:\s*(\d+)`)
	reStart        = regexp.MustCompile(`Start:\s*(\S+)`)
	reEnd          = regexp.MustCompile(`End:\s*(\S+)`)
	reUse          = regexp.MustCompile(`(?i)^\s*use\s+([` + "`" + `"\w.-]+);`)
	reSetTimestamp = regexp.MustCompile(`SET timestamp=(\d+);`)
)

const exampleQueryMaxLen = 1500

// TimeRange bounds an inclusive UTC window used to filter entries by
// their observed timestamp. A nil *TimeRange disables time filtering.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

func (r *TimeRange) contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Options configures how ParseShard classifies and filters raw text.
type Options struct {
	MinTime       float64
	ExcludeDumps  bool
	MarkTruncated bool
	LooseStart    bool
	TimeRange     *TimeRange
}

// ParseShard scans raw slow-log text belonging to one shard and
// returns the per-fingerprint groups found, alongside classification
// counters. It never returns an error: malformed or partial records
// are dropped or flagged truncated rather than failing the shard.
func ParseShard(data []byte, opts Options) (map[string]*Group, ShardStats) {
	var stats ShardStats
	result := make(map[string]*Group)

	cur := blankRecord()
	var sqlBuf []string
	lastDB := ""
	started := false

	flush := func(truncated bool) {
		sql := strings.TrimSpace(strings.Join(sqlBuf, "\n"))
		if sql != "" {
			db := cur.db
			if db == "" {
				db = lastDB
			}
			addEntry(result, &stats, cur, db, sql, truncated, opts)
			stats.ParsedRecords++
		}
		cur = blankRecord()
		sqlBuf = nil
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()

		if strings.HasPrefix(line, "# Time:") {
			stats.TimeLines++
			if len(sqlBuf) > 0 && started {
				flush(false)
			}
			started = true
			cur.timeStr = strings.TrimSpace(strings.TrimPrefix(line, "# Time:"))
			continue
		}

		if strings.HasPrefix(line, "# Query_time:") {
			stats.QTimeLines++
			if opts.LooseStart && !started {
				if len(sqlBuf) > 0 {
					flush(false)
				}
				started = true
			}
			if !opts.LooseStart && !started {
				// Strict mode only recognizes "# Time:" as a record
				// start; a "# Query_time:" line seen before one is
				// preamble noise, not header content for a record.
				continue
			}
			if m := reQueryTime.FindStringSubmatch(line); m != nil {
				if v, err := strconv.ParseFloat(m[1], 64); err == nil {
					cur.queryTime = &v
				}
			}
			if m := reLockTime.FindStringSubmatch(line); m != nil {
				if v, err := strconv.ParseFloat(m[1], 64); err == nil {
					cur.lockTime = &v
				}
			}
			if m := reRowsSent.FindStringSubmatch(line); m != nil {
				if v, err := strconv.ParseInt(m[1], 10, 64); err == nil {
					cur.rowsSent = &v
				}
			}
			if m := reRowsExamined.FindStringSubmatch(line); m != nil {
				if v, err := strconv.ParseInt(m[1], 10, 64); err == nil {
					cur.rowsExamined = &v
				}
			}
			if m := reStart.FindStringSubmatch(line); m != nil {
				cur.start = m[1]
			}
			if m := reEnd.FindStringSubmatch(line); m != nil {
				cur.end = m[1]
			}
			continue
		}

		if m := reUse.FindStringSubmatch(line); m != nil {
			db := strings.Trim(m[1], "`\"")
			cur.db = db
			lastDB = db
			continue
		}

		if strings.HasPrefix(line, "SET timestamp=") {
			if m := reSetTimestamp.FindStringSubmatch(line); m != nil {
				cur.setTimestamp = m[1]
			}
			continue
		}

		if strings.HasPrefix(line, "# ") {
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		sqlBuf = append(sqlBuf, line)
	}

	if len(sqlBuf) > 0 {
		stats.TruncatedRecords++
		flush(true)
	}

	return result, stats
}

func addEntry(result map[string]*Group, stats *ShardStats, r record, db, sql string, truncated bool, opts Options) {
	if opts.ExcludeDumps {
		lower := strings.ToLower(sql)
		if strings.Contains(lower, "sql_no_cache") && strings.Contains(sql, "/*!") {
			stats.FilteredDumps++
			return
		}
	}

	if r.queryTime == nil {
		return
	}
	qt := *r.queryTime
	if qt < opts.MinTime {
		stats.FilteredMinTime++
		return
	}

	if opts.TimeRange != nil {
		if !timeInRange(r, opts.TimeRange) {
			stats.FilteredTimeRange++
			return
		}
	}

	if truncated && opts.MarkTruncated {
		sql += " /* TRUNCATED */"
	}

	fp := sqlnorm.Fingerprint(sql)
	g := result[fp]
	if g == nil {
		mainTable, _ := sqlnorm.MainTable(sql)
		g = &Group{
			Fingerprint:  fp,
			NormSQL:      sqlnorm.Normalize(sql),
			ExampleQuery: truncateRunes(sql, exampleQueryMaxLen),
			DB:           db,
			MainTable:    mainTable,
			HasTruncated: truncated,
		}
		result[fp] = g
	} else if truncated {
		g.HasTruncated = true
	}

	g.Samples++
	g.TotalTimeS += qt
	g.Durations = append(g.Durations, qt)
	if qt > g.MaxTimeS {
		g.MaxTimeS = qt
	}
	if r.lockTime != nil {
		g.SumLockTimeS += *r.lockTime
	}
	if r.rowsExamined != nil {
		g.RowsExaminedTotal += *r.rowsExamined
	}
	if r.rowsSent != nil {
		g.RowsSentTotal += *r.rowsSent
	}

	for _, val := range []string{r.timeStr, r.start, r.end, r.setTimestamp} {
		if val == "" {
			continue
		}
		if g.FirstSeen == "" || val < g.FirstSeen {
			g.FirstSeen = val
		}
		if g.LastSeen == "" || val > g.LastSeen {
			g.LastSeen = val
		}
	}
}

// timeInRange checks the record's primary timestamp first, falling
// back to set_timestamp, start, and end in that order, matching the
// precedence the upstream log format favors for reliability.
func timeInRange(r record, tr *TimeRange) bool {
	if r.timeStr != "" {
		if t, ok := timeparse.Parse(r.timeStr); ok && tr.contains(t) {
			return true
		}
	}
	for _, val := range []string{r.setTimestamp, r.start, r.end} {
		if val == "" {
			continue
		}
		if t, ok := timeparse.Parse(val); ok && tr.contains(t) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
