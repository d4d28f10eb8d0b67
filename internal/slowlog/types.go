// Package slowlog parses MySQL slow query log text into per-fingerprint
// aggregate groups.
package slowlog

// Group accumulates every sample seen for one normalized query
// fingerprint within a single shard. Merging two Groups for the same
// fingerprint is field-wise: counters sum, extrema take the wider
// bound, and Durations concatenate.
type Group struct {
	Fingerprint       string
	Samples           int64
	TotalTimeS        float64
	MaxTimeS          float64
	SumLockTimeS      float64
	RowsExaminedTotal int64
	RowsSentTotal     int64
	Durations         []float64
	FirstSeen         string
	LastSeen          string
	NormSQL           string
	ExampleQuery      string
	DB                string
	UserHost          string
	MainTable         string
	HasTruncated      bool
}

// ShardStats counts how a single shard's text was classified and
// filtered while parsing, for the orchestrator's --stats report.
type ShardStats struct {
	TimeLines         int64
	QTimeLines        int64
	ParsedRecords     int64
	FilteredMinTime   int64
	FilteredDumps     int64
	TruncatedRecords  int64
	FilteredTimeRange int64
}

// Add folds other into s field by field.
func (s *ShardStats) Add(other ShardStats) {
	s.TimeLines += other.TimeLines
	s.QTimeLines += other.QTimeLines
	s.ParsedRecords += other.ParsedRecords
	s.FilteredMinTime += other.FilteredMinTime
	s.FilteredDumps += other.FilteredDumps
	s.TruncatedRecords += other.TruncatedRecords
	s.FilteredTimeRange += other.FilteredTimeRange
}

// record holds the fields collected for one in-progress log entry,
// between a "# Time:" header and the statement that follows it.
type record struct {
	timeStr      string
	userHost     string
	queryTime    *float64
	lockTime     *float64
	rowsSent     *int64
	rowsExamined *int64
	start        string
	end          string
	db           string
	setTimestamp string
}

func blankRecord() record {
	return record{}
}
