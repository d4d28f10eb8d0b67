package slowlog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleShard = `# Time: 2023-08-14T09:15:22.000000Z
# User@Host: app[app] @ localhost []
# Query_time: 1.500000  Lock_time: 0.000100 Rows_sent: 1  Rows_examined: 10
SET timestamp=1692002122;
SELECT * FROM users WHERE id = 1;
# Time: 2023-08-14T09:15:23.000000Z
# Query_time: 0.500000  Lock_time: 0.000050 Rows_sent: 0  Rows_examined: 0
SELECT * FROM users WHERE id = 2;
`

func TestParseShardBasic(t *testing.T) {
	groups, stats := ParseShard([]byte(sampleShard), Options{})

	assert.EqualValues(t, 2, stats.TimeLines)
	assert.EqualValues(t, 2, stats.QTimeLines)
	assert.EqualValues(t, 2, stats.ParsedRecords)
	assert.Len(t, groups, 1, "both queries normalize to the same fingerprint")

	var g *Group
	for _, v := range groups {
		g = v
	}
	assert.EqualValues(t, 2, g.Samples)
	assert.InDelta(t, 2.0, g.TotalTimeS, 1e-9)
	assert.InDelta(t, 1.5, g.MaxTimeS, 1e-9)
	assert.Equal(t, "users", g.MainTable)
	assert.EqualValues(t, 1, g.RowsSentTotal)
	assert.EqualValues(t, 10, g.RowsExaminedTotal)
}

func TestParseShardMinTimeFilter(t *testing.T) {
	groups, stats := ParseShard([]byte(sampleShard), Options{MinTime: 1.0})
	assert.Len(t, groups, 1)
	assert.EqualValues(t, 1, stats.FilteredMinTime)
	for _, g := range groups {
		assert.EqualValues(t, 1, g.Samples)
	}
}

func TestParseShardExcludeDumps(t *testing.T) {
	text := "# Time: 2023-08-14T09:15:22.000000Z\n" +
		"# Query_time: 2.0  Lock_time: 0.0 Rows_sent: 0  Rows_examined: 0\n" +
		"SELECT /*!40001 SQL_NO_CACHE */ * FROM t;\n"
	groups, stats := ParseShard([]byte(text), Options{ExcludeDumps: true})
	assert.Empty(t, groups)
	assert.EqualValues(t, 1, stats.FilteredDumps)
}

func TestParseShardTruncatedTail(t *testing.T) {
	text := "# Time: 2023-08-14T09:15:22.000000Z\n" +
		"# Query_time: 1.0  Lock_time: 0.0 Rows_sent: 0  Rows_examined: 0\n" +
		"SELECT * FROM t WHERE x = 1"
	groups, stats := ParseShard([]byte(text), Options{MarkTruncated: true})
	assert.EqualValues(t, 1, stats.TruncatedRecords)
	assert.Len(t, groups, 1)
	for _, g := range groups {
		assert.True(t, g.HasTruncated)
		assert.True(t, strings.HasSuffix(g.ExampleQuery, "/* TRUNCATED */"),
			"example query keeps the literal marker, unnormalized")
	}
}

// A truncated tail still fingerprints identically to its complete form:
// the marker is stripped by the same ordinary-block-comment rule that
// strips any other comment, so truncation never fragments a group.
func TestParseShardTruncatedTailFingerprintsLikeComplete(t *testing.T) {
	complete := "# Time: 2023-08-14T09:15:22.000000Z\n" +
		"# Query_time: 1.0  Lock_time: 0.0 Rows_sent: 0  Rows_examined: 0\n" +
		"SELECT * FROM t WHERE x = 1;\n"
	truncated := "# Time: 2023-08-14T09:15:23.000000Z\n" +
		"# Query_time: 1.0  Lock_time: 0.0 Rows_sent: 0  Rows_examined: 0\n" +
		"SELECT * FROM t WHERE x = 1"

	groups, stats := ParseShard([]byte(complete+truncated), Options{MarkTruncated: true})
	assert.EqualValues(t, 1, stats.TruncatedRecords)
	require.Len(t, groups, 1)
	for _, g := range groups {
		assert.EqualValues(t, 2, g.Samples)
		assert.True(t, g.HasTruncated)
		assert.False(t, strings.Contains(g.NormSQL, "truncated"))
	}
}

func TestParseShardLooseStart(t *testing.T) {
	text := "# User@Host: app[app] @ localhost []\n" +
		"# Query_time: 1.0  Lock_time: 0.0 Rows_sent: 0  Rows_examined: 0\n" +
		"SELECT * FROM t;\n"
	groups, stats := ParseShard([]byte(text), Options{LooseStart: true})
	assert.EqualValues(t, 1, stats.ParsedRecords)
	assert.Len(t, groups, 1)
}

// Without loose_start, a file beginning with "# Query_time:" (no
// leading "# Time:") never sees `started` become true, so that header
// line's fields are skipped and the only flush is the tail-truncation
// flush of a record that has no query_time, which is discarded.
func TestParseShardStrictModeDropsQueryTimeOnlyStart(t *testing.T) {
	text := "# Query_time: 1.0  Lock_time: 0.0 Rows_sent: 0  Rows_examined: 0\n" +
		"SELECT * FROM t;\n"
	groups, stats := ParseShard([]byte(text), Options{LooseStart: false})
	// The framing is still recognized as a (tail-truncated) record, so
	// parsed_records increments, but with no query_time ever assigned
	// to current the record is silently dropped, same as any other
	// record missing a numeric query_time.
	assert.EqualValues(t, 1, stats.ParsedRecords)
	assert.Empty(t, groups)
}

func TestShardStatsAdd(t *testing.T) {
	a := ShardStats{TimeLines: 1, ParsedRecords: 2}
	b := ShardStats{TimeLines: 3, FilteredDumps: 1}
	a.Add(b)
	assert.EqualValues(t, 4, a.TimeLines)
	assert.EqualValues(t, 2, a.ParsedRecords)
	assert.EqualValues(t, 1, a.FilteredDumps)
}
