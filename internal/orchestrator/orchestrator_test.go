package orchestrator

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "slow.log")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const twoRecordLog = `# Time: 2023-08-14T09:00:00.000000Z
# Query_time: 2.0  Lock_time: 0.1 Rows_sent: 1  Rows_examined: 10
SELECT * FROM users WHERE id = 1;
# Time: 2023-08-14T09:00:01.000000Z
# Query_time: 0.5  Lock_time: 0.0 Rows_sent: 1  Rows_examined: 2
SELECT * FROM users WHERE id = 2;
`

func TestRunBasicAggregation(t *testing.T) {
	path := writeTemp(t, twoRecordLog)

	res, err := Run(Config{LogFile: path, Jobs: 2, Window: WindowAll})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.EqualValues(t, 2, res.Rows[0].Samples)
	assert.InDelta(t, 2.5, res.Rows[0].TotalTimeS, 1e-9)
	assert.False(t, res.Skipped)
}

func TestRunMinTimeFilter(t *testing.T) {
	path := writeTemp(t, twoRecordLog)

	res, err := Run(Config{LogFile: path, Jobs: 2, MinTime: 1.0})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.EqualValues(t, 1, res.Rows[0].Samples)
	assert.EqualValues(t, 1, res.ShardStats.FilteredMinTime)
}

func TestRunSkipsViaSamplerWhenOutOfRange(t *testing.T) {
	content := "# Time: 2020-01-01T00:00:00Z\n# Query_time: 1.0 Lock_time: 0.0 Rows_sent: 0 Rows_examined: 0\nSELECT 1;\n"
	path := writeTemp(t, content)

	res, err := Run(Config{
		LogFile: path,
		Jobs:    1,
		Window:  WindowDays,
		Days:    1,
		Now:     time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Empty(t, res.Rows)
}

func TestRunTodayWindowKeepsMatchingRecord(t *testing.T) {
	now := time.Date(2023, 8, 14, 12, 0, 0, 0, time.UTC)
	content := "# Time: 2023-08-14T01:00:00Z\n# Query_time: 1.0 Lock_time: 0.0 Rows_sent: 0 Rows_examined: 0\nSELECT 1;\n" +
		"# Time: 2022-01-01T01:00:00Z\n# Query_time: 1.0 Lock_time: 0.0 Rows_sent: 0 Rows_examined: 0\nSELECT 2;\n"
	path := writeTemp(t, content)

	res, err := Run(Config{LogFile: path, Jobs: 1, Window: WindowToday, Now: now})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.EqualValues(t, 1, res.ShardStats.FilteredTimeRange)
}

func TestRunEmptyFileProducesNoRows(t *testing.T) {
	path := writeTemp(t, "")
	res, err := Run(Config{LogFile: path, Jobs: 2})
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
}
