package aggregate

import (
	"testing"

	"github.com/slowlogdef/slowlogdef/internal/slowlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentile95Interpolates(t *testing.T) {
	p95, ok := Percentile95([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	require.True(t, ok)
	assert.InDelta(t, 9.55, p95, 1e-9)
}

func TestPercentile95SingleValue(t *testing.T) {
	p95, ok := Percentile95([]float64{4.2})
	require.True(t, ok)
	assert.InDelta(t, 4.2, p95, 1e-9)
}

func TestPercentile95Empty(t *testing.T) {
	_, ok := Percentile95(nil)
	assert.False(t, ok)
}

func TestBuildRowsSharesAndSort(t *testing.T) {
	agg := map[string]*slowlog.Group{
		"slow": {
			Fingerprint: "slow",
			Samples:     1,
			TotalTimeS:  9.0,
			MaxTimeS:    9.0,
			Durations:   []float64{9.0},
		},
		"fast": {
			Fingerprint: "fast",
			Samples:     9,
			TotalTimeS:  1.0,
			MaxTimeS:    0.2,
			Durations:   []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.2},
		},
	}

	rows := BuildRows(agg)
	require.Len(t, rows, 2)
	assert.Equal(t, "slow", rows[0].Fingerprint, "rows sort by total time descending")
	assert.InDelta(t, 90.0, rows[0].TimeSharePct, 1e-9)
	assert.InDelta(t, 10.0, rows[1].TimeSharePct, 1e-9)
	assert.InDelta(t, 10.0, rows[0].CountSharePct, 1e-9)
	assert.InDelta(t, 90.0, rows[1].CountSharePct, 1e-9)
	assert.True(t, rows[0].HasP95)
}

func TestBuildRowsEmpty(t *testing.T) {
	rows := BuildRows(map[string]*slowlog.Group{})
	assert.Empty(t, rows)
}
