package aggregate

import (
	"math"
	"sort"

	"github.com/slowlogdef/slowlogdef/internal/slowlog"
	"github.com/slowlogdef/slowlogdef/internal/util"
)

// Row is one fingerprint's finished summary, ready for an emitter.
type Row struct {
	Fingerprint       string
	Samples           int64
	TotalTimeS        float64
	AvgTimeS          float64
	P95TimeS          float64
	HasP95            bool
	MaxTimeS          float64
	AvgLockTimeS      float64
	HasAvgLockTimeS   bool
	RowsExaminedTotal int64
	RowsExaminedAvg   float64
	RowsSentTotal     int64
	RowsSentAvg       float64
	TimeSharePct      float64
	CountSharePct     float64
	FirstSeen         string
	LastSeen          string
	ExampleQuery      string
	NormSQL           string
	DB                string
	UserHost          string
	MainTable         string
	HasTruncated      bool
}

// BuildRows turns merged fingerprint groups into sorted, share-annotated
// rows: percentile and average fields are computed per fingerprint,
// then time_share_pct/count_share_pct are computed against the totals
// across every row, and the result is sorted by total time descending,
// then by sample count descending.
func BuildRows(agg map[string]*slowlog.Group) []Row {
	rows := make([]Row, 0, len(agg))
	var totalTime float64
	var totalSamples int64

	for fp, g := range util.CanonicalMapIter(agg) {
		row := Row{
			Fingerprint:       fp,
			Samples:           g.Samples,
			TotalTimeS:        g.TotalTimeS,
			MaxTimeS:          g.MaxTimeS,
			RowsExaminedTotal: g.RowsExaminedTotal,
			RowsSentTotal:     g.RowsSentTotal,
			FirstSeen:         g.FirstSeen,
			LastSeen:          g.LastSeen,
			ExampleQuery:      g.ExampleQuery,
			NormSQL:           g.NormSQL,
			DB:                g.DB,
			UserHost:          g.UserHost,
			MainTable:         g.MainTable,
			HasTruncated:      g.HasTruncated,
		}

		if g.Samples > 0 {
			row.AvgTimeS = g.TotalTimeS / float64(g.Samples)
			row.AvgLockTimeS = g.SumLockTimeS / float64(g.Samples)
			row.HasAvgLockTimeS = true
			row.RowsExaminedAvg = float64(g.RowsExaminedTotal) / float64(g.Samples)
			row.RowsSentAvg = float64(g.RowsSentTotal) / float64(g.Samples)
		}

		if p95, ok := Percentile95(g.Durations); ok {
			row.P95TimeS = p95
			row.HasP95 = true
		}

		totalTime += g.TotalTimeS
		totalSamples += g.Samples
		rows = append(rows, row)
	}

	for i := range rows {
		if totalTime > 0 {
			rows[i].TimeSharePct = round3(rows[i].TotalTimeS / totalTime * 100.0)
		}
		if totalSamples > 0 {
			rows[i].CountSharePct = round3(float64(rows[i].Samples) / float64(totalSamples) * 100.0)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TotalTimeS != rows[j].TotalTimeS {
			return rows[i].TotalTimeS > rows[j].TotalTimeS
		}
		return rows[i].Samples > rows[j].Samples
	})

	return rows
}

// Percentile95 computes the 95th percentile of durations using linear
// interpolation between closest ranks, the same definition numpy's
// default percentile method uses. Returns (0, false) for an empty
// slice.
func Percentile95(durations []float64) (float64, bool) {
	if len(durations) == 0 {
		return 0, false
	}
	sorted := append([]float64(nil), durations...)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0], true
	}

	rank := 0.95 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower], true
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower]), true
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
