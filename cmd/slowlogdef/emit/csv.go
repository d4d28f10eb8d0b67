// Package emit writes finished aggregate.Row summaries to CSV and
// Markdown, the two report formats the analyzer produces directly.
package emit

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/slowlogdef/slowlogdef/internal/aggregate"
)

var csvHeader = []string{
	"fingerprint", "samples", "total_time_s", "avg_time_s", "p95_time_s", "max_time_s",
	"time_share_pct", "count_share_pct", "avg_lock_time_s",
	"rows_examined_total", "rows_examined_avg", "rows_sent_total", "rows_sent_avg",
	"db", "main_table", "user_host", "norm_sql", "example_query",
	"first_seen", "last_seen", "has_truncated",
}

// WriteCSV writes rows, sorted as already arranged by aggregate.BuildRows,
// to path as a UTF-8 CSV file with a header row.
func WriteCSV(path string, rows []aggregate.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range rows {
		if err := w.Write(rowToRecord(r)); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func rowToRecord(r aggregate.Row) []string {
	p95 := ""
	if r.HasP95 {
		p95 = strconv.FormatFloat(r.P95TimeS, 'f', 3, 64)
	}
	avgLock := ""
	if r.HasAvgLockTimeS {
		avgLock = strconv.FormatFloat(r.AvgLockTimeS, 'f', 6, 64)
	}

	return []string{
		r.Fingerprint,
		strconv.FormatInt(r.Samples, 10),
		strconv.FormatFloat(r.TotalTimeS, 'f', 6, 64),
		strconv.FormatFloat(r.AvgTimeS, 'f', 6, 64),
		p95,
		strconv.FormatFloat(r.MaxTimeS, 'f', 6, 64),
		strconv.FormatFloat(r.TimeSharePct, 'f', 3, 64),
		strconv.FormatFloat(r.CountSharePct, 'f', 3, 64),
		avgLock,
		strconv.FormatInt(r.RowsExaminedTotal, 10),
		strconv.FormatFloat(r.RowsExaminedAvg, 'f', 3, 64),
		strconv.FormatInt(r.RowsSentTotal, 10),
		strconv.FormatFloat(r.RowsSentAvg, 'f', 3, 64),
		r.DB,
		r.MainTable,
		r.UserHost,
		r.NormSQL,
		r.ExampleQuery,
		r.FirstSeen,
		r.LastSeen,
		strconv.FormatBool(r.HasTruncated),
	}
}
