package emit

import (
	"fmt"
	"os"
	"strings"

	"github.com/slowlogdef/slowlogdef/internal/aggregate"
)

// MarkdownOptions controls the Markdown report's language and row cap.
type MarkdownOptions struct {
	// Lang is "zh" or "en"; anything else falls back to "zh" to match
	// the bilingual report's original default.
	Lang string
	// Top caps the number of rows rendered in the table.
	Top int
}

type markdownStrings struct {
	title    string
	noData   string
	samples  string
	total    string
	rank     string
	colSamp  string
	colTotal string
	colAvg   string
	colP95   string
	colMax   string
	colShare string
	colTable string
	colDB    string
	colFP    string
	colSQL   string
}

var zhStrings = markdownStrings{
	title:    "MySQL 慢日志汇总",
	noData:   "（无数据）",
	samples:  "总样本数",
	total:    "总耗时",
	rank:     "排名",
	colSamp:  "样本数",
	colTotal: "总耗时(s)",
	colAvg:   "平均耗时(s)",
	colP95:   "P95耗时(s)",
	colMax:   "最大耗时(s)",
	colShare: "总耗时占比(%)",
	colTable: "主表",
	colDB:    "数据库",
	colFP:    "指纹",
	colSQL:   "规范化SQL(前120字)",
}

var enStrings = markdownStrings{
	title:    "MySQL Slow Log Summary",
	noData:   "(no data)",
	samples:  "total samples",
	total:    "total time",
	rank:     "rank",
	colSamp:  "samples",
	colTotal: "total_time(s)",
	colAvg:   "avg_time(s)",
	colP95:   "p95_time(s)",
	colMax:   "max_time(s)",
	colShare: "time_share(%)",
	colTable: "main_table",
	colDB:    "db",
	colFP:    "fingerprint",
	colSQL:   "normalized_sql(first 120 chars)",
}

func resolveLang(lang string) markdownStrings {
	if strings.EqualFold(lang, "en") {
		return enStrings
	}
	return zhStrings
}

// WriteMarkdown renders rows as a Markdown table capped at opts.Top
// entries, sorted by total time as aggregate.BuildRows already left
// them, in the language opts.Lang selects.
func WriteMarkdown(path string, rows []aggregate.Row, opts MarkdownOptions) error {
	s := resolveLang(opts.Lang)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if len(rows) == 0 {
		_, err := fmt.Fprintf(f, "# %s\n\n%s\n", s.title, s.noData)
		return err
	}

	top := opts.Top
	if top <= 0 || top > len(rows) {
		top = len(rows)
	}

	var totalTime float64
	var totalSamples int64
	for _, r := range rows {
		totalTime += r.TotalTimeS
		totalSamples += r.Samples
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s (Top %d by total time)\n\n", s.title, top)
	fmt.Fprintf(&b, "- %s: **%d**\n", s.samples, totalSamples)
	fmt.Fprintf(&b, "- %s: **%.3f s**\n", s.total, totalTime)
	fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
		s.rank, s.colSamp, s.colTotal, s.colAvg, s.colP95, s.colMax, s.colShare, s.colTable, s.colFP)
	b.WriteString("|---:|---:|---:|---:|---:|---:|---:|---|---|\n")

	for i, r := range rows[:top] {
		p95 := ""
		if r.HasP95 {
			p95 = fmt.Sprintf("%.3f", r.P95TimeS)
		}
		norm := r.NormSQL
		if len(norm) > 120 {
			norm = norm[:120]
		}
		norm = strings.ReplaceAll(norm, "|", "\\|")

		fmt.Fprintf(&b, "| %d | %d | %.3f | %.3f | %s | %.3f | %.3f | %s | `%s` |\n",
			i+1, r.Samples, r.TotalTimeS, r.AvgTimeS, p95, r.MaxTimeS, r.TimeSharePct, r.MainTable, r.Fingerprint)
	}

	_, err = f.WriteString(b.String())
	return err
}
