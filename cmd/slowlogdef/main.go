// Command slowlogdef aggregates a MySQL slow query log into
// per-fingerprint statistics and writes them as CSV and, optionally,
// Markdown.
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/slowlogdef/slowlogdef/cmd/slowlogdef/emit"
	"github.com/slowlogdef/slowlogdef/internal/logging"
	"github.com/slowlogdef/slowlogdef/internal/orchestrator"
)

var version string

type cliOptions struct {
	OutCSV        string `long:"out-csv" description:"Write the CSV summary to this path" value-name:"path" default:"slowlog_summary.csv"`
	OutMD         string `long:"out-md" description:"Write the Markdown summary to this path" value-name:"path"`
	Top           int    `long:"top" description:"Number of rows to include in the Markdown report" value-name:"n" default:"10"`
	Lang          string `long:"lang" description:"Report language: zh or en" value-name:"lang" default:"zh"`
	MinTime       float64 `long:"min-time" description:"Drop records with query_time below this many seconds" value-name:"seconds"`
	ExcludeDumps  bool   `long:"exclude-dumps" description:"Drop records that look like SQL_NO_CACHE dump statements"`
	Jobs          int    `long:"jobs" description:"Worker pool size (default: CPU count)" value-name:"n"`
	LooseStart    bool   `long:"loose-start" description:"Treat '# Query_time:' as a valid record start when '# Time:' is missing"`
	MarkTruncated bool   `long:"mark-truncated" description:"Append /* TRUNCATED */ to tail-truncated SQL"`
	Stats         bool   `long:"stats" description:"Print processing counters and phase timings"`
	Days          *int   `long:"days" description:"Analyze the last N days (0 = today only)" value-name:"n"`
	Today         bool   `long:"today" description:"Analyze today only (same as --days 0)"`
	All           bool   `long:"all" description:"Analyze all records; the default"`
	Help          bool   `long:"help" description:"Show this help"`
	Version       bool   `long:"version" description:"Show this version"`
}

func parseOptions(args []string) (string, cliOptions) {
	var opts cliOptions
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options] logfile"

	rest, err := parser.ParseArgs(args)
	if err != nil {
		log.Fatal(err)
	}

	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if len(rest) == 0 {
		fmt.Print("No logfile is specified!\n\n")
		parser.WriteHelp(os.Stdout)
		os.Exit(1)
	}
	if len(rest) > 1 {
		fmt.Printf("Multiple logfiles are given: %v\n\n", rest)
		parser.WriteHelp(os.Stdout)
		os.Exit(1)
	}

	if opts.Today && opts.Days != nil {
		fmt.Print("--today and --days are mutually exclusive\n\n")
		parser.WriteHelp(os.Stdout)
		os.Exit(1)
	}
	if opts.All && (opts.Today || opts.Days != nil) {
		fmt.Print("--all cannot be combined with --today or --days\n\n")
		parser.WriteHelp(os.Stdout)
		os.Exit(1)
	}

	return rest[0], opts
}

func buildConfig(logfile string, opts cliOptions) orchestrator.Config {
	cfg := orchestrator.Config{
		LogFile:       logfile,
		MinTime:       opts.MinTime,
		ExcludeDumps:  opts.ExcludeDumps,
		Jobs:          opts.Jobs,
		LooseStart:    opts.LooseStart,
		MarkTruncated: opts.MarkTruncated,
		ShowStats:     opts.Stats,
		Window:        orchestrator.WindowAll,
	}

	switch {
	case opts.Today:
		cfg.Window = orchestrator.WindowToday
	case opts.Days != nil:
		cfg.Window = orchestrator.WindowDays
		cfg.Days = *opts.Days
	}

	return cfg
}

func main() {
	logging.Init()
	logfile, opts := parseOptions(os.Args[1:])
	cfg := buildConfig(logfile, opts)

	res, err := orchestrator.Run(cfg)
	if err != nil {
		slog.Error("analysis failed", "error", err)
		os.Exit(1)
	}

	if res.Skipped {
		fmt.Println("no data found in the requested time range; skipping")
		return
	}

	if len(res.Rows) == 0 {
		fmt.Println("no matching records found")
		return
	}

	if err := emit.WriteCSV(opts.OutCSV, res.Rows); err != nil {
		slog.Error("failed writing CSV summary", "error", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s\n", opts.OutCSV)

	if opts.OutMD != "" {
		if err := emit.WriteMarkdown(opts.OutMD, res.Rows, emit.MarkdownOptions{
			Lang: opts.Lang,
			Top:  opts.Top,
		}); err != nil {
			slog.Error("failed writing Markdown summary", "error", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", opts.OutMD)
	}

	if opts.Stats {
		printStats(res)
	}
}

func printStats(res orchestrator.Result) {
	fmt.Println()
	fmt.Println("--- stats ---")
	fmt.Printf("shards           : %d (workers: %d)\n", res.NumShards, res.Jobs)
	fmt.Printf("record starts    : %d\n", res.NumStarts)
	fmt.Printf("file size        : %d bytes\n", res.FileSize)
	fmt.Printf("time lines       : %d\n", res.ShardStats.TimeLines)
	fmt.Printf("qtime lines      : %d\n", res.ShardStats.QTimeLines)
	fmt.Printf("parsed records   : %d\n", res.ShardStats.ParsedRecords)
	fmt.Printf("filtered min_time: %d\n", res.ShardStats.FilteredMinTime)
	fmt.Printf("filtered dumps   : %d\n", res.ShardStats.FilteredDumps)
	fmt.Printf("truncated records: %d\n", res.ShardStats.TruncatedRecords)
	fmt.Printf("filtered by range: %d\n", res.ShardStats.FilteredTimeRange)
	fmt.Printf("fingerprints     : %d\n", len(res.Rows))
	fmt.Println()
	fmt.Printf("sample : %s\n", res.Timings.Sample)
	fmt.Printf("scan   : %s\n", res.Timings.Scan)
	fmt.Printf("parse  : %s\n", res.Timings.Parse)
	fmt.Printf("merge  : %s\n", res.Timings.Merge)
	fmt.Printf("stats  : %s\n", res.Timings.Stats)
	fmt.Printf("total  : %s\n", res.Timings.Total)
}
