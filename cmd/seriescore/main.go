// Command seriescore runs the ordering pipeline stages against a configured
// artifact store: capture a baseline, apply the canonical ordering, verify
// the transformation, or resolve a display order from whatever artifacts
// exist.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"seriescore/internal/artifact"
	"seriescore/internal/audit"
	"seriescore/internal/blob"
	"seriescore/internal/core"
	"seriescore/internal/presentation"
	"seriescore/pkg/domain"
)

var exitFunc = os.Exit

// main runs the command-line interface using the program arguments and exits
// the process with the status code returned by cli.
func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func usage(stderr io.Writer) {
	fmt.Fprintln(stderr, "usage: seriescore <capture|order|verify|resolve|run> [flags]")
	fmt.Fprintln(stderr, "  capture  -source <entries.json> [-prefix <key>]   capture the baseline manifest")
	fmt.Fprintln(stderr, "  order    [-prefix <key>]                          apply ordering to the stored baseline")
	fmt.Fprintln(stderr, "  verify   [-prefix <key>]                          verify the stored ordering artifacts")
	fmt.Fprintln(stderr, "  resolve  -source <entries.json> [-prefix <key>] [-index <out.json>]")
	fmt.Fprintln(stderr, "           resolve an advisory display order, optionally exporting a viewer index")
	fmt.Fprintln(stderr, "  run      -source <entries.json> [-prefix <key>]   capture, order, and verify in sequence")
}

func cli(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	command := args[0]

	fs := flag.NewFlagSet("seriescore "+command, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		source    string
		prefix    string
		indexPath string
		verbose   bool
	)
	fs.StringVar(&source, "source", "", "path to the extracted entries JSON file")
	fs.StringVar(&prefix, "prefix", "", "artifact key prefix within the blob store")
	fs.StringVar(&indexPath, "index", "", "write a viewer index JSON file to this path (resolve only)")
	fs.BoolVar(&verbose, "v", false, "enable debug logging")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slogLogger{slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))}

	ctx := context.Background()
	store, err := blob.Open(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "open blob store: %v\n", err)
		return 1
	}
	artifacts := artifact.NewStore(store, prefix)

	recorder, err := audit.Open(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "open audit recorder: %v\n", err)
		return 1
	}

	opts := []core.Option{core.WithLogger(logger)}
	if recorder != nil {
		opts = append(opts, core.WithAuditRecorder(recorder))
	}
	svc := core.NewService(core.NewFileEntryExtractor(), artifacts, opts...)

	switch command {
	case "capture":
		if source == "" {
			fmt.Fprintln(stderr, "capture: -source is required")
			return 2
		}
		manifest, err := svc.CaptureBaseline(ctx, source)
		if err != nil {
			fmt.Fprintf(stderr, "capture failed: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "baseline %s captured (%d entries, %d series)\n",
			manifest.ManifestID, manifest.TotalFiles, manifest.TotalSeries)
		fmt.Fprintf(stdout, "sha256 %s\n", manifest.ContentHash)
		return 0

	case "order":
		ordered, log, err := svc.ApplyOrdering(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "ordering failed: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "ordered manifest %s generated (%d entries, %d series, %d reordered)\n",
			ordered.ManifestID, ordered.TotalEntries, ordered.TotalSeries, log.Summary.TotalInstancesReordered)
		fmt.Fprintf(stdout, "sha256 %s\n", ordered.ContentHash)
		return 0

	case "verify":
		report, err := svc.VerifyOrdering(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "verification failed to run: %v\n", err)
			return 1
		}
		if report.AllChecksPassed {
			fmt.Fprintf(stdout, "verification passed: %d instances across %d series\n",
				report.TotalOrderedCount, len(report.SeriesResults))
			return 0
		}
		fmt.Fprintf(stdout, "verification FAILED: dropped=%d duplicates=%d unexplained=%d\n",
			report.TotalDropped, report.TotalDuplicates, report.TotalUnexplainedReorders)
		for _, reason := range report.FailureReasons {
			fmt.Fprintf(stdout, "  - %s\n", reason)
		}
		return 1

	case "resolve":
		if source == "" {
			fmt.Fprintln(stderr, "resolve: -source is required")
			return 2
		}
		return resolve(ctx, source, indexPath, artifacts, logger, stdout, stderr)

	case "run":
		if source == "" {
			fmt.Fprintln(stderr, "run: -source is required")
			return 2
		}
		result, err := svc.Run(ctx, source)
		if err != nil {
			fmt.Fprintf(stderr, "pipeline failed: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "baseline  %s  sha256 %s\n", result.Baseline.ManifestID, result.Baseline.ContentHash)
		fmt.Fprintf(stdout, "ordered   %s  sha256 %s\n", result.Ordered.ManifestID, result.Ordered.ContentHash)
		fmt.Fprintf(stdout, "decisions %s  sha256 %s\n", result.Log.LogID, result.Log.ContentHash)
		fmt.Fprintf(stdout, "report    %s  sha256 %s\n", result.Report.ReportID, result.Report.ContentHash)
		if !result.Report.AllChecksPassed {
			fmt.Fprintln(stdout, "verification FAILED")
			return 1
		}
		fmt.Fprintln(stdout, "verification passed")
		return 0

	default:
		usage(stderr)
		return 2
	}
}

// resolve loads whatever manifests are stored and prints the advisory
// display order. Missing manifests degrade the cascade; they are not errors.
func resolve(ctx context.Context, source, indexPath string, artifacts *artifact.Store, logger domain.Logger, stdout, stderr io.Writer) int {
	entries, err := core.NewFileEntryExtractor().Extract(ctx, source)
	if err != nil {
		fmt.Fprintf(stderr, "resolve: %v\n", err)
		return 1
	}

	var ordered *domain.OrderedManifest
	if m, err := artifacts.LoadOrdered(ctx); err == nil {
		ordered = &m
	} else {
		logger.Warn("ordered manifest unavailable", "error", err)
	}
	var baseline *domain.BaselineManifest
	if m, err := artifacts.LoadBaseline(ctx); err == nil {
		baseline = &m
	} else {
		logger.Warn("baseline manifest unavailable", "error", err)
	}

	view := presentation.NewResolver(logger).Resolve(entries, ordered, baseline)
	summary := view.Summarize()
	fmt.Fprintf(stdout, "%s (%d series, %d instances)\n",
		presentation.SeriesOrderingLabel(view.SeriesOrderingMethod), summary.TotalSeries, summary.TotalInstances)
	for _, s := range view.Series {
		fmt.Fprintf(stdout, "%s  [%s]\n", s.DisplayLabel(), presentation.OrderingLabel(s.OrderingMethod))
		for _, inst := range s.Instances {
			pos := struct {
				Position   int     `json:"position"`
				InstanceID string  `json:"instance_id"`
				Filename   string  `json:"filename,omitempty"`
				Number     *int    `json:"instance_number,omitempty"`
				Time       *string `json:"acquisition_time,omitempty"`
			}{inst.StackPosition, inst.InstanceID, inst.Filename, inst.InstanceNumber, inst.AcquisitionTime}
			line, _ := json.Marshal(pos)
			fmt.Fprintf(stdout, "  %s\n", line)
		}
	}

	if indexPath != "" {
		index := view.BuildViewerIndex("", time.Now(), string(view.SeriesOrderingMethod))
		if problems := index.Validate(); len(problems) > 0 {
			for _, p := range problems {
				fmt.Fprintf(stderr, "viewer index: %s\n", p)
			}
			return 1
		}
		data, err := json.MarshalIndent(index, "", "  ")
		if err != nil {
			fmt.Fprintf(stderr, "encode viewer index: %v\n", err)
			return 1
		}
		if err := os.WriteFile(indexPath, append(data, '\n'), 0o600); err != nil {
			fmt.Fprintf(stderr, "write viewer index: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "viewer index written to %s\n", indexPath)
	}
	return 0
}

// slogLogger adapts a slog.Logger to the domain logging interface.
type slogLogger struct {
	l *slog.Logger
}

func (s slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }
