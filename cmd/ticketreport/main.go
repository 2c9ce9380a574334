// Command ticketreport loads a ticket spreadsheet, applies a filter selection
// and prints the KPI summary. It can also write the filtered table to disk.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"ticketdash/internal/dataprocessing"
	"ticketdash/internal/exporter"
	"ticketdash/internal/infrastructure"
	"ticketdash/pkg/contracts"
	"ticketdash/pkg/contracts/domain"
)

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type options struct {
	file     string
	from     string
	to       string
	export   string
	format   string
	logLevel string
	version  bool
	sel      domain.Selection
}

// report is the JSON output of a run.
type report struct {
	Source             string           `json:"source"`
	LoadedRows         int              `json:"loaded_rows"`
	Selection          domain.Selection `json:"selection"`
	Summary            domain.Summary   `json:"summary"`
	SLALabel           string           `json:"sla_label"`
	AvgResolutionLabel string           `json:"avg_resolution_label"`
	Warnings           []domain.Warning `json:"warnings,omitempty"`
	ExportedTo         string           `json:"exported_to,omitempty"`
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if opts.version {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	logger := infrastructure.NewLogger(os.Stderr, opts.logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout, logger); err != nil {
		logger.Error("Report failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	fs := flag.NewFlagSet("ticketreport", flag.ContinueOnError)
	fs.SetOutput(output)

	opts := &options{}
	var priorities, types, slas, statuses, shifts stringList

	fs.StringVar(&opts.file, "file", "data.xlsx", "ticket spreadsheet (.xlsx, .xlsm or .csv)")
	fs.Var(&priorities, "priority", "keep only this Priority (repeatable)")
	fs.Var(&types, "type", "keep only this short ticket type (repeatable)")
	fs.Var(&slas, "sla", "keep only this Resolution Status (repeatable)")
	fs.Var(&statuses, "status", "keep only this Status (repeatable)")
	fs.Var(&shifts, "shift", "keep only this Shift Timing (repeatable)")
	fs.StringVar(&opts.from, "from", "", "first created day, YYYY-MM-DD")
	fs.StringVar(&opts.to, "to", "", "last created day, YYYY-MM-DD")
	fs.StringVar(&opts.export, "export", "", "write the filtered table to this .xlsx or .csv path")
	fs.StringVar(&opts.format, "format", "text", "output format: text or json")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	fs.BoolVar(&opts.version, "version", false, "print the version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.format != "text" && opts.format != "json" {
		err := fmt.Errorf("unknown output format %q", opts.format)
		fmt.Fprintln(output, err)
		return nil, err
	}
	if fs.NArg() > 0 {
		err := fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
		fmt.Fprintln(output, err)
		return nil, err
	}

	opts.sel = domain.Selection{
		Priorities:         priorities,
		TicketTypes:        types,
		ResolutionStatuses: slas,
		Statuses:           statuses,
		ShiftTimings:       shifts,
	}
	for _, d := range []string{opts.from, opts.to} {
		if d != "" {
			opts.sel.DateRange = append(opts.sel.DateRange, d)
		}
	}
	return opts, nil
}

func run(ctx context.Context, opts *options, out io.Writer, logger *slog.Logger) error {
	table, err := dataprocessing.NewLoader(logger).LoadFile(ctx, opts.file)
	if err != nil {
		return err
	}

	filtered, warnings := dataprocessing.Apply(table, opts.sel)
	summary := dataprocessing.Summarize(filtered)

	for _, w := range warnings {
		logger.WarnContext(ctx, w.Message, slog.String("code", w.Code))
	}

	if opts.export != "" {
		if err := exporter.New(logger).ExportFile(ctx, opts.export, filtered); err != nil {
			return fmt.Errorf("export %s: %w", opts.export, err)
		}
	}

	rep := report{
		Source:             table.Source,
		LoadedRows:         table.Len(),
		Selection:          opts.sel,
		Summary:            summary,
		SLALabel:           summary.SLALabel(),
		AvgResolutionLabel: summary.AvgResolutionLabel(),
		Warnings:           warnings,
		ExportedTo:         opts.export,
	}

	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	return writeText(out, rep)
}

func writeText(out io.Writer, rep report) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Source\t%s\n", rep.Source)
	fmt.Fprintf(tw, "Loaded rows\t%d\n", rep.LoadedRows)
	fmt.Fprintf(tw, "Total tickets\t%d\n", rep.Summary.Total)
	fmt.Fprintf(tw, "Within SLA\t%s\n", rep.SLALabel)
	fmt.Fprintf(tw, "Avg resolution (hrs)\t%s\n", rep.AvgResolutionLabel)
	fmt.Fprintf(tw, "Bug tickets\t%d\n", rep.Summary.BugCount)
	fmt.Fprintf(tw, "P4 tickets\t%d\n", rep.Summary.P4Count)

	writeGroup(tw, "Resolution status", rep.Summary.ByResolutionStatus)
	writeGroup(tw, "Priority", rep.Summary.ByPriority)
	writeGroup(tw, "Ticket type", rep.Summary.ByTicketType)
	writeGroup(tw, "Created month", rep.Summary.ByCreatedMonth)

	if len(rep.Summary.ByTypeAndShift) > 0 {
		fmt.Fprintln(tw, "\nType by shift")
		for _, typ := range sortedKeys(rep.Summary.ByTypeAndShift) {
			shifts := rep.Summary.ByTypeAndShift[typ]
			for _, shift := range sortedKeys(shifts) {
				fmt.Fprintf(tw, "  %s / %s\t%d\n", typ, shift, shifts[shift])
			}
		}
	}

	for _, w := range rep.Warnings {
		fmt.Fprintf(tw, "\nWarning\t%s\n", w.Message)
	}
	if rep.ExportedTo != "" {
		fmt.Fprintf(tw, "\nExported\t%s\n", rep.ExportedTo)
	}

	return tw.Flush()
}

func writeGroup(w io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", title)
	for _, k := range sortedKeys(counts) {
		label := k
		if label == "" {
			label = "(blank)"
		}
		fmt.Fprintf(w, "  %s\t%d\n", label, counts[k])
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
