package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/rs/xid"
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/analysis"
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/report"
)

func newSweepCmd() *cobra.Command {
	sweepCmd := &cobra.Command{
		Use:   "sweep <trace>...",
		Short: "Repeat randomized runs over traces and L2 associativities.",
		Long: `sweep runs every trace at every L2 associativity several ` +
			`times with independent seeds, and reports the mean and the ` +
			`standard deviation of each metric.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sweepTraces(cmd, args, cmd.OutOrStdout())
		},
	}

	sweepCmd.Flags().IntSlice("assoc", nil,
		"L2 associativities to sweep (default from configuration)")
	sweepCmd.Flags().Int("runs", 0,
		"runs per trace and associativity (default from configuration)")
	sweepCmd.Flags().Int("workers", 0,
		"number of concurrent runs (default number of CPUs)")
	sweepCmd.Flags().String("out", "", "write the summaries to a CSV file")
	sweepCmd.Flags().String("record", "",
		"record every run and the summaries into <path>.sqlite3")
	sweepCmd.Flags().Bool("monitor", false,
		"serve the progress of the sweep over HTTP")
	sweepCmd.Flags().Int("port", 0, "port of the monitoring server")
	sweepCmd.Flags().Bool("open-browser", false,
		"open the monitoring page in a browser (implies --monitor)")

	return sweepCmd
}

type sweepOutputs struct {
	recorder datarecording.DataRecorder
	monitor  *monitoring.Monitor
	progress *monitoring.ProgressBar
	sweepID  string
}

// finish removes the progress bar of the sweep from the monitor.
func (o *sweepOutputs) finish() {
	if o.monitor == nil || o.progress == nil {
		return
	}

	o.monitor.CompleteProgressBar(o.progress)
	o.progress = nil
}

func (o *sweepOutputs) onResult(r analysis.Result) {
	name := fmt.Sprintf("%s/assoc%d/run%d",
		filepath.Base(r.Trace), r.Associativity, r.Run)

	if o.recorder != nil {
		trace.RecordReport(o.recorder, o.sweepID+"/"+name, r.Report)
	}

	if o.monitor != nil {
		o.monitor.RecordReport(filepath.Base(r.Trace), r.Associativity, r.Report)
		o.monitor.RegisterResult(name, r)
	}
}

func sweepTraces(cmd *cobra.Command, paths []string, out io.Writer) error {
	c, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("runs") {
		c.Sweep.Runs, _ = cmd.Flags().GetInt("runs")
	}

	if cmd.Flags().Changed("workers") {
		c.Sweep.Workers, _ = cmd.Flags().GetInt("workers")
	}

	if cmd.Flags().Changed("assoc") {
		c.Sweep.Associativities, _ = cmd.Flags().GetIntSlice("assoc")
	}

	if err := c.Validate(); err != nil {
		return err
	}

	traces := make([]analysis.Trace, 0, len(paths))
	for _, p := range paths {
		accesses, err := trace.ReadFile(p)
		if err != nil {
			return err
		}

		traces = append(traces, analysis.Trace{Name: p, Accesses: accesses})
	}

	base := c.Builder()
	sweep := &analysis.Sweep{
		Traces:          traces,
		Associativities: c.Sweep.Associativities,
		Runs:            c.Sweep.Runs,
		BaseSeed:        c.Seed,
		Workers:         c.Sweep.Workers,
		Base:            &base,
	}

	outputs := &sweepOutputs{sweepID: xid.New().String()}

	if path, _ := cmd.Flags().GetString("record"); path != "" {
		outputs.recorder, err = datarecording.New(path)
		if err != nil {
			return err
		}
		defer outputs.recorder.Close()
	}

	if err := startMonitor(cmd, sweep, outputs); err != nil {
		return err
	}

	sweep.OnResult = outputs.onResult

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	summaries, err := sweep.Run(ctx)
	outputs.finish()

	if err != nil {
		return err
	}

	if outputs.monitor != nil {
		outputs.monitor.RegisterResult("summaries", summaries)
	}

	return writeSummaries(cmd, out, summaries, outputs.recorder)
}

func startMonitor(
	cmd *cobra.Command,
	sweep *analysis.Sweep,
	outputs *sweepOutputs,
) error {
	useMonitor, _ := cmd.Flags().GetBool("monitor")
	openBrowser, _ := cmd.Flags().GetBool("open-browser")

	if !useMonitor && !openBrowser {
		return nil
	}

	m := monitoring.NewMonitor()

	if cmd.Flags().Changed("port") {
		port, _ := cmd.Flags().GetInt("port")
		m.WithPortNumber(port)
	}

	m.StartServer()

	names := make([]string, len(sweep.Traces))
	for i, t := range sweep.Traces {
		names[i] = filepath.Base(t.Name)
	}

	outputs.progress = m.CreateProgressBar(
		"sweep "+strings.Join(names, ", "), uint64(sweep.NumRuns()))
	outputs.monitor = m
	sweep.Progress = outputs.progress

	if openBrowser {
		return m.OpenInBrowser()
	}

	return nil
}

func writeSummaries(
	cmd *cobra.Command,
	out io.Writer,
	summaries []analysis.Summary,
	recorder datarecording.DataRecorder,
) error {
	if err := report.WriteSummaries(out, summaries); err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("out"); path != "" {
		if err := writeCSV(path, summaries); err != nil {
			return err
		}
	}

	if recorder != nil {
		return analysis.ExportAll(
			analysis.NewRecorderExporter(recorder), summaries)
	}

	return nil
}

func writeCSV(path string, summaries []analysis.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing summaries: %w", err)
	}

	err = analysis.ExportAll(analysis.NewCSVExporter(f), summaries)
	if err != nil {
		f.Close()
		return fmt.Errorf("writing summaries: %w", err)
	}

	return f.Close()
}
