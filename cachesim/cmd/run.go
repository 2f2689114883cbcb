package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/rs/xid"
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/hierarchy"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/report"
)

func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run <trace>",
		Short: "Run one trace through the hierarchy and print the results.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd, args[0], cmd.OutOrStdout())
		},
	}

	runCmd.Flags().Int("l2-assoc", 0,
		"associativity of the L2 cache (default from configuration)")
	runCmd.Flags().String("record", "",
		"record the results into <path>.sqlite3")
	runCmd.Flags().Bool("record-events", false,
		"also record every cache event (requires --record)")
	runCmd.Flags().Bool("log-events", false,
		"print every cache event to stderr")
	runCmd.Flags().String("trace-csv", "",
		"write every cache event to a CSV file")
	runCmd.Flags().Bool("json", false, "print the results as JSON")

	return runCmd
}

func runTrace(cmd *cobra.Command, tracePath string, out io.Writer) error {
	c, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("l2-assoc") {
		c.Levels.L2.Associativity, _ = cmd.Flags().GetInt("l2-assoc")
	}

	recordPath, _ := cmd.Flags().GetString("record")
	recordEvents, _ := cmd.Flags().GetBool("record-events")

	if recordEvents && recordPath == "" {
		return errors.New("--record-events needs --record")
	}

	builder := c.Builder()
	runID := xid.New().String()

	var recorder datarecording.DataRecorder

	if recordPath != "" {
		recorder, err = datarecording.New(recordPath)
		if err != nil {
			return err
		}
		defer recorder.Close()

		if recordEvents {
			builder = builder.WithHook(trace.NewDBTracer(recorder, runID))
		}
	}

	if logEvents, _ := cmd.Flags().GetBool("log-events"); logEvents {
		builder = builder.WithHook(
			trace.NewLogTracer(log.New(os.Stderr, "", 0)))
	}

	var csvTracer *trace.CSVTracer

	if csvPath, _ := cmd.Flags().GetString("trace-csv"); csvPath != "" {
		csvFile, err := os.Create(csvPath)
		if err != nil {
			return fmt.Errorf("creating event trace: %w", err)
		}
		defer csvFile.Close()

		csvTracer = trace.NewCSVTracer(csvFile)
		builder = builder.WithHook(csvTracer)
	}

	h, err := builder.Build()
	if err != nil {
		return err
	}

	f, err := os.Open(tracePath)
	if err != nil {
		return fmt.Errorf("reading trace: %w", err)
	}
	defer f.Close()

	if _, err := h.Run(trace.NewReader(f)); err != nil {
		return fmt.Errorf("reading trace %s: %w", tracePath, err)
	}

	if csvTracer != nil {
		if err := csvTracer.Flush(); err != nil {
			return fmt.Errorf("writing event trace: %w", err)
		}
	}

	r := h.Report()

	if recorder != nil {
		trace.RecordReport(recorder, runID, r)
	}

	return printReport(cmd, out, tracePath, r)
}

func printReport(
	cmd *cobra.Command,
	out io.Writer,
	tracePath string,
	r hierarchy.RunReport,
) error {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")

		return enc.Encode(r)
	}

	return report.Write(out, tracePath, r)
}
