package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/trace"
)

func newShowCmd() *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show <database>",
		Short: "Print the per-level results stored by --record.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showRecord(cmd, args[0], cmd.OutOrStdout())
		},
	}

	showCmd.Flags().String("run", "", "only show runs whose ID has this prefix")
	showCmd.Flags().Int("limit", 0, "maximum number of rows (0 for all)")

	return showCmd
}

func showRecord(cmd *cobra.Command, path string, out io.Writer) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("opening record: %w", err)
	}

	reader, err := datarecording.NewReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	reader.MapTable(trace.LevelStatsTable, trace.LevelStats{})

	params := datarecording.QueryParams{OrderBy: "rowid"}
	params.Limit, _ = cmd.Flags().GetInt("limit")

	if run, _ := cmd.Flags().GetString("run"); run != "" {
		params.Where = "Run LIKE ?"
		params.Args = []any{run + "%"}
	}

	rows, total, err := reader.Query(context.Background(),
		trace.LevelStatsTable, params)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "run\tlevel\taccesses\thits\tmisses\twritebacks\thit_rate")

	for _, row := range rows {
		s := row.(*trace.LevelStats)
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%.4f\n",
			s.Run, s.Level, s.Accesses, s.Hits, s.Misses, s.Writebacks,
			s.HitRate)
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	if len(rows) < total {
		fmt.Fprintf(out, "(%d of %d rows)\n", len(rows), total)
	}

	return nil
}
