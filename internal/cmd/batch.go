package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/parallelf/internal/graphfile"
	"github.com/Iron-Ham/parallelf/internal/taskqueue"
)

var batchCmd = &cobra.Command{
	Use:   "batch FILE [FILE...]",
	Short: "Run every task at once, ignoring dependencies",
	Long: `Run all tasks declared in the given graph files as a single concurrent
batch. depends_on is ignored: every task starts immediately, and a failing
task does not affect the others.

Exits non-zero when any task failed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Bool("json", false, "print the report as JSON")
	batchCmd.Flags().Duration("timeout", 0, "cancel the batch after this long (0 for no timeout)")
	batchCmd.Flags().String("report-dir", "", "save report.json to this directory")
}

func runBatch(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	q := taskqueue.NewEventQueue(taskqueue.New(taskqueue.WithObserver(rt.observer())), rt.bus)
	for _, path := range args {
		g, err := graphfile.Load(path)
		if err != nil {
			return err
		}
		g.PushTo(q, rt.buildOptions())
	}

	ctx, cancel := rt.context(cmd.Context())
	defer cancel()

	return rt.finish(ctx, q.Exec(ctx), "BATCH SUMMARY")
}
