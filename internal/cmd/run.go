package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/parallelf/internal/graphfile"
	"github.com/Iron-Ham/parallelf/internal/report"
	"github.com/Iron-Ham/parallelf/internal/tasklist"
)

var runCmd = &cobra.Command{
	Use:   "run FILE [FILE...]",
	Short: "Run task graphs in dependency order",
	Long: `Run the tasks declared in one or more graph files. Each task starts as
soon as all of its dependencies have finished. When a task fails, everything
that depends on it is skipped; unrelated tasks still run.

With several files, all graphs run together. With --flush, each file is run
to completion before the next one is loaded. With --target, only the named
task and the tasks it depends on run.

Exits non-zero when any task failed or was skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("json", false, "print the report as JSON")
	runCmd.Flags().Duration("timeout", 0, "cancel the run after this long (0 for no timeout)")
	runCmd.Flags().String("report-dir", "", "save report.json to this directory")
	runCmd.Flags().Bool("flush", false, "run each file to completion before loading the next")
	runCmd.Flags().String("target", "", "run only this task and its dependencies")
}

func runRun(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	flush, _ := cmd.Flags().GetBool("flush")
	target, _ := cmd.Flags().GetString("target")

	ctx, cancel := rt.context(cmd.Context())
	defer cancel()

	rep, err := rt.runGraphs(ctx, args, flush, target)
	if err != nil {
		return err
	}
	title := "RUN SUMMARY"
	if target != "" {
		title = "RUN SUMMARY: " + target
	}
	return rt.finish(ctx, rep, title)
}

// runGraphs loads every file into one task list and drains it. With flush,
// each file is drained before the next is appended; the returned report
// still covers every task. With a target, the final drain covers only the
// target and its unsettled ancestors, and so does the report.
func (rt *runtime) runGraphs(ctx context.Context, paths []string, flush bool, target string) (*report.Report, error) {
	list := tasklist.NewEventList(tasklist.New(tasklist.WithObserver(rt.observer())), rt.bus)

	for i, path := range paths {
		g, err := graphfile.Load(path)
		if err != nil {
			return nil, err
		}
		rt.logger.Debug("graph loaded", "path", path, "tasks", len(g.Tasks))

		if _, err := g.AppendTo(list, rt.buildOptions()); err != nil {
			return nil, err
		}
		if flush && i < len(paths)-1 {
			if _, err := list.Flush(ctx); err != nil {
				return nil, err
			}
		}
	}
	if target != "" {
		return list.FinishNode(ctx, target)
	}
	return list.Finish(ctx)
}
