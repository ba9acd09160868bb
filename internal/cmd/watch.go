package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/parallelf/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch FILE [FILE...]",
	Short: "Run task graphs and re-run them when the files change",
	Long: `Run the given graph files like "parallelf run", then keep watching them
and run again after every change. Bursts of changes within watch.debounce_ms
are coalesced into one re-run. Stop with Ctrl+C.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Bool("json", false, "print each report as JSON")
	watchCmd.Flags().Duration("timeout", 0, "cancel each run after this long (0 for no timeout)")
	watchCmd.Flags().String("report-dir", "", "save report.json to this directory after each run")
}

func runWatch(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	w, err := watch.New(rt.cfg.Watch.Debounce(), rt.bus)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = w.Stop() }()

	for _, path := range args {
		if err := w.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
	}

	trigger := make(chan struct{}, 1)
	w.SetChangeCallback(func([]watch.Change) {
		select {
		case trigger <- struct{}{}:
		default:
		}
	})
	w.SetErrorCallback(func(err error) {
		rt.logger.Warn("watch error", "error", err.Error())
	})
	w.Start()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for n := 1; ; n++ {
		rt.watchOnce(ctx, args, n)
		fmt.Fprintf(rt.errOut, "Watching %d file(s) for changes (Ctrl+C to stop)...\n", len(args))

		select {
		case <-ctx.Done():
			return nil
		case <-trigger:
		}
	}
}

// watchOnce runs the graphs once. Failures are reported and swallowed so
// the watch keeps going.
func (rt *runtime) watchOnce(ctx context.Context, paths []string, n int) {
	runCtx, cancel := rt.context(ctx)
	defer cancel()

	rt.logger.Info("watch run started", "iteration", n)
	rep, err := rt.runGraphs(runCtx, paths, false, "")
	if err != nil {
		fmt.Fprintf(rt.errOut, "Error: %v\n", err)
		return
	}
	if err := rt.finish(runCtx, rep, fmt.Sprintf("RUN %d", n)); err != nil {
		fmt.Fprintf(rt.errOut, "Error: %v\n", err)
	}
}
