package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Iron-Ham/parallelf/internal/config"
	"github.com/Iron-Ham/parallelf/internal/errors"
	"github.com/Iron-Ham/parallelf/internal/event"
	"github.com/Iron-Ham/parallelf/internal/graphfile"
	"github.com/Iron-Ham/parallelf/internal/logging"
	"github.com/Iron-Ham/parallelf/internal/report"
	"github.com/Iron-Ham/parallelf/internal/task"
)

// runtime carries what every command that executes tasks needs: the loaded
// configuration, a logger tagged with the run ID, and an event bus.
type runtime struct {
	cfg    *config.Config
	logger *logging.Logger
	bus    *event.Bus
	out    io.Writer
	errOut io.Writer
	color  bool
	runID  string
	cwd    string
}

func newRuntime(cmd *cobra.Command) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	applyRunFlags(cmd, cfg)

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	logger, err := newLogger(cfg, cwd, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	runID := "run-" + uuid.NewString()[:8]
	rt := &runtime{
		cfg:    cfg,
		logger: logger.WithRun(runID),
		bus:    event.NewBus(),
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
		color:  colorEnabled(cfg.Output.Color, cmd.OutOrStdout()),
		runID:  runID,
		cwd:    cwd,
	}
	rt.subscribeLogger()
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		newProgress(rt.errOut, colorEnabled(cfg.Output.Color, rt.errOut)).subscribe(rt.bus)
	}
	return rt, nil
}

func newLogger(cfg *config.Config, cwd string, stderr io.Writer) (*logging.Logger, error) {
	if cfg.Logging.Dir == "" {
		return logging.NewWriterLogger(stderr, cfg.Logging.Level, cfg.Logging.Format), nil
	}
	return logging.NewRotatingLogger(config.ResolveDir(cfg.Logging.Dir, cwd), cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Compress:   cfg.Logging.Compress,
	})
}

// applyRunFlags lets per-command flags override the loaded configuration.
// Commands that do not define a flag are left alone.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("json") {
		if asJSON, _ := flags.GetBool("json"); asJSON {
			cfg.Output.Format = "json"
		}
	}
	if flags.Changed("timeout") {
		cfg.Run.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("report-dir") {
		cfg.Run.ReportDir, _ = flags.GetString("report-dir")
	}
}

// subscribeLogger records lifecycle events that the task observer does not
// see: batches, graph drains and file changes.
func (rt *runtime) subscribeLogger() {
	rt.bus.Subscribe(event.TypeBatchStarted, func(e event.Event) {
		ev := e.(event.BatchStartedEvent)
		rt.logger.Info("batch started", "batch_id", ev.BatchID, "size", ev.Size)
	})
	rt.bus.Subscribe(event.TypeBatchSettled, func(e event.Event) {
		ev := e.(event.BatchSettledEvent)
		rt.logger.Info("batch settled", "batch_id", ev.BatchID,
			"finished", ev.Finished, "failed", ev.Failed, "duration", ev.Duration.String())
	})
	rt.bus.Subscribe(event.TypeGraphFrozen, func(e event.Event) {
		rt.logger.Debug("graph frozen", "nodes", e.(event.GraphFrozenEvent).Nodes)
	})
	rt.bus.Subscribe(event.TypeGraphSettled, func(e event.Event) {
		ev := e.(event.GraphSettledEvent)
		rt.logger.Info("graph settled", "final", ev.Final, "finished", ev.Finished,
			"failed", ev.Failed, "skipped", ev.Skipped, "duration", ev.Duration.String())
	})
	rt.bus.Subscribe(event.TypeFileChanged, func(e event.Event) {
		ev := e.(event.FileChangedEvent)
		rt.logger.Info("file changed", "path", ev.Path, "op", ev.Op)
	})
}

// observer is handed to schedulers. It logs every state change and
// republishes it on the bus.
func (rt *runtime) observer() task.Observer {
	return task.Observers{
		logging.NewTaskObserver(rt.logger),
		event.NewTaskObserver(rt.bus),
	}
}

// buildOptions routes task output to stdout, or to stderr when stdout
// carries JSON.
func (rt *runtime) buildOptions() graphfile.BuildOptions {
	out := rt.out
	if rt.jsonOutput() {
		out = rt.errOut
	}
	return graphfile.BuildOptions{Out: out}
}

func (rt *runtime) jsonOutput() bool {
	return strings.EqualFold(rt.cfg.Output.Format, "json")
}

// context returns a context canceled on SIGINT, SIGTERM or when the
// configured run timeout expires.
func (rt *runtime) context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	if rt.cfg.Run.Timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, rt.cfg.Run.Timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// finish prints the report, saves it when a report directory is configured,
// and turns an unsuccessful run into an error for the exit status. A run
// cut short by the configured timeout yields a TimeoutError.
func (rt *runtime) finish(ctx context.Context, rep *report.Report, title string) error {
	if err := rt.printReport(rep, title); err != nil {
		return err
	}
	if err := rt.saveReport(rep); err != nil {
		rt.logger.Error("failed to save report", "error", err.Error())
		return err
	}
	if rep.OK() {
		return nil
	}

	rt.logFailures(rep)
	c := rep.Counts()
	err := fmt.Errorf("%d of %d tasks did not finish (%d failed, %d skipped)",
		c.Failed+c.Skipped, c.Total, c.Failed, c.Skipped)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.NewTimeoutError("run", rt.cfg.Run.Timeout).WithCause(err)
	}
	return err
}

// logFailures records why each task did not finish. Panics and payload
// errors log at ERROR, skips at WARN.
func (rt *runtime) logFailures(rep *report.Report) {
	for _, o := range rep.Outcomes {
		if o.Err == nil {
			continue
		}
		l := rt.logger.WithTask(o.ID)
		switch errors.GetSeverity(o.Err) {
		case errors.SeverityCritical, errors.SeverityError:
			l.Error("task did not finish", "status", o.Status.String(), "error", o.Err.Error())
		default:
			l.Warn("task did not finish", "status", o.Status.String(), "error", o.Err.Error())
		}
	}
}

func (rt *runtime) printReport(rep *report.Report, title string) error {
	if rt.jsonOutput() {
		enc := json.NewEncoder(rt.out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep.Document())
	}
	_, err := fmt.Fprint(rt.out, report.Render(rep, report.RenderOptions{
		Color: rt.color,
		Title: title,
		Stats: true,
	}))
	return err
}

func (rt *runtime) saveReport(rep *report.Report) error {
	if rt.cfg.Run.ReportDir == "" {
		return nil
	}
	dir := config.ResolveDir(rt.cfg.Run.ReportDir, rt.cwd)
	if err := report.Save(dir, rep); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	rt.logger.Info("report saved", "path", dir)
	return nil
}

func (rt *runtime) close() {
	if err := rt.logger.Close(); err != nil {
		fmt.Fprintf(rt.errOut, "Warning: %v\n", err)
	}
}

// colorEnabled resolves an output.color mode for w. auto means color only
// on a terminal and only when NO_COLOR is unset.
func colorEnabled(mode string, w io.Writer) bool {
	switch strings.ToLower(mode) {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// elapsed formats a duration for progress output.
func elapsed(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
