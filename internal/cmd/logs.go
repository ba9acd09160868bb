package cmd

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/parallelf/internal/config"
	"github.com/Iron-Ham/parallelf/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View and filter debug logs",
	Long: `View entries from debug.log written when logging.dir is set.

Examples:
  parallelf logs                       # all entries
  parallelf logs -n 20                 # last 20 entries
  parallelf logs --level warn          # warnings and errors only
  parallelf logs --since 10m           # entries from the last 10 minutes
  parallelf logs --run run-1a2b3c4d    # one run
  parallelf logs --grep "task (failed|skipped)"
  parallelf logs --format csv > logs.csv`,
	RunE: runLogs,
}

var (
	logsDir    string
	logsLevel  string
	logsSince  string
	logsRun    string
	logsTask   string
	logsGrep   string
	logsTail   int
	logsFormat string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().StringVar(&logsDir, "dir", "", "log directory (default: logging.dir)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "minimum level (debug, info, warn, error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "only entries newer than this duration (e.g. 5m, 1h)")
	logsCmd.Flags().StringVar(&logsRun, "run", "", "only entries from this run ID")
	logsCmd.Flags().StringVar(&logsTask, "task", "", "only entries about this task ID")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "only entries whose message matches this regular expression")
	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 0, "only the last N entries (0 for all)")
	logsCmd.Flags().StringVar(&logsFormat, "format", "text", "output format (text, json, csv)")
}

func runLogs(cmd *cobra.Command, args []string) error {
	dir := logsDir
	if dir == "" {
		dir = config.ResolveDir(config.Get().Logging.Dir, ".")
	}
	if dir == "" {
		return fmt.Errorf("no log directory given and logging.dir is not set")
	}

	filter, err := buildLogFilter(time.Now())
	if err != nil {
		return err
	}

	var pattern *regexp.Regexp
	if logsGrep != "" {
		pattern, err = regexp.Compile(logsGrep)
		if err != nil {
			return fmt.Errorf("invalid --grep pattern: %w", err)
		}
	}

	entries, err := logging.AggregateLogs(dir)
	if err != nil {
		return err
	}
	entries = logging.FilterLogs(entries, filter)
	if pattern != nil {
		entries = grepEntries(entries, pattern)
	}
	if logsTail > 0 && len(entries) > logsTail {
		entries = entries[len(entries)-logsTail:]
	}

	out := cmd.OutOrStdout()
	if strings.ToLower(logsFormat) != "text" {
		return logging.WriteEntries(out, entries, logsFormat)
	}
	return writeColoredEntries(out, entries, colorEnabled(config.Get().Output.Color, out))
}

func buildLogFilter(now time.Time) (logging.LogFilter, error) {
	filter := logging.LogFilter{
		RunID:  logsRun,
		TaskID: logsTask,
	}
	if logsLevel != "" {
		level := strings.ToUpper(logsLevel)
		if logging.ParseLevel(level) != level {
			return filter, fmt.Errorf("invalid --level %q (valid: %s)", logsLevel, strings.Join(logging.ValidLevels(), ", "))
		}
		filter.Level = level
	}
	if logsSince != "" {
		d, err := time.ParseDuration(logsSince)
		if err != nil {
			return filter, fmt.Errorf("invalid --since duration: %w", err)
		}
		filter.StartTime = now.Add(-d)
	}
	return filter, nil
}

func grepEntries(entries []logging.LogEntry, pattern *regexp.Regexp) []logging.LogEntry {
	var kept []logging.LogEntry
	for _, e := range entries {
		if pattern.MatchString(e.Message) {
			kept = append(kept, e)
		}
	}
	return kept
}

// writeColoredEntries renders text output with the level highlighted.
func writeColoredEntries(w io.Writer, entries []logging.LogEntry, color bool) error {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	levels := map[string]lipgloss.Style{
		logging.LevelDebug: r.NewStyle().Foreground(lipgloss.Color("#9CA3AF")),
		logging.LevelInfo:  r.NewStyle().Foreground(lipgloss.Color("#60A5FA")),
		logging.LevelWarn:  r.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		logging.LevelError: r.NewStyle().Foreground(lipgloss.Color("#F87171")).Bold(true),
	}
	dim := r.NewStyle().Faint(true)

	for _, e := range entries {
		var sb strings.Builder
		sb.WriteString(dim.Render(e.Timestamp.Local().Format("15:04:05.000")))
		sb.WriteByte(' ')
		level := strings.ToUpper(e.Level)
		if style, ok := levels[level]; ok {
			level = style.Render(fmt.Sprintf("%-5s", level))
		}
		sb.WriteString(level)
		sb.WriteByte(' ')
		sb.WriteString(e.Message)
		if e.TaskID != "" {
			sb.WriteString(" task=" + e.TaskID)
		}
		if e.RunID != "" {
			sb.WriteString(dim.Render(" run=" + e.RunID))
		}
		for _, k := range sortedKeys(e.Attrs) {
			sb.WriteString(fmt.Sprintf(" %s=%v", k, e.Attrs[k]))
		}
		sb.WriteByte('\n')
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
