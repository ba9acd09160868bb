package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/parallelf/internal/config"
	"github.com/Iron-Ham/parallelf/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report [DIR]",
	Short: "Show the last saved report",
	Long: `Show the report.json saved by a previous run. DIR defaults to
run.report_dir from the configuration.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().Bool("json", false, "print the saved document as JSON")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	dir := cfg.Run.ReportDir
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		return fmt.Errorf("no report directory given and run.report_dir is not set")
	}

	doc, err := report.Load(dir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	title := fmt.Sprintf("REPORT %s", doc.Settled.Local().Format("2006-01-02 15:04:05"))
	_, err = fmt.Fprint(out, report.Render(doc.Report(), report.RenderOptions{
		Color: colorEnabled(cfg.Output.Color, out),
		Title: title,
		Stats: true,
	}))
	return err
}
