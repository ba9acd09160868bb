package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/parallelf/internal/errors"
	"github.com/Iron-Ham/parallelf/internal/graphfile"
)

var validateCmd = &cobra.Command{
	Use:   "validate FILE [FILE...]",
	Short: "Check graph files without running them",
	Long: `Load each graph file and check it: task names are unique, actions and
their arguments are valid, every dependency names a declared task, and there
are no dependency cycles.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("order", false, "print the execution order")
}

func runValidate(cmd *cobra.Command, args []string) error {
	showOrder, _ := cmd.Flags().GetBool("order")
	out := cmd.OutOrStdout()

	var failed []error
	for _, path := range args {
		g, err := graphfile.Load(path)
		if err != nil {
			fmt.Fprintf(out, "✗ %s\n  %v\n", path, err)
			failed = append(failed, err)
			continue
		}
		fmt.Fprintf(out, "✓ %s: %d tasks\n", path, len(g.Tasks))
		if showOrder {
			order, _ := g.Order()
			fmt.Fprintf(out, "  order: %s\n", strings.Join(order, " → "))
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d graph files are invalid: %w", len(failed), len(args), errors.Join(failed...))
	}
	return nil
}
