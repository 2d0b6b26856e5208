package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"payloadmedic/internal/evaluator"
)

func newEvaluatorsCommand() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "evaluators",
		Short: "List the evaluators applied to each dependency",
		Long: `Inspect payloadmedic evaluators.

Each dependency issue runs through the evaluator chain; every evaluator writes a
few keys into the dependency's record (see "payloadmedic process --help").

Examples:
  # List all evaluators, in default chain order
  payloadmedic evaluators list
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List available evaluators",
		Long: `List all evaluators registered in this build, in default chain order.

Output:
  A vertical list of evaluators:
    ----------------------------------------
    EVALUATOR: {ID}
    ----------------------------------------
    {NAME}
    {DESCRIPTION}
    Keys: {KEYS}
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, e := range evaluator.List() {
				if quiet {
					fmt.Fprintln(cmd.OutOrStdout(), e.ID())
				} else {
					printEvaluator(cmd.OutOrStdout(), e)
				}
			}
			return nil
		},
	}
	list.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print evaluator IDs")

	show := &cobra.Command{
		Use:   "show [evaluator-id]",
		Short: "Show details of a specific evaluator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			evs, err := evaluator.Resolve(args[0])
			if err != nil {
				return err
			}
			if len(evs) == 0 {
				return fmt.Errorf("evaluator not found: %s", args[0])
			}
			printEvaluator(cmd.OutOrStdout(), evs[0])
			return nil
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}

func printEvaluator(w io.Writer, e evaluator.Evaluator) {
	bold := color.New(color.Bold)
	fmt.Fprintln(w, "----------------------------------------")
	bold.Fprintf(w, "EVALUATOR: %s\n", e.ID())
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintln(w, e.Name())
	if d, ok := e.(evaluator.Described); ok {
		fmt.Fprintln(w, d.Description())
		if keys := d.Keys(); len(keys) > 0 {
			fmt.Fprintf(w, "Keys: %s\n", strings.Join(keys, ", "))
		}
	}
	fmt.Fprintln(w)
}
