package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/runloop-dev/runloop/llm"
)

func newModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the known models",
		RunE:  runModels,
	}
	cmd.Flags().StringP("provider", "p", "", "filter by provider")
	return cmd
}

func runModels(cmd *cobra.Command, _ []string) error {
	provider, _ := cmd.Flags().GetString("provider")

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tPROVIDER\tCONTEXT\tTOOLS\t$/1M IN\t$/1M OUT")
	for _, m := range llm.ListModels(provider) {
		in, out := "-", "-"
		if m.InputCostPerMillion != nil {
			in = fmt.Sprintf("%.2f", *m.InputCostPerMillion)
		}
		if m.OutputCostPerMillion != nil {
			out = fmt.Sprintf("%.2f", *m.OutputCostPerMillion)
		}
		tools := "no"
		if m.SupportsTools {
			tools = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n", m.ID, m.Provider, m.ContextWindow, tools, in, out)
	}
	return w.Flush()
}
