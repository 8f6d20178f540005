package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediasort/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external tools and directory access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Name, checkStatus(r), yesNo(!r.Optional), r.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(tableSpec{
				headers: []string{"Check", "Status", "Required", "Detail"},
				rows:    rows,
			}))
			return preflight.Err(results)
		},
	}
}

func checkStatus(r preflight.Result) string {
	switch {
	case r.Passed:
		return "ok"
	case r.Optional:
		return "missing (optional)"
	default:
		return "FAILED"
	}
}
