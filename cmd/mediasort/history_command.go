package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mediasort/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string
	var digest string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent placements from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			path := cfg.JournalPath()
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(out, "No journal at %s\n", path)
				return nil
			}

			store, err := journal.Open(cmd.Context(), path)
			if err != nil {
				return err
			}
			defer store.Close()

			var entries []journal.Entry
			switch {
			case runID != "" && digest != "":
				return errors.New("--run and --digest cannot be combined")
			case runID != "":
				entries, err = store.ByRun(cmd.Context(), runID)
			case digest != "":
				entries, err = store.ByDigest(cmd.Context(), digest, limit)
			default:
				entries, err = store.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No placements recorded")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					strconv.FormatInt(e.ID, 10),
					humanize.Time(e.CreatedAt),
					shortRunID(e.RunID),
					e.Action,
					e.Decision,
					e.Source,
					e.Destination,
				})
			}
			fmt.Fprintln(out, renderTable(tableSpec{
				headers: []string{"#", "When", "Run", "Action", "Decision", "Source", "Destination"},
				rows:    rows,
				aligns:  []columnAlignment{alignRight},
			}))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	cmd.Flags().StringVar(&runID, "run", "", "Show only entries from this run id")
	cmd.Flags().StringVar(&digest, "digest", "", "Show entries whose content digest starts with this prefix")
	return cmd
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
