package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"mediasort/internal/config"
	"mediasort/internal/services"
	"mediasort/internal/workflow"
)

func renderSummary(cfg *config.Config, s workflow.Summary) string {
	pairs := [][2]string{
		{"Files", humanize.Comma(int64(s.Total))},
	}
	switch cfg.Organize.Mode {
	case config.ModeDry:
		pairs = append(pairs, [2]string{"Planned", humanize.Comma(int64(s.Planned))})
	case config.ModeMove:
		pairs = append(pairs, [2]string{"Moved", humanize.Comma(int64(s.Moved))})
	default:
		pairs = append(pairs, [2]string{"Copied", humanize.Comma(int64(s.Copied))})
	}
	pairs = append(pairs,
		[2]string{"Skipped (identical)", humanize.Comma(int64(s.Skipped))},
		[2]string{"Renamed (conflict)", humanize.Comma(int64(s.Renamed))},
		[2]string{"Failed", humanize.Comma(int64(s.Failed))},
	)
	if s.Cancelled > 0 {
		pairs = append(pairs, [2]string{"Not started", humanize.Comma(int64(s.Cancelled))})
	}
	if s.Bytes > 0 {
		pairs = append(pairs, [2]string{"Data", humanize.Bytes(uint64(s.Bytes))})
	}
	pairs = append(pairs, [2]string{"Elapsed", s.Duration.Round(time.Millisecond).String()})

	title := fmt.Sprintf("%s run: %s -> %s", cfg.Organize.Mode, cfg.Paths.InputDir, cfg.Paths.OutputDir)
	return renderPairs(title, pairs)
}

func renderFailures(s workflow.Summary) string {
	var rows [][]string
	for _, r := range s.Results {
		if !r.Failed() {
			continue
		}
		rows = append(rows, []string{strconv.Itoa(r.Index), r.Source, services.Kind(r.Err), r.Err.Error()})
	}
	if len(rows) == 0 {
		return ""
	}
	return renderTable(tableSpec{
		title:   "Failures",
		headers: []string{"#", "Source", "Kind", "Error"},
		rows:    rows,
		aligns:  []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	})
}
