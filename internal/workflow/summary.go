package workflow

import (
	"fmt"
	"time"

	"mediasort/internal/organizer"
)

// Summary tallies a batch.
type Summary struct {
	Total     int
	Copied    int
	Moved     int
	Planned   int
	Skipped   int
	Renamed   int
	Failed    int
	Cancelled int
	Bytes     int64
	Duration  time.Duration
	Results   []organizer.Result
}

// Summarize folds results into a Summary. Results are kept in order.
func Summarize(results []organizer.Result) Summary {
	s := Summary{Total: len(results), Results: results}
	for _, r := range results {
		s.add(r)
	}
	return s
}

func (s *Summary) add(r organizer.Result) {
	if r.Failed() {
		if isCancelled(r.Err) {
			s.Cancelled++
		} else {
			s.Failed++
		}
		return
	}
	if r.Decision == organizer.DecisionRenameConflict {
		s.Renamed++
	}
	switch r.Action {
	case organizer.ActionCopy:
		s.Copied++
		s.Bytes += r.Bytes
	case organizer.ActionMove:
		s.Moved++
		s.Bytes += r.Bytes
	case organizer.ActionDry:
		s.Planned++
	case organizer.ActionSkip:
		s.Skipped++
	}
}

// Placed counts files copied or moved.
func (s Summary) Placed() int {
	return s.Copied + s.Moved
}

// HasFailures reports whether any file failed or was never started.
func (s Summary) HasFailures() bool {
	return s.Failed > 0 || s.Cancelled > 0
}

// Err returns a non-nil error when the batch should exit non-zero.
func (s Summary) Err() error {
	if !s.HasFailures() {
		return nil
	}
	if s.Cancelled > 0 {
		return fmt.Errorf("%d of %d files failed, %d not started", s.Failed, s.Total, s.Cancelled)
	}
	return fmt.Errorf("%d of %d files failed", s.Failed, s.Total)
}
