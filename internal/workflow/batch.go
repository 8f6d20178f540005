package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"mediasort/internal/logging"
	"mediasort/internal/organizer"
	"mediasort/internal/services"
)

// FileOrganizer runs the per-file pipeline.
type FileOrganizer interface {
	OrganizeFile(ctx context.Context, path string) (organizer.Result, error)
}

// Batch organizes a list of files on a Pool.
type Batch struct {
	pool   *Pool
	org    FileOrganizer
	logger *slog.Logger
	now    func() time.Time
}

// NewBatch binds an organizer to a pool of the given width.
func NewBatch(org FileOrganizer, workers int, logger *slog.Logger) *Batch {
	return &Batch{
		pool:   NewPool(workers),
		org:    org,
		logger: logging.NewComponentLogger(logger, "workflow"),
		now:    time.Now,
	}
}

// Run organizes paths and returns the tally. A configuration error on any
// file stops dispatch of the rest. onDone is invoked after every file,
// including ones skipped by cancellation, and must be safe for concurrent
// use.
func (b *Batch) Run(ctx context.Context, paths []string, onDone func(organizer.Result)) Summary {
	started := b.now()
	logger := logging.WithContext(ctx, b.logger)
	logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.Int("files", len(paths)),
		logging.Int("workers", b.pool.Workers()),
	)

	ctx, abort := context.WithCancel(ctx)
	defer abort()

	notStarted := make([]bool, len(paths))
	skipped := func(i int, err error) organizer.Result {
		notStarted[i] = true
		if err == nil {
			err = context.Canceled
		}
		return organizer.Result{
			Index:  i + 1,
			Source: paths[i],
			Err:    services.Wrap(services.ErrTransient, "workflow", "dispatch", "not started", err),
		}
	}

	task := func(ctx context.Context, i int) organizer.Result {
		if err := ctx.Err(); err != nil {
			return skipped(i, err)
		}
		result, err := b.org.OrganizeFile(ctx, paths[i])
		result.Index = i + 1
		if result.Source == "" {
			result.Source = paths[i]
		}
		if err != nil {
			result.Err = err
			logging.WithContext(ctx, b.logger).Error("file failed",
				logging.String(logging.FieldEventType, "file_failed"),
				logging.String("source", paths[i]),
				logging.String("error_kind", services.Kind(err)),
				logging.Error(err),
			)
			if services.IsFatal(err) {
				logging.WithContext(ctx, b.logger).Error("aborting batch",
					logging.String(logging.FieldEventType, "batch_abort"),
					logging.String("source", paths[i]),
					logging.String("reason", "configuration error affects every file"),
				)
				abort()
			}
		}
		return result
	}
	var done func(int, organizer.Result)
	if onDone != nil {
		done = func(i int, r organizer.Result) {
			if !notStarted[i] {
				onDone(r)
			}
		}
	}

	results := Run(ctx, b.pool, len(paths), task, skipped, done)
	if onDone != nil {
		for i, r := range results {
			if notStarted[i] {
				onDone(r)
			}
		}
	}

	summary := Summarize(results)
	summary.Duration = b.now().Sub(started)

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("files", summary.Total),
		logging.Int("placed", summary.Placed()),
		logging.Int("skipped", summary.Skipped),
		logging.Int("renamed", summary.Renamed),
		logging.Int("failed", summary.Failed),
		logging.Duration("duration", summary.Duration),
	}
	if summary.Cancelled > 0 {
		attrs = append(attrs, logging.Int("cancelled", summary.Cancelled))
	}
	if summary.HasFailures() {
		logger.Error("batch finished with failures", logging.Args(attrs...)...)
	} else {
		logger.Info("batch finished", logging.Args(attrs...)...)
	}
	return summary
}

func isCancelled(err error) bool {
	return err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}
