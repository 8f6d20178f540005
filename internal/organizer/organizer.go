package organizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"mediasort/internal/config"
	"mediasort/internal/fileutil"
	"mediasort/internal/journal"
	"mediasort/internal/logging"
	"mediasort/internal/naming"
	"mediasort/internal/services"
)

// maxAlternates bounds the epoch search for a free conflict name.
const maxAlternates = 1000

// Recorder persists completed placements.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) error
}

// Option configures an Organizer.
type Option func(*Organizer)

// WithRecorder enables journaling of non-dry placements.
func WithRecorder(r Recorder) Option {
	return func(o *Organizer) { o.recorder = r }
}

// WithClock overrides the time source used for conflict epochs.
func WithClock(now func() time.Time) Option {
	return func(o *Organizer) {
		if now != nil {
			o.now = now
		}
	}
}

// Organizer runs the per-file pipeline.
type Organizer struct {
	cfg      *config.Config
	resolver Resolver
	recorder Recorder
	logger   *slog.Logger
	claims   *claimSet
	now      func() time.Time
}

// New constructs an organizer bound to one immutable configuration.
func New(cfg *config.Config, resolver Resolver, logger *slog.Logger, opts ...Option) *Organizer {
	o := &Organizer{
		cfg:      cfg,
		resolver: resolver,
		logger:   logging.NewComponentLogger(logger, "organizer"),
		claims:   newClaimSet(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// OrganizeFile resolves, names, and places one file. The returned Result
// carries the error too so batch callers can tally failures.
func (o *Organizer) OrganizeFile(ctx context.Context, path string) (Result, error) {
	result := Result{Source: path, Mode: o.cfg.Organize.Mode}
	if idx, ok := services.FileIndexFromContext(ctx); ok {
		result.Index = idx
	}
	fail := func(err error) (Result, error) {
		result.Err = err
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	file, resolved, err := o.resolver.Resolve(ctx, path)
	if err != nil {
		return fail(err)
	}
	result.Kind = file.Kind
	result.Resolved = resolved

	ctx = services.WithStage(ctx, "naming")
	digest, size, err := fileutil.Digest(path)
	if err != nil {
		return fail(services.Wrap(services.ErrNotFound, "naming", "digest", path, err))
	}
	result.Digest = digest
	result.Bytes = size

	dest, err := naming.Build(naming.Input{
		OutputRoot:     o.cfg.Paths.OutputDir,
		Resolved:       resolved,
		Source:         path,
		ProcessingRoot: o.cfg.Paths.InputDir,
		Serial:         file.Serial,
		Digest:         digest,
		Scheme:         o.cfg.Organize.Scheme,
	})
	if err != nil {
		return fail(err)
	}

	placed, err := o.Place(ctx, path, dest, digest)
	placed.Index = result.Index
	placed.Kind = result.Kind
	placed.Resolved = result.Resolved
	placed.Bytes = result.Bytes
	if err != nil {
		placed.Err = err
		return placed, err
	}

	o.record(ctx, placed)
	return placed, nil
}

// Place puts src at dest according to the configured mode, resolving any
// occupied destination by content comparison.
func (o *Organizer) Place(ctx context.Context, src string, dest naming.Destination, digest string) (Result, error) {
	ctx = services.WithStage(ctx, "placement")
	logger := logging.WithContext(ctx, o.logger)
	mode := o.cfg.Organize.Mode
	result := Result{Source: src, Destination: dest.Path(), Mode: mode, Digest: digest, Decision: DecisionProceed}

	switch mode {
	case config.ModeDry, config.ModeMove, config.ModeCopy:
	default:
		err := services.Wrap(services.ErrConfiguration, "placement", "dispatch", fmt.Sprintf("unknown mode %q", mode), nil)
		result.Err = err
		return result, err
	}

	release := o.claims.acquire(dest.Path())
	defer release()

	target, decision, err := o.resolveCollision(ctx, logger, src, dest, digest)
	result.Decision = decision
	if err != nil {
		result.Err = err
		return result, err
	}
	if decision == DecisionSkipIdentical {
		result.Action = ActionSkip
		result.Destination = target.Path()
		return result, nil
	}
	result.Destination = target.Path()

	switch mode {
	case config.ModeDry:
		result.Action = ActionDry
		logger.Info("dry run: would place file",
			logging.String("source", src),
			logging.String("destination", target.Path()),
			logging.String("decision", string(decision)),
		)
		return result, nil
	case config.ModeMove:
		result.Action = ActionMove
	case config.ModeCopy:
		result.Action = ActionCopy
	}

	if err := os.MkdirAll(target.Dir(), 0o755); err != nil {
		err = services.Wrap(services.ErrValidation, "placement", "create directory", target.Dir(), err)
		result.Err = err
		return result, err
	}

	var placeErr error
	if mode == config.ModeMove {
		result.CrossDevice, placeErr = fileutil.MoveFile(src, target.Path())
	} else {
		_, placeErr = fileutil.CopyFileVerified(src, target.Path())
	}
	if placeErr != nil {
		marker := services.ErrValidation
		if errors.Is(placeErr, os.ErrExist) {
			marker = services.ErrTransient
		}
		err := services.Wrap(marker, "placement", string(result.Action), target.Path(), placeErr)
		result.Err = err
		return result, err
	}

	logger.Info("file placed",
		logging.String("action", string(result.Action)),
		logging.String("source", src),
		logging.String("destination", target.Path()),
		logging.Bool("cross_device", result.CrossDevice),
	)
	return result, nil
}

// resolveCollision walks the destination and its epoch alternates until it
// finds a free name or identical content.
func (o *Organizer) resolveCollision(ctx context.Context, logger *slog.Logger, src string, dest naming.Destination, digest string) (naming.Destination, Decision, error) {
	target := dest
	decision := DecisionProceed
	epoch := o.now().Unix()

	for attempt := 0; attempt <= maxAlternates; attempt++ {
		if err := ctx.Err(); err != nil {
			return target, decision, err
		}
		exists, err := fileutil.Exists(target.Path())
		if err != nil {
			return target, decision, services.Wrap(services.ErrValidation, "placement", "stat destination", target.Path(), err)
		}
		if !exists {
			return target, decision, nil
		}

		existing, _, err := fileutil.Digest(target.Path())
		if err != nil {
			return target, decision, services.Wrap(services.ErrValidation, "placement", "digest destination", target.Path(), err)
		}
		if existing == digest {
			logging.Warn(logger, "identical file already at destination; skipping", "skip_identical",
				logging.String("source", src),
				logging.String("destination", target.Path()),
				logging.String("digest", fileutil.ShortDigest(digest)),
			)
			return target, DecisionSkipIdentical, nil
		}

		next := dest.WithEpoch(epoch)
		epoch++
		logging.Warn(logger, "different file already at destination; renaming", "rename_conflict",
			logging.String("source", src),
			logging.String("occupied", target.Path()),
			logging.String("destination", next.Path()),
			logging.String(logging.FieldImpact, "file stored under an epoch-qualified name"),
		)
		target = next
		decision = DecisionRenameConflict
	}
	return target, decision, services.Wrap(services.ErrValidation, "placement", "resolve collision", dest.Path(),
		fmt.Errorf("no free alternate after %d attempts", maxAlternates))
}

func (o *Organizer) record(ctx context.Context, r Result) {
	if o.recorder == nil || !o.cfg.Organize.Journal || r.Mode == config.ModeDry || r.Action == ActionDry {
		return
	}
	runID, _ := services.RunIDFromContext(ctx)
	entry := journal.Entry{
		RunID:           runID,
		Source:          r.Source,
		Destination:     r.Destination,
		Digest:          r.Digest,
		Decision:        string(r.Decision),
		Action:          string(r.Action),
		Mode:            string(r.Mode),
		Bytes:           r.Bytes,
		TimestampSource: string(r.Resolved.Source),
	}
	if err := o.recorder.Record(ctx, entry); err != nil {
		logging.Warn(logging.WithContext(ctx, o.logger), "failed to record placement", "journal_write",
			logging.Error(err),
			logging.String(logging.FieldImpact, "history will miss this file"),
		)
	}
}
