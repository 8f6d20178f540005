package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mediasort/internal/config"
	"mediasort/internal/journal"
	"mediasort/internal/logging"
	"mediasort/internal/metadata"
	"mediasort/internal/organizer"
	"mediasort/internal/preflight"
	"mediasort/internal/scan"
	"mediasort/internal/services"
	"mediasort/internal/workflow"
)

type organizeFlags struct {
	file     string
	progress bool
	tree     bool
}

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	flags := &organizeFlags{}

	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Rename and file media into <output>/YYYY/MM",
		Long: "Scan INPUT_DIR for photos and videos, derive a capture timestamp for each,\n" +
			"and place them under OUTPUT_DIR/YYYY/MM with a content-addressed name.\n" +
			"Use --file to organize a single file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return runOrganize(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, logger, *flags)
		},
	}

	cmd.Flags().StringVar(&flags.file, "file", "", "Organize a single file instead of scanning INPUT_DIR")
	cmd.Flags().String("input", "", "Input directory (INPUT_DIR)")
	cmd.Flags().String("output", "", "Output directory (OUTPUT_DIR)")
	cmd.Flags().String("mode", "", "Placement mode: dry, move, or copy (MODE)")
	cmd.Flags().String("scheme", "", "Filename scheme: checksum or parent (FILENAME_SCHEME)")
	cmd.Flags().Int("workers", 0, "Concurrent files, 0 for one per CPU (WORKERS)")
	cmd.Flags().String("log-level", "", "Log level: ALL, DEBUG, INFO, WARN, ERROR, OFF (LOG_LEVEL)")
	cmd.Flags().BoolVar(&flags.progress, "progress", false, "Show a progress bar on stderr")
	cmd.Flags().BoolVar(&flags.tree, "tree", false, "Print the destination tree after the run")

	bindConfigKey(cmd, "input", "INPUT_DIR")
	bindConfigKey(cmd, "output", "OUTPUT_DIR")
	bindConfigKey(cmd, "mode", "MODE")
	bindConfigKey(cmd, "scheme", "FILENAME_SCHEME")
	bindConfigKey(cmd, "workers", "WORKERS")
	bindConfigKey(cmd, "log-level", "LOG_LEVEL")

	return cmd
}

func runOrganize(ctx context.Context, out, errOut io.Writer, cfg *config.Config, logger *slog.Logger, flags organizeFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	runID := journal.NewRunID()
	ctx = services.WithRunID(ctx, runID)
	logger = logging.NewComponentLogger(logger, "cli")
	runLogger := logging.WithContext(ctx, logger)

	if err := preflight.Err(preflight.RunAll(ctx, cfg)); err != nil {
		return err
	}

	if !cfg.IsDryRun() {
		if err := cfg.EnsureStateDir(); err != nil {
			return services.Wrap(services.ErrConfiguration, "cli", "state dir", cfg.Paths.StateDir, err)
		}
		lock, err := organizer.AcquireRunLock(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				runLogger.Warn("run lock release failed", logging.Error(err))
			}
		}()
	}

	extractor, err := metadata.NewExtractor(cfg, logger)
	if err != nil {
		return err
	}
	defer extractor.Close()

	var opts []organizer.Option
	if store := openJournal(ctx, cfg, runLogger); store != nil {
		defer store.Close()
		opts = append(opts, organizer.WithRecorder(store))
	}

	classifier := metadata.NewClassifier(cfg.Organize.PhotoPatterns, cfg.Organize.VideoPatterns)
	resolver := metadata.NewResolver(extractor, classifier, cfg.Organize.PrefixPattern, logger)
	org := organizer.New(cfg, resolver, logger, opts...)

	runLogger.Info("organize run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("mode", string(cfg.Organize.Mode)),
		logging.String("scheme", string(cfg.Organize.Scheme)),
		logging.String("input", cfg.Paths.InputDir),
		logging.String("output", cfg.Paths.OutputDir),
	)

	if strings.TrimSpace(flags.file) != "" {
		return organizeSingle(ctx, out, cfg, org, flags)
	}
	return organizeBatch(ctx, out, errOut, cfg, org, logger, flags)
}

func organizeSingle(ctx context.Context, out io.Writer, cfg *config.Config, org *organizer.Organizer, flags organizeFlags) error {
	path, err := config.ExpandPath(flags.file)
	if err != nil {
		return services.Wrap(services.ErrValidation, "cli", "resolve file", flags.file, err)
	}
	if abs, absErr := filepath.Abs(path); absErr == nil {
		path = abs
	}
	result, err := org.OrganizeFile(services.WithFileIndex(ctx, 1), path)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, describeResult(result))
	if flags.tree {
		fmt.Fprintln(out, renderDestinationTree(cfg.Paths.OutputDir, []organizer.Result{result}))
	}
	return nil
}

func organizeBatch(ctx context.Context, out, errOut io.Writer, cfg *config.Config, org *organizer.Organizer, logger *slog.Logger, flags organizeFlags) error {
	classifier := metadata.NewClassifier(cfg.Organize.PhotoPatterns, cfg.Organize.VideoPatterns)
	candidates, err := scan.Files(scan.Options{
		Root:       cfg.Paths.InputDir,
		OutputRoot: cfg.Paths.OutputDir,
		Classifier: classifier,
	})
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		fmt.Fprintf(out, "No media files found under %s\n", cfg.Paths.InputDir)
		return nil
	}

	paths := make([]string, 0, len(candidates))
	for _, c := range candidates {
		paths = append(paths, c.Path)
	}

	var onDone func(organizer.Result)
	if flags.progress {
		bar := newProgress(errOut, len(paths), string(cfg.Organize.Mode))
		defer bar.finish()
		onDone = bar.advance
	}

	batch := workflow.NewBatch(org, cfg.Organize.Workers, logger)
	summary := batch.Run(ctx, paths, onDone)

	fmt.Fprintln(out, renderSummary(cfg, summary))
	if failures := renderFailures(summary); failures != "" {
		fmt.Fprintln(out, failures)
	}
	if flags.tree {
		fmt.Fprintln(out, renderDestinationTree(cfg.Paths.OutputDir, summary.Results))
	}
	if err := summary.Err(); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("%w: %v", context.Canceled, err)
		}
		return err
	}
	return nil
}

func openJournal(ctx context.Context, cfg *config.Config, logger *slog.Logger) *journal.Store {
	if cfg.IsDryRun() || !cfg.Organize.Journal {
		return nil
	}
	store, err := journal.Open(ctx, cfg.JournalPath())
	if err != nil {
		logging.Warn(logger, "journal unavailable; placements will not be recorded", "journal_open_failed",
			logging.String("path", cfg.JournalPath()),
			logging.Error(err),
		)
		return nil
	}
	return store
}

func describeResult(r organizer.Result) string {
	switch r.Action {
	case organizer.ActionSkip:
		return fmt.Sprintf("skipped %s (identical to %s)", r.Source, r.Destination)
	case organizer.ActionDry:
		return fmt.Sprintf("would place %s -> %s", r.Source, r.Destination)
	case organizer.ActionMove:
		return fmt.Sprintf("moved %s -> %s", r.Source, r.Destination)
	default:
		return fmt.Sprintf("copied %s -> %s", r.Source, r.Destination)
	}
}
