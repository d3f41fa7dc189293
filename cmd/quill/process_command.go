package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"quill/internal/artifact"
	"quill/internal/enrich"
	"quill/internal/ledger"
	"quill/internal/logging"
	"quill/internal/process"
	"quill/internal/report"
	"quill/internal/staging"
	"quill/internal/state"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var (
		force      bool
		dryRun     bool
		workers    int
		retries    int
		skipFlags  enrich.Skip
		skipTagger bool
	)

	cmd := &cobra.Command{
		Use:   "process [contact...]",
		Short: "Enrich pending staged units into processed notes",
		Long: `Process runs the incremental enrichment pass. Without arguments every
known contact is considered; naming contacts limits the run to them.
Units whose content digest matches the last committed digest are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			store, err := state.Open(cfg.Paths.StateFile, logger)
			if err != nil {
				return fmt.Errorf("open state: %w", err)
			}
			if !dryRun {
				if err := store.AcquireRunLock(); err != nil {
					return fmt.Errorf("another quill run is active: %w", err)
				}
				defer func() {
					if err := store.ReleaseRunLock(); err != nil {
						logger.Warn("release run lock", logging.Error(err))
					}
				}()
			}

			skipFlags.Tagging = skipFlags.Tagging || skipTagger
			pipeline, cache, err := buildPipeline(cfg, skipFlags, logger)
			if err != nil {
				return err
			}
			if cache != nil {
				defer cache.Close()
			}

			source := staging.NewDir(cfg.Paths.StagingDir)
			orch := process.New(
				store,
				ledger.New(store, source, logger),
				source,
				staging.NewReader(time.Local, logger),
				pipeline,
				artifact.NewRenderer(time.Local),
				artifact.NewSink(cfg.Paths.ProcessedDir, logger),
				logger,
			)

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			opts := process.Options{
				ForceReprocess: force,
				DryRun:         dryRun,
				Workers:        resolveWorkers(workers, cfg.Processing.Workers),
				RetryAttempts:  resolveRetries(retries, cfg.Processing.RetryAttempts),
			}
			rep, runErr := orch.Run(runCtx, args, opts)

			if err := renderRunReport(cmd, ctx, rep); err != nil {
				return err
			}
			if runErr != nil {
				return runErr
			}
			if rep.HasFailures() {
				return fmt.Errorf("%d unit(s) failed; see report above", rep.Snapshot().UnitsFailed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Reprocess committed units even when unchanged")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be processed without writing anything")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent contacts (0 uses the configured value)")
	cmd.Flags().IntVar(&retries, "retries", -1, "Per-unit retry budget (-1 uses the configured value)")
	cmd.Flags().BoolVar(&skipFlags.Transcription, "skip-transcription", false, "Skip voice and video transcription")
	cmd.Flags().BoolVar(&skipFlags.OCR, "skip-ocr", false, "Skip image text extraction")
	cmd.Flags().BoolVar(&skipFlags.Summarization, "skip-summarization", false, "Skip AI summaries")
	cmd.Flags().BoolVar(&skipFlags.Links, "skip-links", false, "Skip link metadata fetching")
	cmd.Flags().BoolVar(&skipTagger, "skip-tagging", false, "Skip tag generation")

	return cmd
}

func resolveWorkers(flag, configured int) int {
	if flag > 0 {
		return flag
	}
	return configured
}

func resolveRetries(flag, configured int) int {
	if flag >= 0 {
		return flag
	}
	return configured
}

func renderRunReport(cmd *cobra.Command, ctx *commandContext, rep *report.Report) error {
	snap := rep.Snapshot()

	if ctx.JSONMode() {
		return writeJSON(cmd, map[string]any{
			"run_id":          snap.RunID,
			"dry_run":         snap.DryRun,
			"elapsed_seconds": snap.Elapsed.Seconds(),
			"contacts_seen":   snap.ContactsSeen,
			"units_processed": snap.UnitsProcessed,
			"units_skipped":   snap.UnitsSkipped,
			"units_dropped":   snap.UnitsDropped,
			"units_failed":    snap.UnitsFailed,
			"totals":          snap.Totals,
			"failures":        snap.Failures,
		})
	}

	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	title := "Processing Run"
	if snap.DryRun {
		title = "Processing Run (dry run)"
	}
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Contacts", statusInfo, fmt.Sprintf("%d", snap.ContactsSeen), colorize))
	fmt.Fprintln(out, renderStatusLine("Processed", statusOK, fmt.Sprintf("%d", snap.UnitsProcessed), colorize))
	fmt.Fprintln(out, renderStatusLine("Skipped", statusInfo, fmt.Sprintf("%d unchanged", snap.UnitsSkipped), colorize))
	if snap.UnitsDropped > 0 {
		fmt.Fprintln(out, renderStatusLine("Dropped", statusWarn, fmt.Sprintf("%d missing staged files", snap.UnitsDropped), colorize))
	}
	failKind := statusOK
	if snap.UnitsFailed > 0 {
		failKind = statusError
	}
	fmt.Fprintln(out, renderStatusLine("Failed", failKind, fmt.Sprintf("%d", snap.UnitsFailed), colorize))
	fmt.Fprintln(out, renderStatusLine("Elapsed", statusInfo, snap.Elapsed.Round(time.Millisecond).String(), colorize))

	if len(snap.Failures) > 0 {
		fmt.Fprintln(out)
		rows := make([][]string, 0, len(snap.Failures))
		for _, failure := range snap.Failures {
			rows = append(rows, []string{failure.Contact, failure.UnitKey, failure.Cause})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Contact", "Unit", "Cause"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft},
		))
	}
	return nil
}
