package process

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sort"

	"golang.org/x/sync/errgroup"

	"quill/internal/artifact"
	"quill/internal/checksum"
	"quill/internal/enrich"
	"quill/internal/ledger"
	"quill/internal/logging"
	"quill/internal/report"
	"quill/internal/services"
	"quill/internal/staging"
	"quill/internal/state"
)

// Options controls one processing run.
type Options struct {
	ForceReprocess bool
	DryRun         bool
	Workers        int
	RetryAttempts  int
}

// Orchestrator drives the full incremental pass: candidate selection,
// change detection, enrichment, and the commit protocol.
type Orchestrator struct {
	store    *state.Store
	ledger   *ledger.Ledger
	source   staging.Source
	reader   *staging.Reader
	pipeline *enrich.Pipeline
	renderer *artifact.Renderer
	sink     *artifact.Sink
	logger   *slog.Logger
	units    keyedMutex
}

// New wires an Orchestrator from its collaborators.
func New(
	store *state.Store,
	ldg *ledger.Ledger,
	source staging.Source,
	reader *staging.Reader,
	pipeline *enrich.Pipeline,
	renderer *artifact.Renderer,
	sink *artifact.Sink,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:    store,
		ledger:   ldg,
		source:   source,
		reader:   reader,
		pipeline: pipeline,
		renderer: renderer,
		sink:     sink,
		logger:   logging.NewComponentLogger(logger, "orchestrator"),
	}
}

// Run processes the selected contacts (all known contacts when selection is
// empty). Unit errors are collected in the report; only state errors,
// configuration errors, and cancellation abort the run.
func (o *Orchestrator) Run(ctx context.Context, selection []string, opts Options) (*report.Report, error) {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.RetryAttempts < 0 {
		opts.RetryAttempts = 0
	}

	rep := report.New(opts.DryRun)
	ctx = services.WithRunID(ctx, rep.RunID)
	logger := logging.WithContext(ctx, o.logger)
	logger.Info("run started",
		logging.Bool("force", opts.ForceReprocess),
		logging.Bool("dry_run", opts.DryRun),
		logging.Int("workers", opts.Workers))

	contacts, err := o.selectContacts(ctx, selection, opts.DryRun)
	if err != nil {
		return rep, err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(opts.Workers)

	for _, contact := range contacts {
		contact := contact
		group.Go(func() error {
			return o.processContact(groupCtx, contact, opts, rep)
		})
	}
	err = group.Wait()
	rep.Finish()

	snap := rep.Snapshot()
	logger.Info("run finished",
		logging.Int("processed", snap.UnitsProcessed),
		logging.Int("skipped", snap.UnitsSkipped),
		logging.Int("failed", snap.UnitsFailed),
		logging.Duration("elapsed", snap.Elapsed))
	return rep, err
}

// selectContacts registers staged units and resolves the contact scope.
// Registration is idempotent, so running it at the start of every pass is
// safe and keeps `process` usable without a prior `register`. Dry runs must
// not touch the state file, so they scan the staging tree instead of
// registering.
func (o *Orchestrator) selectContacts(ctx context.Context, selection []string, dryRun bool) ([]string, error) {
	if len(selection) > 0 {
		if dryRun {
			return selection, nil
		}
		for _, contact := range selection {
			if _, err := o.ledger.RegisterContact(ctx, contact); err != nil {
				return nil, err
			}
		}
		return selection, nil
	}
	if dryRun {
		staged, err := o.source.Contacts()
		if err != nil {
			return nil, err
		}
		return mergeContacts(o.store.ContactNames(), staged), nil
	}
	if _, err := o.ledger.RegisterAll(ctx); err != nil {
		return nil, err
	}
	return o.store.ContactNames(), nil
}

func mergeContacts(known, staged []string) []string {
	seen := make(map[string]struct{}, len(known)+len(staged))
	merged := make([]string, 0, len(known)+len(staged))
	for _, name := range append(append([]string(nil), known...), staged...) {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		merged = append(merged, name)
	}
	sort.Strings(merged)
	return merged
}

// processContact walks one contact's candidate units in registration order.
func (o *Orchestrator) processContact(ctx context.Context, contact string, opts Options, rep *report.Report) error {
	rep.AddContact()
	ctx = services.WithContact(ctx, contact)

	units, err := o.candidates(contact, opts)
	if err != nil {
		return err
	}
	for _, unitKey := range units {
		// Graceful drain: cancellation is honored between units only.
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.processUnit(ctx, contact, unitKey, opts, rep); err != nil {
			return err
		}
	}
	return nil
}

// candidates returns pending units plus, under force-reprocess, every
// previously committed unit not already pending. A dry run additionally
// scans the staging tree for units registration would have marked pending,
// without persisting anything.
func (o *Orchestrator) candidates(contact string, opts Options) ([]string, error) {
	pending := o.ledger.Pending(contact)
	seen := make(map[string]struct{}, len(pending))
	for _, key := range pending {
		seen[key] = struct{}{}
	}
	candidates := append([]string(nil), pending...)

	if opts.DryRun {
		units, err := o.source.Units(contact)
		if err != nil {
			return nil, err
		}
		for _, key := range units {
			if _, dup := seen[key]; dup {
				continue
			}
			stored, committed := o.store.UnitDigest(contact, key)
			if committed && !checksum.Changed(o.source.UnitPath(contact, key), stored) {
				continue
			}
			seen[key] = struct{}{}
			candidates = append(candidates, key)
		}
	}

	if opts.ForceReprocess {
		processed := o.store.ProcessedKeys(contact)
		sort.Strings(processed)
		for _, key := range processed {
			if _, dup := seen[key]; !dup {
				candidates = append(candidates, key)
			}
		}
	}
	return candidates, nil
}

func (o *Orchestrator) processUnit(ctx context.Context, contact, unitKey string, opts Options, rep *report.Report) error {
	unlock := o.units.lock(contact + "/" + unitKey)
	defer unlock()

	ctx = services.WithUnit(ctx, unitKey)
	logger := logging.WithContext(ctx, o.logger)

	path := o.source.UnitPath(contact, unitKey)
	content, err := o.source.ReadUnit(contact, unitKey)
	if err != nil {
		if os.IsNotExist(err) {
			rep.AddDropped()
			if opts.DryRun {
				return nil
			}
			return o.ledger.Drop(contact, unitKey)
		}
		rep.AddFailure(contact, unitKey, services.Wrap(nil, "process", "read unit", "staged file unreadable", err))
		return nil
	}

	digest := checksum.Sum(content)
	stored, committed := o.store.UnitDigest(contact, unitKey)
	if committed && checksum.Equal(digest, stored) && !opts.ForceReprocess {
		rep.AddSkipped()
		logger.Debug("unit unchanged, skipping")
		return nil
	}

	if opts.DryRun {
		rep.AddProcessed(state.StageTotals{})
		logger.Info("would process unit", logging.String("path", path))
		return nil
	}

	totals, records, err := o.enrichWithRetry(ctx, contact, unitKey, content, opts.RetryAttempts)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if services.IsFatal(err) {
			return err
		}
		rep.AddFailure(contact, unitKey, err)
		logger.Warn("unit failed", logging.Error(err))
		return nil
	}

	// Commit protocol: the artifact rename above already confirmed durable
	// output, so the digest, pending removal, and counters may land now.
	if err := o.ledger.Commit(contact, unitKey, digest, records, totals); err != nil {
		return services.Wrap(nil, "process", "commit unit", "state commit failed", err)
	}
	rep.AddProcessed(totals)
	logger.Info("unit processed",
		logging.Int("records", records),
		logging.Int("tags", totals.Tags))
	return nil
}

// enrichWithRetry runs parse, enrichment, render, and the durable artifact
// write, retrying the whole pass up to the retry budget for retryable
// failures.
func (o *Orchestrator) enrichWithRetry(ctx context.Context, contact, unitKey string, content []byte, retries int) (state.StageTotals, int, error) {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return state.StageTotals{}, 0, err
		}
		totals, records, err := o.enrichOnce(ctx, contact, unitKey, content)
		if err == nil {
			return totals, records, nil
		}
		lastErr = err
		if !services.Retryable(err) {
			break
		}
		o.logger.Warn("retrying unit",
			logging.String(logging.FieldContact, contact),
			logging.String(logging.FieldUnit, unitKey),
			logging.Int("attempt", attempt+1),
			logging.Error(err))
	}
	return state.StageTotals{}, 0, lastErr
}

func (o *Orchestrator) enrichOnce(ctx context.Context, contact, unitKey string, content []byte) (state.StageTotals, int, error) {
	records, err := o.reader.ParseUnit(content, contact, unitKey, o.source.UnitPath(contact, unitKey))
	if err != nil {
		return state.StageTotals{}, 0, services.Wrap(services.ErrValidation, "process", "parse unit", "staged file unparseable", err)
	}

	result, err := o.pipeline.EnrichUnit(ctx, contact, unitKey, records)
	if err != nil {
		return state.StageTotals{}, 0, err
	}

	note := o.renderer.Render(result)
	if _, err := o.sink.Write(contact, unitKey, note); err != nil {
		return state.StageTotals{}, 0, services.Wrap(services.ErrTransient, "process", "write artifact", "artifact write failed", err)
	}
	return result.Totals, len(result.Records), nil
}
