package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/cassation/internal/core/domain"
	"github.com/custodia-labs/cassation/internal/core/ports/driven"
	"github.com/custodia-labs/cassation/internal/core/ports/driving"
	"github.com/custodia-labs/cassation/internal/logger"
	"github.com/custodia-labs/cassation/internal/ratelimit"
)

// Ensure IngestCoordinator implements the interface.
var _ driving.IngestService = (*IngestCoordinator)(nil)

// IngestConfig tunes the coordinator. Zero values take the defaults of
// domain.DefaultAppSettings.
type IngestConfig struct {
	Workers         int
	MaxRetries      int
	RetryBackoff    time.Duration
	WritesPerSecond float64
	DedupCacheSize  int
}

// IngestConfigFromSettings maps ingest settings onto a coordinator config.
func IngestConfigFromSettings(s domain.IngestSettings) IngestConfig {
	return IngestConfig{
		Workers:         s.Workers,
		MaxRetries:      s.MaxRetries,
		RetryBackoff:    time.Duration(s.RetryBackoffMillis) * time.Millisecond,
		WritesPerSecond: float64(s.WritesPerSecond),
		DedupCacheSize:  s.DedupCacheSize,
	}
}

func (c IngestConfig) withDefaults() IngestConfig {
	d := domain.DefaultAppSettings().Ingest
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = time.Duration(d.RetryBackoffMillis) * time.Millisecond
	}
	if c.DedupCacheSize <= 0 {
		c.DedupCacheSize = d.DedupCacheSize
	}
	return c
}

// IngestCoordinator drives archive → parser → normaliser → store.
//
// Buckets are spread over a bounded pool of workers, each owning its own
// parser and normaliser. Per-document outcomes funnel into a single
// aggregator that builds the run summary. Convergence on one row per
// text_id is left to the store's upsert.
type IngestCoordinator struct {
	store    driven.DecisionStore
	ledger   driven.ArchiveLedger
	pipeline driven.DocumentPipeline
	cfg      IngestConfig
	now      func() time.Time
}

// NewIngestCoordinator creates a coordinator. ledger may be nil, in which
// case processed archives are never recorded.
func NewIngestCoordinator(
	store driven.DecisionStore,
	ledger driven.ArchiveLedger,
	pipeline driven.DocumentPipeline,
	cfg IngestConfig,
) *IngestCoordinator {
	return &IngestCoordinator{
		store:    store,
		ledger:   ledger,
		pipeline: pipeline,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
	}
}

// docResult is what a worker reports for one payload or archive error.
type docResult struct {
	path    string
	textID  string
	parsed  bool
	outcome domain.UpsertOutcome
	err     error

	// entryErr marks an unreadable archive entry rather than a payload.
	entryErr bool
	// abandoned marks a write cut short by cancellation.
	abandoned bool
}

// Ingest processes one archive and returns its summary.
func (c *IngestCoordinator) Ingest(
	ctx context.Context,
	source driven.ArchiveSource,
	opts driving.IngestOptions,
) (*domain.IngestSummary, error) {
	info := source.Info()
	summary := &domain.IngestSummary{
		RunID:     uuid.NewString(),
		Archive:   info.Name,
		StartedAt: c.now().UTC(),
	}
	log := logger.With("run_id", summary.RunID, "archive", info.Name, "revision", info.Revision)

	if err := c.store.Ping(ctx); err != nil {
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}
		return nil, err
	}

	if opts.SkipProcessed && c.ledger != nil && info.Digest != "" {
		run, err := c.ledger.LookupArchive(ctx, info.Digest)
		switch {
		case err == nil:
			logger.Info("Skipping %s: already ingested by run %s", info.Name, run.RunID)
			summary.Skipped = true
			summary.FinishedAt = c.now().UTC()
			return summary, nil
		case !errors.Is(err, domain.ErrNotFound):
			log.Warnw("ledger lookup failed", "error", err)
		}
	}

	workers := c.cfg.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}

	seen, err := lru.New[string, string](c.cfg.DedupCacheSize)
	if err != nil {
		return nil, fmt.Errorf("dedup cache: %w", err)
	}
	limiter := ratelimit.New(ratelimit.Config{
		WritesPerSecond: c.cfg.WritesPerSecond,
		Burst:           workers,
		BaseBackoff:     c.cfg.RetryBackoff,
	})

	logger.Section("Ingest " + info.Name)
	logger.Debug("Run %s with %d workers", summary.RunID, workers)

	buckets, archiveErrs := source.Buckets(ctx)
	results := make(chan docResult, workers*2)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		w := &ingestWorker{
			parser:     c.pipeline.NewParser(),
			normaliser: c.pipeline.NewNormaliser(),
			store:      c.store,
			seen:       seen,
			limiter:    limiter,
			maxRetries: c.cfg.MaxRetries,
			log:        log,
		}
		g.Go(func() error {
			w.run(gctx, buckets, results)
			return nil
		})
	}
	g.Go(func() error {
		for err := range archiveErrs {
			results <- archiveErrorResult(err)
		}
		return nil
	})
	go func() {
		_ = g.Wait()
		close(results)
	}()

	for r := range results {
		record(summary, r, log)
		if opts.Progress != nil {
			opts.Progress(*summary)
		}
	}

	summary.FinishedAt = c.now().UTC()

	if err := ctx.Err(); err != nil {
		summary.Interrupted = true
		logger.Warn("Ingestion of %s interrupted after %d documents", info.Name, summary.Discovered)
		return summary, err
	}

	c.recordArchive(ctx, info, summary, log)

	logger.Info("Ingested %s: %d discovered, %d parsed, %d inserted, %d updated, %d duplicate, %d superseded, %d rejected, %d failed",
		info.Name, summary.Discovered, summary.Parsed, summary.Inserted, summary.Updated,
		summary.Duplicate, summary.Superseded, summary.Rejected, summary.Failed)
	return summary, nil
}

// recordArchive adds a clean run to the ledger. Runs with failures are not
// recorded so the next run reads the archive again.
func (c *IngestCoordinator) recordArchive(
	ctx context.Context,
	info domain.ArchiveInfo,
	s *domain.IngestSummary,
	log *zap.SugaredLogger,
) {
	if c.ledger == nil || info.Digest == "" || s.Failed > 0 {
		return
	}
	run := domain.ArchiveRun{
		Digest:      info.Digest,
		Name:        info.Name,
		RunID:       s.RunID,
		Discovered:  s.Discovered,
		Inserted:    s.Inserted,
		Updated:     s.Updated,
		Duplicate:   s.Duplicate,
		Superseded:  s.Superseded,
		Rejected:    s.Rejected,
		Failed:      s.Failed,
		ProcessedAt: s.FinishedAt,
	}
	if err := c.ledger.RecordArchive(ctx, run); err != nil {
		log.Warnw("recording archive in ledger failed", "error", err)
	}
}

func archiveErrorResult(err error) docResult {
	r := docResult{err: err, entryErr: true}
	var are *domain.ArchiveReadError
	if errors.As(err, &are) {
		r.path = are.Path
	}
	return r
}

// record folds one result into the summary. Only the aggregator calls it.
func record(s *domain.IngestSummary, r docResult, log *zap.SugaredLogger) {
	if r.entryErr {
		s.Failed++
		s.RecordError(domain.DocumentError{Kind: "archive_read", Path: r.path, Message: r.err.Error()})
		log.Warnw("archive entry skipped", "path", r.path, "error", r.err)
		return
	}

	s.Discovered++
	if r.parsed {
		s.Parsed++
	}
	if r.abandoned {
		return
	}

	if r.err != nil {
		kind := domain.ErrorKind(r.err)
		s.RecordError(domain.DocumentError{Kind: kind, Path: r.path, TextID: r.textID, Message: r.err.Error()})
		switch kind {
		case "parse", "rejection":
			s.Rejected++
			log.Infow("document rejected", "kind", kind, "path", r.path, "text_id", r.textID, "error", r.err)
		default:
			s.Failed++
			log.Warnw("document not stored", "kind", kind, "path", r.path, "text_id", r.textID, "error", r.err)
		}
		return
	}

	switch r.outcome {
	case domain.OutcomeInserted:
		s.Inserted++
	case domain.OutcomeUpdated:
		s.Updated++
	case domain.OutcomeUnchanged:
		s.Duplicate++
	case domain.OutcomeSuperseded:
		s.Superseded++
	}
}

// ingestWorker owns one parser and normaliser.
type ingestWorker struct {
	parser     driven.Parser
	normaliser driven.Normaliser
	store      driven.DecisionStore
	seen       *lru.Cache[string, string]
	limiter    *ratelimit.Limiter
	maxRetries int
	log        *zap.SugaredLogger
}

// run consumes buckets until the channel closes or ctx is done.
func (w *ingestWorker) run(ctx context.Context, buckets <-chan domain.Bucket, results chan<- docResult) {
	for {
		select {
		case <-ctx.Done():
			return
		case b, ok := <-buckets:
			if !ok {
				return
			}
			for _, p := range b.Payloads {
				if ctx.Err() != nil {
					return
				}
				results <- w.process(ctx, p)
			}
		}
	}
}

func (w *ingestWorker) process(ctx context.Context, p domain.Payload) docResult {
	res := docResult{path: p.Path}

	raw, err := w.parser.Parse(p)
	if err != nil {
		res.err = err
		return res
	}
	res.parsed = true
	res.textID = raw.ID

	d, err := w.normaliser.Normalise(raw)
	if err != nil {
		res.err = err
		return res
	}
	res.textID = d.TextID

	if hash, ok := w.seen.Get(d.TextID); ok && hash == d.ContentHash {
		res.outcome = domain.OutcomeUnchanged
		return res
	}

	outcome, err := w.write(ctx, d)
	if err != nil {
		if ctx.Err() != nil {
			res.abandoned = true
			return res
		}
		res.err = err
		return res
	}
	if outcome != domain.OutcomeSuperseded {
		w.seen.Add(d.TextID, d.ContentHash)
	}
	res.outcome = outcome
	return res
}

// write upserts d, retrying transient failures with exponential backoff.
func (w *ingestWorker) write(ctx context.Context, d *domain.Decision) (domain.UpsertOutcome, error) {
	for attempt := 0; ; attempt++ {
		if err := w.limiter.Wait(ctx); err != nil {
			return "", err
		}

		outcome, err := w.store.Upsert(ctx, d)
		if err == nil {
			return outcome, nil
		}

		var swe *domain.StoreWriteError
		if !errors.As(err, &swe) {
			err = &domain.StoreWriteError{TextID: d.TextID, Err: err}
		}
		if !domain.IsTransient(err) || attempt >= w.maxRetries {
			return "", err
		}

		delay := w.limiter.RecordFailure(attempt)
		w.log.Debugw("retrying store write", "text_id", d.TextID, "attempt", attempt+1, "delay", delay, "error", err)
	}
}
