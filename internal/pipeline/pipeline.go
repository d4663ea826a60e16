package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"mediasort/internal/config"
	"mediasort/internal/dateresolve"
	"mediasort/internal/fileutil"
	"mediasort/internal/hashing"
	"mediasort/internal/ledger"
	"mediasort/internal/logging"
	"mediasort/internal/planner"
	"mediasort/internal/preflight"
)

// ErrInsufficientSpace aborts a run before any file is touched.
var ErrInsufficientSpace = errors.New("insufficient destination space")

// ErrLocked means another mediasort process holds the destination lock.
var ErrLocked = errors.New("another mediasort run is already in progress")

// Counts accumulates per-disposition totals for one run.
type Counts struct {
	Migrated   int
	Duplicates int
	ToReview   int
	Errored    int
	Ignored    int
}

// Summary is the final report of a run.
type Summary struct {
	RunID             string
	Counts            Counts
	Eligible          int
	Duration          time.Duration
	DuplicateMigrated []ledger.DuplicateFingerprint
}

// Progress is invoked after each processed file during the placement phase.
type Progress func(done, total int, counts Counts)

// Option configures the runner.
type Option func(*Runner)

// WithProgress registers a callback for per-file progress updates.
func WithProgress(fn Progress) Option {
	return func(r *Runner) { r.progress = fn }
}

// WithExtractor injects a metadata extractor (primarily for tests).
func WithExtractor(extractor dateresolve.Extractor) Option {
	return func(r *Runner) { r.extractor = extractor }
}

// WithFreeSpace overrides the destination free-space probe (tests only).
func WithFreeSpace(fn func(string) (uint64, error)) Option {
	return func(r *Runner) {
		if fn != nil {
			r.freeSpace = fn
		}
	}
}

// Runner coordinates one sorting run: discovery, capacity check, concurrent
// hashing, sequential placement, and the closing validation pass.
type Runner struct {
	cfg       *config.Config
	store     *ledger.Store
	logger    *slog.Logger
	extractor dateresolve.Extractor
	progress  Progress
	freeSpace func(string) (uint64, error)
}

// New constructs a runner wired with the default exiftool extractor.
func New(cfg *config.Config, store *ledger.Store, logger *slog.Logger, opts ...Option) (*Runner, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("runner requires config and ledger store")
	}

	extractor, err := dateresolve.NewExiftool(cfg.Exiftool.Binary, cfg.Exiftool.TimeoutSeconds)
	if err != nil {
		return nil, fmt.Errorf("configure exiftool: %w", err)
	}

	runner := &Runner{
		cfg:       cfg,
		store:     store,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		extractor: extractor,
		freeSpace: preflight.FreeSpace,
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner, nil
}

// Run executes the full pipeline and returns its summary. Per-file failures
// are logged and counted; only pre-flight conditions (lock contention,
// unreadable source, insufficient space) fail the run as a whole.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{RunID: uuid.NewString()}
	logger := r.logger.With(logging.String("run_id", summary.RunID))

	if err := r.cfg.EnsureDirectories(); err != nil {
		return summary, err
	}

	// Single-writer assumption: concurrent invocations against the same
	// destination tree are not supported.
	lock := flock.New(r.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return summary, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return summary, ErrLocked
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	for _, check := range preflight.RunAll(r.cfg) {
		if !check.Passed {
			logger.Error("preflight check failed",
				logging.String("check", check.Name),
				logging.String("detail", check.Detail),
			)
			return summary, fmt.Errorf("preflight: %s: %s", check.Name, check.Detail)
		}
		logger.Debug("preflight check passed",
			logging.String("check", check.Name),
			logging.String("detail", check.Detail),
		)
	}

	files, ignored, err := discover(r.cfg, logger)
	if err != nil {
		return summary, err
	}
	summary.Counts.Ignored = ignored
	summary.Eligible = len(files)
	if len(files) == 0 {
		logger.Info("no eligible files found", logging.String("source", r.cfg.Paths.SourceDir))
		summary.Duration = time.Since(start)
		return summary, nil
	}

	var required uint64
	for _, file := range files {
		required += uint64(file.size)
	}
	free, err := r.freeSpace(r.cfg.Paths.DestDir)
	if err != nil {
		return summary, fmt.Errorf("check destination space: %w", err)
	}
	if free < required {
		logger.Error("insufficient destination space",
			logging.Uint64("required_bytes", required),
			logging.Uint64("available_bytes", free),
		)
		return summary, fmt.Errorf("%w: need %d bytes, %d available", ErrInsufficientSpace, required, free)
	}

	logger.Info("starting run",
		logging.Int("eligible", len(files)),
		logging.Int("ignored", ignored),
		logging.Uint64("required_bytes", required),
	)

	paths := make([]string, len(files))
	for i, file := range files {
		paths[i] = file.path
	}
	digests, hashFailures := hashing.HashAll(ctx, paths, r.cfg.Workflow.HashWorkers)
	for path, hashErr := range hashFailures {
		logger.Error("hashing failed", logging.String("path", path), logging.Error(hashErr))
	}
	summary.Counts.Errored += len(hashFailures)

	migrated, err := r.store.MigratedFingerprints(ctx)
	if err != nil {
		return summary, fmt.Errorf("load migrated fingerprints: %w", err)
	}
	arbiter := planner.NewArbiter(r.cfg, migrated)
	resolver := dateresolve.NewResolver(r.extractor, logger)

	// Dates resolve up front so canonical selection sees every dated
	// occurrence of a fingerprint before the first placement decision.
	dates := make(map[string]dateresolve.ResolvedDate, len(paths))
	for _, path := range paths {
		digest, ok := digests[path]
		if !ok {
			continue
		}
		date := resolver.Resolve(ctx, path)
		dates[path] = date
		if !date.IsZero() {
			arbiter.Register(path, digest)
		}
	}

	// Placement is strictly sequential: the arbitration state is mutated
	// per decision and two files sharing a fingerprint must never both
	// believe they are the first occurrence.
	total := len(paths)
	done := len(hashFailures)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}
		digest, ok := digests[path]
		if !ok {
			continue
		}
		r.processFile(ctx, logger, arbiter, path, digest, dates[path], &summary.Counts)
		done++
		if r.progress != nil {
			r.progress(done, total, summary.Counts)
		}
	}

	summary.Duration = time.Since(start)
	logger.Info("run completed",
		logging.Int("migrated", summary.Counts.Migrated),
		logging.Int("duplicates", summary.Counts.Duplicates),
		logging.Int("to_review", summary.Counts.ToReview),
		logging.Int("errored", summary.Counts.Errored),
		logging.Int("ignored", summary.Counts.Ignored),
		logging.Duration("duration", summary.Duration),
	)

	duplicates, err := r.store.DuplicateMigratedFingerprints(ctx)
	if err != nil {
		return summary, fmt.Errorf("validate ledger: %w", err)
	}
	summary.DuplicateMigrated = duplicates
	if len(duplicates) > 0 {
		for _, dup := range duplicates {
			logger.Warn("duplicate migrated fingerprint",
				logging.String("hash", dup.Hash),
				logging.Int("count", dup.Count),
			)
		}
	} else {
		logger.Info("validation ok: no duplicate migrated fingerprints")
	}

	return summary, nil
}

func (r *Runner) processFile(
	ctx context.Context,
	logger *slog.Logger,
	arbiter *planner.Arbiter,
	path, digest string,
	date dateresolve.ResolvedDate,
	counts *Counts,
) {
	decision := arbiter.Decide(path, digest, date)

	target, err := fileutil.SafeCopy(path, decision.DestDir)
	if err != nil {
		logger.Error("copy failed", logging.String("path", path), logging.Error(err))
		counts.Errored++
		return
	}

	rec := &ledger.Record{
		OriginalPath:    path,
		Hash:            digest,
		Year:            date.Year,
		Month:           date.Month,
		MediaType:       decision.Kind,
		Status:          decision.Disposition,
		DestinationPath: decision.DestDir,
		FinalName:       filepath.Base(target),
	}
	if err := r.store.InsertRecord(ctx, rec); err != nil {
		logger.Error("ledger insert failed", logging.String("path", path), logging.Error(err))
		counts.Errored++
		return
	}

	switch decision.Disposition {
	case ledger.DispositionMigrated:
		counts.Migrated++
	case ledger.DispositionDuplicate:
		counts.Duplicates++
	case ledger.DispositionToReview:
		counts.ToReview++
	}

	logger.Info("file "+string(decision.Disposition),
		logging.String("path", path),
		logging.String("hash", digest),
		logging.String("target", target),
	)
}
