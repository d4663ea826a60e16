package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"mediasort/internal/dateresolve"
	"mediasort/internal/ledger"
	"mediasort/internal/logging"
	"mediasort/internal/pipeline"
	"mediasort/internal/testsupport"
)

// mapExtractor resolves dates by base name, standing in for exiftool.
type mapExtractor map[string]dateresolve.ResolvedDate

func (m mapExtractor) ExtractDate(_ context.Context, path string) (dateresolve.ResolvedDate, error) {
	if date, ok := m[filepath.Base(path)]; ok {
		return date, nil
	}
	return dateresolve.ResolvedDate{}, nil
}

func TestRunClassifiesAndPlacesFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	march := dateresolve.ResolvedDate{Year: "2021", Month: "03", Stamp: "20210315"}
	dates := mapExtractor{
		"AA0001.jpg":   march,
		"IMG_0001.jpg": march,
		"clip.mp4":     {Year: "2022", Month: "07", Stamp: "20220704"},
	}

	// AA0001 sorts before IMG_0001, so the preferred name is discovered
	// second and must still win arbitration.
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "AA0001.jpg"), []byte("same-photo"))
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "IMG_0001.jpg"), []byte("same-photo"))
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "clip.mp4"), []byte("holiday-clip"))
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "beach.mp4"), []byte("mystery-clip"))
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "notes.txt"), []byte("not media"))

	runner, err := pipeline.New(cfg, store, logging.NewNop(), pipeline.WithExtractor(dates))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := pipeline.Counts{Migrated: 2, Duplicates: 1, ToReview: 1, Ignored: 1}
	if summary.Counts != want {
		t.Fatalf("counts = %+v, want %+v", summary.Counts, want)
	}
	if summary.RunID == "" {
		t.Fatal("expected a run ID")
	}
	if len(summary.DuplicateMigrated) != 0 {
		t.Fatalf("unexpected validation findings: %+v", summary.DuplicateMigrated)
	}

	checks := []string{
		filepath.Join(cfg.Paths.DestDir, "PHOTO", "2021", "03", "IMG_0001.jpg"),
		filepath.Join(cfg.Paths.DestDir, "PHOTO_DUPLICATES", "2021", "03", "AA0001.jpg"),
		filepath.Join(cfg.Paths.DestDir, "VIDEO", "2022", "07", "clip.mp4"),
		filepath.Join(cfg.ReviewDir(), "beach.mp4"),
	}
	for _, path := range checks {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s to exist: %v", path, err)
		}
	}

	// Sources are copied, never moved.
	if _, err := os.Stat(filepath.Join(cfg.Paths.SourceDir, "IMG_0001.jpg")); err != nil {
		t.Errorf("source file should remain: %v", err)
	}
}

func TestRunIsIdempotentAcrossRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	dates := mapExtractor{
		"IMG_0001.jpg": {Year: "2021", Month: "03", Stamp: "20210315"},
	}
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "IMG_0001.jpg"), []byte("photo-bytes"))

	runner, err := pipeline.New(cfg, store, logging.NewNop(), pipeline.WithExtractor(dates))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	first, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Counts.Migrated != 1 {
		t.Fatalf("first run migrated = %d, want 1", first.Counts.Migrated)
	}

	second, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Counts.Migrated != 0 || second.Counts.Duplicates != 1 {
		t.Fatalf("second run counts = %+v, want 0 migrated / 1 duplicate", second.Counts)
	}
	if len(second.DuplicateMigrated) != 0 {
		t.Fatalf("validation should stay clean, got %+v", second.DuplicateMigrated)
	}

	counts, err := store.StatusCounts(context.Background())
	if err != nil {
		t.Fatalf("StatusCounts: %v", err)
	}
	if counts[ledger.DispositionMigrated] != 1 {
		t.Fatalf("ledger migrated rows = %d, want 1", counts[ledger.DispositionMigrated])
	}
}

func TestRunAbortsWhenDestinationTooSmall(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	testsupport.WriteFileSize(t, filepath.Join(cfg.Paths.SourceDir, "IMG_0001.jpg"), 4096)

	runner, err := pipeline.New(cfg, store, logging.NewNop(),
		pipeline.WithExtractor(mapExtractor{}),
		pipeline.WithFreeSpace(func(string) (uint64, error) { return 1024, nil }),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = runner.Run(context.Background())
	if !errors.Is(err, pipeline.ErrInsufficientSpace) {
		t.Fatalf("expected ErrInsufficientSpace, got %v", err)
	}

	entries, err := os.ReadDir(cfg.Paths.DestDir)
	if err != nil {
		t.Fatalf("read dest dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("destination should be untouched, found %d entries", len(entries))
	}
	records, err := store.Records(context.Background(), 0)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("ledger should be empty after abort, found %d rows", len(records))
	}
}

func TestRunRefusesConcurrentInvocation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	held := flock.New(cfg.LockPath())
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("pre-acquire lock: locked=%v err=%v", locked, err)
	}
	defer func() { _ = held.Unlock() }()

	runner, err := pipeline.New(cfg, store, logging.NewNop(), pipeline.WithExtractor(mapExtractor{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = runner.Run(context.Background())
	if !errors.Is(err, pipeline.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestRunWithEmptySource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	runner, err := pipeline.New(cfg, store, logging.NewNop(), pipeline.WithExtractor(mapExtractor{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Counts != (pipeline.Counts{}) {
		t.Fatalf("expected zero counts, got %+v", summary.Counts)
	}
}

func TestRunReportsProgress(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	dates := mapExtractor{
		"IMG_0001.jpg": {Year: "2021", Month: "03", Stamp: "20210315"},
		"IMG_0002.jpg": {Year: "2021", Month: "04", Stamp: "20210401"},
	}
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "IMG_0001.jpg"), []byte("one"))
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "IMG_0002.jpg"), []byte("two"))

	var calls int
	var lastDone, lastTotal int
	runner, err := pipeline.New(cfg, store, logging.NewNop(),
		pipeline.WithExtractor(dates),
		pipeline.WithProgress(func(done, total int, _ pipeline.Counts) {
			calls++
			lastDone, lastTotal = done, total
		}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 2 {
		t.Fatalf("progress calls = %d, want 2", calls)
	}
	if lastDone != lastTotal || lastTotal != 2 {
		t.Fatalf("final progress = %d/%d, want 2/2", lastDone, lastTotal)
	}
}

func TestRunLogsIgnoredFilesAtInfo(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	skipped := filepath.Join(cfg.Paths.SourceDir, "notes.txt")
	testsupport.WriteFile(t, skipped, []byte("not media"))

	logPath := filepath.Join(testsupport.BaseDir(cfg), "run.log")
	logger, err := logging.New(logging.Options{
		Level:       "info",
		Format:      "console",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}

	runner, err := pipeline.New(cfg, store, logger, pipeline.WithExtractor(mapExtractor{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Counts.Ignored != 1 {
		t.Fatalf("ignored = %d, want 1", summary.Counts.Ignored)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(content), "ignored unsupported file") || !strings.Contains(string(content), "notes.txt") {
		t.Fatalf("expected ignored path in log at info level, got:\n%s", content)
	}
}

func TestRunRoutesUndatedFilesToReview(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	// Same bytes twice, neither dated: both go to review, neither enters
	// arbitration, and re-running adds suffixed copies instead of skipping.
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "left.jpg"), []byte("twin-bytes"))
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "right.jpg"), []byte("twin-bytes"))

	runner, err := pipeline.New(cfg, store, logging.NewNop(), pipeline.WithExtractor(mapExtractor{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Counts.ToReview != 2 {
		t.Fatalf("to_review = %d, want 2", summary.Counts.ToReview)
	}
	for _, name := range []string{"left.jpg", "right.jpg"} {
		if _, err := os.Stat(filepath.Join(cfg.ReviewDir(), name)); err != nil {
			t.Errorf("expected %s in review dir: %v", name, err)
		}
	}

	records, err := store.Records(context.Background(), 0)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	for _, rec := range records {
		if rec.Year != "" || rec.Month != "" {
			t.Errorf("undated record %s carries date %s/%s", rec.OriginalPath, rec.Year, rec.Month)
		}
	}
}
