package planner_test

import (
	"path/filepath"
	"testing"

	"mediasort/internal/dateresolve"
	"mediasort/internal/ledger"
	"mediasort/internal/planner"
	"mediasort/internal/testsupport"
)

var march2021 = dateresolve.ResolvedDate{Year: "2021", Month: "03", Stamp: "20210315"}

func TestDecideUndatedShortCircuits(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	arbiter := planner.NewArbiter(cfg, nil)

	decision := arbiter.Decide("/src/holiday.jpg", "aaa", dateresolve.ResolvedDate{})
	if decision.Disposition != ledger.DispositionToReview {
		t.Fatalf("expected to_review, got %s", decision.Disposition)
	}
	if decision.DestDir != cfg.ReviewDir() {
		t.Fatalf("expected review dir, got %s", decision.DestDir)
	}

	// The same fingerprint with a date later must still be a fresh first
	// occurrence; undated files never enter arbitration.
	arbiter.Register("/src/dated.jpg", "aaa")
	decision = arbiter.Decide("/src/dated.jpg", "aaa", march2021)
	if decision.Disposition != ledger.DispositionMigrated {
		t.Fatalf("expected migrated after undated sibling, got %s", decision.Disposition)
	}
}

func TestDecideFirstOccurrenceMigrates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	arbiter := planner.NewArbiter(cfg, nil)

	arbiter.Register("/src/IMG_0001.jpg", "aaa")
	decision := arbiter.Decide("/src/IMG_0001.jpg", "aaa", march2021)
	if decision.Disposition != ledger.DispositionMigrated {
		t.Fatalf("expected migrated, got %s", decision.Disposition)
	}
	want := filepath.Join(cfg.Paths.DestDir, "PHOTO", "2021", "03")
	if decision.DestDir != want {
		t.Fatalf("unexpected dest dir: got %s want %s", decision.DestDir, want)
	}
	if decision.Kind != ledger.KindPhoto {
		t.Fatalf("expected PHOTO kind, got %s", decision.Kind)
	}
}

func TestDecidePreferredNameWinsRegardlessOfOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPreferredPrefixes("DCIM"))
	arbiter := planner.NewArbiter(cfg, nil)

	// Non-preferred name discovered first.
	arbiter.Register("/src/WA_photo.jpg", "aaa")
	arbiter.Register("/src/DCIM_0001.jpg", "aaa")

	first := arbiter.Decide("/src/WA_photo.jpg", "aaa", march2021)
	second := arbiter.Decide("/src/DCIM_0001.jpg", "aaa", march2021)

	if first.Disposition != ledger.DispositionDuplicate {
		t.Fatalf("expected WA_photo duplicate, got %s", first.Disposition)
	}
	if second.Disposition != ledger.DispositionMigrated {
		t.Fatalf("expected DCIM_0001 migrated, got %s", second.Disposition)
	}
	wantDup := filepath.Join(cfg.Paths.DestDir, "PHOTO_DUPLICATES", "2021", "03")
	if first.DestDir != wantDup {
		t.Fatalf("unexpected duplicate dir: %s", first.DestDir)
	}
}

func TestDecideTieBreaksByDiscoveryOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPreferredPrefixes("DCIM"))
	arbiter := planner.NewArbiter(cfg, nil)

	arbiter.Register("/src/WA_one.jpg", "bbb")
	arbiter.Register("/src/WA_two.jpg", "bbb")

	first := arbiter.Decide("/src/WA_one.jpg", "bbb", march2021)
	second := arbiter.Decide("/src/WA_two.jpg", "bbb", march2021)
	if first.Disposition != ledger.DispositionMigrated {
		t.Fatalf("expected first discovered to migrate, got %s", first.Disposition)
	}
	if second.Disposition != ledger.DispositionDuplicate {
		t.Fatalf("expected second to duplicate, got %s", second.Disposition)
	}
}

func TestDecideTwoPreferredFirstWins(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPreferredPrefixes("DCIM", "IMG"))
	arbiter := planner.NewArbiter(cfg, nil)

	arbiter.Register("/src/IMG_5.jpg", "ccc")
	arbiter.Register("/src/DCIM_9.jpg", "ccc")

	first := arbiter.Decide("/src/IMG_5.jpg", "ccc", march2021)
	second := arbiter.Decide("/src/DCIM_9.jpg", "ccc", march2021)
	if first.Disposition != ledger.DispositionMigrated || second.Disposition != ledger.DispositionDuplicate {
		t.Fatalf("expected first preferred to win: %s / %s", first.Disposition, second.Disposition)
	}
}

func TestDecideAlreadyMigratedAcrossRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	arbiter := planner.NewArbiter(cfg, map[string]struct{}{"ddd": {}})

	arbiter.Register("/src/IMG_0002.jpg", "ddd")
	decision := arbiter.Decide("/src/IMG_0002.jpg", "ddd", march2021)
	if decision.Disposition != ledger.DispositionDuplicate {
		t.Fatalf("expected duplicate for previously migrated hash, got %s", decision.Disposition)
	}
}

func TestMediaKindFromExtension(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	arbiter := planner.NewArbiter(cfg, nil)

	cases := map[string]ledger.MediaKind{
		"/src/a.JPG":  ledger.KindPhoto,
		"/src/b.heic": ledger.KindPhoto,
		"/src/c.mp4":  ledger.KindVideo,
		"/src/d.mov":  ledger.KindVideo,
	}
	for path, want := range cases {
		if got := arbiter.MediaKindFor(path); got != want {
			t.Fatalf("%s: got %s want %s", path, got, want)
		}
	}

	arbiter.Register("/src/clip.mp4", "eee")
	video := arbiter.Decide("/src/clip.mp4", "eee", march2021)
	if video.Disposition != ledger.DispositionMigrated {
		t.Fatalf("expected migrated video, got %s", video.Disposition)
	}
	wantDir := filepath.Join(cfg.Paths.DestDir, "VIDEO", "2021", "03")
	if video.DestDir != wantDir {
		t.Fatalf("unexpected video dest: %s", video.DestDir)
	}
}

func TestDecideUnregisteredPathIsSoleOccurrence(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	arbiter := planner.NewArbiter(cfg, nil)

	// No Register call: the fingerprint must still gain a migrated copy
	// instead of every occurrence collapsing to duplicate.
	first := arbiter.Decide("/src/solo.jpg", "ggg", march2021)
	if first.Disposition != ledger.DispositionMigrated {
		t.Fatalf("expected migrated for unregistered first occurrence, got %s", first.Disposition)
	}
	want := filepath.Join(cfg.Paths.DestDir, "PHOTO", "2021", "03")
	if first.DestDir != want {
		t.Fatalf("unexpected dest dir: got %s want %s", first.DestDir, want)
	}

	second := arbiter.Decide("/src/solo_copy.jpg", "ggg", march2021)
	if second.Disposition != ledger.DispositionDuplicate {
		t.Fatalf("expected duplicate for repeat of fingerprint, got %s", second.Disposition)
	}
}

func TestPreferredNameNormalization(t *testing.T) {
	// "Phóto" is the decomposed spelling of "Phóto"; a prefix in
	// composed form must still match.
	cfg := testsupport.NewConfig(t, testsupport.WithPreferredPrefixes("Phóto"))
	arbiter := planner.NewArbiter(cfg, nil)

	arbiter.Register("/src/other.jpg", "fff")
	arbiter.Register("/src/Phóto_1.jpg", "fff")

	first := arbiter.Decide("/src/other.jpg", "fff", march2021)
	second := arbiter.Decide("/src/Phóto_1.jpg", "fff", march2021)
	if first.Disposition != ledger.DispositionDuplicate || second.Disposition != ledger.DispositionMigrated {
		t.Fatalf("expected NFC-normalized prefix match: %s / %s", first.Disposition, second.Disposition)
	}
}
