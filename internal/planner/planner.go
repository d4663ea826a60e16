package planner

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"mediasort/internal/config"
	"mediasort/internal/dateresolve"
	"mediasort/internal/ledger"
)

// Decision is the planner's verdict for one file: where it goes and why.
type Decision struct {
	Disposition ledger.Disposition
	Kind        ledger.MediaKind
	DestDir     string
}

type occurrence struct {
	path      string
	preferred bool
}

// Arbiter owns the run-scoped arbitration state: the set of fingerprints
// already migrated (seeded from the ledger, grown during the run) and the
// per-fingerprint occurrence groups used for canonical-copy selection.
//
// Callers must Register every dated file before the first Decide call so
// canonical selection sees the whole run's occurrences of a fingerprint,
// not just the ones discovered before it. This makes the preferred-name
// heuristic independent of discovery order. A dated file that was never
// registered is treated as the sole occurrence of its fingerprint.
// Arbiter is not safe for concurrent use; placement decisions run
// sequentially.
type Arbiter struct {
	cfg       *config.Config
	migrated  map[string]struct{}
	groups    map[string][]occurrence
	canonical map[string]string
}

// NewArbiter builds an arbiter seeded with the fingerprints already migrated
// in prior runs.
func NewArbiter(cfg *config.Config, migrated map[string]struct{}) *Arbiter {
	if migrated == nil {
		migrated = make(map[string]struct{})
	}
	return &Arbiter{
		cfg:       cfg,
		migrated:  migrated,
		groups:    make(map[string][]occurrence),
		canonical: make(map[string]string),
	}
}

// Register adds a dated file to its fingerprint's occurrence group. Undated
// files are never registered; they bypass arbitration entirely.
func (a *Arbiter) Register(path, hash string) {
	a.groups[hash] = append(a.groups[hash], occurrence{
		path:      path,
		preferred: a.preferredName(filepath.Base(path)),
	})
}

// Decide classifies one file given its fingerprint and resolved date.
//
// An absent date short-circuits to the review area before any fingerprint
// logic runs. Otherwise the first processed occurrence of a not-yet-migrated
// fingerprint promotes the group's canonical file (first preferred entry, or
// first entry when none is preferred); everything else sharing the
// fingerprint, in this run or any later one, is a duplicate.
func (a *Arbiter) Decide(path, hash string, date dateresolve.ResolvedDate) Decision {
	kind := a.MediaKindFor(path)

	if date.IsZero() {
		return Decision{
			Disposition: ledger.DispositionToReview,
			Kind:        kind,
			DestDir:     a.cfg.ReviewDir(),
		}
	}

	destDir := filepath.Join(a.cfg.Paths.DestDir, string(kind), date.Year, date.Month)
	dupDir := filepath.Join(a.cfg.Paths.DestDir, string(kind)+"_DUPLICATES", date.Year, date.Month)

	if _, done := a.migrated[hash]; done {
		return Decision{Disposition: ledger.DispositionDuplicate, Kind: kind, DestDir: dupDir}
	}

	chosen, ok := a.canonical[hash]
	if !ok {
		group := a.groups[hash]
		if len(group) == 0 {
			// Unregistered path: the fingerprint has no occurrence group,
			// so this file stands alone and must not be stranded as a
			// duplicate with no migrated copy.
			group = []occurrence{{path: path, preferred: a.preferredName(filepath.Base(path))}}
		}
		chosen = selectCanonical(group)
		a.canonical[hash] = chosen
	}

	if path == chosen {
		a.migrated[hash] = struct{}{}
		return Decision{Disposition: ledger.DispositionMigrated, Kind: kind, DestDir: destDir}
	}
	return Decision{Disposition: ledger.DispositionDuplicate, Kind: kind, DestDir: dupDir}
}

// MediaKindFor derives the media kind from a file's extension.
func (a *Arbiter) MediaKindFor(path string) ledger.MediaKind {
	if a.cfg.IsPhotoExtension(filepath.Ext(path)) {
		return ledger.KindPhoto
	}
	return ledger.KindVideo
}

// selectCanonical picks the kept copy for a fingerprint: the first preferred
// occurrence, or the first occurrence overall when none is preferred. The
// occurrence list is in discovery order, so ties resolve deterministically.
func selectCanonical(group []occurrence) string {
	if len(group) == 0 {
		return ""
	}
	for _, occ := range group {
		if occ.preferred {
			return occ.path
		}
	}
	return group[0].path
}

// preferredName reports whether a base name carries one of the configured
// camera-style prefixes. Names are NFC-normalized first so files that went
// through macOS (which decomposes accented characters) still match.
func (a *Arbiter) preferredName(name string) bool {
	normalized := norm.NFC.String(name)
	for _, prefix := range a.cfg.Arbitration.PreferredPrefixes {
		if strings.HasPrefix(normalized, prefix) {
			return true
		}
	}
	return false
}
