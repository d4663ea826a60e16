package dateresolve

import (
	"context"
	"log/slog"
	"path/filepath"
	"regexp"

	"mediasort/internal/logging"
)

// ResolvedDate is a file's capture date as (year, month, compact day stamp).
// The zero value means no date could be resolved.
type ResolvedDate struct {
	Year  string
	Month string
	Stamp string
}

// IsZero reports whether no date was resolved.
func (d ResolvedDate) IsZero() bool {
	return d == ResolvedDate{}
}

// Filename dates accept any separator combination the original files use:
// 20210315, 2021-03-15, 2021_03_15, 2021-03_15. Month and day ranges are
// deliberately not validated; the stamp is taken as written.
var namePattern = regexp.MustCompile(`(\d{4})[-_]?(\d{2})[-_]?(\d{2})`)

// Extractor is the external metadata collaborator. Any failure collapses to
// one "no result" outcome inside the resolver.
type Extractor interface {
	ExtractDate(ctx context.Context, path string) (ResolvedDate, error)
}

// Resolver derives a capture date for a file, preferring external metadata
// and falling back to filename heuristics.
type Resolver struct {
	extractor Extractor
	logger    *slog.Logger
}

// NewResolver constructs a resolver. extractor may be nil, in which case only
// filename matching applies.
func NewResolver(extractor Extractor, logger *slog.Logger) *Resolver {
	return &Resolver{
		extractor: extractor,
		logger:    logging.NewComponentLogger(logger, "dateresolve"),
	}
}

// Resolve attempts metadata extraction, then the filename pattern, then gives
// up. Extraction failures are logged and swallowed; a zero ResolvedDate is a
// valid outcome, not an error.
func (r *Resolver) Resolve(ctx context.Context, path string) ResolvedDate {
	if r.extractor != nil {
		date, err := r.extractor.ExtractDate(ctx, path)
		if err == nil && !date.IsZero() {
			return date
		}
		if err != nil {
			r.logger.Warn("metadata extraction failed",
				logging.String("path", path),
				logging.Error(err),
			)
		}
	}

	if match := namePattern.FindStringSubmatch(filepath.Base(path)); match != nil {
		return ResolvedDate{
			Year:  match[1],
			Month: match[2],
			Stamp: match[1] + match[2] + match[3],
		}
	}

	return ResolvedDate{}
}

func dateFromStamp(stamp string) ResolvedDate {
	return ResolvedDate{
		Year:  stamp[:4],
		Month: stamp[4:6],
		Stamp: stamp,
	}
}
