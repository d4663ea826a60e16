package ledger

// Disposition is the final classification assigned to a processed file.
// The string values are part of the persisted schema contract.
type Disposition string

const (
	DispositionMigrated  Disposition = "migrated"
	DispositionDuplicate Disposition = "duplicate"
	DispositionToReview  Disposition = "to_review"
)

// MediaKind distinguishes photos from videos in the destination layout.
type MediaKind string

const (
	KindPhoto MediaKind = "PHOTO"
	KindVideo MediaKind = "VIDEO"
)

// Record is one row of the files table: a processed source file, its content
// hash, resolved date, and where its copy ended up. Rows are append-only;
// the core never updates or deletes them.
type Record struct {
	ID              int64
	OriginalPath    string
	Hash            string
	Year            string
	Month           string
	MediaType       MediaKind
	Status          Disposition
	DestinationPath string
	FinalName       string
}

// DuplicateFingerprint reports a hash that holds more than one migrated row,
// which the arbitration invariant forbids.
type DuplicateFingerprint struct {
	Hash  string
	Count int
}
