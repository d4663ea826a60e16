// Package ledger persists the audit trail of every processed file in SQLite.
//
// The Store owns the files table: one append-only row per processed source
// file recording its content hash, resolved date, media kind, disposition,
// and final location. The table doubles as the durable memory of which
// fingerprints are already migrated, so re-runs classify previously kept
// content as duplicates. DuplicateMigratedFingerprints backs the post-run
// validation pass that checks the at-most-one-migrated-row-per-hash
// invariant.
//
// Treat this package as the single source of truth for disposition and media
// kind semantics; the files table shape is a contract other tooling reads,
// so schema changes bump schemaVersion in schema.go.
package ledger
