package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"mediasort/internal/config"
)

// Store manages the persisted audit ledger backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database and ensures the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.Paths.LedgerPath
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the on-disk location of the ledger database.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// InsertRecord appends one row for a processed file and fills in its ID.
func (s *Store) InsertRecord(ctx context.Context, rec *Record) error {
	if rec == nil {
		return errors.New("record is nil")
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO files (
            original_path, hash, year, month, media_type, status, destination_path, final_name
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.OriginalPath,
		rec.Hash,
		nullableString(rec.Year),
		nullableString(rec.Month),
		string(rec.MediaType),
		string(rec.Status),
		rec.DestinationPath,
		rec.FinalName,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	rec.ID = id
	return nil
}

// MigratedFingerprints returns the set of hashes that already hold a migrated
// row across all prior runs. Loaded once at run start to seed arbitration.
func (s *Store) MigratedFingerprints(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT hash FROM files WHERE status = ?`, DispositionMigrated)
	if err != nil {
		return nil, fmt.Errorf("query migrated fingerprints: %w", err)
	}
	defer rows.Close()

	fingerprints := make(map[string]struct{})
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, err
		}
		fingerprints[hash] = struct{}{}
	}
	return fingerprints, rows.Err()
}

// DuplicateMigratedFingerprints returns hashes recorded as migrated more than
// once. A non-empty result signals an arbitration defect.
func (s *Store) DuplicateMigratedFingerprints(ctx context.Context) ([]DuplicateFingerprint, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT hash, COUNT(*) AS count
         FROM files
         WHERE status = ?
         GROUP BY hash
         HAVING count > 1`,
		DispositionMigrated,
	)
	if err != nil {
		return nil, fmt.Errorf("query duplicate migrated fingerprints: %w", err)
	}
	defer rows.Close()

	var duplicates []DuplicateFingerprint
	for rows.Next() {
		var dup DuplicateFingerprint
		if err := rows.Scan(&dup.Hash, &dup.Count); err != nil {
			return nil, err
		}
		duplicates = append(duplicates, dup)
	}
	return duplicates, rows.Err()
}

// StatusCounts returns a count of rows grouped by disposition.
func (s *Store) StatusCounts(ctx context.Context) (map[Disposition]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM files GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("ledger stats: %w", err)
	}
	defer rows.Close()

	counts := make(map[Disposition]int)
	for rows.Next() {
		var status Disposition
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// Records returns ledger rows in insertion order. A limit <= 0 returns all rows.
func (s *Store) Records(ctx context.Context, limit int) ([]*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM files ORDER BY id`
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, query+` LIMIT ?`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// RecordsByHash returns all rows for one fingerprint in insertion order.
func (s *Store) RecordsByHash(ctx context.Context, hash string) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM files WHERE hash = ? ORDER BY id`, hash)
	if err != nil {
		return nil, fmt.Errorf("records by hash: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

const recordColumns = "id, original_path, hash, year, month, media_type, status, destination_path, final_name"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id              int64
		originalPath    string
		hash            string
		year            sql.NullString
		month           sql.NullString
		mediaType       string
		status          string
		destinationPath string
		finalName       string
	)

	if err := scanner.Scan(
		&id,
		&originalPath,
		&hash,
		&year,
		&month,
		&mediaType,
		&status,
		&destinationPath,
		&finalName,
	); err != nil {
		return nil, err
	}

	return &Record{
		ID:              id,
		OriginalPath:    originalPath,
		Hash:            hash,
		Year:            year.String,
		Month:           month.String,
		MediaType:       MediaKind(mediaType),
		Status:          Disposition(status),
		DestinationPath: destinationPath,
		FinalName:       finalName,
	}, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
