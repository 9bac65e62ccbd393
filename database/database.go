package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"cardscan/imageprocessor"
	"cardscan/types"
)

// InitDatabase initializes and returns a reference store connection
func InitDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Create table if it doesn't exist
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS cards (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		perceptual_hash TEXT NOT NULL,
		hash_size INTEGER NOT NULL,
		width INTEGER,
		height INTEGER,
		format TEXT,
		created_at TEXT,
		UNIQUE(name)
	);
	CREATE INDEX IF NOT EXISTS idx_name ON cards(name);`

	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, err
	}

	return db, nil
}

// OpenDatabase opens an existing reference store
func OpenDatabase(dbPath string) (*sql.DB, error) {
	return sql.Open("sqlite3", dbPath)
}

// StoreReference stores one reference entry, replacing an existing entry of
// the same name when forceRewrite is set.
func StoreReference(db *sql.DB, info types.ReferenceInfo, forceRewrite bool) error {
	now := time.Now().Format(time.RFC3339)

	var stmt *sql.Stmt
	var prepErr error
	if forceRewrite {
		stmt, prepErr = db.Prepare(`
			INSERT OR REPLACE INTO cards (
				name, perceptual_hash, hash_size, width, height, format, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
	} else {
		stmt, prepErr = db.Prepare(`
			INSERT OR IGNORE INTO cards (
				name, perceptual_hash, hash_size, width, height, format, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
	}
	if prepErr != nil {
		return fmt.Errorf("cannot prepare statement for %s: %v", info.Name, prepErr)
	}
	defer stmt.Close()

	_, err := stmt.Exec(
		info.Name,
		info.PerceptualHash,
		info.HashSize,
		info.Width,
		info.Height,
		info.Format,
		now,
	)
	if err != nil {
		return fmt.Errorf("cannot insert reference %s: %v", info.Name, err)
	}
	return nil
}

// LoadReferenceTable loads all reference entries whose stored hash size
// matches the configured one. A store built with a different hash size is a
// configuration error, not a partial match.
func LoadReferenceTable(db *sql.DB, hashSize int) ([]types.ReferenceEntry, error) {
	var mismatched int
	err := db.QueryRow("SELECT COUNT(*) FROM cards WHERE hash_size != ?", hashSize).Scan(&mismatched)
	if err != nil {
		return nil, fmt.Errorf("cannot check stored hash sizes: %v", err)
	}
	if mismatched > 0 {
		return nil, fmt.Errorf(
			"reference store contains %d entries with a hash size other than %d; rebuild the store",
			mismatched, hashSize)
	}

	rows, err := db.Query("SELECT name, perceptual_hash FROM cards ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("cannot query reference table: %v", err)
	}
	defer rows.Close()

	var entries []types.ReferenceEntry
	for rows.Next() {
		var name, hexHash string
		if err := rows.Scan(&name, &hexHash); err != nil {
			return nil, fmt.Errorf("cannot scan reference row: %v", err)
		}
		hash, err := imageprocessor.ParseHash(hexHash, hashSize)
		if err != nil {
			return nil, fmt.Errorf("corrupt hash for %s: %v", name, err)
		}
		entries = append(entries, types.ReferenceEntry{Name: name, Hash: hash})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reference table read failed: %v", err)
	}
	return entries, nil
}

// ReferenceStats contains statistics about the reference store
type ReferenceStats struct {
	TotalCards   int
	UniqueHashes int
}

// GetReferenceStats retrieves statistics about the stored reference set
func GetReferenceStats(db *sql.DB) (*ReferenceStats, error) {
	var stats ReferenceStats

	if err := db.QueryRow("SELECT COUNT(*) FROM cards").Scan(&stats.TotalCards); err != nil {
		return nil, fmt.Errorf("failed to count cards: %v", err)
	}
	if err := db.QueryRow("SELECT COUNT(DISTINCT perceptual_hash) FROM cards").Scan(&stats.UniqueHashes); err != nil {
		return nil, fmt.Errorf("failed to count unique hashes: %v", err)
	}
	return &stats, nil
}
