// Package thumbnaildb implements ThumbnailDB: a persistent,
// SQLite-backed store of generated thumbnail bytes, with optional LZ4
// compression. The delayed-write queue that batches saves so rapid
// thumbnail generation doesn't serialize on disk I/O lives in
// internal/book (ThumbnailWriteQueue).
//
// Grounded on the thumbnail_db package this was distilled from (mod.rs
// for the connection/compression-flag shape, compression.rs for the
// LZ4_MAGIC-prefixed blob format, batch_ops.rs for the transactional
// batch save and IN-clause batch loads, emm_ops.rs for the per-key
// side-data columns and prefix lookup). rusqlite becomes
// modernc.org/sqlite (pure Go, no cgo), and lz4_flex becomes
// github.com/pierrec/lz4/v4.
package thumbnaildb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"
)

const dbVersion = "1.0"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS thumbs (
	key TEXT PRIMARY KEY,
	size INTEGER,
	date TEXT,
	ghash INTEGER,
	category TEXT,
	value BLOB,
	emm_json TEXT,
	rating_data TEXT,
	ai_translation TEXT,
	manual_tags TEXT
);
CREATE INDEX IF NOT EXISTS idx_thumbs_category ON thumbs(category);
CREATE TABLE IF NOT EXISTS failed_thumbnails (
	key TEXT PRIMARY KEY,
	reason TEXT,
	retry_count INTEGER NOT NULL DEFAULT 0,
	last_attempt TEXT
);
`

// Stats mirrors the original's CompressionStats, extended with entry
// counts for cache-stats introspection.
type Stats struct {
	TotalEntries      int64
	CompressedBytes   int64
	UncompressedBytes int64
	CompressionRatio  float64
	DatabaseSizeBytes int64
}

// DB is a persistent thumbnail store.
type DB struct {
	mu                 sync.Mutex
	conn               *sql.DB
	path               string
	compressionEnabled bool

	statsMu           sync.Mutex
	compressedBytes   int64
	uncompressedBytes int64
}

// Open creates (if needed) and opens the thumbnail database at path,
// initializing its schema.
func Open(path string, compressionEnabled bool) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("thumbnaildb: create dir: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("thumbnaildb: open: %w", err)
	}
	conn.SetMaxOpenConns(1) // modernc.org/sqlite: single-writer, avoid SQLITE_BUSY churn

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("thumbnaildb: enable WAL: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("thumbnaildb: init schema: %w", err)
	}

	log.WithField("path", path).Debug("thumbnaildb: opened")

	return &DB{conn: conn, path: path, compressionEnabled: compressionEnabled}, nil
}

// Close releases the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// SetCompressionEnabled toggles whether future Save calls LZ4-compress
// their blob.
func (db *DB) SetCompressionEnabled(enabled bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.compressionEnabled = enabled
}

// IsCompressionEnabled reports the current compression setting.
func (db *DB) IsCompressionEnabled() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.compressionEnabled
}

func currentTimestamp() string {
	return time.Now().UTC().Format("2006-01-02 15:04:05")
}

// categoryFor mirrors batch_ops.rs's folder/file heuristic: a key with
// no "::" compound separator and no extension dot is a directory
// thumbnail.
func categoryFor(key string) string {
	hasCompound := false
	hasDot := false
	for i := 0; i < len(key); i++ {
		if key[i] == ':' && i+1 < len(key) && key[i+1] == ':' {
			hasCompound = true
		}
		if key[i] == '.' {
			hasDot = true
		}
	}
	if !hasCompound && !hasDot {
		return "folder"
	}
	return "file"
}

// GetDatabaseSize returns the on-disk size of the database file.
func (db *DB) GetDatabaseSize() (int64, error) {
	fi, err := os.Stat(db.path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// GetCompressionStats reports cumulative compressed/uncompressed byte
// totals tracked across Save calls.
func (db *DB) GetCompressionStats() Stats {
	db.statsMu.Lock()
	compressed := db.compressedBytes
	uncompressed := db.uncompressedBytes
	db.statsMu.Unlock()

	ratio := 1.0
	if uncompressed > 0 {
		ratio = float64(compressed) / float64(uncompressed)
	}

	size, _ := db.GetDatabaseSize()
	var total int64
	db.conn.QueryRow("SELECT COUNT(*) FROM thumbs").Scan(&total)

	return Stats{
		TotalEntries:      total,
		CompressedBytes:   compressed,
		UncompressedBytes: uncompressed,
		CompressionRatio:  ratio,
		DatabaseSizeBytes: size,
	}
}

func (db *DB) recordCompressionStats(rawLen, storedLen int) {
	db.statsMu.Lock()
	db.uncompressedBytes += int64(rawLen)
	db.compressedBytes += int64(storedLen)
	db.statsMu.Unlock()
}
