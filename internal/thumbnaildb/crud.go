package thumbnaildb

import (
	"fmt"
	"strings"
)

// SaveThumbnail stores a single thumbnail blob under key, LZ4-compressing
// it first if compression is enabled.
func (db *DB) SaveThumbnail(key string, ghash int64, data []byte) error {
	return db.SaveThumbnailsBatch([]ThumbnailEntry{{Key: key, Ghash: ghash, Data: data}})
}

// ThumbnailEntry is one item of a batch save, grounded on
// batch_ops.rs's tuple-of-4 items param.
type ThumbnailEntry struct {
	Key   string
	Size  int64
	Ghash int64
	Data  []byte
}

// SaveThumbnailsBatch stores many thumbnails in a single transaction,
// mirroring batch_ops.rs's save_thumbnails_batch. Returns the number of
// rows successfully written.
func (db *DB) SaveThumbnailsBatch(items []ThumbnailEntry) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO thumbs (key, size, date, ghash, category, value)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET size=excluded.size, date=excluded.date,
			ghash=excluded.ghash, category=excluded.category, value=excluded.value
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	date := currentTimestamp()
	saved := 0
	for _, item := range items {
		blob := item.Data
		if db.compressionEnabled {
			compressed, err := compressBlob(item.Data)
			if err != nil {
				return saved, fmt.Errorf("thumbnaildb: compress %q: %w", item.Key, err)
			}
			db.recordCompressionStats(len(item.Data), len(compressed))
			blob = compressed
		}

		size := item.Size
		if size == 0 {
			size = int64(len(item.Data))
		}

		if _, err := stmt.Exec(item.Key, size, date, item.Ghash, categoryFor(item.Key), blob); err != nil {
			continue
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return saved, err
	}
	return saved, nil
}

// LoadThumbnail returns the decompressed blob for key, or false if no
// thumbnail is stored.
func (db *DB) LoadThumbnail(key string) ([]byte, bool, error) {
	results, err := db.BatchLoadThumbnails([]string{key})
	if err != nil {
		return nil, false, err
	}
	data, ok := results[key]
	return data, ok, nil
}

// BatchLoadThumbnails loads many thumbnails by key, mirroring
// batch_ops.rs's batch_load_thumbnails.
func (db *DB) BatchLoadThumbnails(keys []string) (map[string][]byte, error) {
	results := make(map[string][]byte)
	if len(keys) == 0 {
		return results, nil
	}

	placeholders, args := inClause(keys)
	query := "SELECT key, value FROM thumbs WHERE key IN (" + placeholders + ") AND value IS NOT NULL"

	db.mu.Lock()
	rows, err := db.conn.Query(query, args...)
	db.mu.Unlock()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var blob []byte
		if err := rows.Scan(&key, &blob); err != nil {
			return nil, err
		}
		decompressed, err := decompressBlob(blob)
		if err != nil {
			return nil, fmt.Errorf("thumbnaildb: decompress %q: %w", key, err)
		}
		results[key] = decompressed
	}
	return results, rows.Err()
}

// BatchLoadThumbnailsByCategory loads thumbnails by key restricted to a
// category ("file" or "folder"), mirroring
// batch_load_thumbnails_by_keys_and_category.
func (db *DB) BatchLoadThumbnailsByCategory(keys []string, category string) (map[string][]byte, error) {
	results := make(map[string][]byte)
	if len(keys) == 0 {
		return results, nil
	}

	placeholders, keyArgs := inClause(keys)
	args := append([]any{category}, keyArgs...)
	query := "SELECT key, value FROM thumbs WHERE category = ? AND key IN (" + placeholders + ") AND value IS NOT NULL"

	db.mu.Lock()
	rows, err := db.conn.Query(query, args...)
	db.mu.Unlock()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var blob []byte
		if err := rows.Scan(&key, &blob); err != nil {
			return nil, err
		}
		decompressed, err := decompressBlob(blob)
		if err != nil {
			return nil, err
		}
		results[key] = decompressed
	}
	return results, rows.Err()
}

// BatchUpdateAccessTime bumps the stored date for many keys in one
// statement, mirroring batch_update_access_time.
func (db *DB) BatchUpdateAccessTime(keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	placeholders, keyArgs := inClause(keys)
	args := append([]any{currentTimestamp()}, keyArgs...)

	db.mu.Lock()
	defer db.mu.Unlock()
	res, err := db.conn.Exec("UPDATE thumbs SET date = ? WHERE key IN ("+placeholders+")", args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Invalidate removes every thumbnail entry whose key starts with
// prefix.
func (db *DB) Invalidate(prefix string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.Exec("DELETE FROM thumbs WHERE key LIKE ?", prefix+"%")
	return err
}

func inClause(keys []string) (string, []any) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	return placeholders, args
}
