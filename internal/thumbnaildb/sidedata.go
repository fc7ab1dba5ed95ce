package thumbnaildb

import (
	"database/sql"
	"encoding/json"
)

// ratingData is the JSON shape stored in the rating_data column.
type ratingData struct {
	Value int `json:"value"`
}

func scanKeys(rows *sql.Rows) ([]string, error) {
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// SaveEMMJSON stores cached metadata JSON for key, mirroring
// emm_ops.rs's save_emm_json.
func (db *DB) SaveEMMJSON(key, emmJSON string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.Exec("UPDATE thumbs SET emm_json = ? WHERE key = ?", emmJSON, key)
	return err
}

// BatchSaveEMMJSON stores metadata JSON for many keys, mirroring
// emm_ops.rs's batch_save_emm_json.
func (db *DB) BatchSaveEMMJSON(entries map[string]string) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var total int64
	for key, emmJSON := range entries {
		res, err := db.conn.Exec("UPDATE thumbs SET emm_json = ? WHERE key = ?", emmJSON, key)
		if err != nil {
			return total, err
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

// GetEMMJSON returns the cached metadata JSON for key, if any.
func (db *DB) GetEMMJSON(key string) (string, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var value *string
	err := db.conn.QueryRow("SELECT emm_json FROM thumbs WHERE key = ?", key).Scan(&value)
	if err != nil {
		return "", false, nil
	}
	if value == nil {
		return "", false, nil
	}
	return *value, true, nil
}

// SaveRating stores a user rating (0-5) for key, JSON-encoded into the
// rating_data column.
func (db *DB) SaveRating(key string, rating int) error {
	encoded, err := json.Marshal(ratingData{Value: rating})
	if err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	_, err = db.conn.Exec(
		"INSERT INTO thumbs (key, category, date, rating_data) VALUES (?, ?, ?, ?) ON CONFLICT(key) DO UPDATE SET rating_data=excluded.rating_data",
		key, categoryFor(key), currentTimestamp(), string(encoded),
	)
	return err
}

// GetRating returns the stored rating for key, if any.
func (db *DB) GetRating(key string) (int, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var raw *string
	err := db.conn.QueryRow("SELECT rating_data FROM thumbs WHERE key = ?", key).Scan(&raw)
	if err != nil || raw == nil {
		return 0, false, nil
	}

	var rd ratingData
	if err := json.Unmarshal([]byte(*raw), &rd); err != nil {
		return 0, false, nil
	}
	return rd.Value, true, nil
}

// SaveManualTags stores the tag JSON for key as given.
func (db *DB) SaveManualTags(key, tagsJSON string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.Exec(
		"INSERT INTO thumbs (key, category, date, manual_tags) VALUES (?, ?, ?, ?) ON CONFLICT(key) DO UPDATE SET manual_tags=excluded.manual_tags",
		key, categoryFor(key), currentTimestamp(), tagsJSON,
	)
	return err
}

// GetManualTags returns the stored tag JSON for key, if any.
func (db *DB) GetManualTags(key string) (string, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var tags *string
	err := db.conn.QueryRow("SELECT manual_tags FROM thumbs WHERE key = ?", key).Scan(&tags)
	if err != nil || tags == nil {
		return "", false, nil
	}
	return *tags, true, nil
}

// SaveAITranslation stores a cached AI translation payload for key,
// grounded on thumbnail_db/ai_translation.rs's per-key cache shape.
func (db *DB) SaveAITranslation(key, translationJSON string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.Exec(
		"INSERT INTO thumbs (key, category, date, ai_translation) VALUES (?, ?, ?, ?) ON CONFLICT(key) DO UPDATE SET ai_translation=excluded.ai_translation",
		key, categoryFor(key), currentTimestamp(), translationJSON,
	)
	return err
}

// GetAITranslation returns the cached AI translation payload for key,
// if any.
func (db *DB) GetAITranslation(key string) (string, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var v *string
	err := db.conn.QueryRow("SELECT ai_translation FROM thumbs WHERE key = ?", key).Scan(&v)
	if err != nil || v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

// GetAllThumbnailKeys returns every key with a stored thumbnail row.
func (db *DB) GetAllThumbnailKeys() ([]string, error) {
	return db.queryKeys("SELECT key FROM thumbs")
}

// GetFolderKeys returns every key categorized as a folder thumbnail.
func (db *DB) GetFolderKeys() ([]string, error) {
	return db.queryKeys("SELECT key FROM thumbs WHERE category = 'folder'")
}

// GetKeysWithoutEMMJSON returns keys with no cached metadata JSON yet.
func (db *DB) GetKeysWithoutEMMJSON() ([]string, error) {
	return db.queryKeys("SELECT key FROM thumbs WHERE emm_json IS NULL OR emm_json = ''")
}

// GetThumbnailKeysByPrefix returns every key starting with prefix,
// mirroring get_thumbnail_keys_by_prefix.
func (db *DB) GetThumbnailKeysByPrefix(prefix string) ([]string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rows, err := db.conn.Query("SELECT key FROM thumbs WHERE key LIKE ?", prefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanKeys(rows)
}

func (db *DB) queryKeys(query string) ([]string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanKeys(rows)
}
