package thumbnaildb

// FailedThumbnail records why a thumbnail generation attempt failed and
// how many times it has been retried, mirroring batch_ops.rs's
// failed_thumbnails side table.
type FailedThumbnail struct {
	Reason     string
	RetryCount int
}

// MarkFailed records (or bumps the retry count of) a failed thumbnail
// generation attempt for key.
func (db *DB) MarkFailed(key, reason string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.Exec(`
		INSERT INTO failed_thumbnails (key, reason, retry_count, last_attempt)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(key) DO UPDATE SET reason=excluded.reason,
			retry_count = failed_thumbnails.retry_count + 1,
			last_attempt = excluded.last_attempt
	`, key, reason, currentTimestamp())
	return err
}

// ClearFailed removes key's failed-attempt record, e.g. after a
// successful retry.
func (db *DB) ClearFailed(key string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.Exec("DELETE FROM failed_thumbnails WHERE key = ?", key)
	return err
}

// BatchCheckFailed returns the failure record for each of keys that has
// one, mirroring batch_ops.rs's batch_check_failed.
func (db *DB) BatchCheckFailed(keys []string) (map[string]FailedThumbnail, error) {
	results := make(map[string]FailedThumbnail)
	if len(keys) == 0 {
		return results, nil
	}

	placeholders, args := inClause(keys)
	query := "SELECT key, reason, retry_count FROM failed_thumbnails WHERE key IN (" + placeholders + ")"

	db.mu.Lock()
	rows, err := db.conn.Query(query, args...)
	db.mu.Unlock()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key, reason string
		var retryCount int
		if err := rows.Scan(&key, &reason, &retryCount); err != nil {
			return nil, err
		}
		results[key] = FailedThumbnail{Reason: reason, RetryCount: retryCount}
	}
	return results, rows.Err()
}
