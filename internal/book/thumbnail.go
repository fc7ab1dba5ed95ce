package book

import (
	"github.com/neoview/album-core/internal/pathkey"
	"github.com/neoview/album-core/internal/thumbnaildb"
)

// HasThumbnail reports whether a thumbnail blob is stored for key,
// checking both the main table and the failed-thumbnails side table so
// a caller can distinguish "never attempted" from "attempted, known bad".
func (b *Book) HasThumbnail(key string) (stored bool, failed bool, err error) {
	if _, ok, err := b.ac.ThumbDB.LoadThumbnail(key); err != nil {
		return false, false, err
	} else if ok {
		return true, false, nil
	}
	results, err := b.ac.ThumbDB.BatchCheckFailed([]string{key})
	if err != nil {
		return false, false, err
	}
	_, failed = results[key]
	return false, failed, nil
}

// GetThumbnailBlob returns the decompressed thumbnail bytes for key.
func (b *Book) GetThumbnailBlob(key string) ([]byte, bool, error) {
	return b.ac.ThumbDB.LoadThumbnail(key)
}

// SaveThumbnail stages a thumbnail write for the next delayed-write
// flush rather than committing immediately, so a burst of thumbnail
// generations from one directory scan coalesces into one transaction.
func (b *Book) SaveThumbnail(key string, data []byte) {
	b.ac.writeq.Enqueue(key, int64(pathkey.Fingerprint(key)), data)
}

// BatchSaveThumbnails stages many thumbnail writes at once.
func (b *Book) BatchSaveThumbnails(entries []thumbnaildb.ThumbnailEntry) {
	for _, e := range entries {
		b.ac.writeq.Enqueue(e.Key, e.Ghash, e.Data)
	}
}

// MarkThumbnailFailed records a terminal thumbnail-generation failure,
// so later HasThumbnail checks skip retrying a known-bad page without
// another decode attempt.
func (b *Book) MarkThumbnailFailed(key, reason string) error {
	return b.ac.ThumbDB.MarkFailed(key, reason)
}
