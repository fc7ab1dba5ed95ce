// Package pathkey implements path normalization, compound-key
// construction, and fingerprint hashing, grounded on
// path_utils.rs (build_path_key/calculate_path_hash), adapted to a
// 64-bit stable hash instead of the original's SHA1, using
// github.com/cespare/xxhash/v2 promoted here to direct use.
package pathkey

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Normalize collapses backslashes to forward slashes, removes redundant
// separators, and strips a trailing separator, while preserving case.
// Idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(p string) string {
	if p == "" {
		return p
	}

	p = strings.ReplaceAll(p, "\\", "/")

	var b strings.Builder
	b.Grow(len(p))
	prevSlash := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteByte(c)
	}

	out := b.String()
	if len(out) > 1 && strings.HasSuffix(out, "/") {
		out = out[:len(out)-1]
	}
	return out
}

// CompoundKey builds the "<archive-normalized-path>::<inner-normalized-path>"
// key used for pages inside an archive.
func CompoundKey(archivePath, innerPath string) string {
	return Normalize(archivePath) + "::" + Normalize(innerPath)
}

// BuildKey mirrors the original's build_path_key: archive books get a
// compound key, everything else (single-image fast path, directory
// books) is keyed by its own normalized path with no "::" separator.
func BuildKey(bookPath, pagePath string, isArchive bool) string {
	if isArchive {
		return CompoundKey(bookPath, pagePath)
	}
	return Normalize(pagePath)
}

// Fingerprint returns the stable 64-bit hash of a (already normalized or
// compound) key, used as a cache key throughout PageCache/IndexCache/
// ThumbnailDB. Collisions are treated as cache misses via content
// revalidation by callers, not guarded against here.
func Fingerprint(key string) uint64 {
	return xxhash.Sum64String(key)
}

// ArchivePrefix returns the prefix every compound key for pages inside
// archivePath starts with, used by PageCache.Invalidate and the
// thumbnail store's Invalidate for invalidation-by-archive.
func ArchivePrefix(archivePath string) string {
	return Normalize(archivePath) + "::"
}
