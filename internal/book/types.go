// Package book implements the high-level orchestrator tying the
// archive, cache, scheduler, prefetch, preheat, and streaming layers
// together into the operations a UI command layer calls into:
// open_book, navigate_to_page, load_image, preload_range,
// notify_page_change, cancel_prefetch, is_cached, cache stats,
// invalidation, preheat control, thumbnail access, background queue
// metrics, and directory/archive streaming.
//
// Grounded on models/book.rs (BookInfo/Page shape) and
// archive_service_commands.rs (the operation surface these methods
// mirror), wired against this module's own internal/archive,
// internal/archiveindex, internal/instancecache, internal/pagecache,
// internal/scheduler, internal/prefetch, internal/preheat,
// internal/loadqueue, internal/dirstream, internal/thumbnaildb, and
// internal/decoder packages rather than a single Rust ArchiveService
// struct.
package book

import (
	"errors"
	"path/filepath"
	"strings"
)

// Kind mirrors BookType: the kind of container a book is opened from.
type Kind int8

const (
	KindArchive Kind = iota
	KindFolder
)

func (k Kind) String() string {
	if k == KindFolder {
		return "folder"
	}
	return "archive"
}

// Page is the logical page record, grounded on models/book.rs's Page
// struct (index/path/name/size/width/height), minus UI-only fields
// (loaded, is_cover, thumbnail) that belong to the command layer, not
// the core.
type Page struct {
	Index       int
	ArchivePath string
	InnerPath   string
	DisplayName string
	BytesSize   uint64

	// Width/Height are lazily filled by FillDimensions; 0 means
	// "not yet measured".
	Width  int
	Height int
}

// BookInfo describes an opened book: its container and its ordered
// page list. Grounded on models/book.rs's BookInfo, trimmed to the
// fields the core (rather than UI sort/read-order preferences) owns.
type BookInfo struct {
	Path       string
	Name       string
	Kind       Kind
	TotalPages int
	Pages      []Page
}

// Error kinds from the error handling design: sentinel values so
// callers can use errors.Is; component-specific errors get wrapped
// with %w around one of these.
var (
	ErrNotFound       = errors.New("book: not found")
	ErrMalformed      = errors.New("book: malformed")
	ErrIO             = errors.New("book: io error")
	ErrCancelled      = errors.New("book: cancelled")
	ErrBusy           = errors.New("book: busy")
	ErrBudgetExceeded = errors.New("book: budget exceeded")
	ErrStampMismatch  = errors.New("book: stamp mismatch")
	ErrUnsupported    = errors.New("book: unsupported")
	ErrTimeout        = errors.New("book: timeout")
)

// ResolveMIME maps a page's inner-path extension to its delivery MIME
// type, implementing the byte-delivery protocol's MIME table without
// implementing the protocol's URL scheme itself (that registration is
// UI/OS integration, out of scope).
func ResolveMIME(innerPath string) string {
	switch strings.ToLower(filepath.Ext(innerPath)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".avif":
		return "image/avif"
	case ".jxl":
		return "image/jxl"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	default:
		return "application/octet-stream"
	}
}
