package book

import (
	"context"

	"github.com/neoview/album-core/internal/dirstream"
)

// StreamDirectory enumerates a directory's children progressively,
// mirroring OpenBookFast's directory-listing half: callers see the
// first batch of entries before the whole folder has been read, rather
// than waiting on the full OpenBook scan.
func (b *Book) StreamDirectory(ctx context.Context, root string, batchSize int) (string, <-chan dirstream.Event[dirstream.DirEntry]) {
	return b.ac.Streams.StreamDirectory(ctx, root, batchSize)
}

// StreamArchive enumerates an archive's members progressively, without
// first building a full ArchiveIndex, for a fast initial "book is open
// and has N pages, here are the first few" response.
func (b *Book) StreamArchive(ctx context.Context, archivePath string, batchSize int) (string, <-chan dirstream.Event[dirstream.ArchiveEntryInfo]) {
	return b.ac.Streams.StreamArchive(ctx, archivePath, batchSize)
}

// CancelStream cancels a single stream by id.
func (b *Book) CancelStream(id string) bool {
	return b.ac.Streams.CancelStream(id)
}

// CancelStreamsForPath cancels every active stream scanning path,
// returning how many were cancelled, and also cancels any page-load
// jobs queued for that path.
func (b *Book) CancelStreamsForPath(path string) int {
	n := b.ac.Streams.CancelStreamsForPath(path)
	b.ac.Scheduler.CancelByPrefix("page:" + path + ":")
	return n
}
