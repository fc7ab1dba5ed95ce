package thumbnaildb

import (
	"encoding/binary"

	"github.com/pierrec/lz4/v4"
)

// lz4Magic identifies an LZ4-compressed blob, grounded on
// thumbnail_db/compression.rs's LZ4_MAGIC constant.
var lz4Magic = []byte("LZ4\x00")

// compressBlob LZ4-compresses data, prefixing the result with lz4Magic
// and the original length (needed since lz4.v4's block API, unlike
// lz4_flex's compress_prepend_size, doesn't self-describe its
// decompressed size). Empty input passes through unchanged.
func compressBlob(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	buf := make([]byte, lz4.CompressBlockBound(len(data)))
	var c lz4.Compressor
	n, err := c.CompressBlock(data, buf)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Incompressible input: lz4 leaves buf empty; store raw, uncompressed.
		return data, nil
	}

	out := make([]byte, 0, len(lz4Magic)+8+n)
	out = append(out, lz4Magic...)
	out = binary.LittleEndian.AppendUint64(out, uint64(len(data)))
	out = append(out, buf[:n]...)
	return out, nil
}

// decompressBlob reverses compressBlob. Data without the LZ4 magic
// prefix is returned unchanged, matching the original's "accepts raw
// bytes unchanged when there's no magic" behavior.
func decompressBlob(data []byte) ([]byte, error) {
	if len(data) <= len(lz4Magic) || !hasMagic(data) {
		return data, nil
	}

	rest := data[len(lz4Magic):]
	if len(rest) < 8 {
		return data, nil
	}
	origLen := binary.LittleEndian.Uint64(rest[:8])
	compressed := rest[8:]

	out := make([]byte, origLen)
	n, err := lz4.UncompressBlock(compressed, out)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}

func hasMagic(data []byte) bool {
	if len(data) < len(lz4Magic) {
		return false
	}
	for i, b := range lz4Magic {
		if data[i] != b {
			return false
		}
	}
	return true
}

// isCompressed reports whether data carries the LZ4 magic prefix.
func isCompressed(data []byte) bool {
	return hasMagic(data)
}
