package thumbnaildb

import (
	"bytes"
	"testing"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("thumbnail-bytes-go-here "), 200)
	compressed, err := compressBlob(data)
	if err != nil {
		t.Fatal(err)
	}
	if !hasMagic(compressed) && len(compressed) != len(data) {
		t.Fatalf("expected either LZ4 magic or passthrough, got len %d", len(compressed))
	}

	decompressed, err := decompressBlob(compressed)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decompressed, data) {
		t.Fatal("round trip mismatch")
	}
}

func TestCompressedBlobStartsWithMagic(t *testing.T) {
	data := bytes.Repeat([]byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), 1)
	compressed, err := compressBlob(data)
	if err != nil {
		t.Fatal(err)
	}
	if !hasMagic(compressed) {
		t.Fatal("expected highly compressible data to carry the LZ4 magic prefix")
	}
}

func TestDecompressPassesThroughUnmagickedData(t *testing.T) {
	raw := []byte("just some plain bytes, no magic prefix")
	got, err := decompressBlob(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, raw) {
		t.Fatal("expected unmagicked data to pass through unchanged")
	}
}

func TestEmptyBlobPassesThroughBothWays(t *testing.T) {
	c, err := compressBlob(nil)
	if err != nil || len(c) != 0 {
		t.Fatalf("expected empty passthrough, got %v, %v", c, err)
	}
	d, err := decompressBlob(nil)
	if err != nil || len(d) != 0 {
		t.Fatalf("expected empty passthrough, got %v, %v", d, err)
	}
}
