package mmap

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenReturnsFileContents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	want := []byte("archive bytes served without an intermediate copy")
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatal(err)
	}

	v, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Close()

	got := v.Bytes()
	if string(got) != string(want) {
		t.Fatalf("Bytes() = %q, want %q", got, want)
	}
}

func TestOpenEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.bin")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	v, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Close()

	if len(v.Bytes()) != 0 {
		t.Fatalf("Bytes() = %v, want empty", v.Bytes())
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "does-not-exist.bin")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	v, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := v.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
