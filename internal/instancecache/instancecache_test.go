package instancecache

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestZip(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "book.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w := zip.NewWriter(f)
	fw, _ := w.Create("1.jpg")
	fw.Write([]byte("hi"))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGetReusesHandle(t *testing.T) {
	path := writeTestZip(t)
	c := New(4)

	l1, err := c.Get(path)
	if err != nil {
		t.Fatal(err)
	}
	h1 := l1.Handler()
	l1.Release()

	l2, err := c.Get(path)
	if err != nil {
		t.Fatal(err)
	}
	if l2.Handler() != h1 {
		t.Fatal("expected the same handle to be reused after release")
	}
	l2.Release()
}

func TestStampMismatchForcesReopen(t *testing.T) {
	path := writeTestZip(t)
	c := New(4)

	l1, err := c.Get(path)
	if err != nil {
		t.Fatal(err)
	}
	h1 := l1.Handler()
	l1.Release()

	// Mutate the file so its (mtime, size) stamp changes.
	time.Sleep(1100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("completely different contents"), 0o644); err != nil {
		t.Fatal(err)
	}

	l2, err := c.Get(path)
	if err != nil {
		t.Fatal(err)
	}
	defer l2.Release()
	if l2.Handler() == h1 {
		t.Fatal("expected a stamp mismatch to force reopening a new handle")
	}
}

func TestEvictionRespectsOutstandingLeases(t *testing.T) {
	c := New(1)
	paths := []string{writeTestZip(t), writeTestZip(t)}

	l1, err := c.Get(paths[0])
	if err != nil {
		t.Fatal(err)
	}
	defer l1.Release()

	// Opening a second archive while the first lease is held and maxOpen=1
	// must not close the still-leased handle.
	l2, err := c.Get(paths[1])
	if err != nil {
		t.Fatal(err)
	}
	l2.Release()

	if _, err := l1.Handler().ListEntries(); err != nil {
		t.Fatalf("expected the leased handle to remain usable: %v", err)
	}
}
