package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
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
	names := []string{"002.jpg", "001.jpg", "dir/", "003.png"}
	for _, n := range names {
		fw, err := w.Create(n)
		if err != nil {
			t.Fatal(err)
		}
		if n[len(n)-1] != '/' {
			if _, err := fw.Write([]byte("fake-bytes-" + n)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestReadByIndexMatchesReadByName checks that read_by_index(entry_index)
// equals read_by_name(p) for any listed entry.
func TestReadByIndexMatchesReadByName(t *testing.T) {
	path := writeTestZip(t)

	h, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	entries, err := h.ListEntries()
	if err != nil {
		t.Fatal(err)
	}

	for _, e := range entries {
		if e.IsDir {
			continue
		}
		byIdx, err := h.ReadByIndex(e.EntryIndex)
		if err != nil {
			t.Fatalf("ReadByIndex(%d): %v", e.EntryIndex, err)
		}
		byName, err := h.ReadByName(e.Name)
		if err != nil {
			t.Fatalf("ReadByName(%s): %v", e.Name, err)
		}
		if string(byIdx) != string(byName) {
			t.Fatalf("mismatch for %s: %q != %q", e.Name, byIdx, byName)
		}
	}
}

func TestFirstImageShortCircuits(t *testing.T) {
	path := writeTestZip(t)

	h, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	e, b, err := h.FirstImage()
	if err != nil {
		t.Fatal(err)
	}
	if !e.IsImage || len(b) == 0 {
		t.Fatalf("expected an image entry with bytes, got %+v", e)
	}
}

func TestKindFromExt(t *testing.T) {
	cases := map[string]Kind{
		"a.zip": KindZip,
		"a.cbz": KindZip,
		"a.rar": KindRar,
		"a.cbr": KindRar,
		"a.7z":  Kind7z,
		"a.txt": KindUnknown,
	}
	for in, want := range cases {
		if got := KindFromExt(in); got != want {
			t.Errorf("KindFromExt(%s) = %v, want %v", in, got, want)
		}
	}
}
