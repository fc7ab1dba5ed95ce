package preheat

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/neoview/album-core/internal/archiveindex"
)

func writeZip(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w := zip.NewWriter(f)
	fw, _ := w.Create("1.jpg")
	fw.Write([]byte("x"))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestAdjacentArchivesNaturalOrder(t *testing.T) {
	dir := t.TempDir()
	names := []string{"vol1.zip", "vol2.zip", "vol10.zip"}
	for _, n := range names {
		writeZip(t, filepath.Join(dir, n))
	}

	s := New(5)
	prev, next := s.AdjacentArchives(filepath.Join(dir, "vol2.zip"))
	if filepath.Base(prev) != "vol1.zip" {
		t.Fatalf("expected vol1.zip as prev, got %q", prev)
	}
	if filepath.Base(next) != "vol10.zip" {
		t.Fatalf("expected vol10.zip (natural order) as next, got %q", next)
	}
}

func TestTriggerEnqueuesNeighborsAndBoundsQueue(t *testing.T) {
	dir := t.TempDir()
	names := []string{"a.zip", "b.zip", "c.zip"}
	for _, n := range names {
		writeZip(t, filepath.Join(dir, n))
	}

	s := New(1)
	s.Trigger(filepath.Join(dir, "b.zip"))

	if s.QueueSize() > 1 {
		t.Fatalf("expected queue bounded to 1, got %d", s.QueueSize())
	}
}

func TestExecutePreheatSkipsAlreadyCached(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "only.zip")
	writeZip(t, path)

	cache := archiveindex.New(8)
	if _, err := cache.GetOrBuild(path); err != nil {
		t.Fatal(err)
	}

	s := New(5)
	s.mu.Lock()
	s.queue = append(s.queue, path)
	s.mu.Unlock()

	s.ExecutePreheat(cache)

	if s.QueueSize() != 0 {
		t.Fatal("expected queue drained")
	}
}
