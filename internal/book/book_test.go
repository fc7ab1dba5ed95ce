package book

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/neoview/album-core/internal/config"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newTestContext(t *testing.T) *AppContext {
	t.Helper()

	config.Conf.PreloadAhead = 2
	config.Conf.PreloadBehind = 1
	config.Conf.PrimaryWorkers = 2
	config.Conf.SecondaryWorkers = 1
	config.Conf.PageCacheCount = 16
	config.Conf.PageCacheBytes = 8 * 1024 * 1024
	config.Conf.IndexCacheEntries = 16
	config.Conf.PreheatQueueDepth = 5
	config.Conf.ThumbnailWriteDelayMillis = 50

	dbPath := filepath.Join(t.TempDir(), "thumbs.sqlite")
	ac, err := NewAppContext(dbPath, false)
	if err != nil {
		t.Fatalf("NewAppContext: %v", err)
	}
	t.Cleanup(ac.Close)
	return ac
}

func writeTestZip(t *testing.T, dir string, names []string) string {
	t.Helper()
	path := filepath.Join(dir, "book.cbz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(pngBytes(t, 10, 10)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenBookArchiveOrdersPagesNaturally(t *testing.T) {
	ac := newTestContext(t)
	dir := t.TempDir()
	path := writeTestZip(t, dir, []string{"page2.png", "page10.png", "page1.png"})

	b := NewBook(ac)
	info, err := b.OpenBook(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenBook: %v", err)
	}
	if info.TotalPages != 3 {
		t.Fatalf("got %d pages, want 3", info.TotalPages)
	}
	want := []string{"page1.png", "page2.png", "page10.png"}
	for i, w := range want {
		if info.Pages[i].DisplayName != w {
			t.Errorf("page %d: got %s, want %s", i, info.Pages[i].DisplayName, w)
		}
	}
}

func TestOpenBookFolder(t *testing.T) {
	ac := newTestContext(t)
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), pngBytes(t, 4, 4), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	b := NewBook(ac)
	info, err := b.OpenBook(context.Background(), dir)
	if err != nil {
		t.Fatalf("OpenBook: %v", err)
	}
	if info.Kind != KindFolder || info.TotalPages != 2 {
		t.Fatalf("got %+v", info)
	}
	if info.Pages[0].DisplayName != "a.png" {
		t.Fatalf("expected natural sort, got %s first", info.Pages[0].DisplayName)
	}
}

func TestLoadImageServesFromCacheOnSecondCall(t *testing.T) {
	ac := newTestContext(t)
	dir := t.TempDir()
	path := writeTestZip(t, dir, []string{"a.png"})

	b := NewBook(ac)
	if _, err := b.OpenBook(context.Background(), path); err != nil {
		t.Fatalf("OpenBook: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data1, err := b.LoadImage(ctx, 0)
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if len(data1) == 0 {
		t.Fatal("expected non-empty image bytes")
	}

	if !b.IsCached(0) {
		t.Fatal("expected page to be cached after first load")
	}

	data2, err := b.LoadImage(ctx, 0)
	if err != nil {
		t.Fatalf("LoadImage (cached): %v", err)
	}
	if !bytes.Equal(data1, data2) {
		t.Fatal("cached load returned different bytes")
	}
}

func TestNavigateToPageClampsOutOfRange(t *testing.T) {
	ac := newTestContext(t)
	dir := t.TempDir()
	path := writeTestZip(t, dir, []string{"a.png", "b.png"})

	b := NewBook(ac)
	if _, err := b.OpenBook(context.Background(), path); err != nil {
		t.Fatalf("OpenBook: %v", err)
	}

	got, err := b.NavigateToPage(99)
	if err != nil {
		t.Fatalf("NavigateToPage: %v", err)
	}
	if got != 1 {
		t.Fatalf("got %d, want clamped to last page (1)", got)
	}

	got, err = b.NavigateToPage(-5)
	if err != nil {
		t.Fatalf("NavigateToPage: %v", err)
	}
	if got != 0 {
		t.Fatalf("got %d, want clamped to 0", got)
	}
}

func TestInvalidateArchiveCacheDropsAllLayers(t *testing.T) {
	ac := newTestContext(t)
	dir := t.TempDir()
	path := writeTestZip(t, dir, []string{"a.png"})

	b := NewBook(ac)
	if _, err := b.OpenBook(context.Background(), path); err != nil {
		t.Fatalf("OpenBook: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := b.LoadImage(ctx, 0); err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if !b.IsCached(0) {
		t.Fatal("expected page cached before invalidation")
	}

	b.InvalidateArchiveCache(path)

	if b.IsCached(0) {
		t.Fatal("expected page cache cleared after invalidation")
	}
	if _, ok := ac.IndexCache.Peek(path); ok {
		t.Fatal("expected index cache cleared after invalidation")
	}
}

func TestCloseBookClearsState(t *testing.T) {
	ac := newTestContext(t)
	dir := t.TempDir()
	path := writeTestZip(t, dir, []string{"a.png"})

	b := NewBook(ac)
	if _, err := b.OpenBook(context.Background(), path); err != nil {
		t.Fatalf("OpenBook: %v", err)
	}
	b.CloseBook()

	if b.Info().Path != "" {
		t.Fatalf("expected cleared info, got %+v", b.Info())
	}
}
