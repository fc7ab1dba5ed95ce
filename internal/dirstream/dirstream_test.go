package dirstream

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestBatcherEmitsFixedSizeBatchesThenCompletes(t *testing.T) {
	ctx := context.Background()
	b := NewBatcher[int](ctx, 3)

	go func() {
		for i := 0; i < 7; i++ {
			b.Add(i)
		}
		b.Complete(7)
	}()

	var batches [][]int
	var completed bool
	for ev := range b.Events() {
		switch ev.Kind {
		case EventBatch:
			batches = append(batches, ev.Items)
		case EventComplete:
			completed = true
			if ev.TotalItems != 7 {
				t.Fatalf("expected total 7, got %d", ev.TotalItems)
			}
		}
	}
	if !completed {
		t.Fatal("expected a Complete event")
	}
	total := 0
	for _, batch := range batches {
		total += len(batch)
	}
	if total != 7 {
		t.Fatalf("expected 7 items across batches, got %d", total)
	}
}

func TestBatcherStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := NewBatcher[int](ctx, 2)
	cancel()

	if b.Add(1) {
		t.Fatal("expected Add to report cancellation")
	}
}

func TestStreamDirectoryNaturalOrder(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"b2.txt", "b10.txt", "b1.txt"} {
		os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644)
	}

	m := NewManager()
	_, events := m.StreamDirectory(context.Background(), dir, 2)

	var names []string
	for ev := range events {
		for _, item := range ev.Items {
			names = append(names, item.Name)
		}
	}

	want := []string{"b1.txt", "b2.txt", "b10.txt"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("got %v, want %v", names, want)
		}
	}
}

func TestStreamArchiveAndCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	for _, n := range []string{"1.jpg", "2.jpg", "3.jpg"} {
		fw, _ := w.Create(n)
		fw.Write([]byte("x"))
	}
	w.Close()
	f.Close()

	m := NewManager()
	id, events := m.StreamArchive(context.Background(), path, 1)

	if ok := m.CancelStream(id); !ok {
		t.Fatal("expected stream to be cancellable immediately after creation")
	}

	// Draining must terminate even though the stream was cancelled.
	done := make(chan struct{})
	go func() {
		for range events {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out draining a cancelled stream")
	}
}

func TestCancelStreamsForPathReturnsCount(t *testing.T) {
	dir := t.TempDir()
	// Enough entries that, with batch size 2 and nobody draining yet, each
	// producer fills its channel and is still registered when cancelled.
	for i := 0; i < 100; i++ {
		name := "f" + string(rune('0'+i/10)) + string(rune('0'+i%10)) + ".txt"
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	m := NewManager()
	_, events1 := m.StreamDirectory(context.Background(), dir, 2)
	_, events2 := m.StreamDirectory(context.Background(), dir, 2)

	n := m.CancelStreamsForPath(dir)
	if n != 2 {
		t.Fatalf("expected 2 cancelled, got %d", n)
	}

	for range events1 {
	}
	for range events2 {
	}
}
