package book

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/neoview/album-core/internal/thumbnaildb"
)

func TestThumbnailWriteQueueCoalescesRepeatedKey(t *testing.T) {
	db, err := thumbnaildb.Open(filepath.Join(t.TempDir(), "t.sqlite"), false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	q := NewThumbnailWriteQueue(db, 20*time.Millisecond)
	go q.Run()
	defer q.Stop()

	for i := 0; i < 50; i++ {
		q.Enqueue("k", 1, []byte{byte(i)})
	}

	time.Sleep(100 * time.Millisecond)

	data, ok, err := db.LoadThumbnail("k")
	if err != nil {
		t.Fatalf("LoadThumbnail: %v", err)
	}
	if !ok {
		t.Fatal("expected thumbnail to have been flushed")
	}
	if len(data) != 1 || data[0] != 49 {
		t.Fatalf("expected the most recent write to win, got %v", data)
	}
}

func TestThumbnailWriteQueueStopFlushesPending(t *testing.T) {
	db, err := thumbnaildb.Open(filepath.Join(t.TempDir(), "t2.sqlite"), false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	q := NewThumbnailWriteQueue(db, time.Hour)
	go q.Run()

	q.Enqueue("only-key", 2, []byte("blob"))
	q.Stop()

	_, ok, err := db.LoadThumbnail("only-key")
	if err != nil {
		t.Fatalf("LoadThumbnail: %v", err)
	}
	if !ok {
		t.Fatal("expected Stop to flush pending writes")
	}
}
