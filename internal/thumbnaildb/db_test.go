package thumbnaildb

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T, compression bool) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "thumbs.sqlite")
	db, err := Open(path, compression)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAndLoadThumbnailRoundTrip(t *testing.T) {
	db := openTestDB(t, true)
	data := []byte("fake-webp-bytes")

	if _, err := db.SaveThumbnailsBatch([]ThumbnailEntry{{Key: "a.zip::1.jpg", Ghash: 42, Data: data}}); err != nil {
		t.Fatal(err)
	}

	got, ok, err := db.LoadThumbnail("a.zip::1.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected a hit")
	}
	if string(got) != string(data) {
		t.Fatalf("got %q want %q", got, data)
	}
}

func TestBatchLoadByCategory(t *testing.T) {
	db := openTestDB(t, false)
	if _, err := db.SaveThumbnailsBatch([]ThumbnailEntry{
		{Key: "folder1", Data: []byte("f1")},
		{Key: "a.zip::1.jpg", Data: []byte("p1")},
	}); err != nil {
		t.Fatal(err)
	}

	folders, err := db.BatchLoadThumbnailsByCategory([]string{"folder1", "a.zip::1.jpg"}, "folder")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := folders["folder1"]; !ok {
		t.Fatal("expected folder1 in folder-category results")
	}
	if _, ok := folders["a.zip::1.jpg"]; ok {
		t.Fatal("expected file-category key to be excluded from folder query")
	}
}

func TestEMMJSONRoundTrip(t *testing.T) {
	db := openTestDB(t, false)
	db.SaveThumbnailsBatch([]ThumbnailEntry{{Key: "k1", Data: []byte("x")}})

	if err := db.SaveEMMJSON("k1", `{"title":"test"}`); err != nil {
		t.Fatal(err)
	}
	got, ok, err := db.GetEMMJSON("k1")
	if err != nil || !ok {
		t.Fatalf("expected hit, err=%v ok=%v", err, ok)
	}
	if got != `{"title":"test"}` {
		t.Fatalf("got %q", got)
	}
}

func TestInvalidateRemovesByPrefix(t *testing.T) {
	db := openTestDB(t, false)
	db.SaveThumbnailsBatch([]ThumbnailEntry{
		{Key: "a.zip::1.jpg", Data: []byte("1")},
		{Key: "a.zip::2.jpg", Data: []byte("2")},
		{Key: "b.zip::1.jpg", Data: []byte("3")},
	})

	if err := db.Invalidate("a.zip::"); err != nil {
		t.Fatal(err)
	}

	keys, err := db.GetAllThumbnailKeys()
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0] != "b.zip::1.jpg" {
		t.Fatalf("expected only b.zip::1.jpg to remain, got %v", keys)
	}
}

func TestRatingRoundTrip(t *testing.T) {
	db := openTestDB(t, false)
	if err := db.SaveRating("a.zip::1.jpg", 4); err != nil {
		t.Fatal(err)
	}

	got, ok, err := db.GetRating("a.zip::1.jpg")
	if err != nil || !ok {
		t.Fatalf("expected hit, err=%v ok=%v", err, ok)
	}
	if got != 4 {
		t.Fatalf("got rating %d, want 4", got)
	}
}

func TestRatingStoredAsJSONInRatingDataColumn(t *testing.T) {
	db := openTestDB(t, false)
	if err := db.SaveRating("k1", 3); err != nil {
		t.Fatal(err)
	}

	var raw string
	if err := db.conn.QueryRow("SELECT rating_data FROM thumbs WHERE key = ?", "k1").Scan(&raw); err != nil {
		t.Fatal(err)
	}
	if raw != `{"value":3}` {
		t.Fatalf("rating_data = %q, want JSON-encoded rating", raw)
	}
}

func TestGetRatingMissingKey(t *testing.T) {
	db := openTestDB(t, false)
	if _, ok, err := db.GetRating("missing"); err != nil || ok {
		t.Fatalf("expected no rating for missing key, ok=%v err=%v", ok, err)
	}
}

func TestMarkFailedIncrementsRetryCount(t *testing.T) {
	db := openTestDB(t, false)
	if err := db.MarkFailed("bad.jpg", "decode error"); err != nil {
		t.Fatal(err)
	}
	if err := db.MarkFailed("bad.jpg", "decode error"); err != nil {
		t.Fatal(err)
	}

	results, err := db.BatchCheckFailed([]string{"bad.jpg"})
	if err != nil {
		t.Fatal(err)
	}
	rec, ok := results["bad.jpg"]
	if !ok {
		t.Fatal("expected a failure record")
	}
	if rec.RetryCount != 2 {
		t.Fatalf("expected retry count 2, got %d", rec.RetryCount)
	}
}

func TestClearFailedRemovesRecord(t *testing.T) {
	db := openTestDB(t, false)
	db.MarkFailed("bad.jpg", "decode error")
	if err := db.ClearFailed("bad.jpg"); err != nil {
		t.Fatal(err)
	}
	results, err := db.BatchCheckFailed([]string{"bad.jpg"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := results["bad.jpg"]; ok {
		t.Fatal("expected no failure record after clearing")
	}
}
