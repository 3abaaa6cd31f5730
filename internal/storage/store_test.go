package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T, ttl time.Duration) (*Store, *time.Time) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "cache", "test.db")
	store, err := NewStore(dbPath, ttl)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	now := time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })
	return store, &now
}

func TestStore_PutAndGet(t *testing.T) {
	store, _ := setupTestStore(t, 10*time.Minute)

	if err := store.Put("http://example.com/feed.xml", []byte("<rss/>")); err != nil {
		t.Fatalf("failed to put: %v", err)
	}

	data, ok, err := store.Get("http://example.com/feed.xml")
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(data) != "<rss/>" {
		t.Errorf("expected <rss/>, got %s", data)
	}

	_, ok, err = store.Get("http://example.com/missing.xml")
	if err != nil {
		t.Fatalf("failed to get missing: %v", err)
	}
	if ok {
		t.Error("expected cache miss for unknown URL")
	}
}

func TestStore_Expiry(t *testing.T) {
	store, now := setupTestStore(t, 10*time.Minute)

	if err := store.Put("u", []byte("doc")); err != nil {
		t.Fatal(err)
	}

	*now = now.Add(9 * time.Minute)
	if _, ok, _ := store.Get("u"); !ok {
		t.Error("entry should still be fresh after 9 minutes")
	}

	*now = now.Add(2 * time.Minute)
	if _, ok, _ := store.Get("u"); ok {
		t.Error("entry should be stale after 11 minutes")
	}

	stats, err := store.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 1 || stats.Expired != 1 {
		t.Errorf("expected 1 entry, 1 expired, got %+v", stats)
	}

	removed, err := store.Purge()
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("expected 1 purged entry, got %d", removed)
	}

	stats, _ = store.Stats()
	if stats.Entries != 0 {
		t.Errorf("expected empty cache after purge, got %d entries", stats.Entries)
	}
}

func TestStore_ZeroTTLNeverExpires(t *testing.T) {
	store, now := setupTestStore(t, 0)

	if err := store.Put("u", []byte("doc")); err != nil {
		t.Fatal(err)
	}
	*now = now.Add(365 * 24 * time.Hour)

	if _, ok, _ := store.Get("u"); !ok {
		t.Error("zero TTL entries should never expire")
	}
}

func TestStore_OverwriteRefreshes(t *testing.T) {
	store, now := setupTestStore(t, time.Minute)

	if err := store.Put("u", []byte("old")); err != nil {
		t.Fatal(err)
	}
	*now = now.Add(50 * time.Second)
	if err := store.Put("u", []byte("new")); err != nil {
		t.Fatal(err)
	}
	*now = now.Add(50 * time.Second)

	data, ok, _ := store.Get("u")
	if !ok || string(data) != "new" {
		t.Errorf("expected fresh 'new' entry, got %q ok=%v", data, ok)
	}

	stats, _ := store.Stats()
	if !stats.LastWrite.Equal(time.Date(2025, 10, 15, 12, 0, 50, 0, time.UTC)) {
		t.Errorf("unexpected LastWrite %v", stats.LastWrite)
	}
}

func TestStore_Clear(t *testing.T) {
	store, _ := setupTestStore(t, time.Hour)

	for i, url := range []string{"a", "b", "c"} {
		if err := store.Put(url, []byte{byte(i)}); err != nil {
			t.Fatal(err)
		}
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("failed to clear: %v", err)
	}

	stats, err := store.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 0 {
		t.Errorf("expected 0 entries after clear, got %d", stats.Entries)
	}

	if err := store.Put("d", []byte("still works")); err != nil {
		t.Errorf("put after clear failed: %v", err)
	}
}
