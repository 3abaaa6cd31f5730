package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	documentsBucket = []byte("documents")
	metaBucket      = []byte("metadata")
)

// Store is a bbolt-backed cache of raw feed documents keyed by URL.
type Store struct {
	db  *bolt.DB
	ttl time.Duration
	now func() time.Time
}

func NewStore(dbPath string, ttl time.Duration) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{documentsBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db, ttl: ttl, now: time.Now}, nil
}

// SetClock replaces the time source used for expiry.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached document for url. Missing and expired entries
// report ok=false.
func (s *Store) Get(url string) ([]byte, bool, error) {
	var entry *Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(documentsBucket).Get([]byte(url))
		if data == nil {
			return nil
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			return fmt.Errorf("decoding cache entry: %w", err)
		}
		entry = &e
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if entry == nil || entry.Expired(s.now(), s.ttl) {
		return nil, false, nil
	}
	return entry.Data, true, nil
}

func (s *Store) Put(url string, data []byte) error {
	entry := Entry{URL: url, FetchedAt: s.now().UTC(), Data: data}
	return s.db.Update(func(tx *bolt.Tx) error {
		encoded, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		if err := tx.Bucket(documentsBucket).Put([]byte(url), encoded); err != nil {
			return err
		}
		return tx.Bucket(metaBucket).Put([]byte("last_write"), []byte(entry.FetchedAt.Format(time.RFC3339)))
	})
}

// Purge deletes expired entries and returns how many were removed.
func (s *Store) Purge() (int, error) {
	now := s.now()
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(documentsBucket)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil || e.Expired(now, s.ttl) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

// Clear drops every cached document.
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(documentsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(documentsBucket)
		return err
	})
}

func (s *Store) Stats() (Stats, error) {
	now := s.now()
	var st Stats
	err := s.db.View(func(tx *bolt.Tx) error {
		if raw := tx.Bucket(metaBucket).Get([]byte("last_write")); raw != nil {
			st.LastWrite, _ = time.Parse(time.RFC3339, string(raw))
		}
		return tx.Bucket(documentsBucket).ForEach(func(_ []byte, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			st.Entries++
			st.Bytes += len(e.Data)
			if e.Expired(now, s.ttl) {
				st.Expired++
			}
			return nil
		})
	})
	return st, err
}
