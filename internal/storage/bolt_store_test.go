package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

func openTestStore(t *testing.T, opts Options) *boltStore {
	t.Helper()
	storeRaw, err := openBolt(filepath.Join(t.TempDir(), "journal.db"), normalizeOptions(opts))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltStoreRecordsNewestFirst(t *testing.T) {
	store := openTestStore(t, Options{})

	base := time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base.Add(time.Hour) }

	first, err := store.Record(Entry{Operation: "move_to_eliminati", Resource: "partner", RecordIDs: []int64{42}, Success: true, At: base})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if first.ID == uuid.Nil {
		t.Fatalf("expected id to be assigned")
	}
	if _, err := store.Record(Entry{Operation: "empty_trash", Failure: "boom", At: base.Add(time.Minute)}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Operation != "empty_trash" || entries[1].Operation != "move_to_eliminati" {
		t.Fatalf("unexpected order: %+v", entries)
	}
	if entries[1].ID != first.ID || entries[1].RecordIDs[0] != 42 {
		t.Fatalf("entry round trip mismatch: %+v", entries[1])
	}

	limited, err := store.Recent(1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("Recent(1) = %d entries, err=%v", len(limited), err)
	}
}

func TestBoltStoreExpiresEntries(t *testing.T) {
	store := openTestStore(t, Options{EntryTTL: time.Hour, CleanupInterval: time.Minute})

	now := time.Now()
	store.now = func() time.Time { return now }
	if _, err := store.Record(Entry{Operation: "old", At: now.Add(-2 * time.Hour)}); err != nil {
		t.Fatalf("Record old: %v", err)
	}
	if _, err := store.Record(Entry{Operation: "fresh"}); err != nil {
		t.Fatalf("Record fresh: %v", err)
	}

	entries, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 || entries[0].Operation != "fresh" {
		t.Fatalf("expected only fresh entry to be listed, got %+v", entries)
	}

	// Fast-forward cleanup cadence and trigger expiry.
	store.lastCleanup.Store(now.Add(-2 * time.Minute).Unix())
	if err := store.maybeCleanupExpired(now); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	var keys int
	if err := store.db.View(func(tx *bolt.Tx) error {
		keys = tx.Bucket([]byte(journalBucket)).Stats().KeyN
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	if keys != 1 {
		t.Fatalf("expected expired entry to be removed, %d keys left", keys)
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	e, err := store.Record(Entry{Operation: "x"})
	if err != nil || e.ID == uuid.Nil || e.At.IsZero() {
		t.Fatalf("noop store Record: %+v err=%v", e, err)
	}
	if entries, _ := store.Recent(5); len(entries) != 0 {
		t.Fatalf("noop store should list nothing")
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "x", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for missing path")
	}
}

func TestBoltStoreSweepsExpiredEntriesAcrossReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	opts := Options{EntryTTL: time.Hour, CleanupInterval: time.Minute}
	now := time.Now()

	// Each iteration mirrors one CLI invocation: open, record, close.
	for i := 0; i < 6; i++ {
		storeRaw, err := openBolt(path, opts)
		if err != nil {
			t.Fatalf("openBolt #%d: %v", i, err)
		}
		entry := Entry{Operation: "trash-move"}
		if i == 0 {
			entry.At = now.Add(-48 * time.Hour)
		}
		if _, err := storeRaw.Record(entry); err != nil {
			t.Fatalf("Record #%d: %v", i, err)
		}
		if err := storeRaw.Close(); err != nil {
			t.Fatalf("Close #%d: %v", i, err)
		}
	}

	storeRaw, err := openBolt(path, opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	var keys int
	var expired bool
	cutoff := now.Add(-opts.EntryTTL)
	if err := store.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(journalBucket)).ForEach(func(k, _ []byte) error {
			keys++
			if at, ok := decodeKeyTime(k); !ok || !at.After(cutoff) {
				expired = true
			}
			return nil
		})
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	if expired || keys != 5 {
		t.Fatalf("expected only the 5 live entries on disk, got %d keys (expired present: %v)", keys, expired)
	}
}
