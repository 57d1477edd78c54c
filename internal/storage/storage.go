// Package storage keeps a local journal of the mutations issued against the backend.
package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry is one journalled operation.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Operation string    `json:"operation"`
	Resource  string    `json:"resource,omitempty"`
	RecordIDs []int64   `json:"record_ids,omitempty"`
	Success   bool      `json:"success"`
	Failure   string    `json:"failure,omitempty"`
	At        time.Time `json:"at"`
}

// Store records operation outcomes and lists the most recent ones.
type Store interface {
	Close() error
	Record(e Entry) (Entry, error)
	Recent(limit int) ([]Entry, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	EntryTTL        time.Duration
	CleanupInterval time.Duration
}

const (
	defaultEntryTTL        = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.EntryTTL <= 0 {
		opts.EntryTTL = defaultEntryTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

// stamp fills the id and timestamp of an entry that does not carry them yet.
func stamp(e Entry, now time.Time) Entry {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.At.IsZero() {
		e.At = now.UTC()
	}
	return e
}

type noopStore struct{}

func (noopStore) Close() error                  { return nil }
func (noopStore) Record(e Entry) (Entry, error) { return stamp(e, time.Now()), nil }
func (noopStore) Recent(int) ([]Entry, error)   { return nil, nil }
