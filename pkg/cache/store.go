// Package cache implements the hybrid response cache shared between the
// HTTP and browser backends. Writes are fire-and-forget: caching is a pure
// optimization and never a correctness dependency of a fetch.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/page-engine/pkg/log"
	"github.com/Sriram-PR/page-engine/pkg/models"
	"github.com/Sriram-PR/page-engine/pkg/utils"
)

const (
	respKeyPrefix = "resp:"     // Prefix for response entries in DB
	cacheDBDir    = "hybrid_db" // Subdirectory name within stateDir for Badger DB files
)

// Key forms the canonical cache key for a fetched resource.
func Key(method, url string) string {
	return method + ":" + url
}

// Entry is a stored response paired with its computed policy.
type Entry struct {
	Response models.HttpResponse `json:"response"`
	Policy   Policy              `json:"policy"`
}

// Store persists fetched responses in BadgerDB under METHOD:URL keys.
// Concurrent writers race benignly: last write wins per key.
type Store struct {
	db  *badger.DB
	log *logrus.Entry
}

// NewStore opens (or creates) the hybrid cache under stateDir.
func NewStore(stateDir string, logger *logrus.Entry) (*Store, error) {
	dbPath := filepath.Join(stateDir, cacheDBDir)
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory %s: %w", dbPath, err)
	}

	badgerLogger := log.NewBadgerLogrusAdapter(logger.WithField("component", "badgerdb"))
	opts := badger.DefaultOptions(dbPath).
		WithLogger(badgerLogger).
		WithNumVersionsToKeep(1) // Only the latest response per key matters

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger cache at %s: %w", dbPath, err)
	}

	logger.Infof("Hybrid response cache initialized at: %s", dbPath)
	return &Store{db: db, log: logger}, nil
}

const maxConflictRetries = 10

// dbUpdate wraps db.Update with a retry loop for BadgerDB transaction
// conflicts. Concurrent MVCC transactions on overlapping keys can return
// badger.ErrConflict; these resolve in microseconds, so a tight retry loop
// is sufficient.
func (s *Store) dbUpdate(fn func(txn *badger.Txn) error) error {
	for i := range maxConflictRetries {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debugf("BadgerDB transaction conflict (attempt %d/%d), retrying", i+1, maxConflictRetries)
	}
	return fmt.Errorf("%w: transaction conflict not resolved after %d retries", utils.ErrCacheWrite, maxConflictRetries)
}

// Store persists one response under cacheKey with a policy computed from the
// request method and response headers/status. Failures are swallowed after
// logging; the fetch caller never sees them.
func (s *Store) Store(cacheKey string, resp models.HttpResponse, method string, requestHeaders map[string]string) {
	policy := NewPolicy(method, resp.Status, requestHeaders, resp.Headers, time.Now())
	if policy.NoStore {
		s.log.WithField("key", cacheKey).Debug("Response not storable, skipping cache write")
		return
	}

	entry := Entry{Response: resp, Policy: policy}
	entryBytes, err := json.Marshal(&entry)
	if err != nil {
		s.log.WithField("key", cacheKey).Warnf("Failed to marshal cache entry: %v", err)
		return
	}

	key := []byte(respKeyPrefix + cacheKey)
	err = s.dbUpdate(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key, entryBytes))
	})
	if err != nil {
		s.log.WithField("key", cacheKey).Warnf("Cache write failed: %v", err)
		return
	}
	s.log.WithFields(logrus.Fields{"key": cacheKey, "bytes": len(resp.Body)}).Debug("Cached response")
}

// Get retrieves a stored entry and whether it is still fresh. A missing key
// returns (nil, false, nil).
func (s *Store) Get(cacheKey string) (*Entry, bool, error) {
	var entry *Entry
	key := []byte(respKeyPrefix + cacheKey)

	err := s.db.View(func(txn *badger.Txn) error {
		item, errGet := txn.Get(key)
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			return nil
		}
		if errGet != nil {
			return fmt.Errorf("%w: getting cache key '%s': %w", utils.ErrCacheWrite, cacheKey, errGet)
		}
		return item.Value(func(val []byte) error {
			var decoded Entry
			if errJSON := json.Unmarshal(val, &decoded); errJSON != nil {
				s.log.Warnf("Failed to unmarshal cache entry for key '%s': %v. Treating as miss.", cacheKey, errJSON)
				return nil
			}
			entry = &decoded
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	if entry == nil {
		return nil, false, nil
	}
	return entry, entry.Policy.Fresh(time.Now()), nil
}

// RunGC runs BadgerDB's value log garbage collection periodically until ctx
// is cancelled.
func (s *Store) RunGC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.db == nil || s.db.IsClosed() {
				continue
			}
			var err error
			for {
				// Run GC if log is at least 50% reclaimable space
				if err = s.db.RunValueLogGC(0.5); err != nil {
					break
				}
			}
			if !errors.Is(err, badger.ErrNoRewrite) {
				s.log.Errorf("Cache GC error: %v", err)
			}
		case <-ctx.Done():
			s.log.Debugf("Stopping cache GC: %v", ctx.Err())
			return
		}
	}
}

// Close shuts the underlying database down.
func (s *Store) Close() error {
	if s.db != nil && !s.db.IsClosed() {
		if err := s.db.Close(); err != nil {
			s.log.Errorf("Error closing cache DB: %v", err)
			return err
		}
	}
	return nil
}
