package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Store is the interface for memory persistence backends.
type Store interface {
	// Insert persists a new record. It fails with ErrDuplicateHash when a
	// non-archived record with the same TextHash already exists.
	Insert(ctx context.Context, m *Memory) error

	// GetByID returns a record by id, archived or not. Returns nil when absent.
	GetByID(ctx context.Context, id string) (*Memory, error)

	// GetByHash returns the non-archived record with the given content hash.
	// Returns nil when absent or archived.
	GetByHash(ctx context.Context, hash string) (*Memory, error)

	// UpdateEmbedding replaces a record's embedding and touches UpdatedAt.
	UpdateEmbedding(ctx context.Context, id string, vec []float32) error

	// Archive soft-deletes a record. Returns false when the id is unknown.
	Archive(ctx context.Context, id string) (bool, error)

	// Delete hard-deletes a record. Returns false when the id is unknown.
	Delete(ctx context.Context, id string) (bool, error)

	// BulkDelete hard-deletes non-archived records matching the project
	// (optional) created strictly before beforeEpoch (0 disables the bound).
	// Returns the number of deleted records.
	BulkDelete(ctx context.Context, project string, beforeEpoch int64) (int, error)

	// List returns non-archived records matching the filters, newest first.
	List(ctx context.Context, f Filters, limit, offset int) ([]*Memory, error)

	// Count returns the number of non-archived records matching the filters.
	Count(ctx context.Context, f Filters) (int, error)

	// All returns every non-archived record, newest first.
	All(ctx context.Context) ([]*Memory, error)

	// Stats summarizes the non-archived corpus.
	Stats(ctx context.Context) (*Stats, error)

	Close() error
}

// Key layout:
//   mem:{id}    -> JSON-encoded Memory
//   hash:{hash} -> record id
const (
	memKeyPrefix  = "mem:"
	hashKeyPrefix = "hash:"
)

func memKey(id string) []byte {
	return []byte(memKeyPrefix + id)
}

func hashKey(hash string) []byte {
	return []byte(hashKeyPrefix + hash)
}

// BadgerStore is a Badger-backed Store.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore creates a store on an externally managed Badger DB.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Insert persists a new record inside a single transaction. The hash key is
// the storage-level uniqueness constraint: a live record owning the hash
// makes the insert fail with ErrDuplicateHash.
func (s *BadgerStore) Insert(ctx context.Context, m *Memory) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("memory: marshal record: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(hashKey(m.TextHash))
		if err == nil {
			var existingID string
			if err := item.Value(func(val []byte) error {
				existingID = string(val)
				return nil
			}); err != nil {
				return err
			}
			existing, err := getLocked(txn, existingID)
			if err != nil {
				return err
			}
			if existing != nil && !existing.Archived {
				return fmt.Errorf("%w: %s", ErrDuplicateHash, m.TextHash)
			}
			// Stale hash key (archived or deleted owner): the new record
			// takes it over below.
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		if err := txn.Set(memKey(m.ID), data); err != nil {
			return err
		}
		return txn.Set(hashKey(m.TextHash), []byte(m.ID))
	})
}

// GetByID returns a record by id, archived or not.
func (s *BadgerStore) GetByID(ctx context.Context, id string) (*Memory, error) {
	var m *Memory
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		m, err = getLocked(txn, id)
		return err
	})
	return m, err
}

// GetByHash returns the live record owning the hash, nil when absent or archived.
func (s *BadgerStore) GetByHash(ctx context.Context, hash string) (*Memory, error) {
	var m *Memory
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(hashKey(hash))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}
		m, err = getLocked(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if m != nil && m.Archived {
		return nil, nil
	}
	return m, nil
}

// UpdateEmbedding replaces the embedding and touches UpdatedAt.
func (s *BadgerStore) UpdateEmbedding(ctx context.Context, id string, vec []float32) error {
	return s.db.Update(func(txn *badger.Txn) error {
		m, err := getLocked(txn, id)
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		m.Embedding = vec
		m.UpdatedAt = time.Now().Unix()
		return putLocked(txn, m)
	})
}

// Archive marks a record as soft-deleted.
func (s *BadgerStore) Archive(ctx context.Context, id string) (bool, error) {
	found := false
	err := s.db.Update(func(txn *badger.Txn) error {
		m, err := getLocked(txn, id)
		if err != nil {
			return err
		}
		if m == nil || m.Archived {
			return nil
		}
		found = true
		m.Archived = true
		m.UpdatedAt = time.Now().Unix()
		return putLocked(txn, m)
	})
	return found, err
}

// Delete removes a record and its hash key permanently.
func (s *BadgerStore) Delete(ctx context.Context, id string) (bool, error) {
	found := false
	err := s.db.Update(func(txn *badger.Txn) error {
		m, err := getLocked(txn, id)
		if err != nil {
			return err
		}
		if m == nil {
			return nil
		}
		found = true
		if err := deleteHashIfOwned(txn, m); err != nil {
			return err
		}
		return txn.Delete(memKey(id))
	})
	return found, err
}

// BulkDelete removes non-archived records for a project created before the bound.
func (s *BadgerStore) BulkDelete(ctx context.Context, project string, beforeEpoch int64) (int, error) {
	count := 0
	err := s.db.Update(func(txn *badger.Txn) error {
		victims, err := scanLocked(txn, func(m *Memory) bool {
			if m.Archived {
				return false
			}
			if project != "" && m.Project != project {
				return false
			}
			if beforeEpoch > 0 && m.CreatedAt >= beforeEpoch {
				return false
			}
			return true
		})
		if err != nil {
			return err
		}
		for _, m := range victims {
			if err := deleteHashIfOwned(txn, m); err != nil {
				return err
			}
			if err := txn.Delete(memKey(m.ID)); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	return count, err
}

// List returns filtered non-archived records, newest first.
func (s *BadgerStore) List(ctx context.Context, f Filters, limit, offset int) ([]*Memory, error) {
	all, err := s.allFiltered(f)
	if err != nil {
		return nil, err
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// Count returns the number of filtered non-archived records.
func (s *BadgerStore) Count(ctx context.Context, f Filters) (int, error) {
	all, err := s.allFiltered(f)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

// All returns every non-archived record, newest first.
func (s *BadgerStore) All(ctx context.Context) ([]*Memory, error) {
	return s.allFiltered(Filters{})
}

// Stats summarizes the non-archived corpus.
func (s *BadgerStore) Stats(ctx context.Context) (*Stats, error) {
	all, err := s.allFiltered(Filters{})
	if err != nil {
		return nil, err
	}
	stats := &Stats{
		TotalMemories:    len(all),
		ByProject:        make(map[string]int),
		TagsDistribution: make(map[string]int),
	}
	totalLen := 0
	for _, m := range all {
		if m.Project != "" {
			stats.ByProject[m.Project]++
		}
		for _, tag := range m.Tags {
			stats.TagsDistribution[tag]++
		}
		totalLen += len(m.Text)
	}
	if len(all) > 0 {
		stats.AvgTextLength = float64(totalLen) / float64(len(all))
	}
	return stats, nil
}

// Close is a no-op since the Badger DB lifecycle is managed externally.
func (s *BadgerStore) Close() error {
	return nil
}

func (s *BadgerStore) allFiltered(f Filters) ([]*Memory, error) {
	var records []*Memory
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		records, err = scanLocked(txn, func(m *Memory) bool {
			return !m.Archived && f.Match(m)
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt > records[j].CreatedAt
	})
	return records, nil
}

// getLocked reads a record inside a transaction. Returns nil when absent.
func getLocked(txn *badger.Txn, id string) (*Memory, error) {
	item, err := txn.Get(memKey(id))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m Memory
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &m)
	}); err != nil {
		return nil, err
	}
	return &m, nil
}

func putLocked(txn *badger.Txn, m *Memory) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("memory: marshal record: %w", err)
	}
	return txn.Set(memKey(m.ID), data)
}

// scanLocked iterates all records and keeps those passing the predicate.
func scanLocked(txn *badger.Txn, keep func(*Memory) bool) ([]*Memory, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(memKeyPrefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	var records []*Memory
	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		var m Memory
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &m)
		}); err != nil {
			return nil, err
		}
		if keep(&m) {
			records = append(records, &m)
		}
	}
	return records, nil
}

// deleteHashIfOwned removes the hash key only when this record still owns it.
// A later record may have taken over the hash after this one was archived.
func deleteHashIfOwned(txn *badger.Txn, m *Memory) error {
	item, err := txn.Get(hashKey(m.TextHash))
	if err == badger.ErrKeyNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	var ownerID string
	if err := item.Value(func(val []byte) error {
		ownerID = string(val)
		return nil
	}); err != nil {
		return err
	}
	if strings.TrimSpace(ownerID) != m.ID {
		return nil
	}
	return txn.Delete(hashKey(m.TextHash))
}
