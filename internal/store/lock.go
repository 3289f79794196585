package store

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"gorm.io/gorm"
)

const lockStripes = 64

// scheduleLocks serializes writers of the same consultant day inside this
// process. Unrelated keys may share a stripe.
type scheduleLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *scheduleLocks) get(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &l.stripes[h.Sum32()%lockStripes]
}

func scheduleKey(consultantID, date string) string {
	return consultantID + "|" + date
}

// InScheduleLock implements Store. On Postgres the transaction also takes an
// advisory lock so that other processes are serialized on the same key.
func (s *gormStore) InScheduleLock(ctx context.Context, consultantID, date string, fn func(Store) error) error {
	key := scheduleKey(consultantID, date)
	mu := s.locks.get(key)
	mu.Lock()
	defer mu.Unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", key).Error; err != nil {
				return fmt.Errorf("failed to acquire schedule lock %q: %w", key, err)
			}
		}
		return fn(&gormStore{db: tx, locks: s.locks})
	})
}
