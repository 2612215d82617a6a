package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	domain "github.com/Gokhanagingil/grc-sub001/internal/domain/advisory"
)

// Badger is the durable advisory cache backend. Values are JSON-encoded
// AdvisoryResults stored with Badger's native TTL, so cached advisories
// survive a restart and expire without a sweeper.
type Badger struct {
	db  *badger.DB
	ttl time.Duration
}

func NewBadger(path string, ttl time.Duration) (*Badger, error) {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger cache at %s: %w", path, err)
	}
	return &Badger{db: db, ttl: ttl}, nil
}

func (b *Badger) Put(_ context.Context, tenant, riskID string, res *domain.AdvisoryResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encoding advisory: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(cacheKey(tenant, riskID)), data).WithTTL(b.ttl)
		return txn.SetEntry(e)
	})
}

func (b *Badger) Get(_ context.Context, tenant, riskID string) (*domain.AdvisoryResult, bool, error) {
	var res domain.AdvisoryResult
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(cacheKey(tenant, riskID)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &res)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &res, true, nil
}

func (b *Badger) Delete(_ context.Context, tenant, riskID string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(cacheKey(tenant, riskID)))
	})
}

// Close releases the underlying store
func (b *Badger) Close() error {
	return b.db.Close()
}
