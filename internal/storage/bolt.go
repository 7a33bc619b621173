package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/stacklok/country-registry/internal/service"
)

var countriesBucket = []byte("countries")

// boltPersister keeps one record per key, keyed by its big-endian position
// so a cursor walk returns the insertion order.
type boltPersister struct {
	path string
	db   *bolt.DB
}

// NewBoltPersister opens or creates the bbolt database at path.
// timeout bounds the wait for the file lock held by another process.
func NewBoltPersister(path string, timeout time.Duration) (Persister, error) {
	if path == "" {
		return nil, fmt.Errorf("bolt path is required")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database %s: %w", path, err)
	}

	return &boltPersister{path: path, db: db}, nil
}

func (b *boltPersister) Load(_ context.Context) ([]service.Country, error) {
	var countries []service.Country

	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(countriesBucket)
		if bucket == nil {
			return ErrNoSnapshot
		}

		countries = make([]service.Country, 0, bucket.Stats().KeyN)
		return bucket.ForEach(func(k, v []byte) error {
			var c service.Country
			if err := json.Unmarshal(v, &c); err != nil {
				return fmt.Errorf("failed to decode record %d: %w", binary.BigEndian.Uint64(k), err)
			}
			countries = append(countries, c)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return countries, nil
}

func (b *boltPersister) Save(_ context.Context, countries []service.Country) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(countriesBucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return fmt.Errorf("failed to drop previous snapshot: %w", err)
		}

		bucket, err := tx.CreateBucket(countriesBucket)
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}

		for i, c := range countries {
			value, err := json.Marshal(c)
			if err != nil {
				return fmt.Errorf("failed to encode %q: %w", c.Name, err)
			}
			if err := bucket.Put(positionKey(i), value); err != nil {
				return fmt.Errorf("failed to store %q: %w", c.Name, err)
			}
		}
		return nil
	})
}

func (b *boltPersister) Ping(_ context.Context) error {
	return b.db.View(func(*bolt.Tx) error { return nil })
}

func (b *boltPersister) Source() string {
	return "bolt:" + b.path
}

func (b *boltPersister) Close() error {
	return b.db.Close()
}

func positionKey(i int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(i))
	return key
}
