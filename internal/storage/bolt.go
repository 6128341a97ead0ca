package storage

import (
	"context"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// BoltKV implements KV on a single-file BoltDB database. Each table name
// becomes a bucket, created on first use of that table.
type BoltKV struct {
	db *bolt.DB
}

// OpenBolt opens (creating if absent) a BoltDB database at path.
func OpenBolt(path string) (*BoltKV, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	return &BoltKV{db: db}, nil
}

func (s *BoltKV) Get(_ context.Context, table, key string) (string, bool, error) {
	var value string
	var found bool

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(table))
		if bucket == nil {
			return nil
		}
		data := bucket.Get([]byte(key))
		if data == nil {
			return nil
		}
		value = string(data)
		found = true
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("storage: get %s/%s: %w", table, key, err)
	}

	return value, found, nil
}

func (s *BoltKV) Put(_ context.Context, table, key, value string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(table))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("storage: put %s/%s: %w", table, key, err)
	}
	return nil
}

func (s *BoltKV) Close() error {
	return s.db.Close()
}
