package persist

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketSnapshots = "snapshots"

// BoltBackend stores snapshots in a local bbolt database.
type BoltBackend struct {
	db *bolt.DB
}

// OpenBolt opens (creating if needed) the database at path.
func OpenBolt(path string) (*BoltBackend, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("persist: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSnapshots))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("persist: initialize %s: %w", path, err)
	}
	return &BoltBackend{db: db}, nil
}

// Close closes the database.
func (b *BoltBackend) Close() error {
	return b.db.Close()
}

// Save implements Backend.
func (b *BoltBackend) Save(_ context.Context, name string, data []byte) error {
	if name == "" {
		return ErrInvalidName
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSnapshots)).Put([]byte(name), data)
	})
}

// Load implements Backend.
func (b *BoltBackend) Load(_ context.Context, name string) ([]byte, error) {
	var data []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketSnapshots)).Get([]byte(name))
		if v == nil {
			return ErrNotFound
		}
		// v is only valid for the life of the transaction.
		data = append([]byte(nil), v...)
		return nil
	})
	return data, err
}

// Delete implements Backend.
func (b *BoltBackend) Delete(_ context.Context, name string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSnapshots)).Delete([]byte(name))
	})
}

// List implements Backend.
func (b *BoltBackend) List(context.Context) ([]string, error) {
	var names []string
	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketSnapshots)).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			names = append(names, string(k))
		}
		return nil
	})
	return names, err
}
