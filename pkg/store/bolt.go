// bolt.go — File-backed store on a single bbolt bucket.
package store

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/xob0t/textslot/pkg/logging"
)

var bucketName = []byte("textslot")

// Bolt persists to one bbolt database file. Transactions map one-to-one onto
// bbolt transactions.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens or creates the database at path.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	logging.Logger().Debug("store opened", "path", path)
	return &Bolt{db: db}, nil
}

func (b *Bolt) View(fn func(Tx) error) error {
	return b.db.View(func(tx *bolt.Tx) error {
		return fn(boltTx{tx.Bucket(bucketName)})
	})
}

func (b *Bolt) Update(fn func(Tx) error) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return fn(boltTx{tx.Bucket(bucketName)})
	})
}

func (b *Bolt) Close() error { return b.db.Close() }

type boltTx struct {
	b *bolt.Bucket
}

func (tx boltTx) Get(key string) ([]byte, bool, error) {
	v := tx.b.Get([]byte(key))
	return v, v != nil, nil
}

func (tx boltTx) Put(key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	return tx.b.Put([]byte(key), value)
}

func (tx boltTx) Delete(key string) error {
	return tx.b.Delete([]byte(key))
}

// Keys relies on bbolt's byte-sorted iteration order.
func (tx boltTx) Keys() ([]string, error) {
	var keys []string
	err := tx.b.ForEach(func(k, _ []byte) error {
		keys = append(keys, string(k))
		return nil
	})
	return keys, err
}
