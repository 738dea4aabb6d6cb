package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	boltName = "lottery.db"
	BoltType = "boltdb"
)

// BoltStore keeps records in a single bbolt file, one bucket per record kind.
type BoltStore struct {
	Db *bolt.DB
}

func NewBoltStore(boltDirPath string) (*BoltStore, error) {
	if len(boltDirPath) == 0 {
		return nil, errors.New("boltDb dir path can not be empty")
	}
	if err := os.MkdirAll(boltDirPath, os.ModePerm); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path.Join(boltDirPath, boltName), 0660, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		if err == bolt.ErrTimeout {
			return nil, errors.New("cannot obtain database lock, database may be in use by another process")
		}
		return nil, err
	}
	s := &BoltStore{Db: db}
	if err := s.Db.Update(func(tx *bolt.Tx) error {
		return createBuckets(tx, Buckets)
	}); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *BoltStore) Type() string {
	return BoltType
}

func (s *BoltStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Db.Update(func(tx *bolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

func (s *BoltStore) View(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Db.View(func(tx *bolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

func (s *BoltStore) Close() error {
	return s.Db.Close()
}

type boltTx struct {
	tx *bolt.Tx
}

func (t *boltTx) bucket(name string) (*bolt.Bucket, error) {
	bkt := t.tx.Bucket([]byte(name))
	if bkt == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBucket, name)
	}
	return bkt, nil
}

func (t *boltTx) Get(key Key, out interface{}) error {
	bkt, err := t.bucket(key.Bucket)
	if err != nil {
		return err
	}
	data := bkt.Get([]byte(key.ID))
	if data == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return json.Unmarshal(data, out)
}

func (t *boltTx) Put(key Key, value interface{}) error {
	bkt, err := t.bucket(key.Bucket)
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return bkt.Put([]byte(key.ID), data)
}

func (t *boltTx) CreateOnce(key Key, value interface{}) error {
	bkt, err := t.bucket(key.Bucket)
	if err != nil {
		return err
	}
	if bkt.Get([]byte(key.ID)) != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, key)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return bkt.Put([]byte(key.ID), data)
}

func createBuckets(tx *bolt.Tx, buckets []string) error {
	for _, bucket := range buckets {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
			return err
		}
	}
	return nil
}
