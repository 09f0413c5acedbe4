package storage

import (
	"encoding/binary"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketKey = "vvt_faults"

// FaultStore keeps fault history across runs so a repeated alert can be
// told apart from a new one. Values are 16 bytes: occurrence count and
// first-seen unix time.
type FaultStore struct {
	db *bolt.DB
}

// Open opens (or creates) the bbolt database and makes sure the bucket
// exists.
func Open(path string) (*FaultStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketKey))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &FaultStore{db: db}, nil
}

func (s *FaultStore) Close() error {
	return s.db.Close()
}

// Record bumps the occurrence count for a fault kind. It reports whether
// this is the first time the fault has ever been seen, plus the new count.
func (s *FaultStore) Record(kind string, at time.Time) (bool, uint64, error) {
	var (
		first bool
		count uint64
	)
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketKey))
		key := []byte(kind)

		value := b.Get(key)
		firstSeen := at.Unix()
		if value == nil {
			first = true
		} else if len(value) == 16 {
			count = binary.BigEndian.Uint64(value[:8])
			firstSeen = int64(binary.BigEndian.Uint64(value[8:]))
		}
		count++

		buf := make([]byte, 16)
		binary.BigEndian.PutUint64(buf[:8], count)
		binary.BigEndian.PutUint64(buf[8:], uint64(firstSeen))
		return b.Put(key, buf)
	})
	return first, count, err
}

// Count returns how often a fault kind has been recorded.
func (s *FaultStore) Count(kind string) (uint64, error) {
	var count uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket([]byte(bucketKey)).Get([]byte(kind))
		if len(value) == 16 {
			count = binary.BigEndian.Uint64(value[:8])
		}
		return nil
	})
	return count, err
}

// Clear wipes the whole fault history.
func (s *FaultStore) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketKey)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(bucketKey))
		return err
	})
}
