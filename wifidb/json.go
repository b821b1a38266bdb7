package wifidb

import (
	"encoding/binary"
	"encoding/json"

	"github.com/go-errors/errors"
	"go.etcd.io/bbolt"
)

// appendJSON stores v under the next sequence number of the bucket.
func (db *DB) appendJSON(bucket []byte, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(bucket)
		if err != nil {
			return err
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}

		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)

		return bucket.Put(key, payload)
	})
}

// eachJSONReverse decodes values from the newest to the oldest into the
// values handed out by next, stopping after limit values.
func (db *DB) eachJSONReverse(bucket []byte, next func() interface{}, limit int) error {
	return db.View(func(tx *bbolt.Tx) error {
		// First fetch the bucket
		bucket := tx.Bucket(bucket)
		if bucket == nil {
			return nil
		}

		c := bucket.Cursor()
		count := 0

		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && count >= limit {
				break
			}

			if err := json.Unmarshal(v, next()); err != nil {
				return errors.Errorf("could not unmarshal data: %v", err)
			}

			count++
		}

		return nil
	})
}
