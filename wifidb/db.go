package wifidb

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-errors/errors"
	"go.etcd.io/bbolt"
)

const (
	dbName           = "wifiiot.db"
	dbFilePermission = 0600
)

var (
	outcomesBucket = []byte("outcomes")
)

// DB keeps a journal of connect attempts. It never stores passphrases or
// network profiles.
type DB struct {
	*bbolt.DB
}

// ConnectEntry is one journaled connect attempt.
type ConnectEntry struct {
	Id       string    `json:"id"`
	SSID     string    `json:"ssid"`
	Security string    `json:"security"`
	JoinOnce bool      `json:"join_once"`
	Code     string    `json:"code"`
	Message  string    `json:"message,omitempty"`
	Detail   string    `json:"detail,omitempty"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
}

func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Errorf("could not create data dir %v: %v", dir, err)
	}

	path := filepath.Join(dir, dbName)

	bdb, err := bbolt.Open(path, dbFilePermission, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Errorf("could not open %v: %v", path, err)
	}

	db := &DB{DB: bdb}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(outcomesBucket)
		return err
	})
	if err != nil {
		_ = bdb.Close()
		return nil, errors.Errorf("could not create buckets: %v", err)
	}

	return db, nil
}

// Record appends an entry to the journal.
func (db *DB) Record(entry *ConnectEntry) error {
	return db.appendJSON(outcomesBucket, entry)
}

// History returns up to limit entries, newest first. A limit of zero or
// less returns everything.
func (db *DB) History(limit int) ([]*ConnectEntry, error) {
	var entries []*ConnectEntry

	err := db.eachJSONReverse(outcomesBucket, func() interface{} {
		entry := &ConnectEntry{}
		entries = append(entries, entry)
		return entry
	}, limit)
	if err != nil {
		return nil, errors.Errorf("could not read history: %v", err)
	}

	return entries, nil
}
