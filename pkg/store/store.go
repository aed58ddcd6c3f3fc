// Package store provides the persistent command history used by the orcx
// REPL, backed by a bolt database. The symbol table is never persisted; the
// store holds REPL input lines only.
package store

import (
	"encoding/binary"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketCmd = "cmd"

// DB is an open history store.
type DB struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the history store at the given path.
// Opening fails after one second when another process holds the lock.
func Open(path string) (*DB, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{
		Timeout: time.Second,
	})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketCmd))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

// Close releases the store.
func (s *DB) Close() error { return s.db.Close() }

// NextCmdSeq returns the sequence number the next command will get.
func (s *DB) NextCmdSeq() (int, error) {
	var seq uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		seq = tx.Bucket([]byte(bucketCmd)).Sequence() + 1
		return nil
	})
	return int(seq), err
}

// AddCmd adds a command line to the history and returns its sequence number.
func (s *DB) AddCmd(cmd string) (int, error) {
	var seq uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketCmd))
		var err error
		seq, err = b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(marshalSeq(seq), []byte(cmd))
	})
	return int(seq), err
}

// Cmds returns the commands with sequence numbers in [from, upto). A
// negative upto means no upper bound.
func (s *DB) Cmds(from, upto int) ([]string, error) {
	var cmds []string
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketCmd)).Cursor()
		for k, v := c.Seek(marshalSeq(uint64(from))); k != nil; k, v = c.Next() {
			if upto >= 0 && unmarshalSeq(k) >= uint64(upto) {
				break
			}
			cmds = append(cmds, string(v))
		}
		return nil
	})
	return cmds, err
}

func marshalSeq(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func unmarshalSeq(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}
