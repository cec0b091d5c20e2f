// Package store keeps the console's input history in a bolt database.
package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketInput = []byte("input")

// ErrNoMatchingInput is the error returned when a NextInput or PrevInput
// query completes with no result.
var ErrNoMatchingInput = errors.New("no matching input line")

// Input is an entry in the input history.
type Input struct {
	Text string
	Seq  int
}

// Store is a bolt-backed input history store.
type Store struct {
	db *bolt.DB
}

// Open opens the database at path, creating it and its buckets when
// absent. Opening does not block on other processes holding the file; it
// fails fast instead.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0644, &bolt.Options{
		Timeout: time.Second,
	})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketInput)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db}, nil
}

// Close releases the database file.
func (s *Store) Close() error { return s.db.Close() }

// NextSeq returns the sequence number the next added input will get.
func (s *Store) NextSeq() (int, error) {
	var seq uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		seq = tx.Bucket(bucketInput).Sequence() + 1
		return nil
	})
	return int(seq), err
}

// Add appends a new line to the input history and returns its sequence
// number.
func (s *Store) Add(text string) (int, error) {
	var seq uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketInput)
		var err error
		seq, err = b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(marshalSeq(seq), []byte(text))
	})
	return int(seq), err
}

// Del deletes the input history item with the given sequence number.
func (s *Store) Del(seq int) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketInput).Delete(marshalSeq(uint64(seq)))
	})
}

// Input queries the input history item with the given sequence number.
func (s *Store) Input(seq int) (string, error) {
	var text string
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketInput).Get(marshalSeq(uint64(seq)))
		if v == nil {
			return ErrNoMatchingInput
		}
		text = string(v)
		return nil
	})
	return text, err
}

// Inputs returns all history items in [from, upto), in order.
func (s *Store) Inputs(from, upto int) ([]Input, error) {
	var inputs []Input
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketInput).Cursor()
		for k, v := c.Seek(marshalSeq(uint64(from))); k != nil && unmarshalSeq(k) < uint64(upto); k, v = c.Next() {
			inputs = append(inputs, Input{Text: string(v), Seq: int(unmarshalSeq(k))})
		}
		return nil
	})
	return inputs, err
}

// NextInput finds the first input at or after the given sequence number
// with the given prefix.
func (s *Store) NextInput(from int, prefix string) (Input, error) {
	var input Input
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketInput).Cursor()
		p := []byte(prefix)
		for k, v := c.Seek(marshalSeq(uint64(from))); k != nil; k, v = c.Next() {
			if bytes.HasPrefix(v, p) {
				input = Input{Text: string(v), Seq: int(unmarshalSeq(k))}
				return nil
			}
		}
		return ErrNoMatchingInput
	})
	return input, err
}

// PrevInput finds the last input before the given sequence number with
// the given prefix.
func (s *Store) PrevInput(upto int, prefix string) (Input, error) {
	var input Input
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketInput).Cursor()
		p := []byte(prefix)

		var v []byte
		k, _ := c.Seek(marshalSeq(uint64(upto)))
		if k == nil { // upto is past the last entry
			k, v = c.Last()
			if k == nil {
				return ErrNoMatchingInput
			}
		} else {
			k, v = c.Prev() // upto exists, look before it
		}

		for ; k != nil; k, v = c.Prev() {
			if bytes.HasPrefix(v, p) {
				input = Input{Text: string(v), Seq: int(unmarshalSeq(k))}
				return nil
			}
		}
		return ErrNoMatchingInput
	})
	return input, err
}

func marshalSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

func unmarshalSeq(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}
