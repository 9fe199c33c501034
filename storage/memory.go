package storage

import (
	dbm "github.com/cometbft/cometbft-db"
)

// MemoryStorage is the root store of a simulated chain, backed by an
// in-memory ordered database. The zero value is not usable; create one with
// NewMemoryStorage.
type MemoryStorage struct {
	db *dbm.MemDB
}

var _ Storage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{db: dbm.NewMemDB()}
}

func (s *MemoryStorage) Get(key []byte) []byte {
	v, err := s.db.Get(key)
	if err != nil {
		panic(err)
	}
	return v
}

func (s *MemoryStorage) Set(key, value []byte) {
	if value == nil {
		value = []byte{}
	}
	if err := s.db.Set(key, value); err != nil {
		panic(err)
	}
}

func (s *MemoryStorage) Remove(key []byte) {
	if err := s.db.Delete(key); err != nil {
		panic(err)
	}
}

func (s *MemoryStorage) Range(start, end []byte, order Order) Iterator {
	// the backing db treats empty bounds as invalid, not unbounded
	if len(start) == 0 {
		start = nil
	}
	if len(end) == 0 {
		end = nil
	}
	var (
		it  dbm.Iterator
		err error
	)
	if order == Descending {
		it, err = s.db.ReverseIterator(start, end)
	} else {
		it, err = s.db.Iterator(start, end)
	}
	if err != nil {
		panic(err)
	}
	return dbIterator{it}
}

type dbIterator struct {
	it dbm.Iterator
}

func (i dbIterator) Valid() bool   { return i.it.Valid() }
func (i dbIterator) Next()         { i.it.Next() }
func (i dbIterator) Key() []byte   { return i.it.Key() }
func (i dbIterator) Value() []byte { return i.it.Value() }
func (i dbIterator) Close() error  { return i.it.Close() }
