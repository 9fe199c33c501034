// Package storage provides the layered key-value stores the simulated chain
// runs on: a root in-memory store, length-prefixed namespacing, and nestable
// copy-on-write transactions.
package storage

// Order controls the direction of a Range scan.
type Order int

const (
	Ascending  Order = 1
	Descending Order = 2
)

// Record is a single key-value pair returned by iterators.
type Record struct {
	Key   []byte
	Value []byte
}

// Iterator walks the records of a Range call. Callers must Close it when
// done. Key and Value are only valid while Valid returns true.
type Iterator interface {
	Valid() bool
	Next()
	Key() []byte
	Value() []byte
	Close() error
}

// ReadonlyStorage is the read side of a store. Range scans the half-open
// interval [start, end) in the given order; nil bounds are unbounded.
type ReadonlyStorage interface {
	Get(key []byte) []byte
	Range(start, end []byte, order Order) Iterator
}

// Storage adds mutation. Get returns nil for missing keys; Remove of a
// missing key is a no-op.
type Storage interface {
	ReadonlyStorage
	Set(key, value []byte)
	Remove(key []byte)
}

type emptyIterator struct{}

func (emptyIterator) Valid() bool   { return false }
func (emptyIterator) Next()         { panic("next on invalid iterator") }
func (emptyIterator) Key() []byte   { panic("key on invalid iterator") }
func (emptyIterator) Value() []byte { panic("value on invalid iterator") }
func (emptyIterator) Close() error  { return nil }

// NopIterator returns an iterator over nothing.
func NopIterator() Iterator { return emptyIterator{} }
