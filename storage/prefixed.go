package storage

import "encoding/binary"

// ToLengthPrefixed encodes a namespace element as a two byte big-endian
// length followed by the element bytes. Length prefixing keeps sibling
// namespaces from producing overlapping key ranges.
func ToLengthPrefixed(namespace []byte) []byte {
	return concat(encodeLength(namespace), namespace)
}

// ToLengthPrefixedNested encodes a multi level namespace, each element
// length-prefixed in order.
func ToLengthPrefixedNested(namespaces [][]byte) []byte {
	length := 0
	for _, ns := range namespaces {
		length += 2 + len(ns)
	}
	out := make([]byte, 0, length)
	for _, ns := range namespaces {
		out = append(out, encodeLength(ns)...)
		out = append(out, ns...)
	}
	return out
}

func encodeLength(namespace []byte) []byte {
	if len(namespace) > 0xFFFF {
		panic("only supports namespaces up to length 0xFFFF")
	}
	out := make([]byte, 2)
	binary.BigEndian.PutUint16(out, uint16(len(namespace)))
	return out
}

func concat(parts ...[]byte) []byte {
	length := 0
	for _, p := range parts {
		length += len(p)
	}
	out := make([]byte, 0, length)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// PrefixedStorage exposes the keys under one namespace of a parent store.
// All keys are transparently prefixed on the way in and stripped on the way
// out, so two sibling namespaces can never observe each other's data.
type PrefixedStorage struct {
	parent Storage
	prefix []byte
}

var _ Storage = (*PrefixedStorage)(nil)

func NewPrefixedStorage(parent Storage, namespace []byte) *PrefixedStorage {
	return &PrefixedStorage{parent: parent, prefix: ToLengthPrefixed(namespace)}
}

// NewMultilevelPrefixedStorage nests namespaces, outermost first.
func NewMultilevelPrefixedStorage(parent Storage, namespaces [][]byte) *PrefixedStorage {
	return &PrefixedStorage{parent: parent, prefix: ToLengthPrefixedNested(namespaces)}
}

func (s *PrefixedStorage) Get(key []byte) []byte {
	return s.parent.Get(concat(s.prefix, key))
}

func (s *PrefixedStorage) Set(key, value []byte) {
	s.parent.Set(concat(s.prefix, key), value)
}

func (s *PrefixedStorage) Remove(key []byte) {
	s.parent.Remove(concat(s.prefix, key))
}

func (s *PrefixedStorage) Range(start, end []byte, order Order) Iterator {
	return rangeWithPrefix(s.parent, s.prefix, start, end, order)
}

// ReadonlyPrefixedStorage is the read-only view of a namespace. Writes
// panic; handing one out guarantees the callee cannot mutate state.
type ReadonlyPrefixedStorage struct {
	parent ReadonlyStorage
	prefix []byte
}

var _ Storage = (*ReadonlyPrefixedStorage)(nil)

func NewReadonlyPrefixedStorage(parent ReadonlyStorage, namespace []byte) *ReadonlyPrefixedStorage {
	return &ReadonlyPrefixedStorage{parent: parent, prefix: ToLengthPrefixed(namespace)}
}

func NewMultilevelReadonlyPrefixedStorage(parent ReadonlyStorage, namespaces [][]byte) *ReadonlyPrefixedStorage {
	return &ReadonlyPrefixedStorage{parent: parent, prefix: ToLengthPrefixedNested(namespaces)}
}

func (s *ReadonlyPrefixedStorage) Get(key []byte) []byte {
	return s.parent.Get(concat(s.prefix, key))
}

func (s *ReadonlyPrefixedStorage) Set(_, _ []byte) {
	panic("cannot call Set on ReadonlyPrefixedStorage")
}

func (s *ReadonlyPrefixedStorage) Remove(_ []byte) {
	panic("cannot call Remove on ReadonlyPrefixedStorage")
}

func (s *ReadonlyPrefixedStorage) Range(start, end []byte, order Order) Iterator {
	return rangeWithPrefix(s.parent, s.prefix, start, end, order)
}

func rangeWithPrefix(parent ReadonlyStorage, prefix, start, end []byte, order Order) Iterator {
	lo := concat(prefix, start)
	var hi []byte
	if end == nil {
		hi = prefixUpperBound(prefix)
	} else {
		hi = concat(prefix, end)
	}
	return &prefixIterator{it: parent.Range(lo, hi, order), strip: len(prefix)}
}

// prefixUpperBound returns the lowest key greater than every key with the
// given prefix, or nil if no such key exists.
func prefixUpperBound(prefix []byte) []byte {
	out := make([]byte, len(prefix))
	copy(out, prefix)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] < 0xFF {
			out[i]++
			return out[:i+1]
		}
	}
	return nil
}

type prefixIterator struct {
	it    Iterator
	strip int
}

func (i *prefixIterator) Valid() bool   { return i.it.Valid() }
func (i *prefixIterator) Next()         { i.it.Next() }
func (i *prefixIterator) Key() []byte   { return i.it.Key()[i.strip:] }
func (i *prefixIterator) Value() []byte { return i.it.Value() }
func (i *prefixIterator) Close() error  { return i.it.Close() }
