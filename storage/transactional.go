package storage

import (
	"bytes"

	"github.com/google/btree"
)

// delta is one buffered write. A delete marker shadows the parent key until
// the transaction is committed or dropped.
type delta struct {
	key    []byte
	value  []byte
	delete bool
}

func deltaLess(a, b delta) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// StorageTransaction buffers writes on top of a parent store. Reads fall
// through to the parent for keys the transaction has not touched. Nothing
// reaches the parent until Prepare's RepLog is committed; dropping the
// transaction discards every buffered write. Transactions nest to any depth
// by using one transaction as the parent of the next.
type StorageTransaction struct {
	parent ReadonlyStorage
	local  *btree.BTreeG[delta]
}

var _ Storage = (*StorageTransaction)(nil)

func NewTransaction(parent ReadonlyStorage) *StorageTransaction {
	return &StorageTransaction{
		parent: parent,
		local:  btree.NewG(8, deltaLess),
	}
}

func (s *StorageTransaction) Get(key []byte) []byte {
	if d, ok := s.local.Get(delta{key: key}); ok {
		if d.delete {
			return nil
		}
		return d.value
	}
	return s.parent.Get(key)
}

func (s *StorageTransaction) Set(key, value []byte) {
	// nil values are stored as empty, matching MemoryStorage, so a buffered
	// write reads the same before and after commit
	if value == nil {
		value = []byte{}
	}
	s.local.ReplaceOrInsert(delta{key: copyBytes(key), value: copyBytes(value)})
}

func (s *StorageTransaction) Remove(key []byte) {
	s.local.ReplaceOrInsert(delta{key: copyBytes(key), delete: true})
}

func (s *StorageTransaction) Range(start, end []byte, order Order) Iterator {
	return &mergeIterator{
		parent: s.parent.Range(start, end, order),
		local:  s.localRange(start, end, order),
		order:  order,
	}
}

// localRange snapshots the buffered deltas falling in [start, end), in scan
// order. Delete markers are included so the merge can shadow parent records.
func (s *StorageTransaction) localRange(start, end []byte, order Order) []delta {
	var out []delta
	collect := func(d delta) bool {
		out = append(out, d)
		return true
	}
	switch {
	case start == nil && end == nil:
		s.local.Ascend(collect)
	case start == nil:
		s.local.AscendLessThan(delta{key: end}, collect)
	case end == nil:
		s.local.AscendGreaterOrEqual(delta{key: start}, collect)
	default:
		s.local.AscendRange(delta{key: start}, delta{key: end}, collect)
	}
	if order == Descending {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// Prepare extracts the buffered writes as a replayable log. The transaction
// must not be used afterwards.
func (s *StorageTransaction) Prepare() RepLog {
	ops := make([]delta, 0, s.local.Len())
	s.local.Ascend(func(d delta) bool {
		ops = append(ops, d)
		return true
	})
	return RepLog{ops: ops}
}

// RepLog is the ordered write set of a prepared transaction.
type RepLog struct {
	ops []delta
}

// Commit replays the log against the given store, normally the parent the
// transaction was built on.
func (r RepLog) Commit(target Storage) {
	for _, op := range r.ops {
		if op.delete {
			target.Remove(op.key)
		} else {
			target.Set(op.key, op.value)
		}
	}
}

// Transactional runs fn inside a fresh transaction on parent. On success the
// buffered writes are committed to parent as one unit; on error they are
// discarded and parent is untouched.
func Transactional[R any](parent Storage, fn func(sub Storage) (R, error)) (R, error) {
	sub := NewTransaction(parent)
	res, err := fn(sub)
	if err != nil {
		var zero R
		return zero, err
	}
	sub.Prepare().Commit(parent)
	return res, nil
}

type mergeIterator struct {
	parent  Iterator
	local   []delta
	idx     int
	order   Order
	started bool
	current Record
	valid   bool
}

func (m *mergeIterator) Valid() bool {
	if !m.started {
		m.started = true
		m.advance()
	}
	return m.valid
}

func (m *mergeIterator) Next() {
	if !m.Valid() {
		panic("next on invalid iterator")
	}
	m.advance()
}

func (m *mergeIterator) Key() []byte {
	m.mustBeValid()
	return m.current.Key
}

func (m *mergeIterator) Value() []byte {
	m.mustBeValid()
	return m.current.Value
}

func (m *mergeIterator) Close() error { return m.parent.Close() }

func (m *mergeIterator) mustBeValid() {
	if !m.Valid() {
		panic("iterator is invalid")
	}
}

// advance picks the next record from whichever source comes first in scan
// order. Buffered deltas shadow parent records with the same key; delete
// markers swallow both sides and yield nothing.
func (m *mergeIterator) advance() {
	for {
		haveParent := m.parent.Valid()
		haveLocal := m.idx < len(m.local)
		switch {
		case !haveParent && !haveLocal:
			m.valid = false
			return
		case !haveParent:
			d := m.local[m.idx]
			m.idx++
			if d.delete {
				continue
			}
			m.emit(d.key, d.value)
			return
		case !haveLocal:
			m.emit(m.parent.Key(), m.parent.Value())
			m.parent.Next()
			return
		}

		d := m.local[m.idx]
		cmp := bytes.Compare(m.parent.Key(), d.key)
		if m.order == Descending {
			cmp = -cmp
		}
		switch {
		case cmp < 0:
			m.emit(m.parent.Key(), m.parent.Value())
			m.parent.Next()
			return
		case cmp > 0:
			m.idx++
			if d.delete {
				continue
			}
			m.emit(d.key, d.value)
			return
		default:
			m.parent.Next()
			m.idx++
			if d.delete {
				continue
			}
			m.emit(d.key, d.value)
			return
		}
	}
}

func (m *mergeIterator) emit(key, value []byte) {
	m.current = Record{Key: copyBytes(key), Value: copyBytes(value)}
	m.valid = true
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
