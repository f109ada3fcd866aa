package xattr

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ValentinKolb/objlock/lib/store"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// ErrCorruptIndex is returned if the name index of an object cannot be decoded
var ErrCorruptIndex = errors.New("xattr: corrupt attribute index")

// IAttrStore stores named byte values (extended attributes) per object.
//
// Set and Remove update the attribute and the name index of the object with
// one pool transaction. Callers that read before they write use a Batch, so
// the whole read-modify-write sequence is committed atomically.
type IAttrStore interface {
	// Get returns the value of an attribute. ok is false if the attribute does not exist.
	Get(oid, name string) (value []byte, ok bool, err error)
	// Set creates or overwrites an attribute.
	Set(oid, name string, value []byte) error
	// Remove deletes an attribute. Removing a missing attribute is not an error.
	Remove(oid, name string) error
	// List returns the names of all attributes of an object in ascending order.
	List(oid string) ([]string, error)
	// Begin starts a batch of changes on one object.
	Begin(oid string) *Batch
}

// --------------------------------------------------------------------------
// Implementation
// --------------------------------------------------------------------------

// storeImpl keeps every attribute under its own key of the pool and an
// additional index key per object holding the attribute names.
type storeImpl struct {
	pool store.IStore
}

// NewAttrStore creates an attribute store on top of a storage pool.
func NewAttrStore(pool store.IStore) IAttrStore {
	return &storeImpl{pool: pool}
}

// attrKey returns the pool key of an attribute. Object ids must not contain
// a NUL byte, which the RPC layer enforces.
func attrKey(oid, name string) string {
	return oid + "\x00" + name
}

// indexKey returns the pool key of an object's name index.
// It sorts before every attribute key of the same object.
func indexKey(oid string) string {
	return oid + "\x00"
}

func (s *storeImpl) Begin(oid string) *Batch {
	return newBatch(s.pool, oid)
}

func (s *storeImpl) Get(oid, name string) ([]byte, bool, error) {
	return s.pool.Get(attrKey(oid, name))
}

func (s *storeImpl) Set(oid, name string, value []byte) error {
	b := s.Begin(oid)
	if err := b.Set(name, value); err != nil {
		return err
	}
	return b.Commit()
}

func (s *storeImpl) Remove(oid, name string) error {
	b := s.Begin(oid)
	if err := b.Remove(name); err != nil {
		return err
	}
	return b.Commit()
}

func (s *storeImpl) List(oid string) ([]string, error) {
	return s.Begin(oid).List()
}

// --------------------------------------------------------------------------
// Name Index
// --------------------------------------------------------------------------

// encodeNames writes a uint32 count followed by length prefixed names (big endian)
func encodeNames(names []string) []byte {
	size := 4
	for _, n := range names {
		size += 4 + len(n)
	}
	buf := make([]byte, 4, size)
	binary.BigEndian.PutUint32(buf, uint32(len(names)))
	for _, n := range names {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(n)))
		buf = append(buf, n...)
	}
	return buf
}

func decodeNames(data []byte) ([]string, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: short header", ErrCorruptIndex)
	}
	count := binary.BigEndian.Uint32(data)
	data = data[4:]

	// every name needs at least its length prefix
	if uint64(count)*4 > uint64(len(data)) {
		return nil, fmt.Errorf("%w: count %d exceeds data", ErrCorruptIndex, count)
	}

	names := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(data) < 4 {
			return nil, fmt.Errorf("%w: truncated name length", ErrCorruptIndex)
		}
		n := binary.BigEndian.Uint32(data)
		data = data[4:]
		if uint64(n) > uint64(len(data)) {
			return nil, fmt.Errorf("%w: truncated name", ErrCorruptIndex)
		}
		names = append(names, string(data[:n]))
		data = data[n:]
	}
	if len(data) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptIndex, len(data))
	}
	return names, nil
}
