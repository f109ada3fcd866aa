package xattr

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ValentinKolb/objlock/lib/store"
)

// ErrConflict is returned by Batch.Commit if another writer changed a key the
// batch has read
var ErrConflict = errors.New("xattr: concurrent modification")

// --------------------------------------------------------------------------
// Batch
// --------------------------------------------------------------------------

// Batch collects the attribute changes of one object and writes them with a
// single pool transaction. Reads see the pending writes of the batch. Every
// pool key read from the pool becomes a condition of the transaction, so
// Commit fails with ErrConflict if any of them changed in the meantime.
//
// A Batch is not safe for concurrent use and must not be reused after Commit.
type Batch struct {
	pool   store.IStore
	oid    string
	reads  map[string]store.Cond
	writes map[string]store.Op
	order  []string
}

func newBatch(pool store.IStore, oid string) *Batch {
	return &Batch{
		pool:   pool,
		oid:    oid,
		reads:  make(map[string]store.Cond),
		writes: make(map[string]store.Op),
	}
}

// get returns the value of a pool key as the batch sees it
func (b *Batch) get(key string) ([]byte, bool, error) {
	if op, ok := b.writes[key]; ok {
		return op.Value, !op.Delete, nil
	}
	if c, ok := b.reads[key]; ok {
		return c.Value, c.Exists, nil
	}

	value, ok, err := b.pool.Get(key)
	if err != nil {
		return nil, false, err
	}
	b.reads[key] = store.Cond{Key: key, Exists: ok, Value: value}
	return value, ok, nil
}

func (b *Batch) put(op store.Op) {
	if _, ok := b.writes[op.Key]; !ok {
		b.order = append(b.order, op.Key)
	}
	b.writes[op.Key] = op
}

// Get returns the value of an attribute. ok is false if the attribute does not exist.
func (b *Batch) Get(name string) ([]byte, bool, error) {
	return b.get(attrKey(b.oid, name))
}

// Set creates or overwrites an attribute.
func (b *Batch) Set(name string, value []byte) error {
	names, err := b.readIndex()
	if err != nil {
		return err
	}

	b.put(store.Op{Key: attrKey(b.oid, name), Value: value})

	i := sort.SearchStrings(names, name)
	if i < len(names) && names[i] == name {
		return nil
	}
	names = append(names, "")
	copy(names[i+1:], names[i:])
	names[i] = name
	b.writeIndex(names)
	return nil
}

// Remove deletes an attribute. Removing a missing attribute is not an error.
func (b *Batch) Remove(name string) error {
	names, err := b.readIndex()
	if err != nil {
		return err
	}

	b.put(store.Op{Key: attrKey(b.oid, name), Delete: true})

	i := sort.SearchStrings(names, name)
	if i == len(names) || names[i] != name {
		return nil
	}
	names = append(names[:i], names[i+1:]...)
	b.writeIndex(names)
	return nil
}

// List returns the names of all attributes in ascending order. Values are
// not fetched.
func (b *Batch) List() ([]string, error) {
	names, err := b.readIndex()
	if err != nil {
		return nil, err
	}

	// index and attributes are committed together, a name without a value
	// only shows up in pools written by other means
	live := names[:0]
	for _, name := range names {
		key := attrKey(b.oid, name)
		if op, ok := b.writes[key]; ok {
			if !op.Delete {
				live = append(live, name)
			}
			continue
		}
		ok, err := b.pool.Has(key)
		if err != nil {
			return nil, err
		}
		if ok {
			live = append(live, name)
		}
	}
	return live, nil
}

// Dirty reports whether the batch holds uncommitted writes
func (b *Batch) Dirty() bool {
	return len(b.order) > 0
}

// Commit writes all pending changes. A batch without writes commits nothing.
func (b *Batch) Commit() error {
	if !b.Dirty() {
		return nil
	}

	txn := store.Txn{
		Conds: make([]store.Cond, 0, len(b.reads)),
		Ops:   make([]store.Op, 0, len(b.order)),
	}
	for _, c := range b.reads {
		txn.Conds = append(txn.Conds, c)
	}
	sort.Slice(txn.Conds, func(i, j int) bool { return txn.Conds[i].Key < txn.Conds[j].Key })
	for _, key := range b.order {
		txn.Ops = append(txn.Ops, b.writes[key])
	}

	err := b.pool.Commit(txn)
	if errors.Is(err, store.ErrConflict) {
		return fmt.Errorf("%w: object %q: %v", ErrConflict, b.oid, err)
	}
	return err
}

// --------------------------------------------------------------------------
// Name Index
// --------------------------------------------------------------------------

// readIndex returns a private copy of the object's sorted attribute names
func (b *Batch) readIndex() ([]string, error) {
	data, ok, err := b.get(indexKey(b.oid))
	if err != nil || !ok {
		return nil, err
	}
	return decodeNames(data)
}

func (b *Batch) writeIndex(names []string) {
	if len(names) == 0 {
		b.put(store.Op{Key: indexKey(b.oid), Delete: true})
		return
	}
	b.put(store.Op{Key: indexKey(b.oid), Value: encodeNames(names)})
}
