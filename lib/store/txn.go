package store

import (
	"bytes"

	"github.com/ValentinKolb/objlock/lib/db"
)

// --------------------------------------------------------------------------
// Transactions
// --------------------------------------------------------------------------

// Cond is a precondition on the current state of one key
type Cond struct {
	Key    string
	Exists bool   // The key must exist (true) or be absent (false)
	Value  []byte // Expected value if Exists is set
}

// Op is a single write of a transaction
type Op struct {
	Key    string
	Delete bool   // Delete the key instead of setting Value
	Value  []byte // New value, ignored for deletes
}

// Txn groups writes that are applied all at once, and only if every
// condition still holds. It is the compare-and-swap primitive used to turn
// a read-modify-write sequence into a single atomic pool operation.
type Txn struct {
	Conds []Cond
	Ops   []Op
}

// Features returns the db features needed to check and apply t
func (t *Txn) Features() db.Feature {
	var f db.Feature
	if len(t.Conds) > 0 {
		f |= db.FeatureGet
	}
	for _, op := range t.Ops {
		if op.Delete {
			f |= db.FeatureDelete
		} else {
			f |= db.FeatureSet
		}
	}
	return f
}

// Check returns the key of the first condition that does not hold in kv.
// ok is true if all conditions hold.
func (t *Txn) Check(kv db.KVDB) (key string, ok bool) {
	for _, c := range t.Conds {
		val, found := kv.Get(c.Key)
		if found != c.Exists || (found && !bytes.Equal(val, c.Value)) {
			return c.Key, false
		}
	}
	return "", true
}

// Apply performs the writes of t in order, all with the same write index.
// The caller has to check the conditions first and exclude other writers.
func (t *Txn) Apply(kv db.KVDB, index uint64) {
	for _, op := range t.Ops {
		if op.Delete {
			kv.Delete(op.Key, index)
		} else {
			kv.Set(op.Key, op.Value, index)
		}
	}
}
