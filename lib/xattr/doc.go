// Package xattr implements the object attribute store: named byte values
// attached to an object, the way extended attributes hang off a file.
//
// Attributes are kept in a storage pool (store.IStore). Each attribute lives
// under the key "<object>\x00<name>". Because the pool engines cannot
// enumerate keys, every object also has a name index at "<object>\x00"
// holding the sorted list of its attribute names, which List reads.
//
// Changes are grouped in a Batch. It reads through to the pool, buffers the
// writes and commits them as one store.Txn whose conditions are the values
// the batch has read. Index and attributes therefore never diverge, and two
// writers that raced on the same object cannot both commit: the second one
// gets ErrConflict. Within one process the object class executor serializes
// calls per object anyway, the conditions matter once several servers write
// to the same replicated pool.
package xattr
