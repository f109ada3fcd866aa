// Package lstore implements a local, in-memory storage pool based on the
// store.IStore interface. It is a thin wrapper around any db.KVDB engine that
// supplies the write index from an atomic counter. Data is not persisted
// between process restarts.
//
// Before executing an operation the store checks whether the engine supports
// it (db.KVDB.SupportsFeature) and returns store.RetCUnsupportedOperation if
// not.
//
// Usage Example:
//
//	factory := func() db.KVDB { return maple.NewMapleDB(nil) }
//	pool := lstore.NewLocalStore(factory)
//
//	err := pool.Set("rbd_header.1\x00lock.rbd_lock", record)
//	value, exists, err := pool.Get("rbd_header.1\x00lock.rbd_lock")
package lstore
