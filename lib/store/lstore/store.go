package lstore

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/objlock/lib/db"
	"github.com/ValentinKolb/objlock/lib/store"
)

type storeImpl struct {
	db    db.KVDB
	index atomic.Uint64
	// mu serializes writes, so a transaction sees no other write between
	// checking its conditions and applying its ops
	mu sync.Mutex
}

// NewLocalStore creates a new local storage pool.
// The pool is not replicated and only lives in the memory of this process.
func NewLocalStore(factory store.DBFactory) store.IStore {
	return &storeImpl{
		db: factory(),
	}
}

// incAndGetIndex increments the index and returns the new value.
// It is used to ensure that each write operation has a unique index.
//
// Thread-safety: This method is thread-safe since it uses atomic operations.
func (s *storeImpl) incAndGetIndex() uint64 {
	return s.index.Add(1)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Set(key string, value []byte) error {
	if !s.db.SupportsFeature(db.FeatureSet) {
		return store.NewError(store.RetCUnsupportedOperation, "Set operation is not supported")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.db.Set(key, value, s.incAndGetIndex())
	return nil
}

func (s *storeImpl) Delete(key string) error {
	if !s.db.SupportsFeature(db.FeatureDelete) {
		return store.NewError(store.RetCUnsupportedOperation, "Delete operation is not supported")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.db.Delete(key, s.incAndGetIndex())
	return nil
}

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	if !s.db.SupportsFeature(db.FeatureGet) {
		return nil, false, store.NewError(store.RetCUnsupportedOperation, "Get operation is not supported")
	}
	val, ok := s.db.Get(key)
	return val, ok, nil
}

func (s *storeImpl) Has(key string) (bool, error) {
	if !s.db.SupportsFeature(db.FeatureHas) {
		return false, store.NewError(store.RetCUnsupportedOperation, "Has operation is not supported")
	}
	return s.db.Has(key), nil
}

func (s *storeImpl) Commit(txn store.Txn) error {
	if f := txn.Features(); !s.db.SupportsFeature(f) {
		return store.NewError(store.RetCUnsupportedOperation, "Transaction is not supported")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if key, ok := txn.Check(s.db); !ok {
		return store.NewError(store.RetCConflict, fmt.Sprintf("condition on key %q failed", key))
	}
	txn.Apply(s.db, s.incAndGetIndex())
	return nil
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	return s.db.GetInfo(), nil
}
