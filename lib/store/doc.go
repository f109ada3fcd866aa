// Package store defines storage pools: flat key-value namespaces in which the
// attributes of objects live. It is the abstraction layer between the
// attribute store (package xattr) and the db.KVDB engines.
//
// Key Components:
//
//   - IStore Interface: The operations a pool offers (Set, Delete, Get, Has,
//     Commit and GetDBInfo). Implementations return *Error values carrying a
//     RetCode.
//
//   - Transactions: A Txn bundles conditions on keys with a list of writes.
//     Commit applies the writes atomically if every condition holds and fails
//     with RetCConflict otherwise. Multi key updates of the attribute store
//     and all lock state changes go through it.
//
//   - Error System: Typed error codes with descriptive messages, so callers can
//     tell an unsupported engine apart from an internal failure.
//
//   - DBFactory: Abstracts the creation of the underlying db.KVDB instance.
//
// Implementations:
//
//	- Local Store (lstore): Uses a db.KVDB instance directly and advances the
//	  write index with an atomic counter. Suitable for single node servers.
//
//	- Distributed Store (dstore): Replicates every write through a Dragonboat
//	  RAFT shard, so the lock records survive the loss of a minority of nodes.
package store
