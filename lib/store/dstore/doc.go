// Package dstore implements a replicated storage pool using the Dragonboat
// RAFT consensus library. It provides a strongly consistent implementation of
// the store.IStore interface, so the lock records of a pool survive the loss of
// a minority of nodes.
//
// Architecture:
//
//   - Store Client: Implements store.IStore. Writes are serialized into
//     commands and proposed to the shard, reads are run as queries.
//
//   - State Machine: A Dragonboat IConcurrentStateMachine (PoolStateMachine)
//     that owns a db.KVDB instance and applies committed commands to it.
//
//   - Communication Protocol: The Command and Query structures of the internal
//     package.
//
// Write Operations:
//
//	Set and Delete are serialized, proposed via SyncPropose and applied on each
//	replica once committed. The raft log index is used as the write index, which
//	gives every replica the same ordering.
//
//	Commit proposes a Txn command. Its conditions are checked inside Update,
//	which the state machine runs serially, so the check and the writes are one
//	atomic step on every replica. A failed condition is returned as
//	RetCConflict. This is what keeps two nodes from granting the same lock on
//	the strength of the same read.
//
// Read Operations:
//
//   - Linearizable Reads: Get and Has use SyncRead, so a read always observes
//     every write committed before it. Lock arbitration depends on this.
//
//   - Stale Reads: GetDBInfo uses StaleRead.
//
// Error Handling and Retries:
//
//	When Dragonboat returns ErrSystemBusy, the operation is retried after a
//	short delay, up to a fixed number of attempts. Every attempt is bounded by
//	the configured timeout.
//
// Snapshotting and Recovery:
//
//	Snapshots are fuzzy: SaveSnapshot calls db.KVDB.Save without pausing
//	writes. On recovery the node loads the snapshot and then replays the log
//	entries committed after it.
//
// Example:
//
//	nh, err := dragonboat.NewNodeHost(nodeHostConfig)
//	if err != nil { ... }
//
//	dbFactory := func() db.KVDB { return maple.NewMapleDB(nil) }
//
//	err = nh.StartConcurrentReplica(
//	    members,
//	    false,
//	    dstore.CreateStateMaschineFactory(dbFactory),
//	    shardConfig)
//	if err != nil { ... }
//
//	pool := dstore.NewDistributedStore(nh, shardID, 5*time.Second)
package dstore
