// Package db provides a standardized interface for the key-value engines that
// sit underneath the object attribute store.
//
// Key Components:
//
//   - KVDB Interface: The interface all engines satisfy. It provides the basic
//     operations (Set, Get, Has, Delete), persistence (Save, Load) used for
//     raft snapshots, and write index bookkeeping.
//
//   - Feature Flags: The Feature type defines capability flags that engines
//     advertise through SupportsFeature. Stores check them before forwarding
//     an operation.
//
//   - Database Information: DatabaseInfo reports entry counts, estimated size
//     and the engine type.
//
// Note on Write Indexes:
//   - Every write carries a write index (a logical timestamp). The local store
//     uses an atomic counter, the distributed store uses the raft log index.
//   - Implementations must ignore writes whose index is lower than the index
//     already stored for that key, and the global index only ever increases.
//
// Related Packages:
//
// The engines/maple package provides a sharded in-memory implementation.
//
// The testing package provides RunKVDBTests, a conformance suite every engine
// is expected to pass.
package db
