// Package maple implements a sharded in-memory key-value database (KVDB).
// It backs every storage pool of the lock server: attribute values, and with
// them the encoded lock records, are stored here.
//
// Key Components:
//
//   - mapleImpl: The database structure implementing db.KVDB. It owns a fixed
//     number of shards and a monotonically increasing write index. The write
//     index itself is supplied by the caller (an atomic counter in lstore, the
//     raft log index in dstore).
//
//   - shard: A partition of the key space backed by an xsync.MapOf. Keys are
//     spread across shards with util.HashString and a per-instance seed, right
//     shifted by 7 bits to use the higher-quality bits.
//
// Stale Write Prevention:
//
//	Each entry stores the write index that produced it. Set and Delete are
//	only applied if their index is not lower than the stored one.
//
// Persistence Format:
//
//	Save writes a fuzzy snapshot (not a consistent cut) in a compact binary
//	format: magic number "MAPLEDB\x00", version, entry count, then for each
//	entry key length, key, index, value length and value. Load expects the
//	caller to hand it a consistent snapshot, which Dragonboat does.
package maple
