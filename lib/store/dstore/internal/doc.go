// Package internal defines the structures exchanged between the dstore client
// and its replicated state machine.
//
//   - Command: A write operation (Set, Delete or Txn). Commands are
//     serialized, proposed to the RAFT shard and applied on every replica.
//
//   - Txn: The payload of a Txn command. EncodeTxn and DecodeTxn convert a
//     store.Txn to and from its binary form.
//
//   - Query: A read operation (Get, Has or GetDBInfo). Queries run on the local
//     replica and are passed as Go values, so they need no serialization.
//
// Command Format:
//
//	- 1 byte: Command type
//	- 4 bytes: Key length (uint32, big endian)
//	- N bytes: Key data
//	- M bytes: Value data (the remainder, empty for Delete)
//
// Txn Format (all integers big endian, byte strings uint32 length prefixed):
//
//	- uint32 condition count, per condition: 1 byte exists flag, key, value
//	- uint32 op count, per op: 1 byte delete flag, key, value
package internal
