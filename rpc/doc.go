// Package rpc provides the network layer of the lock server. It carries lock
// class calls from clients to the server process that owns the addressed
// object pool (shard).
//
// The package is organized into several subpackages:
//
//   - common: The Message protocol, server and client configuration and the
//     logger setup shared by all components.
//
//   - transport: Network communication abstractions with pluggable
//     implementations (TCP, Unix sockets, HTTP).
//
//   - serializer: Message serialization with multiple format options (Binary,
//     JSON, GOB) for converting between Message objects and byte arrays.
//
//   - client: RPCLockClient, the remote implementation of objlock.IClient.
//
//   - server: The RPC server. It opens sessions, authenticates requests and
//     runs the lock class on the local or replicated pool of each shard.
package rpc
