// Package transport defines the interfaces for RPC communication between lock
// clients and lock servers. It provides a common contract that all transport
// implementations must fulfill, enabling protocol-agnostic communication.
//
// Key Components:
//
//   - IRPCClientTransport: Interface for client-side transport implementations that
//     handles connection management and request sending.
//
//   - IRPCServerTransport: Interface for server-side transport implementations that
//     receives requests and routes them to appropriate handlers.
//
//   - ServerHandleFunc: Function type for request handling callbacks. Besides
//     the shard and payload it receives the Peer, the remote address the
//     transport observed. The lock class records it as the locker address.
package transport
