// Package base implements the socket transports of the lock server RPC system
// independent of the network protocol (TCP, Unix sockets). Protocol specific
// packages only provide connectors.
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific operations
//     (dial, listen, socket options).
//
//   - clientTransport: Manages multiple connections per endpoint with
//     round-robin selection. Requests are written as frames and correlated
//     with their responses by request id, so many requests can be in flight
//     on one connection. A broken connection fails its pending requests and
//     is re-dialed by its reader goroutine with exponential backoff.
//
//   - serverTransport: Accepts connections, reads frames and hands each one to
//     the registered handler together with the peer address. Every connection
//     has a bounded number of workers (ServerTransportConf.WorkersPerConn).
//
// Frame Format:
//
//	8 bytes shard id | 8 bytes request id | 4 bytes length | payload
//
//	All integers are big endian.
//
// Buffer Pooling:
//
//	The server reads frames into buffers from a sync.Pool of
//	ServerTransportConf.BufferSize bytes. Larger frames get a temporary buffer.
//
// Thread Safety:
//
//	All public methods are thread-safe. Writes to a connection are serialized
//	by a mutex, reads happen on one goroutine per connection.
package base
