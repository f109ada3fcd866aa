// Package common provides the data structures shared by the lock server, its
// clients and the transports.
//
// Key Components:
//
//   - Message: The single structure used for all requests and responses. It
//     is flat so that every serializer can encode it without reflection on
//     nested types. Factory functions exist for every request and response
//     kind, Message.LockOp and Message.ResponseError convert back to lock class types.
//
//   - MessageType: Enumeration of the session (hello) and lock class methods
//     (lock, unlock, break_lock, get_info, list_locks, assert_locked,
//     set_cookie). JSON encodes it by name.
//
//   - ServerConfig: Shards, Raft parameters, transport and socket options,
//     session secret, ledger sweeping and metrics settings. Provides helpers
//     to build Dragonboat configurations.
//
//   - ClientConfig: Endpoints, connection pooling, timeouts and retries.
//
//   - Logger: A Dragonboat logger.Factory that writes "LEVEL | pkg | msg"
//     lines. InitLoggers installs it and sets the levels of all packages.
package common
