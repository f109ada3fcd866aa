// Package tcp implements the TCP socket transport of the lock server RPC
// system. It provides the tcp specific connectors for the base package, which
// implements framing, connection pooling and request routing.
//
// Key Components:
//
//   - clientConnector: Dials endpoints with the client timeout and applies
//     the socket options of common.SocketConf.
//
//   - serverConnector: Listens on ServerConfig.Transport.Endpoint and applies
//     the socket options to every accepted connection.
//
// The remote address of a connection is passed to the handler as the peer
// address, the lock class stores it with every locker entry.
package tcp
