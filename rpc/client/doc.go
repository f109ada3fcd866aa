// Package client implements the RPC client of the lock server.
// RPCLockClient implements objlock.IClient and forwards every call to a
// remote server via the configured transport and serializer.
//
// Sessions:
//
//	A client needs an identity before it can lock anything. NewRPCLockClient
//	either sends a hello request, which returns a fresh entity name plus a
//	signed session ticket, or resumes the session of a ticket from an earlier
//	run. The ticket is attached to every request, the server derives the
//	requester from it. Keep the ticket (RPCLockClient.Ticket) to release or
//	renew locks from another process later on.
//
// Errors:
//
//	Lock class errors are transported as return codes and rebuilt as
//	*objlock.Error on the client, so errors.Is(err, objlock.ErrBusy) works the
//	same for local and remote clients. Transport failures are returned as
//	plain errors.
//
// Usage Example:
//
//	config := common.ClientConfig{
//		TimeoutSecond: 5,
//		Transport: common.ClientTransportConf{
//			Endpoints:  []string{"localhost:8080"},
//			RetryCount: 3,
//		},
//	}
//
//	c, err := client.NewRPCLockClient(
//		1, // shard id
//		config,
//		tcp.NewTCPClientTransport(),
//		serializer.NewBinarySerializer(),
//		"", // no ticket, open a new session
//	)
//	if err != nil {
//		panic(err)
//	}
//	defer c.Close()
//
//	err = c.Lock("my-object", objlock.LockOp{
//		Name:     "writer",
//		Type:     objlock.LockTypeExclusive,
//		Cookie:   "c1",
//		Duration: 30 * time.Second,
//	})
//	if errors.Is(err, objlock.ErrBusy) {
//		// someone else holds the lock
//	}
package client
