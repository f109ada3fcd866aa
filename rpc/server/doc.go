// Package server implements the lock server: it receives requests from a
// transport, verifies the session of the caller and runs the lock class
// method on the addressed object.
//
// Key Components:
//
//   - rpcServer: Owns the shards, the session issuer and the lock class.
//     Requests are deserialized, routed by shard id to their pool and
//     answered through the adapter. Each shard is a storage pool backed by
//     lstore (single node) or dstore (Raft replicated through Dragonboat).
//
//   - serverShard: A pool together with its attribute store, the
//     objclass.Executor that serializes calls per object and, for replicated
//     pools, the leader gate.
//
//   - lockClassServerAdapter: Maps messages to objlock.Class methods. The
//     requester identity comes from the verified session ticket, the address
//     from the transport. Ticket, object id and entity name failures are
//     reported as invalid-argument, lock errors keep their code.
//
// Bid Ledger:
//
//	There is one objlock.BidLedger per process. It is in-memory state of the
//	node, not part of the replicated pool, and is shared by all shards. Bids
//	are keyed by "<shard id>/<object id>", so objects with the same id in
//	different shards never compete.
//
// Replicated Pools:
//
//	A lock call on a remote shard is only accepted by the node that currently
//	leads the raft shard (NodeHost.GetLeaderID), other nodes answer busy.
//	That keeps all bids of a pool in one ledger. The attribute changes of a call are committed as one conditional
//	transaction applied inside the state machine, so even two nodes that both
//	believe to lead during an election cannot both grant the same exclusive
//	lock: the later commit fails its condition and is reported as busy.
//
// Sessions:
//
//	A hello request opens a session: the server allocates a fresh client.<n>
//	identity and returns it with a signed ticket (package session). Servers
//	sharing AuthSecret accept each other's tickets.
//
// Metrics:
//
//	The lock class counts calls per operation and result, the server records
//	request durations per message type. Both are exposed in the Prometheus
//	format on /metrics of the HTTP transport or on MetricsEndpoint.
//
// Usage:
//
//	s := server.NewRPCServer(config, tcp.NewTCPServerTransport(), serializer.NewBinarySerializer())
//	if err := s.Serve(); err != nil {
//	    log.Fatal(err)
//	}
package server
