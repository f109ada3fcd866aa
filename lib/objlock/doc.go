// Package objlock implements advisory locks on objects: named exclusive or
// shared locks that clients acquire, renew, release and inspect, plus a bid
// based admission protocol that lets the lowest bidder win a race for an
// exclusive lock.
//
// The lock class runs as an object class method (see package objclass). Every
// operation reads the lock record, changes it in memory and writes it back.
// The executor runs one method per object at a time and commits the changes
// of a method as one transaction. If another server wrote the object in the
// meantime the commit fails and the caller gets ErrBusy.
//
// Key Components:
//
//   - Lock Record Codec (codec.go): Versioned binary encoding of LockInfo,
//     stored in the object attribute "lock.<name>". The same encoding is used
//     for get_info replies on the wire.
//
//   - Repository (repository.go): Reads a record, drops lockers whose
//     expiration has passed and removes ephemeral records left without
//     lockers. Writes and deletes records.
//
//   - Bid Ledger (bids.go): In-memory table of outstanding bids per object,
//     lock name and locker, shared by all pools of a server process. Objects
//     are keyed by their pool qualified durable id.
//     Buckets are indexed by their latest expiration in a util.MapHeap so a
//     bounded sweep every SweepEvery operations can evict abandoned buckets.
//
//   - Class (lock.go): The operations Lock, Unlock, BreakLock, GetInfo,
//     ListLocks, AssertLocked and SetCookie.
//
//   - IClient (client.go): Caller side interface implemented in process by
//     NewLocalClient and remotely by the rpc client.
//
// Acquire Sequence:
//
//  1. Validate the request (type, name, flags, bid only on exclusive locks).
//  2. Record the bid, if any. It stays in the ledger even if the attempt fails.
//  3. Read the record, purging expired lockers.
//  4. Reject a tag mismatch with existing lockers, before looking at renewals.
//  5. Handle an existing entry of the caller: ErrExists without a renew flag,
//     otherwise the entry is replaced. FlagMustRenew without an entry is ErrNotFound.
//  6. Reject exclusive requests while lockers remain, and shared requests on a
//     lock of another type.
//  7. For a fresh exclusive request with a bid, reject unless no unexpired bid
//     is lower.
//  8. Store the entry with its expiration and the requester's address in
//     legacy form.
//
// Errors:
//
//	All operations return *Error values. Branch on them with errors.Is and the
//	sentinels ErrInvalidArgument, ErrExists, ErrNotFound, ErrBusy and ErrIO.
//	A record that fails to decode is reported as ErrIO and logged, it is never
//	repaired. Decoding rejects records no operation could have written (an
//	unknown type, lockers on type none, several lockers on an exclusive lock),
//	so a broken invariant found after a release can only come from a bug in
//	the class itself and panics. A commit that lost against a concurrent
//	writer is ErrBusy.
//
// Fencing:
//
//	Locks are advisory. A client presenting a stale but unexpired cookie is
//	indistinguishable from the original holder.
package objlock
