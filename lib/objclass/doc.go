// Package objclass provides the execution environment for object class
// methods such as the lock class.
//
// A method is a function that runs on the node owning an object and reads or
// modifies the object's attributes through a Context. The environment gives
// two guarantees methods rely on:
//
//   - Serialization: Executor.Exec never runs two methods on the same object
//     at the same time within one process.
//
//   - Atomic commit: The attribute changes of a method are buffered and
//     committed as one pool transaction, conditioned on everything the method
//     has read. If another process wrote to the object in between, nothing is
//     applied and Exec reports ErrConflict.
//
//   - Verified origin: Context.Origin returns the identity established by the
//     server (see package session) and the peer address reported by the
//     transport. It is never taken from the request payload.
//
// Objects are addressed by their id within a pool. Context.DurableID adds the
// pool id, which keeps state held outside the pool (such as bids) apart for
// objects of the same name in different pools.
//
// Entity names ("client.4123") and addresses are defined here as well, since
// the environment is what produces them.
package objclass
