// Package session establishes requester identities.
//
// The lock class must never trust an identity taken from a request payload.
// Instead a client opens a session with a hello request: the server allocates
// a fresh entity name ("client.<n>") and returns it together with a ticket, an
// HS256 signed JWT carrying the name and the client's nonce. Every later
// request carries the ticket, the server verifies signature and expiry and
// uses the name from the ticket as the locker identity.
//
// Tickets survive reconnects and can be shared by several connections of the
// same client. With a configured secret they also survive server restarts and
// are accepted by every server of a cluster that shares the secret.
package session
