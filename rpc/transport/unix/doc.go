// Package unix implements the Unix domain socket transport of the lock server
// RPC system, for clients on the same host as the server. It provides the
// unix specific connectors for the base package.
//
// Unix socket peers usually have no address, lockers acquired over this
// transport are stored with an empty address.
package unix
