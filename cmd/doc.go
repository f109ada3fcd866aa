// Package cmd implements the command-line interface of objlock. It provides a
// hierarchical command structure with operations for running the server and
// interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Starts and configures the objlock server
//   - lock: Lock operations (acquire, release, break, info, list, assert,
//     set-cookie) and a load generator (bench)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// All flags can also be set as environment variables with the prefix
// OBJLOCK_ (e.g. OBJLOCK_TRANSPORT_ENDPOINTS), or in a .env / .env.local file.
//
// See objlock --help for a list of all commands.
package cmd
