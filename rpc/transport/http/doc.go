// Package http implements an HTTP transport for the lock server RPC system.
//
// Requests are POSTed to /<shardId> with the serialized message as body, the
// response body is the serialized reply. The remote address of the HTTP
// request is handed to the handler as the peer address.
//
// The server also serves GET /metrics in the Prometheus text format
// (VictoriaMetrics/metrics), which exposes the lock call counters and bid
// ledger gauges of the process. MetricsHandler can be mounted elsewhere when
// a socket transport is used.
//
// Thread Safety:
//
//	The client transport is thread-safe and can be used concurrently. It uses
//	an atomic round-robin counter to pick the endpoint of each attempt.
package http
