// Package monitoring provides Prometheus metrics for the session
// manager: HTTP request instrumentation plus counters and gauges for
// saves, restores, evictions, imports, storage usage, and WebSocket
// traffic.
package monitoring
