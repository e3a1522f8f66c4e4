// Package http binds the RPC protocol to HTTP. Unlike the framed unix
// and tcp transports there is no connection pooling or request ID
// bookkeeping here: every request is one POST to /rpc with the
// serialized message as body, and the response body is the serialized
// reply. net/http handles keep-alive and concurrency underneath.
//
// The server additionally exposes GET /metrics in Prometheus text
// format and installs a request logging middleware when the log level
// is debug. The client spreads requests round robin over the configured
// endpoints and retries failed requests with exponential backoff.
package http
