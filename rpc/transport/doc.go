// Package transport defines the byte-level contract between lock clients
// and lease servers. A transport moves opaque request and response byte
// slices; it knows nothing about the message protocol or the serializer
// on top of it.
//
// Three bindings exist as subpackages:
//
//   - unix: Unix domain sockets, lowest overhead for same-host setups
//   - tcp: plain TCP with the same framed protocol
//   - http: one POST /rpc round trip per request, easiest to put behind
//     existing infrastructure
//
// unix and tcp share their pooling, framing and retry logic through the
// base subpackage and differ only in how they dial and listen.
package transport
