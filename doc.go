// Package wsclient is an embeddable client-side WebSocket library.
//
// A Handle dials a single WebSocket connection over plaintext TCP, performs
// the RFC 6455 opening handshake, and exchanges framed text and binary
// messages with the remote server. A single background worker goroutine per
// Handle drives all I/O; the host application configures the Handle,
// connects, sends, and disconnects from any goroutine without ever blocking
// on network I/O itself. Received messages and lifecycle events are
// delivered to host-registered callbacks, always invoked from the worker
// goroutine.
//
// TLS, server-role behavior, protocol extensions, and reconnect policy are
// out of scope for this package.
package wsclient
