package wsclient

import (
	"net"
	"sync"
	"time"

	"github.com/arqio/wsclient/internal/wslog"
)

// OnConnectedFunc is invoked once, on the worker goroutine, after a
// successful handshake.
type OnConnectedFunc func(h *Handle)

// OnDisconnectedFunc is invoked exactly once, on the worker goroutine,
// after any terminal transition. h.LastError() is queryable from inside
// the callback.
type OnDisconnectedFunc func(h *Handle)

// OnTextFunc is invoked, on the worker goroutine, after a text message has
// been fully reassembled.
type OnTextFunc func(h *Handle, data []byte)

// OnBinaryFunc is invoked, on the worker goroutine, after a binary message
// has been fully reassembled. isFinal is always true today; the parameter
// is kept for a future incremental-delivery mode that delivers fragments
// as they arrive instead of waiting for the whole message.
type OnBinaryFunc func(h *Handle, data []byte, isFinal bool)

// closeGracePeriod is the implicit close timeout: how long the worker
// waits after sending its close frame before forcing the socket shut.
const closeGracePeriod = 2 * time.Second

// tickInterval bounds the worker's cooperative sleep between ticks.
const tickInterval = 10 * time.Millisecond

// Handle is the public, thread-safe surface of a single WebSocket
// connection. The host configures it, calls Connect, sends and
// disconnects from any goroutine; a single background worker goroutine
// drives all I/O and invokes the registered callbacks.
type Handle struct {
	workMu sync.Mutex
	sendMu sync.Mutex

	params  connParams
	state   connState
	command command

	conn    net.Conn
	recvBuf recvBuffer
	sendQ   sendQueue
	reasm   reassembler

	lastErr     *Error
	secWSAccept string

	onConnected    OnConnectedFunc
	onDisconnected OnDisconnectedFunc
	onText         OnTextFunc
	onBinary       OnBinaryFunc
	userObject     interface{}

	connected     bool // mirrors state == stateOpen, guarded by sendMu
	workerStarted bool

	fragmentThreshold int
	closeDeadline     time.Time

	id     string
	logger wslog.Logger

	done chan struct{} // closed once the worker exits; nil until Connect
}

// Option configures a Handle at Create time.
type Option func(*Handle)

// WithLogger attaches a structured logger the worker uses to report state
// transitions, handshake failures, and protocol errors. The default Handle
// is silent (internal/wslog.NoOp).
func WithLogger(l wslog.Logger) Option {
	return func(h *Handle) { h.logger = l }
}

// WithFragmentThreshold overrides DefaultFragmentThreshold for payload
// splitting. Values below DefaultFragmentThreshold are ignored. It is read
// once at Create time; there is no configuration system to change it later.
func WithFragmentThreshold(n int) Option {
	return func(h *Handle) {
		if n >= DefaultFragmentThreshold {
			h.fragmentThreshold = n
		}
	}
}

// Create returns a new Handle in the idle state.
func Create(opts ...Option) *Handle {
	installSigpipeHandler()
	h := &Handle{
		state:             stateIdle,
		command:           commandNone,
		logger:            wslog.NoOp(),
		fragmentThreshold: DefaultFragmentThreshold,
		id:                newConnID(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// setterLocked runs fn under workMu and rejects the mutation silently once
// the handle has left the idle state.
func (h *Handle) setterLocked(fn func()) {
	h.workMu.Lock()
	defer h.workMu.Unlock()
	if h.state != stateIdle {
		return
	}
	fn()
}

// SetURL parses and stores scheme/host/port/path from a ws:// URL.
func (h *Handle) SetURL(raw string) {
	p, err := parseURL(raw)
	h.setterLocked(func() {
		if err != nil {
			return
		}
		h.params = p
	})
}

// SetScheme sets the connection scheme. Only "ws" is meaningful; TLS is
// out of scope for this library.
func (h *Handle) SetScheme(scheme string) {
	h.setterLocked(func() { h.params.scheme = scheme })
}

// SetHost sets the connection host.
func (h *Handle) SetHost(host string) {
	h.setterLocked(func() { h.params.host = host })
}

// SetPort sets the connection port.
func (h *Handle) SetPort(port int) {
	h.setterLocked(func() { h.params.port = port })
}

// SetPath sets the connection path; must begin with "/".
func (h *Handle) SetPath(path string) {
	h.setterLocked(func() { h.params.path = path })
}

// SetOnConnected registers the on_connected callback.
func (h *Handle) SetOnConnected(cb OnConnectedFunc) {
	h.setterLocked(func() { h.onConnected = cb })
}

// SetOnDisconnected registers the on-disconnected callback. This callback
// is mandatory: Connect fails with ErrMissedParameter if it is nil, since
// a connection with no way to report its outcome can't be debugged.
func (h *Handle) SetOnDisconnected(cb OnDisconnectedFunc) {
	h.setterLocked(func() { h.onDisconnected = cb })
}

// SetOnTextMessage registers the callback invoked after a text message
// has been fully reassembled.
func (h *Handle) SetOnTextMessage(cb OnTextFunc) {
	h.setterLocked(func() { h.onText = cb })
}

// SetOnBinaryMessage registers the callback invoked after a binary
// message has been fully reassembled.
func (h *Handle) SetOnBinaryMessage(cb OnBinaryFunc) {
	h.setterLocked(func() { h.onBinary = cb })
}

// SetUserObject stores a host-opaque pointer retrievable via UserObject.
func (h *Handle) SetUserObject(obj interface{}) {
	h.setterLocked(func() { h.userObject = obj })
}

// UserObject returns the host-opaque pointer set via SetUserObject.
func (h *Handle) UserObject() interface{} {
	h.workMu.Lock()
	defer h.workMu.Unlock()
	return h.userObject
}

// Connect validates the handle's configuration and, if valid, spawns the
// worker goroutine and transitions idle -> connecting. It returns
// ErrMissedParameter synchronously on invalid configuration and never
// blocks on network I/O.
func (h *Handle) Connect() error {
	h.workMu.Lock()
	if h.state != stateIdle {
		h.workMu.Unlock()
		return nil
	}
	if !h.params.valid() {
		err := newError(ErrMissedParameter, "host, path, scheme, or port missing or invalid")
		h.lastErr = err
		h.workMu.Unlock()
		return err
	}
	if h.onDisconnected == nil {
		err := newError(ErrMissedParameter, "no on_disconnected callback provided")
		h.lastErr = err
		h.workMu.Unlock()
		return err
	}
	h.lastErr = nil
	h.state = stateConnecting
	h.command = commandNone
	h.workerStarted = true
	h.done = make(chan struct{})
	h.workMu.Unlock()

	go h.run()
	return nil
}

// SendText enqueues a text message, splitting it into continuation frames
// above the fragment threshold. It returns true whenever the message was
// enqueued, which happens even before the connection is open; the worker
// discards anything still queued once it reaches closed.
func (h *Handle) SendText(data []byte) bool {
	for _, f := range encodeMessage(OpcodeText, data, h.fragmentThreshold) {
		h.sendQ.push(f)
	}
	return true
}

// SendBinary enqueues a binary message, splitting it the same way as
// SendText.
func (h *Handle) SendBinary(data []byte) bool {
	for _, f := range encodeMessage(OpcodeBinary, data, h.fragmentThreshold) {
		h.sendQ.push(f)
	}
	return true
}

// IsConnected reports whether the handle is currently in the open state,
// snapshotted under sendMu.
func (h *Handle) IsConnected() bool {
	h.sendMu.Lock()
	defer h.sendMu.Unlock()
	return h.connected
}

// LastError returns the most recently recorded error, if any.
func (h *Handle) LastError() *Error {
	h.workMu.Lock()
	defer h.workMu.Unlock()
	return h.lastErr
}

// DisconnectAndRelease is the sole cancellation primitive. It is
// non-blocking: it posts a command and returns immediately. If the handle
// never started a worker (still idle), it releases inline. If the worker
// is running, it posts commandDisconnect so an open connection gets a
// chance to close gracefully; the worker releases all resources and exits
// on its own as soon as the handle reaches closed (see worker.go's
// tickLoop). Hosts
// must not call this from within a callback: the worker goroutine that
// would run the disconnect is the same goroutine invoking the callback.
func (h *Handle) DisconnectAndRelease() {
	h.workMu.Lock()
	defer h.workMu.Unlock()

	h.sendQ.clear()

	if !h.workerStarted {
		h.state = stateClosed
		return
	}
	if h.state == stateClosed {
		h.command = commandEnd
		return
	}
	h.command = commandDisconnect
}

// ID returns the handle's log-correlation id.
func (h *Handle) ID() string {
	return h.id
}
