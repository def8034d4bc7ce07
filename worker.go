package wsclient

import (
	"encoding/binary"
	"net"
	"time"

	"go.uber.org/zap"
)

// readChunkSize bounds a single non-blocking socket read.
const readChunkSize = 64 * 1024

// maxFramesPerTick bounds how many queued outbound frames a single tick
// drains, so one very full queue can't starve reads on the same tick.
const maxFramesPerTick = 64

// run is the worker goroutine's entry point: resolve host, connect, run
// the handshake, then the open/closing tick loop, invoking callbacks
// along the way. Exactly one run() executes per Handle.
func (h *Handle) run() {
	defer close(h.done)

	if h.dialAborted() {
		h.finalizeClosed(nil)
		return
	}

	conn, err := net.Dial("tcp", h.params.addr())
	if err != nil {
		h.logger.Warn("tcp dial failed", zap.String("conn", h.id), zap.Error(err))
		h.failClosed(wrapError(ErrConnect, "tcp dial failed", err))
		return
	}
	h.conn = conn

	h.workMu.Lock()
	h.state = stateHandshaking
	h.workMu.Unlock()

	if !h.performHandshake() {
		return
	}

	h.workMu.Lock()
	h.state = stateOpen
	h.workMu.Unlock()
	h.sendMu.Lock()
	h.connected = true
	h.sendMu.Unlock()

	h.logger.Info("connected", zap.String("conn", h.id))
	if h.onConnected != nil {
		h.onConnected(h)
	}

	h.tickLoop()
}

// dialAborted reports whether a disconnect/end command arrived before the
// dial even started (e.g. DisconnectAndRelease raced Connect).
func (h *Handle) dialAborted() bool {
	h.workMu.Lock()
	defer h.workMu.Unlock()
	return h.command == commandDisconnect || h.command == commandEnd
}

// snapshotCommand reads the current command/state pair under workMu.
func (h *Handle) snapshotCommand() (command, connState) {
	h.workMu.Lock()
	defer h.workMu.Unlock()
	return h.command, h.state
}

// performHandshake builds and sends the upgrade request, then polls the
// socket until the response header block is complete or a stop is
// requested. Returns false if the connection reached closed (and
// on_disconnected has already fired).
func (h *Handle) performHandshake() bool {
	req, key := buildRequest(h.params)
	h.secWSAccept = computeAccept(key)

	if _, err := h.conn.Write(req); err != nil {
		h.failClosed(wrapError(ErrReadWriteSocket, "failed to write handshake request", err))
		return false
	}

	for {
		if cmd, _ := h.snapshotCommand(); cmd == commandDisconnect || cmd == commandEnd {
			h.failClosed(newError(ErrConnect, "disconnected before handshake completed"))
			return false
		}

		data, err := h.readSome()
		if err != nil {
			h.failClosed(wrapError(ErrReadWriteSocket, "socket read failed during handshake", err))
			return false
		}
		if len(data) > 0 {
			h.recvBuf.append(data)
		}

		resp, consumed, err := parseResponse(h.recvBuf.bytes())
		if err != nil {
			h.logger.Warn("handshake parse failed", zap.String("conn", h.id), zap.Error(err))
			h.failClosed(err.(*Error))
			return false
		}
		if resp == nil {
			time.Sleep(tickInterval)
			continue
		}
		h.recvBuf.consume(consumed)

		if verr := resp.validate(h.secWSAccept); verr != nil {
			h.logger.Warn("handshake rejected", zap.String("conn", h.id), zap.Int("status", verr.HTTPStatus))
			h.failClosed(verr)
			return false
		}
		return true
	}
}

// readSome performs one non-blocking-ish socket read bounded by
// tickInterval. It returns (nil, nil) on a read timeout (no data
// currently available) and (nil, err) on a real I/O error.
func (h *Handle) readSome() ([]byte, error) {
	_ = h.conn.SetReadDeadline(time.Now().Add(tickInterval))
	buf := make([]byte, readChunkSize)
	n, err := h.conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, nil
		}
		return nil, err
	}
	return buf[:n], nil
}

// tickLoop runs the open/closing phase of the connection until the handle
// reaches closed, then releases resources.
func (h *Handle) tickLoop() {
	for {
		cmd, state := h.snapshotCommand()

		if state == stateOpen && cmd == commandDisconnect {
			h.sendQ.push(Encode(OpcodeClose, encodeCloseCode(1000, ""), true))
			h.beginClosing()
			continue
		}

		switch state {
		case stateOpen:
			if !h.drainSendQueue() {
				return
			}
			if !h.pumpOpenReads() {
				return
			}
		case stateClosing:
			if !h.drainSendQueue() {
				return
			}
			if h.closingDone() {
				return
			}
		default:
			time.Sleep(tickInterval)
		}
	}
}

// beginClosing transitions open -> closing and starts the close grace
// period: the implicit ~2s timeout before the socket is forced shut.
func (h *Handle) beginClosing() {
	h.workMu.Lock()
	h.state = stateClosing
	h.workMu.Unlock()
	h.sendMu.Lock()
	h.connected = false
	h.sendMu.Unlock()
	h.closeDeadline = time.Now().Add(closeGracePeriod)
}

// drainSendQueue writes up to maxFramesPerTick queued frames to the
// socket. It returns false if a write failure forced the connection
// closed.
func (h *Handle) drainSendQueue() bool {
	for i := 0; i < maxFramesPerTick; i++ {
		frame, ok := h.sendQ.popFront()
		if !ok {
			return true
		}
		_ = h.conn.SetWriteDeadline(time.Now().Add(tickInterval))
		if _, err := h.conn.Write(frame); err != nil {
			h.logger.Warn("socket write failed", zap.String("conn", h.id), zap.Error(err))
			h.failClosed(wrapError(ErrReadWriteSocket, "socket write failed", err))
			return false
		}
	}
	return true
}

// pumpOpenReads reads available bytes, decodes as many frames as the
// buffer holds, and dispatches each one. Returns false if the connection
// was forced closed (I/O error or protocol violation).
func (h *Handle) pumpOpenReads() bool {
	data, err := h.readSome()
	if err != nil {
		h.logger.Warn("socket read failed", zap.String("conn", h.id), zap.Error(err))
		h.failClosed(wrapError(ErrReadWriteSocket, "socket read failed", err))
		return false
	}
	if len(data) > 0 {
		h.recvBuf.append(data)
	}

	for {
		frame, n, err := DecodeNext(h.recvBuf.bytes())
		if err != nil {
			h.logger.Warn("protocol error", zap.String("conn", h.id), zap.Error(err))
			h.failClosed(err.(*Error))
			return false
		}
		if frame == nil {
			return true
		}
		h.recvBuf.consume(n)
		if !h.dispatchFrame(frame) {
			return false
		}
	}
}

// dispatchFrame handles one decoded frame: control frames are acted on
// immediately, data frames feed the reassembler. Returns false if
// dispatch forced the connection closed.
func (h *Handle) dispatchFrame(frame *Frame) bool {
	switch frame.Opcode {
	case OpcodePing:
		h.sendQ.push(Encode(OpcodePong, frame.Payload, true))
		return true
	case OpcodePong:
		return true
	case OpcodeClose:
		code := uint16(1000)
		if frame.CloseCode != nil {
			code = *frame.CloseCode
		}
		h.sendQ.push(Encode(OpcodeClose, encodeCloseCode(code, ""), true))
		h.beginClosing()
		return true
	default:
		opcode, payload, complete, err := h.reasm.addFrame(frame)
		if err != nil {
			h.logger.Warn("protocol error", zap.String("conn", h.id), zap.Error(err))
			h.failClosed(err.(*Error))
			return false
		}
		if !complete {
			return true
		}
		switch opcode {
		case OpcodeText:
			if h.onText != nil {
				h.onText(h, payload)
			}
		case OpcodeBinary:
			if h.onBinary != nil {
				h.onBinary(h, payload, true)
			}
		}
		return true
	}
}

// closingDone reports whether the closing phase is over: either a peer
// close frame or FIN was observed, or the grace period elapsed. It forces
// the socket shut and finalizes to closed when true.
func (h *Handle) closingDone() bool {
	if time.Now().Before(h.closeDeadline) {
		data, err := h.readSome()
		if err != nil {
			h.finalizeClosed(nil)
			return true
		}
		if len(data) > 0 {
			h.recvBuf.append(data)
			for {
				frame, n, err := DecodeNext(h.recvBuf.bytes())
				if err != nil || frame == nil {
					break
				}
				h.recvBuf.consume(n)
				if frame.Opcode == OpcodeClose {
					h.finalizeClosed(nil)
					return true
				}
			}
		}
		return false
	}
	h.finalizeClosed(nil)
	return true
}

// encodeCloseCode builds a close-frame payload: a 16-bit big-endian status
// code followed by an optional UTF-8 reason, per RFC 6455 §5.5.1.
func encodeCloseCode(code uint16, reason string) []byte {
	payload := make([]byte, 2+len(reason))
	binary.BigEndian.PutUint16(payload[:2], code)
	copy(payload[2:], reason)
	return payload
}

// failClosed records e as the last error, tears the socket down, and
// transitions straight to closed, then invokes OnDisconnected exactly
// once. Used for every error path reached before or during the open
// phase.
func (h *Handle) failClosed(e *Error) {
	h.workMu.Lock()
	h.lastErr = e
	h.state = stateClosed
	h.workMu.Unlock()

	h.sendMu.Lock()
	h.connected = false
	h.sendMu.Unlock()

	if h.conn != nil {
		_ = h.conn.Close()
	}
	h.sendQ.clear()

	if h.onDisconnected != nil {
		h.onDisconnected(h)
	}
}

// finalizeClosed completes an orderly close (no error, or the supplied
// one): tears the socket down, transitions to closed, and invokes
// OnDisconnected once.
func (h *Handle) finalizeClosed(e *Error) {
	h.workMu.Lock()
	h.lastErr = e
	h.state = stateClosed
	h.workMu.Unlock()

	h.sendMu.Lock()
	h.connected = false
	h.sendMu.Unlock()

	if h.conn != nil {
		_ = h.conn.Close()
	}
	h.sendQ.clear()

	h.logger.Debug("disconnected", zap.String("conn", h.id))
	if h.onDisconnected != nil {
		h.onDisconnected(h)
	}
}
