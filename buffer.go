package wsclient

import "bytes"

// recvBuffer is the worker-private, auto-growing byte buffer that holds
// unparsed bytes pulled from the socket. It is a thin wrapper over
// bytes.Buffer, which already provides the append / consume-prefix shape
// this concern needs.
type recvBuffer struct {
	buf bytes.Buffer
}

// append adds newly-read socket bytes to the buffer.
func (b *recvBuffer) append(p []byte) {
	b.buf.Write(p)
}

// bytes returns the unconsumed contents without copying.
func (b *recvBuffer) bytes() []byte {
	return b.buf.Bytes()
}

// len reports the number of unconsumed bytes.
func (b *recvBuffer) len() int {
	return b.buf.Len()
}

// consume drops the first n bytes, which the caller has already decoded.
func (b *recvBuffer) consume(n int) {
	b.buf.Next(n)
}
