package wsclient

import (
	"crypto/rand"
	"encoding/hex"
)

// newConnID returns a short random hex id used only to correlate a
// Handle's log lines.
func newConnID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
