package wsclient

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// TestEncodeDecodeRoundTrip exercises DecodeNext against server-style
// (unmasked) frames across every length-encoding boundary: inline,
// 16-bit, and 64-bit.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	lengths := []int{0, 1, 125, 126, 127, 65535, 65536, 1 << 20}
	for _, n := range lengths {
		payload := make([]byte, n)
		for i := range payload {
			payload[i] = byte(i)
		}

		encoded := Encode(OpcodeBinary, payload, false)
		frame, consumed, err := DecodeNext(encoded)
		if err != nil {
			t.Fatalf("length %d: decode error: %v", n, err)
		}
		if frame == nil {
			t.Fatalf("length %d: expected a frame, got need-more-bytes", n)
		}
		if consumed != len(encoded) {
			t.Fatalf("length %d: consumed %d, want %d", n, consumed, len(encoded))
		}
		if !frame.Fin {
			t.Fatalf("length %d: expected fin=true", n)
		}
		if frame.Opcode != OpcodeBinary {
			t.Fatalf("length %d: opcode = %v, want OpcodeBinary", n, frame.Opcode)
		}
		if !bytes.Equal(frame.Payload, payload) {
			t.Fatalf("length %d: payload mismatch", n)
		}
	}
}

// TestMaskRoundTrip proves masking is lossless: masking then masking again
// with the same key recovers the original payload.
func TestMaskRoundTrip(t *testing.T) {
	key := [4]byte{0x12, 0x34, 0x56, 0x78}
	original := []byte("the quick brown fox jumps over the lazy dog")

	data := append([]byte(nil), original...)
	maskBytes(data, key[:])
	if bytes.Equal(data, original) {
		t.Fatal("masking should have changed the payload")
	}
	maskBytes(data, key[:])
	if !bytes.Equal(data, original) {
		t.Fatal("masking twice with the same key should recover the original payload")
	}
}

// TestEncodeProducesMaskedClientFrame confirms Encode always masks when
// asked, using a distinct key per call.
func TestEncodeProducesMaskedClientFrame(t *testing.T) {
	payload := []byte("client payload")
	a := Encode(OpcodeText, payload, true)
	b := Encode(OpcodeText, payload, true)
	if a[1]&flagMask == 0 || b[1]&flagMask == 0 {
		t.Fatal("expected the mask bit set on both frames")
	}
	if bytes.Equal(a, b) {
		t.Fatal("expected distinct masking keys across calls")
	}
}

func TestDecodeNextNeedsMoreBytes(t *testing.T) {
	encoded := Encode(OpcodeText, []byte("hello world"), false)
	for n := 0; n < len(encoded); n++ {
		frame, consumed, err := DecodeNext(encoded[:n])
		if err != nil {
			t.Fatalf("prefix %d: unexpected error: %v", n, err)
		}
		if frame != nil {
			t.Fatalf("prefix %d: expected need-more-bytes, got a frame", n)
		}
		if consumed != 0 {
			t.Fatalf("prefix %d: expected 0 consumed, got %d", n, consumed)
		}
	}
}

func TestDecodeRejectsMaskedServerFrame(t *testing.T) {
	encoded := Encode(OpcodeText, []byte("hi"), true)
	_, _, err := DecodeNext(encoded)
	if err == nil {
		t.Fatal("expected protocol error for a masked server-to-client frame")
	}
}

func TestDecodeRejectsInvalidOpcode(t *testing.T) {
	buf := []byte{0x80 | 0x03, 0x00}
	_, _, err := DecodeNext(buf)
	if err == nil {
		t.Fatal("expected protocol error for invalid opcode")
	}
}

func TestDecodeRejectsReservedBits(t *testing.T) {
	buf := []byte{0x80 | 0x40 | byte(OpcodeText), 0x00}
	_, _, err := DecodeNext(buf)
	if err == nil {
		t.Fatal("expected protocol error for RSV bits set")
	}
}

func TestDecodeRejectsFragmentedControlFrame(t *testing.T) {
	buf := []byte{byte(OpcodePing), 0x00} // fin=0
	_, _, err := DecodeNext(buf)
	if err == nil {
		t.Fatal("expected protocol error for fragmented control frame")
	}
}

func TestDecodeRejectsOversizedControlFrame(t *testing.T) {
	payload := make([]byte, 126)
	buf := append([]byte{0x80 | byte(OpcodePing), 126, 0x00, 126}, payload...)
	_, _, err := DecodeNext(buf)
	if err == nil {
		t.Fatal("expected protocol error for control frame payload > 125 bytes")
	}
}

func TestCloseFramePayloadBoundaries(t *testing.T) {
	cases := []struct {
		name    string
		payload []byte
		wantErr bool
	}{
		{"no payload", nil, false},
		{"status only", mustCloseCode(1000), false},
		{"status and reason", append(mustCloseCode(1000), []byte("bye")...), false},
		{"length one", []byte{0x01}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := encodeRawClose(tc.payload)
			frame, _, err := DecodeNext(buf)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tc.payload) >= 2 {
				if frame.CloseCode == nil || *frame.CloseCode != 1000 {
					t.Fatalf("expected close code 1000, got %v", frame.CloseCode)
				}
			}
		})
	}
}

func mustCloseCode(code uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, code)
	return b
}

func encodeRawClose(payload []byte) []byte {
	out := []byte{0x80 | byte(OpcodeClose), byte(len(payload))}
	return append(out, payload...)
}
