package wsclient

import "testing"

func TestParseURLDefaults(t *testing.T) {
	p, err := parseURL("ws://example.com/chat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.scheme != "ws" || p.host != "example.com" || p.port != 80 || p.path != "/chat" {
		t.Fatalf("unexpected parse result: %+v", p)
	}
}

func TestParseURLExplicitPort(t *testing.T) {
	p, err := parseURL("ws://example.com:9001/socket")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.port != 9001 {
		t.Fatalf("port = %d, want 9001", p.port)
	}
}

func TestParseURLDefaultPath(t *testing.T) {
	p, err := parseURL("ws://example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.path != "/" {
		t.Fatalf("path = %q, want /", p.path)
	}
}

func TestParseURLRejectsWSS(t *testing.T) {
	_, err := parseURL("wss://example.com/chat")
	if err == nil {
		t.Fatal("expected an error for wss://")
	}
	var wsErr *Error
	if e, ok := err.(*Error); ok {
		wsErr = e
	}
	if wsErr == nil || wsErr.Kind != ErrTLSNotSupported {
		t.Fatalf("expected ErrTLSNotSupported, got %v", err)
	}
}

func TestParseURLRejectsMissingHost(t *testing.T) {
	_, err := parseURL("ws:///chat")
	if err == nil {
		t.Fatal("expected an error for a missing host")
	}
}

func TestConnParamsValid(t *testing.T) {
	valid := connParams{scheme: "ws", host: "h", port: 1, path: "/"}
	if !valid.valid() {
		t.Fatal("expected valid params to report valid")
	}
	invalid := connParams{scheme: "ws", host: "", port: 1, path: "/"}
	if invalid.valid() {
		t.Fatal("expected missing host to report invalid")
	}
}
