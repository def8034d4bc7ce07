package wsclient

import (
	"net/url"
	"strconv"
)

// connParams are the parsed connection parameters a Handle needs before it
// may connect: scheme, host, port, and path.
type connParams struct {
	scheme string
	host   string
	port   int
	path   string
}

// parseURL parses a ws:// URL into connParams. Only the ws scheme is
// accepted; wss:// is rejected with ErrTLSNotSupported since TLS is out of
// scope for this library.
func parseURL(raw string) (connParams, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return connParams{}, wrapError(ErrMissedParameter, "invalid url", err)
	}
	if u.Scheme == "wss" {
		return connParams{}, newError(ErrTLSNotSupported, "wss:// is not supported")
	}
	if u.Scheme != "ws" {
		return connParams{}, newError(ErrMissedParameter, "scheme must be ws")
	}
	host := u.Hostname()
	if host == "" {
		return connParams{}, newError(ErrMissedParameter, "host is required")
	}
	port := 80
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return connParams{}, newError(ErrMissedParameter, "port out of range")
		}
		port = n
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	if path[0] != '/' {
		return connParams{}, newError(ErrMissedParameter, "path must begin with /")
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return connParams{scheme: "ws", host: host, port: port, path: path}, nil
}

// valid reports whether every required component of connParams is
// present: non-empty host and path, and a port in [1, 65535].
func (p connParams) valid() bool {
	return p.scheme == "ws" && p.host != "" && p.port >= 1 && p.port <= 65535 && p.path != "" && p.path[0] == '/'
}

// hostHeader formats the Host header value, omitting the port when it
// equals the scheme default.
func (p connParams) hostHeader() string {
	if p.port == 80 {
		return p.host
	}
	return p.host + ":" + strconv.Itoa(p.port)
}

// origin formats the Origin header value.
func (p connParams) origin() string {
	return p.scheme + "://" + p.hostHeader()
}

// addr formats the dial address for net.Dial.
func (p connParams) addr() string {
	return p.host + ":" + strconv.Itoa(p.port)
}
