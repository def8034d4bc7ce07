//go:build windows

// Windows has no SIGPIPE; write failures on a reset connection already
// surface through the normal net.Conn error return.

package wsclient

func installSigpipeHandler() {}
