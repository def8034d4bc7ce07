// Package wslog is the small structured-logging seam the worker uses to
// report state transitions, handshake failures, and protocol errors. It
// mirrors the shape of tokmz-qi/pkg/logger.Logger, trimmed of that
// package's HTTP-request/trace-context and sampling machinery, which a
// single outbound TCP connection has no use for.
package wslog

import "go.uber.org/zap"

// Logger is the interface the worker logs through. Hosts that want
// visibility into connection lifecycle events supply a *zap.Logger-backed
// implementation via wsclient.WithLogger; by default a Handle is silent.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
}

// New wraps an existing *zap.Logger as a Logger.
func New(z *zap.Logger) Logger {
	return &zapLogger{z: z}
}

type zapLogger struct {
	z *zap.Logger
}

func (l *zapLogger) Debug(msg string, fields ...zap.Field) { l.z.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...zap.Field)  { l.z.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...zap.Field)  { l.z.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...zap.Field) { l.z.Error(msg, fields...) }

// NoOp returns a Logger that discards everything, the default for a Handle
// created without wsclient.WithLogger.
func NoOp() Logger {
	return noOpLogger{}
}

type noOpLogger struct{}

func (noOpLogger) Debug(string, ...zap.Field) {}
func (noOpLogger) Info(string, ...zap.Field)  {}
func (noOpLogger) Warn(string, ...zap.Field)  {}
func (noOpLogger) Error(string, ...zap.Field) {}
