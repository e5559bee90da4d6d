package calculation

import "go.uber.org/zap"

// Logger is the narrow logging surface the calculation engine depends on.
// Kept as an interface (rather than a concrete *zap.Logger field) so
// tests can inject NopLogger without linking zap's config machinery.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger discards everything. It is the Engine's default so a caller
// that never wires a logger gets silent, correct behaviour.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Warnf(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}

// ZapLogger adapts a *zap.SugaredLogger to the Logger interface.
type ZapLogger struct {
	S *zap.SugaredLogger
}

func (z ZapLogger) Debugf(format string, args ...any) { z.S.Debugf(format, args...) }
func (z ZapLogger) Infof(format string, args ...any)  { z.S.Infof(format, args...) }
func (z ZapLogger) Warnf(format string, args ...any)  { z.S.Warnf(format, args...) }
func (z ZapLogger) Errorf(format string, args ...any) { z.S.Errorf(format, args...) }
