// Package obslog wires the structured zap logger used across the CLI,
// server, and calculation engine. The core never logs directly — it takes
// a calculation.Logger (see internal/calculation/logger.go) so tests can
// pass calculation.NopLogger instead of building a zap logger.
package obslog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap.Logger. In "json" mode it emits structured JSON
// (suited to the server and --json CLI mode); otherwise it uses a
// human-readable console encoder.
func New(debug bool, jsonOutput bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if !jsonOutput {
		cfg = zap.NewDevelopmentConfig()
	}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// Nop returns a logger that discards everything, for tests and library
// callers that don't want TaxGlide's logs.
func Nop() *zap.Logger { return zap.NewNop() }

// MustNew builds a logger or exits the process — used only at process
// entry points (cmd/...), never inside the core.
func MustNew(debug bool, jsonOutput bool) *zap.Logger {
	l, err := New(debug, jsonOutput)
	if err != nil {
		os.Stderr.WriteString("obslog: failed to initialise logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	return l
}
