package cli

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/toyz/axon-aot/internal/utils"
)

// NewDiagnostics picks the diagnostic level for the verbosity flags
func NewDiagnostics(verbose, quiet bool) *utils.DiagnosticSystem {
	switch {
	case quiet:
		return utils.NewQuietDiagnostics()
	case verbose:
		return utils.NewVerboseDiagnostics()
	default:
		return utils.NewDiagnosticSystem(utils.DiagnosticInfo)
	}
}

// NewLogger builds the compiler logger. Only verbose runs log; everything
// else a user needs goes through the diagnostic reporter.
func NewLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	config.DisableStacktrace = true
	return config.Build()
}
