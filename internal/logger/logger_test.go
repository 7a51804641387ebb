package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestDefaultLoggerIsNop(t *testing.T) {
	assert.NotNil(t, Logger)
	assert.NotPanics(t, func() {
		Debugw("ignored", "key", 1)
		Warnw("ignored")
	})
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		verbose    bool
		jsonOutput bool
		debug      bool
	}{
		{name: "Console quiet", verbose: false, jsonOutput: false, debug: false},
		{name: "Console verbose", verbose: true, jsonOutput: false, debug: true},
		{name: "JSON verbose", verbose: true, jsonOutput: true, debug: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := Logger
			defer func() { Logger = prev; JSONOutput = false }()

			require.NoError(t, Initialize(tt.verbose, tt.jsonOutput))
			assert.Equal(t, tt.jsonOutput, JSONOutput)
			assert.Equal(t, tt.debug, Logger.Desugar().Core().Enabled(zapcore.DebugLevel))
			assert.True(t, Logger.Desugar().Core().Enabled(zap.WarnLevel))
		})
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	prev := Logger
	defer func() { Logger = prev }()
	Logger = nil
	assert.NotPanics(t, func() {
		Debugw("x")
		Infow("x")
		Errorw("x")
		Cleanup()
	})
}
