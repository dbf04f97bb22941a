// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package commons

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewApplicationLogger_WritesToFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewApplicationLogger(Name("unit"), Path(dir), Level("debug"))
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, logger.Level())

	logger.Infof("recording started for question %s", "42")
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(filepath.Join(dir, "unit.log"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), "recording started for question 42"))
}

func TestNewApplicationLogger_InvalidLevel(t *testing.T) {
	_, err := NewApplicationLogger(Path(t.TempDir()), Level("loud"))
	assert.Error(t, err)
}

func TestNewNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Info("dropped")
	assert.Equal(t, zapcore.FatalLevel, logger.Level())
}
