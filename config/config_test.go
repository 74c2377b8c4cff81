package config

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/unival/unival"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "compact", c.Mode)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, 4, c.Workers)
	assert.True(t, c.CRC)
	assert.Equal(t, "none", c.Compress)
	assert.Equal(t, unival.Compact, c.OutputMode())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("UNIVAL_MODE", "json-pretty")
	t.Setenv("UNIVAL_WORKERS", "9")
	t.Setenv("UNIVAL_CRC", "false")
	t.Setenv("UNIVAL_COMPRESS", "zstd")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, unival.JSONPretty, c.OutputMode())
	assert.Equal(t, 9, c.Workers)
	assert.False(t, c.CRC)
	assert.Equal(t, "zstd", c.Compress)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct{ key, value string }{
		{"UNIVAL_MODE", "xml"},
		{"UNIVAL_WORKERS", "0"},
		{"UNIVAL_WORKERS", "many"},
		{"UNIVAL_COMPRESS", "lz4"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestPrintEnv(t *testing.T) {
	c := &C{Mode: "pretty", LogLevel: "debug", Workers: 2, CRC: true, Compress: "gzip"}
	var buf bytes.Buffer
	c.PrintEnv(&buf)
	assert.Equal(t, `#!/usr/bin/env bash
export UNIVAL_COMPRESS=gzip
export UNIVAL_CRC=true
export UNIVAL_LOG_LEVEL=debug
export UNIVAL_MODE=pretty
export UNIVAL_WORKERS=2
`, buf.String())
}

func TestUsage(t *testing.T) {
	var buf bytes.Buffer
	(&C{}).Usage(&buf)
	assert.Contains(t, buf.String(), "UNIVAL_WORKERS")
	assert.Contains(t, buf.String(), "UNIVAL_MODE")
}
